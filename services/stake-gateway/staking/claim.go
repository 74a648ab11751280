package staking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"boopstake/native/rewards"
	"boopstake/observability"
	"boopstake/services/stake-gateway/models"
)

// ClaimReceipt summarises a successful reward claim.
type ClaimReceipt struct {
	Gross               float64 `json:"gross"`
	Fee                 float64 `json:"fee"`
	Net                 float64 `json:"net"`
	NewXP               int64   `json:"newXp"`
	NewLevel            int     `json:"newLevel"`
	NewStreak           int     `json:"newStreak"`
	WithdrawableBalance float64 `json:"withdrawableBalance"`
}

// Claim converts every position's accrued reward into withdrawable balance,
// net of the claim fee, and advances the gamification state. The whole claim
// is one transaction under the user's row lock: the fee, the balance credit,
// the XP grant, the streak update, and every position reset commit together
// or not at all.
func (s *Service) Claim(ctx context.Context, handle string) (ClaimReceipt, error) {
	var receipt ClaimReceipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, handle)
		if err != nil {
			return err
		}
		now := s.Now()

		if user.LastClaimAt != nil {
			eligible := user.LastClaimAt.Add(s.params.ClaimCooldown)
			if now.Before(eligible) {
				return errTooEarly(eligible.Sub(now))
			}
		}

		state, err := s.accountState(tx, user, now)
		if err != nil {
			return err
		}
		apr := rewards.ComposeAPR(state, s.params)

		var positions []models.StakePosition
		if err := tx.Where("user_id = ? AND status <> ?", user.ID, models.StatusWithdrawn).
			Find(&positions).Error; err != nil {
			return err
		}

		// Active positions earn up to the claim instant; frozen ones
		// contribute only the reward snapshotted when they froze.
		var gross float64
		for _, pos := range positions {
			gross += pos.UnclaimedReward
			if EffectiveStatus(pos, now) == models.StatusActive {
				gross += rewards.AccrueDelta(pos.Principal, apr.Total, pos.LastAccrualAt, now)
			}
		}
		if gross < 0 {
			gross = 0
		}
		fee := gross * s.params.ClaimFeeRate
		net := gross - fee

		if len(positions) > 0 {
			if err := tx.Model(&models.StakePosition{}).
				Where("user_id = ? AND status <> ?", user.ID, models.StatusWithdrawn).
				Updates(map[string]any{
					"unclaimed_reward": 0,
					"last_accrual_at":  now,
				}).Error; err != nil {
				return err
			}
		}

		newStreak := rewards.NextStreak(user.DailyStreak, user.LastClaimAt, now, s.params)
		newXP := user.XP + s.params.ClaimXP
		newLevel := rewards.LevelForXP(newXP, s.params)
		if newLevel < user.Level {
			newLevel = user.Level
		}
		newBalance := user.WithdrawableBalance + net

		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Updates(map[string]any{
				"xp":                   newXP,
				"level":                newLevel,
				"daily_streak":         newStreak,
				"withdrawable_balance": newBalance,
				"last_claim_at":        now,
			}).Error; err != nil {
			return err
		}

		// The XP log feeds the monthly leaderboard; it commits with the
		// claim or not at all.
		xpLog := models.XPLog{ID: uuid.New(), UserID: user.ID, Amount: s.params.ClaimXP, CreatedAt: now}
		if err := tx.Create(&xpLog).Error; err != nil {
			return err
		}

		receipt = ClaimReceipt{
			Gross:               gross,
			Fee:                 fee,
			Net:                 net,
			NewXP:               newXP,
			NewLevel:            newLevel,
			NewStreak:           newStreak,
			WithdrawableBalance: newBalance,
		}
		return nil
	})
	if err != nil {
		return ClaimReceipt{}, err
	}
	m := observability.Staking()
	m.Claims.Inc()
	m.ClaimedGross.Add(receipt.Gross)
	m.ClaimFees.Add(receipt.Fee)
	s.log.Info("rewards claimed", "user", handle, "gross", receipt.Gross, "net", receipt.Net, "streak", receipt.NewStreak)
	return receipt, nil
}

// RewardWithdrawal is the receipt for moving claimed balance out to
// settlement.
type RewardWithdrawal struct {
	Gross float64 `json:"gross"`
	Fee   float64 `json:"fee"`
	Net   float64 `json:"net"`
}

// WithdrawRewards zeroes the withdrawable balance and hands the amount to
// external settlement. The protocol fee on rewards is charged exactly once,
// at claim time, so no further fee applies here.
func (s *Service) WithdrawRewards(ctx context.Context, handle string) (RewardWithdrawal, error) {
	var receipt RewardWithdrawal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, handle)
		if err != nil {
			return err
		}
		if user.WithdrawableBalance <= 0 {
			return errValidation("nothing to withdraw")
		}
		gross := user.WithdrawableBalance
		receipt = RewardWithdrawal{Gross: gross, Fee: 0, Net: gross}

		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("withdrawable_balance", float64(0)).Error
	})
	if err != nil {
		return RewardWithdrawal{}, err
	}
	observability.Staking().RewardWithdrawals.Inc()
	s.log.Info("reward balance withdrawn", "user", handle, "amount", receipt.Net)
	return receipt, nil
}
