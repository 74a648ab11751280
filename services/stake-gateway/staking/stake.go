package staking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"boopstake/native/rewards"
	"boopstake/observability"
	"boopstake/services/stake-gateway/models"
)

// CreateStake opens a new active position for the given principal.
func (s *Service) CreateStake(ctx context.Context, handle string, amount float64) (models.StakePosition, error) {
	if amount < s.params.MinStake {
		return models.StakePosition{}, errInsufficientStake("minimum stake is %.0f", s.params.MinStake)
	}

	var pos models.StakePosition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, handle)
		if err != nil {
			return err
		}
		now := s.Now()
		pos = models.StakePosition{
			ID:              uuid.New(),
			UserID:          user.ID,
			Principal:       amount,
			Status:          models.StatusActive,
			BaseAPRSnapshot: rewards.BaseAPR(amount, s.params),
			StartedAt:       now,
			LastAccrualAt:   now,
			UnclaimedReward: 0,
		}
		return tx.Create(&pos).Error
	})
	if err != nil {
		return models.StakePosition{}, err
	}
	observability.Staking().StakesCreated.Inc()
	s.log.Info("stake created", "user", handle, "stake", pos.ID, "principal", amount)
	return pos, nil
}

// RequestUnstake freezes an active position: one final accrual pass runs to
// now so no yield is lost at the transition instant, the result is
// snapshotted into UnclaimedReward, and the unlock timer starts.
func (s *Service) RequestUnstake(ctx context.Context, handle string, stakeID uuid.UUID) (models.StakePosition, error) {
	var pos models.StakePosition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, handle)
		if err != nil {
			return err
		}
		if err := tx.First(&pos, "id = ? AND user_id = ?", stakeID, user.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("stake position")
			}
			return err
		}
		now := s.Now()
		if err := ValidateTransition(EffectiveStatus(pos, now), models.StatusPendingUnstake); err != nil {
			return err
		}

		// The snapshot is taken at the APR in force before the position
		// leaves the active set.
		state, err := s.accountState(tx, user, now)
		if err != nil {
			return err
		}
		apr := rewards.ComposeAPR(state, s.params)
		delta := rewards.AccrueDelta(pos.Principal, apr.Total, pos.LastAccrualAt, now)

		unlockAt := now.Add(s.params.UnlockPeriod)
		pos.Status = models.StatusPendingUnstake
		pos.UnlockAt = &unlockAt
		pos.UnclaimedReward += delta
		pos.LastAccrualAt = now
		return tx.Save(&pos).Error
	})
	if err != nil {
		return models.StakePosition{}, err
	}
	observability.Staking().UnstakeRequests.Inc()
	s.log.Info("unstake requested", "user", handle, "stake", pos.ID, "unlock_at", pos.UnlockAt)
	return pos, nil
}

// StakeWithdrawal is the receipt for a principal withdrawal.
type StakeWithdrawal struct {
	Amount float64 `json:"amount"`
	Fee    float64 `json:"fee"`
	Net    float64 `json:"net"`
}

// WithdrawStake releases the principal of an unlocked position, net of the
// withdrawal fee, and retires the position. The unlock deadline is re-checked
// against the clock even when the stored status already says unlocked.
func (s *Service) WithdrawStake(ctx context.Context, handle string, stakeID uuid.UUID) (StakeWithdrawal, error) {
	var receipt StakeWithdrawal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, handle)
		if err != nil {
			return err
		}
		var pos models.StakePosition
		if err := tx.First(&pos, "id = ? AND user_id = ?", stakeID, user.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("stake position")
			}
			return err
		}
		now := s.Now()
		switch pos.Status {
		case models.StatusWithdrawn:
			return errAlreadyWithdrawn()
		case models.StatusActive:
			return errInvalidState("stake must be unstaked before withdrawal")
		case models.StatusPendingUnstake:
			if pos.UnlockAt == nil || now.Before(*pos.UnlockAt) {
				return s.stillLocked(pos)
			}
			// Materialise the time-gated transition before retiring.
			if err := ValidateTransition(pos.Status, models.StatusUnlocked); err != nil {
				return err
			}
			pos.Status = models.StatusUnlocked
		}
		if pos.UnlockAt == nil || now.Before(*pos.UnlockAt) {
			return s.stillLocked(pos)
		}
		if err := ValidateTransition(pos.Status, models.StatusWithdrawn); err != nil {
			return err
		}

		amount := pos.Principal
		fee := amount * s.params.WithdrawFeeRate
		receipt = StakeWithdrawal{Amount: amount, Fee: fee, Net: amount - fee}

		pos.Status = models.StatusWithdrawn
		pos.Principal = 0
		pos.UnclaimedReward = 0
		pos.LastAccrualAt = now
		return tx.Save(&pos).Error
	})
	if err != nil {
		return StakeWithdrawal{}, err
	}
	observability.Staking().StakeWithdrawals.Inc()
	s.log.Info("stake withdrawn", "user", handle, "stake", stakeID, "amount", receipt.Amount, "fee", receipt.Fee)
	return receipt, nil
}

func (s *Service) stillLocked(pos models.StakePosition) *Error {
	if pos.UnlockAt != nil {
		return errStillLocked(*pos.UnlockAt)
	}
	return errStillLocked(time.Time{})
}
