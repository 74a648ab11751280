package staking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"boopstake/services/stake-gateway/models"
)

// ActivateBoost opens a boost window for the user. Windows may not overlap:
// a purchase while one is already in effect is rejected rather than stacked
// or queued.
func (s *Service) ActivateBoost(ctx context.Context, handle string, kind models.BoostKind) (models.Boost, error) {
	duration, ok := models.BoostDurations[kind]
	if !ok {
		return models.Boost{}, errValidation("unknown boost kind %q", kind)
	}
	var boost models.Boost
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, handle)
		if err != nil {
			return err
		}
		now := s.Now()

		var active int64
		if err := tx.Model(&models.Boost{}).
			Where("user_id = ? AND starts_at <= ? AND ends_at >= ?", user.ID, now, now).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return errInvalidState("a boost is already active")
		}

		boost = models.Boost{
			ID:       uuid.New(),
			UserID:   user.ID,
			Kind:     kind,
			StartsAt: now,
			EndsAt:   now.Add(duration),
		}
		return tx.Create(&boost).Error
	})
	if err != nil {
		return models.Boost{}, err
	}
	s.log.Info("boost activated", "user", handle, "kind", kind, "ends_at", boost.EndsAt)
	return boost, nil
}

// GrantNft records an NFT holding for the user. Eligibility requires the
// aggregate active principal to meet the NFT stake floor, and a user holds
// at most one active NFT at a time.
func (s *Service) GrantNft(ctx context.Context, handle, tokenRef string) (models.NftHolding, error) {
	if tokenRef == "" {
		return models.NftHolding{}, errValidation("token reference is required")
	}
	var holding models.NftHolding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.lockUser(tx, handle)
		if err != nil {
			return err
		}
		now := s.Now()

		var staked float64
		if err := tx.Model(&models.StakePosition{}).
			Where("user_id = ? AND status = ?", user.ID, models.StatusActive).
			Select("COALESCE(SUM(principal), 0)").
			Scan(&staked).Error; err != nil {
			return err
		}
		if staked < s.params.NftMinStake {
			return errInsufficientStake("nft eligibility requires %.0f staked, have %.0f", s.params.NftMinStake, staked)
		}

		var active int64
		if err := tx.Model(&models.NftHolding{}).
			Where("user_id = ? AND active = ?", user.ID, true).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return errInvalidState("user already holds an active nft")
		}

		holding = models.NftHolding{
			ID:        uuid.New(),
			UserID:    user.ID,
			TokenRef:  tokenRef,
			Active:    true,
			GrantedAt: now,
		}
		return tx.Create(&holding).Error
	})
	if err != nil {
		return models.NftHolding{}, err
	}
	s.log.Info("nft granted", "user", handle, "token", tokenRef)
	return holding, nil
}
