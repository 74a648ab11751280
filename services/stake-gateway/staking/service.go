// Package staking implements the stake position lifecycle and the
// claim/withdraw processor on top of the row store. All mutating operations
// run as a single transaction with the owning user's row locked FOR UPDATE,
// which serialises concurrent mutations per user; the reward math itself
// lives in native/rewards and is pure.
package staking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"boopstake/native/rewards"
	"boopstake/services/stake-gateway/models"
)

// Service owns the staking, reward, and gamification state transitions for
// one underlying store.
type Service struct {
	db     *gorm.DB
	params rewards.Params
	log    *slog.Logger

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// Config collects the dependencies required to construct a Service.
type Config struct {
	DB     *gorm.DB
	Params rewards.Params
	Log    *slog.Logger
}

// New constructs a Service. Params are validated once here so every later
// computation can trust them.
func New(cfg Config) (*Service, error) {
	if cfg.DB == nil {
		return nil, errors.New("staking: db is required")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:     cfg.DB,
		params: cfg.Params,
		log:    log,
		Now:    time.Now,
	}, nil
}

// Params exposes the reward parameters the service was built with.
func (s *Service) Params() rewards.Params { return s.params }

// EnsureUser returns the user row for the authenticated handle, creating it
// on first contact. Identity resolution itself happens upstream; by the time
// a handle reaches the engine it is trusted.
func (s *Service) EnsureUser(ctx context.Context, handle string) (models.User, error) {
	if handle == "" {
		return models.User{}, errValidation("handle is required")
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("handle = ?", handle).
		Attrs(models.User{ID: uuid.New(), Handle: handle}).
		FirstOrCreate(&user).Error
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// StatusView is the read model returned by Status.
type StatusView struct {
	TotalApr            float64           `json:"totalApr"`
	Components          rewards.Breakdown `json:"components"`
	TotalStaked         float64           `json:"totalStaked"`
	TotalUnclaimed      float64           `json:"totalUnclaimed"`
	CanClaim            bool              `json:"canClaim"`
	NextClaimInSeconds  int64             `json:"nextClaimInSeconds"`
	WithdrawableBalance float64           `json:"withdrawableBalance"`
	XP                  int64             `json:"xp"`
	Level               int               `json:"level"`
	DailyStreak         int               `json:"dailyStreak"`
	Score               int64             `json:"score"`
}

// Status assembles the live view of a user's yield position. It is a pure
// read: no checkpoint moves and nothing is persisted, so a status call can
// never change what a later claim pays out.
func (s *Service) Status(ctx context.Context, handle string) (StatusView, error) {
	user, err := s.findUser(ctx, handle)
	if err != nil {
		return StatusView{}, err
	}
	now := s.Now()

	state, err := s.accountState(s.db.WithContext(ctx), user, now)
	if err != nil {
		return StatusView{}, err
	}
	apr := rewards.ComposeAPR(state, s.params)

	var positions []models.StakePosition
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", user.ID, models.StatusWithdrawn).
		Find(&positions).Error; err != nil {
		return StatusView{}, err
	}
	var unclaimed float64
	for _, pos := range positions {
		unclaimed += pos.UnclaimedReward
		if EffectiveStatus(pos, now) == models.StatusActive {
			unclaimed += rewards.AccrueDelta(pos.Principal, apr.Total, pos.LastAccrualAt, now)
		}
	}

	canClaim := true
	var nextIn int64
	if user.LastClaimAt != nil {
		eligible := user.LastClaimAt.Add(s.params.ClaimCooldown)
		if now.Before(eligible) {
			canClaim = false
			nextIn = int64(eligible.Sub(now).Seconds())
		}
	}

	return StatusView{
		TotalApr:            apr.Total,
		Components:          apr,
		TotalStaked:         state.TotalStaked,
		TotalUnclaimed:      unclaimed,
		CanClaim:            canClaim,
		NextClaimInSeconds:  nextIn,
		WithdrawableBalance: user.WithdrawableBalance,
		XP:                  user.XP,
		Level:               user.Level,
		DailyStreak:         user.DailyStreak,
		Score:               rewards.Score(user.XP, state.TotalStaked),
	}, nil
}

// ListStakes returns all of the caller's positions with their effective
// statuses resolved against the current clock.
func (s *Service) ListStakes(ctx context.Context, handle string) ([]models.StakePosition, error) {
	user, err := s.findUser(ctx, handle)
	if err != nil {
		return nil, err
	}
	var positions []models.StakePosition
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("started_at DESC").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	now := s.Now()
	for i := range positions {
		positions[i].Status = EffectiveStatus(positions[i], now)
	}
	return positions, nil
}

func (s *Service) findUser(ctx context.Context, handle string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "handle = ?", handle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, errNotFound("user")
	}
	return user, err
}

// lockUser loads the user row under a FOR UPDATE lock. Every mutating
// operation goes through this first, giving at-most-one in-flight mutation
// per user.
func (s *Service) lockUser(tx *gorm.DB, handle string) (models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "handle = ?", handle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, errNotFound("user")
	}
	return user, err
}

// accountState aggregates the bonus-relevant attributes the APR composer
// needs: active principal, NFT holding, and any in-effect boost.
func (s *Service) accountState(tx *gorm.DB, user models.User, now time.Time) (rewards.AccountState, error) {
	var totalActive float64
	if err := tx.Model(&models.StakePosition{}).
		Where("user_id = ? AND status = ?", user.ID, models.StatusActive).
		Select("COALESCE(SUM(principal),0)").
		Scan(&totalActive).Error; err != nil {
		return rewards.AccountState{}, err
	}
	var nftCount int64
	if err := tx.Model(&models.NftHolding{}).
		Where("user_id = ? AND active = ?", user.ID, true).
		Count(&nftCount).Error; err != nil {
		return rewards.AccountState{}, err
	}
	var boostCount int64
	if err := tx.Model(&models.Boost{}).
		Where("user_id = ? AND starts_at <= ? AND ends_at >= ?", user.ID, now, now).
		Count(&boostCount).Error; err != nil {
		return rewards.AccountState{}, err
	}
	return rewards.AccountState{
		TotalStaked: totalActive,
		Level:       user.Level,
		DailyStreak: user.DailyStreak,
		HasNft:      nftCount > 0,
		BoostActive: boostCount > 0,
	}, nil
}
