package rewards

import (
	"fmt"
	"time"
)

// Params is the single source of truth for every tunable the reward and
// staking engines consume. Historically these constants were re-derived per
// endpoint with diverging values; every consumer must read them from here.
type Params struct {
	// MinStake is the aggregate active principal below which base APR and
	// every bonus are zero.
	MinStake float64
	// StakeCap is the aggregate principal at which base APR reaches BaseMax.
	StakeCap float64
	// BaseMax caps the stake-size-dependent APR component, in percent.
	BaseMax float64
	// LevelMax caps the account-level bonus, in percent.
	LevelMax float64
	// StreakMax caps the daily-streak bonus, in percent.
	StreakMax float64
	// NftMax is the flat bonus granted by an active NFT holding, in percent.
	NftMax float64
	// BoostMax is the flat bonus granted by an in-effect boost, in percent.
	BoostMax float64
	// TotalMax caps the composed APR. It is strictly below the sum of the
	// per-component maxima so the composer, not any calculator, enforces
	// the economic ceiling.
	TotalMax float64
	// NftMinStake gates NFT bonus eligibility on aggregate active stake.
	NftMinStake float64

	// ClaimFeeRate is deducted from gross rewards at claim time.
	ClaimFeeRate float64
	// WithdrawFeeRate is deducted from principal on stake withdrawal.
	WithdrawFeeRate float64

	// ClaimCooldown is the minimum gap between two reward claims.
	ClaimCooldown time.Duration
	// StreakWindow is the maximum gap between claims that still advances
	// the daily streak; a wider gap resets it to 1.
	StreakWindow time.Duration
	// UnlockPeriod is the mandatory wait between requesting unstake and
	// principal withdrawal eligibility.
	UnlockPeriod time.Duration

	// ClaimXP is awarded per successful claim.
	ClaimXP int64
	// MaxLevel and LevelCapXP define the level curve: level rises linearly
	// in XP, reaching MaxLevel at LevelCapXP, and never decreases.
	MaxLevel   int
	LevelCapXP int64
}

// DefaultParams returns the canonical production parameters.
func DefaultParams() Params {
	return Params{
		MinStake:        1_000,
		StakeCap:        2_500_000,
		BaseMax:         60,
		LevelMax:        20,
		StreakMax:       10,
		NftMax:          20,
		BoostMax:        25,
		TotalMax:        130,
		NftMinStake:     3_500_000,
		ClaimFeeRate:    0.02,
		WithdrawFeeRate: 0.01,
		ClaimCooldown:   24 * time.Hour,
		StreakWindow:    48 * time.Hour,
		UnlockPeriod:    21 * 24 * time.Hour,
		ClaimXP:         25,
		MaxLevel:        20,
		LevelCapXP:      5_250,
	}
}

// Validate ensures the parameters describe a coherent reward economy.
func (p Params) Validate() error {
	if p.MinStake <= 0 {
		return fmt.Errorf("min stake must be positive")
	}
	if p.StakeCap <= p.MinStake {
		return fmt.Errorf("stake cap %.0f must exceed min stake %.0f", p.StakeCap, p.MinStake)
	}
	if p.BaseMax <= 0 {
		return fmt.Errorf("base max must be positive")
	}
	componentSum := p.BaseMax + p.LevelMax + p.StreakMax + p.NftMax + p.BoostMax
	if p.TotalMax <= 0 || p.TotalMax >= componentSum {
		return fmt.Errorf("total max %.0f must be positive and below the component sum %.0f", p.TotalMax, componentSum)
	}
	if p.ClaimFeeRate < 0 || p.ClaimFeeRate >= 1 {
		return fmt.Errorf("claim fee rate %.4f out of range [0,1)", p.ClaimFeeRate)
	}
	if p.WithdrawFeeRate < 0 || p.WithdrawFeeRate >= 1 {
		return fmt.Errorf("withdraw fee rate %.4f out of range [0,1)", p.WithdrawFeeRate)
	}
	if p.ClaimCooldown <= 0 {
		return fmt.Errorf("claim cooldown must be positive")
	}
	if p.StreakWindow < p.ClaimCooldown {
		return fmt.Errorf("streak window must be at least the claim cooldown")
	}
	if p.UnlockPeriod <= 0 {
		return fmt.Errorf("unlock period must be positive")
	}
	if p.MaxLevel <= 0 || p.LevelCapXP <= 0 {
		return fmt.Errorf("level curve requires positive max level and cap xp")
	}
	return nil
}
