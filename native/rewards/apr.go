// Package rewards contains the pure APR, accrual, and scoring math for the
// staking platform. Nothing in this package touches storage or clocks; every
// function is deterministic in its inputs.
package rewards

import "math"

// Breakdown exposes the individual APR components alongside the capped total
// so callers can audit how a rate was composed.
type Breakdown struct {
	Base   float64 `json:"base"`
	Level  float64 `json:"level"`
	Streak float64 `json:"streak"`
	Nft    float64 `json:"nft"`
	Boost  float64 `json:"boost"`
	Total  float64 `json:"total"`
}

// AccountState carries the bonus-relevant attributes of a user when composing
// an APR.
type AccountState struct {
	TotalStaked float64
	Level       int
	DailyStreak int
	HasNft      bool
	BoostActive bool
}

// BaseAPR converts aggregate active principal into the stake-size-dependent
// APR component. The curve is monotonic non-decreasing: zero below MinStake,
// BaseMax at StakeCap and beyond, and a log-normalised ramp in between, so
// adding stake never lowers the base rate.
func BaseAPR(totalStaked float64, p Params) float64 {
	if totalStaked < p.MinStake {
		return 0
	}
	if totalStaked >= p.StakeCap {
		return p.BaseMax
	}
	num := math.Log10(totalStaked/p.MinStake + 1)
	den := math.Log10(p.StakeCap/p.MinStake + 1)
	if den == 0 {
		return 0
	}
	return round2(clamp(p.BaseMax*num/den, 0, p.BaseMax))
}

// LevelBonus grants one percent per account level up to LevelMax.
func LevelBonus(level int, p Params) float64 {
	if level <= 0 {
		return 0
	}
	return clamp(float64(level), 0, p.LevelMax)
}

// StreakBonus is a step function of consecutive daily claims.
func StreakBonus(streak int, p Params) float64 {
	var bonus float64
	switch {
	case streak >= 30:
		bonus = 10
	case streak >= 14:
		bonus = 6
	case streak >= 7:
		bonus = 3
	case streak >= 3:
		bonus = 2
	case streak >= 1:
		bonus = 1
	}
	return clamp(bonus, 0, p.StreakMax)
}

// NftBonus grants the flat NFT component when the user holds an active NFT
// and their aggregate active stake meets the eligibility threshold.
func NftBonus(hasNft bool, totalStaked float64, p Params) float64 {
	if !hasNft || totalStaked < p.NftMinStake {
		return 0
	}
	return p.NftMax
}

// BoostBonus grants the flat boost component while any boost is in effect.
func BoostBonus(active bool, p Params) float64 {
	if !active {
		return 0
	}
	return p.BoostMax
}

// ComposeAPR combines the base curve with every bonus and applies the global
// ceiling. A user below MinStake earns zero regardless of level, streak, NFT,
// or boost status: yield is proportional to capital at risk.
func ComposeAPR(state AccountState, p Params) Breakdown {
	if state.TotalStaked < p.MinStake {
		return Breakdown{}
	}
	b := Breakdown{
		Base:   BaseAPR(state.TotalStaked, p),
		Level:  LevelBonus(state.Level, p),
		Streak: StreakBonus(state.DailyStreak, p),
		Nft:    NftBonus(state.HasNft, state.TotalStaked, p),
		Boost:  BoostBonus(state.BoostActive, p),
	}
	b.Total = round2(clamp(b.Base+b.Level+b.Streak+b.Nft+b.Boost, 0, p.TotalMax))
	return b
}

func clamp(n, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, n))
}

func round2(n float64) float64 {
	return math.Round(n*100) / 100
}
