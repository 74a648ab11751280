package rewards

import "time"

// LevelForXP maps a lifetime XP total onto the level curve: linear up to
// MaxLevel at LevelCapXP. The staking service additionally never lowers a
// stored level; this function only computes the curve value.
func LevelForXP(xp int64, p Params) int {
	if xp <= 0 {
		return 0
	}
	level := int(xp * int64(p.MaxLevel) / p.LevelCapXP)
	if level > p.MaxLevel {
		return p.MaxLevel
	}
	return level
}

// NextStreak advances a daily claim streak. A first-ever claim starts at 1;
// a claim within StreakWindow of the previous one extends the run; anything
// later resets to 1.
func NextStreak(current int, lastClaim *time.Time, now time.Time, p Params) int {
	if lastClaim == nil {
		return 1
	}
	if now.Sub(*lastClaim) <= p.StreakWindow {
		if current < 1 {
			return 1
		}
		return current + 1
	}
	return 1
}
