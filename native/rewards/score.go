package rewards

import "math"

// Score derives the leaderboard ranking metric from lifetime (or windowed) XP
// and aggregate active stake:
//
//	score = floor(xp + log10(totalStaked + 1) * 100)
//
// It strictly increases in both inputs. Ties are broken by raw XP at sort
// time, not here.
func Score(xp int64, totalStaked float64) int64 {
	if totalStaked < 0 {
		totalStaked = 0
	}
	stakePart := math.Log10(totalStaked+1) * 100
	return int64(math.Floor(float64(xp) + stakePart))
}
