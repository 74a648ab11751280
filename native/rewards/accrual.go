package rewards

import (
	"math"
	"time"
)

// secondsPerYear fixes the accrual year at 365 days. Leap years are not
// adjusted for; the approximation is part of the published formula.
const secondsPerYear = 365 * 24 * 3600

// AccrueDelta converts elapsed time at a fixed annualised rate into the
// incremental reward for one position:
//
//	delta = principal * (apr/100) * (elapsed / 365d)
//
// Degenerate inputs (non-positive principal or rate, to before from) yield a
// zero delta rather than an error. The computation is interval based, not
// idempotent: callers must always pass the position's previous accrual
// checkpoint as from, otherwise the same interval is counted twice.
func AccrueDelta(principal, aprPercent float64, from, to time.Time) float64 {
	if principal <= 0 || aprPercent <= 0 {
		return 0
	}
	if !to.After(from) {
		return 0
	}
	elapsed := to.Sub(from).Seconds()
	delta := principal * (aprPercent / 100) * (elapsed / secondsPerYear)
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 0
	}
	return round8(delta)
}

func round8(n float64) float64 {
	return math.Round(n*1e8) / 1e8
}
