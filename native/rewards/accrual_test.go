package rewards

import (
	"math"
	"testing"
	"time"
)

func TestAccrueDeltaOneDay(t *testing.T) {
	from := time.Unix(1_700_000_000, 0)
	to := from.Add(24 * time.Hour)
	got := AccrueDelta(100_000, 30, from, to)
	want := 100_000 * 0.30 / 365
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("expected ~%.2f, got %.8f", want, got)
	}
}

func TestAccrueDeltaLinearInTime(t *testing.T) {
	from := time.Unix(1_700_000_000, 0)
	oneDay := AccrueDelta(250_000, 45, from, from.Add(24*time.Hour))
	twoDays := AccrueDelta(250_000, 45, from, from.Add(48*time.Hour))
	if math.Abs(twoDays-2*oneDay) > 1e-6 {
		t.Fatalf("accrual not linear: 1d=%.8f 2d=%.8f", oneDay, twoDays)
	}
}

func TestAccrueDeltaDegenerateInputs(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	later := now.Add(time.Hour)
	cases := []struct {
		name      string
		principal float64
		apr       float64
		from, to  time.Time
	}{
		{"zero principal", 0, 30, now, later},
		{"negative principal", -5, 30, now, later},
		{"zero apr", 1000, 0, now, later},
		{"negative apr", 1000, -1, now, later},
		{"to equals from", 1000, 30, now, now},
		{"to before from", 1000, 30, later, now},
	}
	for _, tc := range cases {
		if got := AccrueDelta(tc.principal, tc.apr, tc.from, tc.to); got != 0 {
			t.Fatalf("%s: expected zero delta, got %.8f", tc.name, got)
		}
	}
}

func TestAccrueDeltaFullYear(t *testing.T) {
	from := time.Unix(1_700_000_000, 0)
	got := AccrueDelta(10_000, 100, from, from.Add(365*24*time.Hour))
	if math.Abs(got-10_000) > 1e-6 {
		t.Fatalf("expected full principal over a 100%% year, got %.8f", got)
	}
}
