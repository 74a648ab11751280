package rewards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultParamsAreValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestValidateRejectsIncoherentParams(t *testing.T) {
	mutate := func(fn func(*Params)) Params {
		p := DefaultParams()
		fn(&p)
		return p
	}

	cases := map[string]Params{
		"zero min stake":          mutate(func(p *Params) { p.MinStake = 0 }),
		"cap below min":           mutate(func(p *Params) { p.StakeCap = 500 }),
		"zero base max":           mutate(func(p *Params) { p.BaseMax = 0 }),
		"ceiling above sum":       mutate(func(p *Params) { p.TotalMax = 200 }),
		"ceiling equals sum":      mutate(func(p *Params) { p.TotalMax = 135 }),
		"claim fee of 100%":       mutate(func(p *Params) { p.ClaimFeeRate = 1 }),
		"negative withdraw fee":   mutate(func(p *Params) { p.WithdrawFeeRate = -0.01 }),
		"zero cooldown":           mutate(func(p *Params) { p.ClaimCooldown = 0 }),
		"window below cooldown":   mutate(func(p *Params) { p.StreakWindow = time.Hour }),
		"zero unlock period":      mutate(func(p *Params) { p.UnlockPeriod = 0 }),
		"level curve without cap": mutate(func(p *Params) { p.LevelCapXP = 0 }),
	}
	for name, params := range cases {
		require.Error(t, params.Validate(), name)
	}
}
