package staking

import (
	"testing"
	"time"

	"boopstake/services/stake-gateway/models"
)

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		current, next models.StakeStatus
		wantKind      Kind
	}{
		{models.StatusActive, models.StatusPendingUnstake, ""},
		{models.StatusPendingUnstake, models.StatusUnlocked, ""},
		{models.StatusUnlocked, models.StatusWithdrawn, ""},
		{models.StatusActive, models.StatusUnlocked, KindInvalidState},
		{models.StatusActive, models.StatusWithdrawn, KindInvalidState},
		{models.StatusPendingUnstake, models.StatusActive, KindInvalidState},
		{models.StatusUnlocked, models.StatusActive, KindInvalidState},
		{models.StatusWithdrawn, models.StatusActive, KindAlreadyWithdrawn},
		{models.StatusWithdrawn, models.StatusWithdrawn, KindAlreadyWithdrawn},
	}
	for _, tc := range cases {
		err := ValidateTransition(tc.current, tc.next)
		if tc.wantKind == "" {
			if err != nil {
				t.Fatalf("%s -> %s: unexpected error %v", tc.current, tc.next, err)
			}
			continue
		}
		if KindOf(err) != tc.wantKind {
			t.Fatalf("%s -> %s: kind %s, want %s", tc.current, tc.next, KindOf(err), tc.wantKind)
		}
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	active := models.StakePosition{Status: models.StatusActive}
	if got := EffectiveStatus(active, now); got != models.StatusActive {
		t.Fatalf("active position reads %s", got)
	}

	pending := models.StakePosition{Status: models.StatusPendingUnstake, UnlockAt: &future}
	if got := EffectiveStatus(pending, now); got != models.StatusPendingUnstake {
		t.Fatalf("locked position reads %s", got)
	}

	pending.UnlockAt = &past
	if got := EffectiveStatus(pending, now); got != models.StatusUnlocked {
		t.Fatalf("expired lock reads %s", got)
	}

	pending.UnlockAt = &now
	if got := EffectiveStatus(pending, now); got != models.StatusUnlocked {
		t.Fatalf("deadline instant reads %s", got)
	}
}
