package staking

import (
	"time"

	"boopstake/services/stake-gateway/models"
)

// allowedTransitions declares the lifecycle state machine once. Positions only
// move forward: active -> pending_unstake -> unlocked -> withdrawn.
var allowedTransitions = map[models.StakeStatus][]models.StakeStatus{
	models.StatusActive:         {models.StatusPendingUnstake},
	models.StatusPendingUnstake: {models.StatusUnlocked},
	models.StatusUnlocked:       {models.StatusWithdrawn},
}

// ValidateTransition rejects any skip or reversal in the lifecycle.
func ValidateTransition(current, next models.StakeStatus) error {
	if current == models.StatusWithdrawn {
		return errAlreadyWithdrawn()
	}
	for _, state := range allowedTransitions[current] {
		if state == next {
			return nil
		}
	}
	return errInvalidState("transition from %s to %s is not permitted", current, next)
}

// EffectiveStatus reports the status a position presents at the given
// instant. pending_unstake becomes unlocked purely by the passage of time; the
// stored row is only materialised inside the next mutating transaction.
func EffectiveStatus(pos models.StakePosition, now time.Time) models.StakeStatus {
	if pos.Status == models.StatusPendingUnstake && pos.UnlockAt != nil && !now.Before(*pos.UnlockAt) {
		return models.StatusUnlocked
	}
	return pos.Status
}
