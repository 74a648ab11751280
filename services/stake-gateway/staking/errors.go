package staking

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the stable machine-readable classification carried by every
// rejection. Handlers map kinds onto HTTP statuses; messages are for humans.
type Kind string

// All error kinds surfaced by the staking engine.
const (
	KindValidation        Kind = "VALIDATION"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidState      Kind = "INVALID_STATE"
	KindStillLocked       Kind = "STILL_LOCKED"
	KindTooEarly          Kind = "TOO_EARLY"
	KindAlreadyWithdrawn  Kind = "ALREADY_WITHDRAWN"
	KindInsufficientStake Kind = "INSUFFICIENT_STAKE"
	KindInternal          Kind = "INTERNAL"
)

// Error is a structured engine rejection. Detail fields are populated only
// where actionable: NextClaimInSeconds on TOO_EARLY, UnlockAt on STILL_LOCKED.
type Error struct {
	Kind               Kind       `json:"kind"`
	Message            string     `json:"message"`
	NextClaimInSeconds int64      `json:"nextClaimInSeconds,omitempty"`
	UnlockAt           *time.Time `json:"unlockAt,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func errValidation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func errNotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func errInvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func errStillLocked(unlockAt time.Time) *Error {
	return &Error{
		Kind:     KindStillLocked,
		Message:  "principal is still locked",
		UnlockAt: &unlockAt,
	}
}

func errTooEarly(remaining time.Duration) *Error {
	secs := int64(remaining.Seconds())
	if secs < 0 {
		secs = 0
	}
	return &Error{
		Kind:               KindTooEarly,
		Message:            "too early to claim",
		NextClaimInSeconds: secs,
	}
}

func errAlreadyWithdrawn() *Error {
	return &Error{Kind: KindAlreadyWithdrawn, Message: "stake position already withdrawn"}
}

func errInsufficientStake(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientStake, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from an error, defaulting to INTERNAL
// for anything the engine did not reject deliberately.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsEngineError unwraps err into a structured engine error when possible.
func AsEngineError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
