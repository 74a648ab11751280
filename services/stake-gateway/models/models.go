package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StakeStatus is the closed set of stake position lifecycle states.
type StakeStatus string

// Lifecycle states, in order. Positions only ever move forward.
const (
	StatusActive         StakeStatus = "active"
	StatusPendingUnstake StakeStatus = "pending_unstake"
	StatusUnlocked       StakeStatus = "unlocked"
	StatusWithdrawn      StakeStatus = "withdrawn"
)

// BoostKind identifies the duration tier of a purchased boost.
type BoostKind string

// Supported boost tiers.
const (
	BoostKind24H BoostKind = "boost_24h"
	BoostKind72H BoostKind = "boost_72h"
	BoostKind7D  BoostKind = "boost_7d"
)

// BoostDurations maps each tier onto its active window length.
var BoostDurations = map[BoostKind]time.Duration{
	BoostKind24H: 24 * time.Hour,
	BoostKind72H: 72 * time.Hour,
	BoostKind7D:  7 * 24 * time.Hour,
}

// User is a platform account. Rows are created on first authenticated
// request and never deleted; XP only ever grows and Level never decreases.
type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Handle              string    `gorm:"uniqueIndex;size:128" json:"handle"`
	XP                  int64     `gorm:"not null;default:0" json:"xp"`
	Level               int       `gorm:"not null;default:0" json:"level"`
	DailyStreak         int       `gorm:"not null;default:0" json:"dailyStreak"`
	WithdrawableBalance float64   `gorm:"not null;default:0" json:"withdrawableBalance"`
	LastClaimAt         *time.Time `json:"lastClaimAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// StakePosition is one discrete deposit of principal tracked through its own
// lifecycle. UnclaimedReward only grows while the position is active and is
// reset on claim or on the freeze that accompanies an unstake request.
// BaseAPRSnapshot records the curve value at creation for display; accrual
// always recomputes the rate from current aggregate state.
type StakePosition struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID   `gorm:"type:uuid;index" json:"userId"`
	Principal       float64     `gorm:"not null" json:"principal"`
	Status          StakeStatus `gorm:"size:32;index" json:"status"`
	BaseAPRSnapshot float64     `json:"baseAprSnapshot"`
	StartedAt       time.Time   `json:"startedAt"`
	LastAccrualAt   time.Time   `json:"lastAccrualAt"`
	UnlockAt        *time.Time  `json:"unlockAt,omitempty"`
	UnclaimedReward float64     `gorm:"not null;default:0" json:"unclaimedReward"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Boost is a time-limited APR booster owned by a user. It is in effect while
// now falls inside [StartsAt, EndsAt].
type Boost struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	Kind      BoostKind `gorm:"size:32" json:"kind"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `gorm:"index" json:"endsAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// InEffect reports whether the boost window covers the given instant.
func (b Boost) InEffect(now time.Time) bool {
	return !now.Before(b.StartsAt) && !now.After(b.EndsAt)
}

// NftHolding grants a permanent flat APR bonus while active.
type NftHolding struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	TokenRef  string    `gorm:"size:128" json:"tokenRef"`
	Active    bool      `gorm:"not null;default:true;index" json:"active"`
	GrantedAt time.Time `json:"grantedAt"`
}

// XPLog records every XP grant with its timestamp so the monthly leaderboard
// can window XP by calendar month. Rows are written in the same transaction
// as the claim that earned them.
type XPLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// IdempotencyKey stores request idempotency metadata for mutating routes.
type IdempotencyKey struct {
	Key       string `gorm:"primaryKey;size:128"`
	RequestID string `gorm:"size:64"`
	Method    string `gorm:"size:8"`
	Path      string `gorm:"size:255"`
	Status    int
	Response  string `gorm:"type:text"`
	CreatedAt time.Time
}

// AutoMigrate performs all schema migrations for the service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&StakePosition{},
		&Boost{},
		&NftHolding{},
		&XPLog{},
		&IdempotencyKey{},
	)
}
