package entity

import (
	"time"

	"github.com/google/uuid"
)

// User carries the streak-relevant fields of a user record. Registration,
// credentials and the social graph live in another service.
type User struct {
	ID    uuid.UUID
	Email string

	// TimeZone is an IANA zone name; empty falls back to the default zone.
	TimeZone string

	// Cross-habit streak state
	GenStreakCount int32
	LongestStreak  int32

	// LastStreakIncrement is the local day (UTC-normalized) on which the
	// general streak was last incremented; nil when the current day has not
	// earned (or has re-forfeited) its increment.
	LastStreakIncrement *time.Time

	// LastStreakUpdate is the local day the streak last changed in any
	// direction. The missed-day audit keys off this.
	LastStreakUpdate *time.Time

	// LastHabitReset is the local day (UTC-normalized) the daily rollover
	// last ran for this user.
	LastHabitReset *time.Time

	// IsVacation suspends streak accrual and decay while true.
	IsVacation bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PushSubscription is a stored delivery target for reminder notifications.
// One per user; the sweep reads it at fire time.
type PushSubscription struct {
	ID     uuid.UUID
	UserID uuid.UUID

	// Endpoint is the opaque delivery address the transport understands
	// (an email address for the SMTP transport).
	Endpoint string

	CreatedAt time.Time
}
