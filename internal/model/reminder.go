package model

import (
	"errors"
	"time"
)

// DefaultIntervalMinutes is used when a user enables reminders without
// choosing an interval.
const DefaultIntervalMinutes = 60

// ReminderConfig is the server-side per-user reminder row read by the
// remote scheduler. LastSentAt is the dedup timestamp: it advances only
// after a confirmed successful send, so a failed send is retried on the
// next poll cycle.
type ReminderConfig struct {
	UserID          int64      `db:"user_id" json:"user_id"`
	PhoneNumber     *string    `db:"phone_number" json:"phone_number,omitempty"`
	Enabled         bool       `db:"enabled" json:"enabled"`
	IntervalMinutes int        `db:"interval_minutes" json:"interval_minutes"`
	LastSentAt      *time.Time `db:"last_sent_at" json:"last_sent_at,omitempty"`
}

// SchedulerState is the persisted local-scheduler state for one user.
// Written on every start/stop, read once at process start so an active
// schedule survives a restart. The scheduler itself only reads it.
type SchedulerState struct {
	UserID          int64     `db:"user_id" json:"user_id"`
	Active          bool      `db:"active" json:"active"`
	IntervalMinutes int       `db:"interval_minutes" json:"interval_minutes"`
	Target          *string   `db:"target" json:"target,omitempty"`
	UpdatedAt       time.Time `db:"updated_at" json:"-"`
}

// StartReminderRequest arms the local scheduler for the caller.
type StartReminderRequest struct {
	IntervalMinutes int     `json:"interval_minutes"`
	Target          *string `json:"target,omitempty"`
}

// UpdateReminderSettingsRequest updates the remote (SMS) channel settings.
// Nil fields are left unchanged.
type UpdateReminderSettingsRequest struct {
	PhoneNumber     *string `json:"phone_number,omitempty"`
	Enabled         *bool   `json:"enabled,omitempty"`
	IntervalMinutes *int    `json:"interval_minutes,omitempty"`
}

// PollResponse is returned by the externally triggered poll endpoint.
type PollResponse struct {
	Success bool `json:"success"`
	Sent    int  `json:"sent"`
}

var (
	// ErrInvalidInterval is returned for non-positive reminder intervals
	ErrInvalidInterval = errors.New("interval must be positive")
)

// Error codes used by the auth middleware
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)
