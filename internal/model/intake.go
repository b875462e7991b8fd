package model

import (
	"errors"
	"time"
)

// Default values filled in when a user has no prior intake record.
const (
	DefaultGoalML    = 2000
	DefaultServingML = 250
)

// IntakeRecord is the daily water counter for one user.
// At most one record per (user, calendar day) is authoritative; consumed_ml
// only grows within a day. A new day gets a fresh record carrying the
// previous day's goal and serving size.
type IntakeRecord struct {
	ID         int64     `db:"id" json:"-"`
	UserID     int64     `db:"user_id" json:"-"`
	Date       string    `db:"date" json:"date"` // YYYY-MM-DD, user-local calendar day
	ConsumedML int       `db:"consumed_ml" json:"consumed_ml"`
	GoalML     int       `db:"goal_ml" json:"goal_ml"`
	ServingML  int       `db:"serving_ml" json:"serving_ml"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
	UpdatedAt  time.Time `db:"updated_at" json:"-"`
}

// UpdateServingRequest changes the default serving size going forward.
// This is a settings change, not a water addition.
type UpdateServingRequest struct {
	ServingML int `json:"serving_ml"`
}

// UpdateGoalRequest changes the daily goal going forward.
type UpdateGoalRequest struct {
	GoalML int `json:"goal_ml"`
}

var (
	// ErrRecordNotFound is returned when no intake record exists for a day
	ErrRecordNotFound = errors.New("intake record not found")

	// ErrInvalidAmount is returned for non-positive serving or goal values
	ErrInvalidAmount = errors.New("amount must be positive")
)
