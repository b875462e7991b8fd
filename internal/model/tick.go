package model

import (
	"errors"
	"time"
)

// Decisions a user can take on a reminder. A body tap on the notification
// opens the app without resolving the tick, so it never reaches the router.
const (
	DecisionYes = "yes"
	DecisionNo  = "no"
)

// ReminderTick is one firing of a reminder. It lives only between dispatch
// and the user's decision (or expiry) and is never persisted; the id is the
// key that makes resolution idempotent across delivery channels.
type ReminderTick struct {
	ID        string    `json:"tick_id"`
	ServingML int       `json:"serving_ml"`
	IssuedAt  time.Time `json:"issued_at"`
}

// NotificationPayload is the data payload attached to an OS push
// notification so an action taken later can be attributed to the right tick.
type NotificationPayload struct {
	Type      string `json:"type"` // always "water"
	TickID    string `json:"tick_id"`
	ServingML int    `json:"serving_ml"`
	Actions   string `json:"actions"` // "yes,no"
}

// ResolveRequest is the body for both resolution entry points
// (foreground modal and notification action callback).
type ResolveRequest struct {
	TickID    string `json:"tick_id"`
	Decision  string `json:"decision"` // "yes" or "no"
	ServingML int    `json:"serving_ml"`
}

// ResolveResponse reports what a resolution did. Applied is false when the
// tick was already resolved through another channel; that is not an error.
type ResolveResponse struct {
	Applied    bool `json:"applied"`
	ConsumedML int  `json:"consumed_ml"`
}

var (
	// ErrInvalidDecision is returned for decisions other than yes/no
	ErrInvalidDecision = errors.New("invalid decision")

	// ErrChannelUnavailable means no surface could show a reminder.
	// The tick is dropped; the next scheduled tick is the retry.
	ErrChannelUnavailable = errors.New("no delivery channel available")
)
