package repository

import (
	"context"
	"time"

	"hydromate/internal/model"
)

type IntakeRepository interface {
	// GetByDate returns the record for one calendar day, or ErrRecordNotFound
	GetByDate(ctx context.Context, userID int64, date string) (*model.IntakeRecord, error)
	// GetLatest returns the most recent record for any day, or ErrRecordNotFound.
	// Used to carry goal and serving size across a day rollover.
	GetLatest(ctx context.Context, userID int64) (*model.IntakeRecord, error)
	// Create inserts a new daily record; a concurrent insert for the same
	// day is not an error (the existing row wins)
	Create(ctx context.Context, rec *model.IntakeRecord) error
	// SetConsumed overwrites the consumed counter for one day
	SetConsumed(ctx context.Context, userID int64, date string, consumedML int) error
	// SetServing overwrites the serving size for one day
	SetServing(ctx context.Context, userID int64, date string, servingML int) error
	// SetGoal overwrites the goal for one day
	SetGoal(ctx context.Context, userID int64, date string, goalML int) error
}

type ReminderConfigRepository interface {
	// ListEnabled returns every user with SMS reminders enabled
	ListEnabled(ctx context.Context) ([]model.ReminderConfig, error)
	// GetByUserID returns the config row, or ErrRecordNotFound
	GetByUserID(ctx context.Context, userID int64) (*model.ReminderConfig, error)
	// Save upserts the settings fields. It never touches last_sent_at;
	// that column belongs to MarkSent alone.
	Save(ctx context.Context, cfg *model.ReminderConfig) error
	// MarkSent records a confirmed successful send. This is the commit
	// point of the remote scheduler: only called after the SMS went out.
	MarkSent(ctx context.Context, userID int64, sentAt time.Time) error
}

type SchedulerStateRepository interface {
	// Save upserts the persisted local-scheduler state for a user
	Save(ctx context.Context, st *model.SchedulerState) error
	// GetByUserID returns the state row, or ErrRecordNotFound
	GetByUserID(ctx context.Context, userID int64) (*model.SchedulerState, error)
	// ListActive returns every state with active=true, for resume at boot
	ListActive(ctx context.Context) ([]model.SchedulerState, error)
}

type DeviceTokenRepository interface {
	// Upsert creates or reassigns a device token
	Upsert(ctx context.Context, userID int64, token, platform string) error
	// GetByUserID returns all device tokens for a user
	GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error)
	// Delete removes a device token
	Delete(ctx context.Context, token string) error
}
