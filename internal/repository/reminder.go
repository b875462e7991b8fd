package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hydromate/internal/model"
)

type reminderConfigRepository struct {
	db *sqlx.DB
}

func NewReminderConfigRepository(db *sqlx.DB) ReminderConfigRepository {
	return &reminderConfigRepository{db: db}
}

// ListEnabled returns every user whose SMS reminders are on. The remote
// scheduler walks this list on each poll cycle.
func (r *reminderConfigRepository) ListEnabled(ctx context.Context) ([]model.ReminderConfig, error) {
	query := `
		SELECT user_id, phone_number, enabled, interval_minutes, last_sent_at
		FROM reminder_configs
		WHERE enabled = true
		ORDER BY user_id
	`
	var configs []model.ReminderConfig
	err := r.db.SelectContext(ctx, &configs, query)
	if err != nil {
		return nil, fmt.Errorf("list enabled reminder configs: %w", err)
	}
	return configs, nil
}

func (r *reminderConfigRepository) GetByUserID(ctx context.Context, userID int64) (*model.ReminderConfig, error) {
	query := `
		SELECT user_id, phone_number, enabled, interval_minutes, last_sent_at
		FROM reminder_configs
		WHERE user_id = $1
	`
	var cfg model.ReminderConfig
	err := r.db.GetContext(ctx, &cfg, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder config: %w", err)
	}
	return &cfg, nil
}

// Save upserts the settings columns. last_sent_at is deliberately absent
// from both the insert values and the update set: it belongs to MarkSent.
func (r *reminderConfigRepository) Save(ctx context.Context, cfg *model.ReminderConfig) error {
	query := `
		INSERT INTO reminder_configs (user_id, phone_number, enabled, interval_minutes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			phone_number = EXCLUDED.phone_number,
			enabled = EXCLUDED.enabled,
			interval_minutes = EXCLUDED.interval_minutes
	`
	_, err := r.db.ExecContext(ctx, query, cfg.UserID, cfg.PhoneNumber, cfg.Enabled, cfg.IntervalMinutes)
	if err != nil {
		return fmt.Errorf("save reminder config: %w", err)
	}
	return nil
}

// MarkSent advances the dedup timestamp after a confirmed successful send.
func (r *reminderConfigRepository) MarkSent(ctx context.Context, userID int64, sentAt time.Time) error {
	query := `
		UPDATE reminder_configs
		SET last_sent_at = $2
		WHERE user_id = $1
	`
	_, err := r.db.ExecContext(ctx, query, userID, sentAt)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
