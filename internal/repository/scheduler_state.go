package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hydromate/internal/model"
)

type schedulerStateRepository struct {
	db *sqlx.DB
}

func NewSchedulerStateRepository(db *sqlx.DB) SchedulerStateRepository {
	return &schedulerStateRepository{db: db}
}

// Save upserts the persisted scheduler state. Written on every start/stop
// so an active schedule survives a process restart.
func (r *schedulerStateRepository) Save(ctx context.Context, st *model.SchedulerState) error {
	query := `
		INSERT INTO scheduler_states (user_id, active, interval_minutes, target, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			active = EXCLUDED.active,
			interval_minutes = EXCLUDED.interval_minutes,
			target = EXCLUDED.target,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, st.UserID, st.Active, st.IntervalMinutes, st.Target)
	if err != nil {
		return fmt.Errorf("save scheduler state: %w", err)
	}
	return nil
}

func (r *schedulerStateRepository) GetByUserID(ctx context.Context, userID int64) (*model.SchedulerState, error) {
	query := `
		SELECT user_id, active, interval_minutes, target, updated_at
		FROM scheduler_states
		WHERE user_id = $1
	`
	var st model.SchedulerState
	err := r.db.GetContext(ctx, &st, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scheduler state: %w", err)
	}
	return &st, nil
}

// ListActive returns every schedule that should be re-armed at boot.
func (r *schedulerStateRepository) ListActive(ctx context.Context) ([]model.SchedulerState, error) {
	query := `
		SELECT user_id, active, interval_minutes, target, updated_at
		FROM scheduler_states
		WHERE active = true
	`
	var states []model.SchedulerState
	err := r.db.SelectContext(ctx, &states, query)
	if err != nil {
		return nil, fmt.Errorf("list active scheduler states: %w", err)
	}
	return states, nil
}
