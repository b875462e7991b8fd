package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hydromate/internal/model"
)

type intakeRepository struct {
	db *sqlx.DB
}

func NewIntakeRepository(db *sqlx.DB) IntakeRepository {
	return &intakeRepository{db: db}
}

// GetByDate returns the daily record for one user and calendar day.
func (r *intakeRepository) GetByDate(ctx context.Context, userID int64, date string) (*model.IntakeRecord, error) {
	query := `
		SELECT id, user_id, date, consumed_ml, goal_ml, serving_ml, created_at, updated_at
		FROM intake_records
		WHERE user_id = $1 AND date = $2
	`
	var rec model.IntakeRecord
	err := r.db.GetContext(ctx, &rec, query, userID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get intake record: %w", err)
	}
	return &rec, nil
}

// GetLatest returns the newest record regardless of day, used to carry
// goal and serving size into a fresh day.
func (r *intakeRepository) GetLatest(ctx context.Context, userID int64) (*model.IntakeRecord, error) {
	query := `
		SELECT id, user_id, date, consumed_ml, goal_ml, serving_ml, created_at, updated_at
		FROM intake_records
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT 1
	`
	var rec model.IntakeRecord
	err := r.db.GetContext(ctx, &rec, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest intake record: %w", err)
	}
	return &rec, nil
}

// Create inserts a daily record. ON CONFLICT DO NOTHING keeps a concurrent
// lazy-create from failing; the caller re-reads afterwards.
func (r *intakeRepository) Create(ctx context.Context, rec *model.IntakeRecord) error {
	query := `
		INSERT INTO intake_records (user_id, date, consumed_ml, goal_ml, serving_ml)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, date) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, rec.UserID, rec.Date, rec.ConsumedML, rec.GoalML, rec.ServingML)
	if err != nil {
		return fmt.Errorf("insert intake record: %w", err)
	}
	return nil
}

// SetConsumed overwrites the consumed counter. The service computed the
// capped value; the row is just storage.
func (r *intakeRepository) SetConsumed(ctx context.Context, userID int64, date string, consumedML int) error {
	query := `
		UPDATE intake_records
		SET consumed_ml = $3, updated_at = NOW()
		WHERE user_id = $1 AND date = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, date, consumedML)
	if err != nil {
		return fmt.Errorf("set consumed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

func (r *intakeRepository) SetServing(ctx context.Context, userID int64, date string, servingML int) error {
	query := `
		UPDATE intake_records
		SET serving_ml = $3, updated_at = NOW()
		WHERE user_id = $1 AND date = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, date, servingML)
	if err != nil {
		return fmt.Errorf("set serving size: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

func (r *intakeRepository) SetGoal(ctx context.Context, userID int64, date string, goalML int) error {
	query := `
		UPDATE intake_records
		SET goal_ml = $3, updated_at = NOW()
		WHERE user_id = $1 AND date = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, date, goalML)
	if err != nil {
		return fmt.Errorf("set goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}
