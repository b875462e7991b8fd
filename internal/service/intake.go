package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hydromate/internal/model"
	"hydromate/internal/repository"
)

// IntakeService owns the daily water counter. It is the only writer of
// consumed_ml; the action router goes through AddServing and nothing else
// mutates the counter.
type IntakeService struct {
	repo        repository.IntakeRepository
	overflowCap int

	now func() time.Time // injectable for day-rollover tests
}

func NewIntakeService(repo repository.IntakeRepository, overflowCapML int) *IntakeService {
	return &IntakeService{
		repo:        repo,
		overflowCap: overflowCapML,
		now:         time.Now,
	}
}

func (s *IntakeService) today() string {
	return s.now().Format("2006-01-02")
}

// Today returns the current day's record, creating it lazily on first read.
// A fresh day carries the previous record's goal and serving size; a brand
// new user gets the defaults. This is how day rollover works: the old row is
// superseded, never erased.
func (s *IntakeService) Today(ctx context.Context, userID int64) (*model.IntakeRecord, error) {
	date := s.today()

	rec, err := s.repo.GetByDate(ctx, userID, date)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, model.ErrRecordNotFound) {
		return nil, err
	}

	goal := model.DefaultGoalML
	serving := model.DefaultServingML
	if prev, err := s.repo.GetLatest(ctx, userID); err == nil {
		goal = prev.GoalML
		serving = prev.ServingML
	} else if !errors.Is(err, model.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &model.IntakeRecord{
		UserID:     userID,
		Date:       date,
		ConsumedML: 0,
		GoalML:     goal,
		ServingML:  serving,
	}
	if err := s.repo.Create(ctx, fresh); err != nil {
		return nil, err
	}

	// Re-read so a concurrent lazy create converges on the same row
	rec, err = s.repo.GetByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("read intake record after create: %w", err)
	}
	return rec, nil
}

// AddServing adds water to today's counter, capped at goal + overflow cap.
// The counter never decreases within a day.
func (s *IntakeService) AddServing(ctx context.Context, userID int64, amountML int) (*model.IntakeRecord, error) {
	if amountML <= 0 {
		return nil, model.ErrInvalidAmount
	}

	rec, err := s.Today(ctx, userID)
	if err != nil {
		return nil, err
	}

	capped := rec.ConsumedML + amountML
	if limit := rec.GoalML + s.overflowCap; capped > limit {
		capped = limit
	}
	if capped < rec.ConsumedML {
		capped = rec.ConsumedML
	}

	if err := s.repo.SetConsumed(ctx, userID, rec.Date, capped); err != nil {
		return nil, err
	}
	rec.ConsumedML = capped
	return rec, nil
}

// UpdateServingSize changes the default serving going forward. A settings
// change, not an addition: consumed is untouched.
func (s *IntakeService) UpdateServingSize(ctx context.Context, userID int64, servingML int) (*model.IntakeRecord, error) {
	if servingML <= 0 {
		return nil, model.ErrInvalidAmount
	}

	rec, err := s.Today(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetServing(ctx, userID, rec.Date, servingML); err != nil {
		return nil, err
	}
	rec.ServingML = servingML
	return rec, nil
}

// UpdateGoal changes the daily goal going forward.
func (s *IntakeService) UpdateGoal(ctx context.Context, userID int64, goalML int) (*model.IntakeRecord, error) {
	if goalML <= 0 {
		return nil, model.ErrInvalidAmount
	}

	rec, err := s.Today(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetGoal(ctx, userID, rec.Date, goalML); err != nil {
		return nil, err
	}
	rec.GoalML = goalML
	return rec, nil
}
