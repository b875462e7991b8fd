package service

import (
	"context"
	"errors"
	"testing"

	"hydromate/internal/cache"
	"hydromate/internal/model"
)

// =============================================================================
// MOCK INTAKE
// =============================================================================
//
// The router depends on the IntakeApplier interface, so a mock counter is
// enough to observe exactly how many mutations it performs.

type mockIntake struct {
	todayFn      func(ctx context.Context, userID int64) (*model.IntakeRecord, error)
	addServingFn func(ctx context.Context, userID int64, amountML int) (*model.IntakeRecord, error)

	addServingCalls int
}

func (m *mockIntake) Today(ctx context.Context, userID int64) (*model.IntakeRecord, error) {
	if m.todayFn != nil {
		return m.todayFn(ctx, userID)
	}
	return &model.IntakeRecord{UserID: userID, ConsumedML: 0, GoalML: model.DefaultGoalML, ServingML: model.DefaultServingML}, nil
}

func (m *mockIntake) AddServing(ctx context.Context, userID int64, amountML int) (*model.IntakeRecord, error) {
	m.addServingCalls++
	if m.addServingFn != nil {
		return m.addServingFn(ctx, userID, amountML)
	}
	return &model.IntakeRecord{UserID: userID, ConsumedML: amountML}, nil
}

// =============================================================================
// RESOLVE TESTS
// =============================================================================

func TestActionRouter_Resolve_YesAddsServing(t *testing.T) {
	intake := &mockIntake{
		addServingFn: func(ctx context.Context, userID int64, amountML int) (*model.IntakeRecord, error) {
			if amountML != 250 {
				t.Errorf("expected amount 250, got %d", amountML)
			}
			return &model.IntakeRecord{UserID: userID, ConsumedML: 250}, nil
		},
	}
	router := NewActionRouter(intake, cache.NewMemoryResolvedTickCache())

	resp, err := router.Resolve(context.Background(), 1, "tick-1", model.DecisionYes, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Applied {
		t.Error("expected Applied=true on first resolution")
	}
	if resp.ConsumedML != 250 {
		t.Errorf("expected consumed 250, got %d", resp.ConsumedML)
	}
	if intake.addServingCalls != 1 {
		t.Errorf("expected 1 AddServing call, got %d", intake.addServingCalls)
	}
}

func TestActionRouter_Resolve_DuplicateIsNoOp(t *testing.T) {
	// The modal and the notification action button race for the same tick.
	// Only the first resolution may touch the counter.
	intake := &mockIntake{
		addServingFn: func(ctx context.Context, userID int64, amountML int) (*model.IntakeRecord, error) {
			return &model.IntakeRecord{UserID: userID, ConsumedML: 250}, nil
		},
	}
	router := NewActionRouter(intake, cache.NewMemoryResolvedTickCache())
	ctx := context.Background()

	first, err := router.Resolve(ctx, 1, "tick-dup", model.DecisionYes, 250)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !first.Applied {
		t.Fatal("expected first resolution to apply")
	}

	second, err := router.Resolve(ctx, 1, "tick-dup", model.DecisionYes, 250)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.Applied {
		t.Error("expected duplicate resolution to be ignored")
	}
	if intake.addServingCalls != 1 {
		t.Errorf("expected exactly 1 AddServing call, got %d", intake.addServingCalls)
	}
}

func TestActionRouter_Resolve_NoDoesNotMutate(t *testing.T) {
	intake := &mockIntake{
		todayFn: func(ctx context.Context, userID int64) (*model.IntakeRecord, error) {
			return &model.IntakeRecord{UserID: userID, ConsumedML: 500}, nil
		},
	}
	router := NewActionRouter(intake, cache.NewMemoryResolvedTickCache())

	resp, err := router.Resolve(context.Background(), 1, "tick-no", model.DecisionNo, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Applied {
		t.Error("expected Applied=true: a 'no' still resolves the tick")
	}
	if resp.ConsumedML != 500 {
		t.Errorf("expected consumed unchanged at 500, got %d", resp.ConsumedML)
	}
	if intake.addServingCalls != 0 {
		t.Errorf("expected no AddServing calls, got %d", intake.addServingCalls)
	}
}

func TestActionRouter_Resolve_NoThenYesIsDuplicate(t *testing.T) {
	// A "no" claims the tick too: a later "yes" for the same tick through
	// another channel must not add water.
	intake := &mockIntake{}
	router := NewActionRouter(intake, cache.NewMemoryResolvedTickCache())
	ctx := context.Background()

	if _, err := router.Resolve(ctx, 1, "tick-ny", model.DecisionNo, 250); err != nil {
		t.Fatalf("no resolve: %v", err)
	}

	resp, err := router.Resolve(ctx, 1, "tick-ny", model.DecisionYes, 250)
	if err != nil {
		t.Fatalf("yes resolve: %v", err)
	}
	if resp.Applied {
		t.Error("expected yes-after-no to be a duplicate")
	}
	if intake.addServingCalls != 0 {
		t.Errorf("expected no AddServing calls, got %d", intake.addServingCalls)
	}
}

func TestActionRouter_Resolve_InvalidInput(t *testing.T) {
	router := NewActionRouter(&mockIntake{}, cache.NewMemoryResolvedTickCache())
	ctx := context.Background()

	tests := []struct {
		name      string
		tickID    string
		decision  string
		servingML int
		wantErr   error
	}{
		{"unknown decision", "tick-1", "maybe", 250, model.ErrInvalidDecision},
		{"empty decision", "tick-1", "", 250, model.ErrInvalidDecision},
		{"empty tick id", "", model.DecisionYes, 250, model.ErrInvalidDecision},
		{"zero amount on yes", "tick-1", model.DecisionYes, 0, model.ErrInvalidAmount},
		{"negative amount on yes", "tick-1", model.DecisionYes, -50, model.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := router.Resolve(ctx, 1, tt.tickID, tt.decision, tt.servingML)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestActionRouter_Resolve_FailedMutationReleasesClaim(t *testing.T) {
	// If the counter write fails after the claim, the claim must be released
	// so a redelivery of the same event can retry.
	fail := true
	intake := &mockIntake{
		addServingFn: func(ctx context.Context, userID int64, amountML int) (*model.IntakeRecord, error) {
			if fail {
				return nil, errors.New("db down")
			}
			return &model.IntakeRecord{UserID: userID, ConsumedML: amountML}, nil
		},
	}
	router := NewActionRouter(intake, cache.NewMemoryResolvedTickCache())
	ctx := context.Background()

	if _, err := router.Resolve(ctx, 1, "tick-retry", model.DecisionYes, 250); err == nil {
		t.Fatal("expected error from failed mutation")
	}

	fail = false
	resp, err := router.Resolve(ctx, 1, "tick-retry", model.DecisionYes, 250)
	if err != nil {
		t.Fatalf("retry resolve: %v", err)
	}
	if !resp.Applied {
		t.Error("expected retry after failure to apply")
	}
}
