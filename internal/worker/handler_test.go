package worker

import (
	"context"
	"errors"
	"testing"

	"hydromate/internal/model"
	"hydromate/internal/queue"
)

type mockResolver struct {
	resolveFn func(ctx context.Context, userID int64, tickID, decision string, servingML int) (*model.ResolveResponse, error)

	calls int
}

func (m *mockResolver) Resolve(ctx context.Context, userID int64, tickID, decision string, servingML int) (*model.ResolveResponse, error) {
	m.calls++
	if m.resolveFn != nil {
		return m.resolveFn(ctx, userID, tickID, decision, servingML)
	}
	return &model.ResolveResponse{Applied: true, ConsumedML: servingML}, nil
}

func TestHandler_HandleEvent_Resolution(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(ctx context.Context, userID int64, tickID, decision string, servingML int) (*model.ResolveResponse, error) {
			if userID != 1 || tickID != "tick-1" || decision != model.DecisionYes || servingML != 250 {
				t.Errorf("unexpected resolve args: user=%d tick=%s decision=%s amount=%d", userID, tickID, decision, servingML)
			}
			return &model.ResolveResponse{Applied: true, ConsumedML: 250}, nil
		},
	}
	handler := NewHandler(resolver)

	event := queue.NewResolutionEvent(1, "tick-1", model.DecisionYes, 250)
	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolver.calls != 1 {
		t.Errorf("expected 1 resolve call, got %d", resolver.calls)
	}
}

func TestHandler_HandleEvent_DuplicateIsNotAnError(t *testing.T) {
	// A redelivered message comes back Applied=false from the router; the
	// handler must not surface that as a failure or the ack path would log
	// noise forever.
	resolver := &mockResolver{
		resolveFn: func(ctx context.Context, userID int64, tickID, decision string, servingML int) (*model.ResolveResponse, error) {
			return &model.ResolveResponse{Applied: false}, nil
		},
	}
	handler := NewHandler(resolver)

	event := queue.NewResolutionEvent(1, "tick-dup", model.DecisionYes, 250)
	if err := handler.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected duplicate to be a no-op, got %v", err)
	}
}

func TestHandler_HandleEvent_ResolverError(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(ctx context.Context, userID int64, tickID, decision string, servingML int) (*model.ResolveResponse, error) {
			return nil, errors.New("db down")
		},
	}
	handler := NewHandler(resolver)

	event := queue.NewResolutionEvent(1, "tick-1", model.DecisionYes, 250)
	if err := handler.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected resolver error to propagate")
	}
}

func TestHandler_HandleEvent_UnknownType(t *testing.T) {
	resolver := &mockResolver{}
	handler := NewHandler(resolver)

	event := queue.ResolutionEvent{Type: "mystery_event"}
	if err := handler.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected error for unknown event type")
	}
	if resolver.calls != 0 {
		t.Errorf("expected no resolve calls, got %d", resolver.calls)
	}
}
