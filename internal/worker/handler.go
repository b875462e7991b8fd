package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"hydromate/internal/model"
	"hydromate/internal/queue"
)

// Resolver applies a user decision to a tick. Satisfied by
// service.ActionRouter; the interface keeps the worker off the service
// package in tests.
type Resolver interface {
	Resolve(ctx context.Context, userID int64, tickID, decision string, servingML int) (*model.ResolveResponse, error)
}

// Handler processes resolution events from the stream. The stream delivers
// at least once; the resolver's per-tick idempotence is what turns
// redeliveries and cross-channel duplicates into no-ops.
type Handler struct {
	resolver Resolver
}

// NewHandler creates a new event handler.
func NewHandler(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ResolutionEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventTickResolution:
		err = h.handleResolution(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleResolution feeds a notification-action decision into the router.
// A duplicate (tick already resolved through the modal, or a redelivered
// message) comes back Applied=false and is done, not an error.
func (h *Handler) handleResolution(ctx context.Context, event queue.ResolutionEvent) error {
	resp, err := h.resolver.Resolve(ctx, event.UserID, event.TickID, event.Decision, event.ServingML)
	if err != nil {
		return fmt.Errorf("resolve tick %s: %w", event.TickID, err)
	}

	if !resp.Applied {
		log.Printf("[Worker] Resolution duplicate: user=%d tick=%s", event.UserID, event.TickID)
		return nil
	}

	log.Printf("[Worker] Resolution applied: user=%d tick=%s decision=%s consumed=%d",
		event.UserID, event.TickID, event.Decision, resp.ConsumedML)
	return nil
}
