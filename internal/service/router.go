package service

import (
	"context"
	"log"

	"hydromate/internal/cache"
	"hydromate/internal/model"
)

// IntakeApplier is the slice of IntakeService the router needs. Keeping it
// an interface lets tests drive the router against a mock counter.
type IntakeApplier interface {
	Today(ctx context.Context, userID int64) (*model.IntakeRecord, error)
	AddServing(ctx context.Context, userID int64, amountML int) (*model.IntakeRecord, error)
}

// ActionRouter is the single entry point for user decisions on reminder
// ticks, whatever channel they arrive through. It guarantees at most one
// counter mutation per tick id: the resolved-tick cache is claimed before
// any mutation, so the second delivery of the same decision is a no-op.
type ActionRouter struct {
	intake   IntakeApplier
	resolved cache.ResolvedTickCache
}

func NewActionRouter(intake IntakeApplier, resolved cache.ResolvedTickCache) *ActionRouter {
	return &ActionRouter{
		intake:   intake,
		resolved: resolved,
	}
}

// Resolve applies one decision to one tick. Duplicate resolutions are
// silently ignored (Applied=false); they are expected whenever the modal
// and the notification action both fire for the same tick.
//
// Stopping the scheduler does not pass through here: an outstanding tick
// stays resolvable after stop, it just has no successors.
func (r *ActionRouter) Resolve(ctx context.Context, userID int64, tickID, decision string, servingML int) (*model.ResolveResponse, error) {
	if decision != model.DecisionYes && decision != model.DecisionNo {
		return nil, model.ErrInvalidDecision
	}
	if tickID == "" {
		return nil, model.ErrInvalidDecision
	}
	if decision == model.DecisionYes && servingML <= 0 {
		return nil, model.ErrInvalidAmount
	}

	claimed, err := r.resolved.MarkResolved(ctx, tickID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		log.Printf("[ActionRouter] duplicate resolution ignored: user=%d tick=%s decision=%s", userID, tickID, decision)
		resp := &model.ResolveResponse{Applied: false}
		if rec, err := r.intake.Today(ctx, userID); err == nil {
			resp.ConsumedML = rec.ConsumedML
		}
		return resp, nil
	}

	if decision == model.DecisionNo {
		log.Printf("[ActionRouter] resolved: user=%d tick=%s decision=no", userID, tickID)
		resp := &model.ResolveResponse{Applied: true}
		if rec, err := r.intake.Today(ctx, userID); err == nil {
			resp.ConsumedML = rec.ConsumedML
		}
		return resp, nil
	}

	rec, err := r.intake.AddServing(ctx, userID, servingML)
	if err != nil {
		// Release the claim so an at-least-once redelivery can retry;
		// otherwise the decision would be marked resolved but never counted.
		if relErr := r.resolved.Release(ctx, tickID); relErr != nil {
			log.Printf("[ActionRouter] release claim FAILED: tick=%s err=%v", tickID, relErr)
		}
		return nil, err
	}

	log.Printf("[ActionRouter] resolved: user=%d tick=%s decision=yes added=%d consumed=%d",
		userID, tickID, servingML, rec.ConsumedML)
	return &model.ResolveResponse{Applied: true, ConsumedML: rec.ConsumedML}, nil
}
