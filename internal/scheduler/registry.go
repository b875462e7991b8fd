package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"hydromate/internal/model"
	"hydromate/internal/repository"
)

// Registry holds at most one Local scheduler per user and keeps the
// persisted SchedulerState in step with it: every start and stop writes the
// state row, and ResumeAll re-arms persisted active schedules at boot.
type Registry struct {
	dispatcher Dispatcher
	intake     ServingProvider
	states     repository.SchedulerStateRepository

	mu         sync.Mutex
	schedulers map[int64]*Local
}

func NewRegistry(dispatcher Dispatcher, intake ServingProvider, states repository.SchedulerStateRepository) *Registry {
	return &Registry{
		dispatcher: dispatcher,
		intake:     intake,
		states:     states,
	}
}

// StartFor arms (or re-arms) the scheduler for one user and persists the
// active state. An interval change lands here too: it takes effect for the
// next scheduled tick, a pending tick is unaffected.
func (r *Registry) StartFor(ctx context.Context, userID int64, intervalMinutes int, target *string) error {
	if intervalMinutes <= 0 {
		return model.ErrInvalidInterval
	}

	st := &model.SchedulerState{
		UserID:          userID,
		Active:          true,
		IntervalMinutes: intervalMinutes,
		Target:          target,
	}
	if err := r.states.Save(ctx, st); err != nil {
		return err
	}

	r.schedulerFor(userID).Start(time.Duration(intervalMinutes) * time.Minute)
	return nil
}

// StopFor disarms the scheduler and persists the inactive state. Stopping
// is immediate for future ticks but does not invalidate an outstanding
// tick: a later "yes" on it still resolves.
func (r *Registry) StopFor(ctx context.Context, userID int64) error {
	st, err := r.states.GetByUserID(ctx, userID)
	if errors.Is(err, model.ErrRecordNotFound) {
		st = &model.SchedulerState{
			UserID:          userID,
			IntervalMinutes: model.DefaultIntervalMinutes,
		}
	} else if err != nil {
		return err
	}
	st.Active = false

	if err := r.states.Save(ctx, st); err != nil {
		return err
	}

	r.mu.Lock()
	s, ok := r.schedulers[userID]
	r.mu.Unlock()
	if ok {
		s.Stop()
	}
	return nil
}

// StateFor returns the persisted state, defaulting to an inactive schedule
// for a user who never started one.
func (r *Registry) StateFor(ctx context.Context, userID int64) (*model.SchedulerState, error) {
	st, err := r.states.GetByUserID(ctx, userID)
	if errors.Is(err, model.ErrRecordNotFound) {
		return &model.SchedulerState{
			UserID:          userID,
			Active:          false,
			IntervalMinutes: model.DefaultIntervalMinutes,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ResumeAll re-arms every persisted active schedule. This is a resume, not
// a fresh schedule: the state row is not rewritten, and the interval window
// restarts from now (same-phase resume is not required).
func (r *Registry) ResumeAll(ctx context.Context) error {
	states, err := r.states.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, st := range states {
		interval := st.IntervalMinutes
		if interval <= 0 {
			interval = model.DefaultIntervalMinutes
		}
		r.schedulerFor(st.UserID).Start(time.Duration(interval) * time.Minute)
	}

	log.Printf("[SchedulerRegistry] resumed %d active schedules", len(states))
	return nil
}

// StopAll disarms every timer without touching persisted state, for
// graceful shutdown. Schedules stay active on disk and resume on next boot.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedulers {
		s.Stop()
	}
}

func (r *Registry) schedulerFor(userID int64) *Local {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedulers == nil {
		r.schedulers = make(map[int64]*Local)
	}
	s, ok := r.schedulers[userID]
	if !ok {
		s = NewLocal(userID, r.dispatcher, r.intake)
		r.schedulers[userID] = s
	}
	return s
}
