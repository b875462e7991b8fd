package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"hydromate/internal/model"
)

// Dispatcher hands a due tick to the delivery side. Satisfied by
// service.DeliveryDispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID int64, tick model.ReminderTick) error
}

// ServingProvider supplies the current serving size when a tick fires.
// Satisfied by service.IntakeService.
type ServingProvider interface {
	Today(ctx context.Context, userID int64) (*model.IntakeRecord, error)
}

// Local is the per-user interval scheduler. It owns at most one timer
// goroutine: starting while already running disarms the prior timer first,
// so schedules never overlap. Each firing mints a ReminderTick with a fresh
// id and the user's current serving size and hands it to the dispatcher.
//
// Delivery failures are logged and dropped; the next tick is the retry.
type Local struct {
	userID     int64
	dispatcher Dispatcher
	intake     ServingProvider

	mu       sync.Mutex
	stop     chan struct{} // non-nil while armed
	interval time.Duration
}

func NewLocal(userID int64, dispatcher Dispatcher, intake ServingProvider) *Local {
	return &Local{
		userID:     userID,
		dispatcher: dispatcher,
		intake:     intake,
	}
}

// Start arms the repeating timer, replacing any prior one.
func (s *Local) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disarmLocked()

	stop := make(chan struct{})
	s.stop = stop
	s.interval = interval

	go s.run(interval, stop)
	log.Printf("[LocalScheduler] armed: user=%d interval=%v", s.userID, interval)
}

// Stop disarms the timer. Immediate for future ticks; a tick already
// dispatched and awaiting a decision is not retracted.
func (s *Local) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
}

// Running reports whether a timer is currently armed.
func (s *Local) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func (s *Local) disarmLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
		log.Printf("[LocalScheduler] disarmed: user=%d", s.userID)
	}
}

func (s *Local) run(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.fire()
		}
	}
}

// fire builds a fresh tick and hands it off. The tick id is the key the
// action router dedups on, so it must never be reused across firings.
func (s *Local) fire() {
	ctx := context.Background()

	serving := model.DefaultServingML
	if rec, err := s.intake.Today(ctx, s.userID); err == nil {
		serving = rec.ServingML
	} else {
		log.Printf("[LocalScheduler] read serving size FAILED, using default: user=%d err=%v", s.userID, err)
	}

	tick := model.ReminderTick{
		ID:        uuid.NewString(),
		ServingML: serving,
		IssuedAt:  time.Now(),
	}

	if err := s.dispatcher.Dispatch(ctx, s.userID, tick); err != nil {
		// No out-of-band retry: the next scheduled tick is the retry
		log.Printf("[LocalScheduler] dispatch FAILED: user=%d tick=%s err=%v", s.userID, tick.ID, err)
	}
}
