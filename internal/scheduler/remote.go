package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"hydromate/internal/model"
	"hydromate/internal/repository"
	"hydromate/internal/service"
)

// Remote is the server-side SMS reminder loop. It runs on a fixed poll
// cadence independent of any client session and gates each user's send on
// the dedup timestamp alone: due when now - last_sent_at >= interval. The
// check is level-triggered, so a poll cycle that never ran results in one
// send on the next cycle, never a burst of owed sends.
type Remote struct {
	configs repository.ReminderConfigRepository
	sms     service.SMSSender

	countryPrefix string
	body          string

	now func() time.Time // injectable for due-boundary tests

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewRemote(configs repository.ReminderConfigRepository, sms service.SMSSender, countryPrefix, body string) *Remote {
	return &Remote{
		configs:       configs,
		sms:           sms,
		countryPrefix: countryPrefix,
		body:          body,
		now:           time.Now,
	}
}

// Poll runs one cycle over every enabled user and returns how many SMS
// went out. Idempotent per invocation: a second call in the same minute
// finds nobody due because MarkSent already advanced the timestamps.
//
// Per-user failures never abort the batch. A failed send leaves
// last_sent_at untouched, so that user is simply due again next cycle.
func (s *Remote) Poll(ctx context.Context) (int, error) {
	startTime := time.Now()

	configs, err := s.configs.ListEnabled(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	sent := 0
	for _, cfg := range configs {
		if cfg.PhoneNumber == nil || *cfg.PhoneNumber == "" {
			// Config missing, not an error: skip this user
			continue
		}

		interval := cfg.IntervalMinutes
		if interval <= 0 {
			interval = model.DefaultIntervalMinutes
		}
		// nil last_sent_at means never sent: always due
		if cfg.LastSentAt != nil && now.Sub(*cfg.LastSentAt) < time.Duration(interval)*time.Minute {
			continue
		}

		to := service.NormalizePhone(*cfg.PhoneNumber, s.countryPrefix)
		if err := s.sms.Send(ctx, to, s.body); err != nil {
			log.Printf("[RemoteScheduler] send FAILED, will retry next cycle: user=%d err=%v", cfg.UserID, err)
			continue
		}

		// The row update is the commit point. A crash between send and
		// MarkSent risks one slightly-early retry, never a send that is
		// falsely marked as done.
		if err := s.configs.MarkSent(ctx, cfg.UserID, now); err != nil {
			log.Printf("[RemoteScheduler] mark sent FAILED: user=%d err=%v", cfg.UserID, err)
			continue
		}
		sent++
	}

	log.Printf("[RemoteScheduler] Poll OK: users=%d sent=%d duration=%v",
		len(configs), sent, time.Since(startTime))
	return sent, nil
}

// Start drives Poll on a fixed cadence until Stop is called. The HTTP
// trigger endpoint invokes the same Poll, so an external cron can stand in
// for (or double up with) this loop without over-sending.
func (s *Remote) Start(ctx context.Context, every time.Duration) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(every)
		defer ticker.Stop()

		log.Printf("[RemoteScheduler] loop started: every=%v", every)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[RemoteScheduler] loop stopped")
				return
			case <-ticker.C:
				if _, err := s.Poll(ctx); err != nil {
					log.Printf("[RemoteScheduler] Poll FAILED: err=%v", err)
				}
			}
		}
	}()
}

// Stop halts the poll loop and waits for the in-flight cycle to finish.
func (s *Remote) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
