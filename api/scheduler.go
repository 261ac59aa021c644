/*
scheduler.go - Monthly leave accrual scheduler

PURPOSE:
  Runs the roster-wide leave recalculation shortly after midnight on the
  first day of each month, mirroring the monthly accrual cadence. The
  recalculation itself is idempotent, so an extra run (manual trigger,
  restart near the boundary) never double-credits anyone.

DESIGN:
  - Background goroutine sleeping on a timer armed for the next
    1st-of-month 00:10 local time, re-armed after each fire
  - RunNow() for the admin endpoint and tests
  - Stop() waits for the goroutine to exit

USAGE:
  scheduler := NewAccrualScheduler(recalc)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - leave/accrual.go: Recalculator
  - handlers.go: RecalculateLeave endpoint (manual trigger)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/brillar/hr-portal/leave"
)

// AccrualScheduler fires the monthly leave recalculation.
type AccrualScheduler struct {
	Recalc  *leave.Recalculator
	Enabled bool

	timer *time.Timer
	stop  chan bool
	wg    sync.WaitGroup
	mu    sync.Mutex
}

// NewAccrualScheduler creates a new scheduler.
func NewAccrualScheduler(recalc *leave.Recalculator) *AccrualScheduler {
	return &AccrualScheduler{
		Recalc:  recalc,
		Enabled: true,
		stop:    make(chan bool),
	}
}

// Start begins the scheduler.
func (s *AccrualScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	next := nextMonthlyRun(time.Now())
	s.timer = time.NewTimer(time.Until(next))
	s.wg.Add(1)

	go s.run()

	log.Printf("[Scheduler] Started, next accrual run at %v", next)
}

// Stop stops the scheduler.
func (s *AccrualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (s *AccrualScheduler) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.timer.C:
			s.RunNow()
			next := nextMonthlyRun(time.Now())
			s.mu.Lock()
			s.timer.Reset(time.Until(next))
			s.mu.Unlock()
			log.Printf("[Scheduler] Next accrual run at %v", next)
		case <-s.stop:
			return
		}
	}
}

// RunNow triggers an immediate recalculation (for admin/testing).
func (s *AccrualScheduler) RunNow() {
	start := time.Now()
	summary, err := s.Recalc.AccrueMonthly(context.Background(), start)
	if err != nil {
		log.Printf("[Scheduler] Recalculation failed: %v", err)
		return
	}
	log.Printf("[Scheduler] Recalculated %d employees, %d updated, took %v",
		summary.Processed, summary.Updated, time.Since(start).Round(time.Millisecond))
}

// GetNextRunTime returns when the next scheduled run will occur.
func (s *AccrualScheduler) GetNextRunTime() time.Time {
	return nextMonthlyRun(time.Now())
}

// nextMonthlyRun returns the next 1st-of-month 00:10 strictly after now.
func nextMonthlyRun(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), 1, 0, 10, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 1, 0)
	}
	return candidate
}
