/*
scheduler.go - Automated payment reminder scheduler

PURPOSE:
  Periodically runs a reminder pass so tenants hear about rent two days
  before it is due and again on the due date.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Each pass is leasing.Service.SendReminders; stages make passes idempotent
    within a day, so a short interval never double-notifies

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReminderScheduler(svc, leasing.LogNotifier{})
  scheduler.Start()
  // ... later
  scheduler.Stop()

  The API handler owns one scheduler, so manual passes from the admin
  endpoint and scheduled passes share LastRun.

SEE ALSO:
  - handlers.go: RunReminders and ReminderStatus endpoints
  - leasing/reminders.go: Stage rules
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/lease-engine/leasing"
)

// ReminderScheduler handles automated payment reminders.
type ReminderScheduler struct {
	Service       *leasing.Service
	Notifier      leasing.Notifier
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex

	// runMu guards lastRun; Stop holds mu while waiting for a pass to finish.
	runMu   sync.Mutex
	lastRun leasing.ReminderRun
}

// NewReminderScheduler creates a new scheduler.
func NewReminderScheduler(svc *leasing.Service, notifier leasing.Notifier) *ReminderScheduler {
	return &ReminderScheduler{
		Service:       svc,
		Notifier:      notifier,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled || rs.CheckInterval <= 0 {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan bool)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Scheduler] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the scheduler.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *ReminderScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReminderScheduler) checkAndProcess() {
	rs.RunNow(context.Background())
}

// RunNow runs a pass immediately. The scheduler loop and the admin endpoint
// both come through here, so LastRun reflects either.
func (rs *ReminderScheduler) RunNow(ctx context.Context) (leasing.ReminderRun, error) {
	run, err := rs.Service.SendReminders(ctx, rs.Notifier)
	if err != nil {
		log.Printf("[Scheduler] Reminder pass for %s failed: %v", run.Today, err)
		return run, err
	}
	rs.recordRun(run)

	if run.Sent > 0 || run.Failed > 0 {
		log.Printf("[Scheduler] Reminders for %s: %d sent, %d failed", run.Today, run.Sent, run.Failed)
	}
	return run, nil
}

func (rs *ReminderScheduler) recordRun(run leasing.ReminderRun) {
	rs.runMu.Lock()
	defer rs.runMu.Unlock()
	rs.lastRun = run
}

// LastRun returns the result of the most recent successful pass. Its Today
// is zero until a pass has completed.
func (rs *ReminderScheduler) LastRun() leasing.ReminderRun {
	rs.runMu.Lock()
	defer rs.runMu.Unlock()
	return rs.lastRun
}

// Running reports whether the background loop is active.
func (rs *ReminderScheduler) Running() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.ticker != nil
}
