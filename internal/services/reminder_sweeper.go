package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tourney/internal/core"
	"tourney/internal/reminders"
	"tourney/internal/store"
)

// ReminderSweeperConfig holds configuration for the reminder sweeper
type ReminderSweeperConfig struct {
	// Interval is how often overdue reminders are reported (default: 1h)
	Interval time.Duration
}

// DefaultReminderSweeperConfig returns sensible defaults
func DefaultReminderSweeperConfig() ReminderSweeperConfig {
	return ReminderSweeperConfig{Interval: time.Hour}
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Checked int
	Overdue []core.ActionReminder
}

// ReminderSweeper periodically reports open reminders past their due date.
type ReminderSweeper struct {
	store  *store.Store
	config ReminderSweeperConfig
	now    func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReminderSweeper(st *store.Store, config ReminderSweeperConfig) *ReminderSweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultReminderSweeperConfig().Interval
	}
	return &ReminderSweeper{store: st, config: config, now: time.Now}
}

// Start begins the sweep loop. Returns an error if already running.
func (s *ReminderSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("reminder sweeper is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stop, done := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Reminder sweeper started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for it to finish. Only the first of
// several concurrent calls waits; the rest return immediately.
func (s *ReminderSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stop, done := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stop)

	select {
	case <-done:
		slog.InfoContext(ctx, "Reminder sweeper stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder sweeper stop timed out")
		return ctx.Err()
	}
	return nil
}

func (s *ReminderSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *ReminderSweeper) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.sweepAndLog(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *ReminderSweeper) sweepAndLog(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		slog.ErrorContext(ctx, "Reminder sweep failed", "error", err)
	}
}

// Sweep checks every reminder once and logs the overdue ones.
func (s *ReminderSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	all, err := s.store.Reminders.Filter(ctx, nil)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list reminders: %w", err)
	}

	overdue := reminders.Overdue(all, s.now())
	for _, r := range overdue {
		slog.WarnContext(ctx, "Reminder overdue",
			"entity_id", r.ID,
			"tournament_id", r.TournamentID,
			"due_date", r.DueDate.String(),
			"status", r.Status,
			"description", r.Description)
	}
	slog.InfoContext(ctx, "Reminder sweep completed", "checked", len(all), "overdue", len(overdue))
	return SweepResult{Checked: len(all), Overdue: overdue}, nil
}
