package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omriShneor/planit/internal/database"
)

// DBInterface defines the database operations needed by the reminder worker
type DBInterface interface {
	ListPlansDueForReminder(now time.Time, lead time.Duration) ([]*database.CelebrationPlan, error)
	MarkPlanReminded(id int64, at time.Time) error
	CleanupExpiredSessions() (int64, error)
}

// PlanNotifier delivers a reminder for one plan and reports whether it was sent.
type PlanNotifier interface {
	NotifyPlanReminder(ctx context.Context, plan *database.CelebrationPlan) bool
}

// WorkerConfig contains configuration for the reminder worker
type WorkerConfig struct {
	// Schedule is a standard 5-field cron expression.
	Schedule string
	// Lead is how far ahead of a plan's date the reminder goes out.
	Lead time.Duration
	// SendTimeout bounds each RunOnce pass.
	SendTimeout time.Duration
}

// Worker emails celebration plan reminders on a cron schedule and prunes expired sessions.
type Worker struct {
	db       DBInterface
	notifier PlanNotifier
	config   WorkerConfig
	logger   *slog.Logger
	now      func() time.Time

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewWorker validates the schedule and builds an unstarted worker.
func NewWorker(db DBInterface, notifier PlanNotifier, config WorkerConfig, logger *slog.Logger) (*Worker, error) {
	if config.Schedule == "" {
		config.Schedule = "0 9 * * *"
	}
	if config.Lead <= 0 {
		config.Lead = 7 * 24 * time.Hour
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 2 * time.Minute
	}

	w := &Worker{
		db:       db,
		notifier: notifier,
		config:   config,
		logger:   logger.With("component", "reminder"),
		now:      time.Now,
		cron:     cron.New(),
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())

	if _, err := w.cron.AddFunc(config.Schedule, w.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", config.Schedule, err)
	}
	if _, err := w.cron.AddFunc("@hourly", w.cleanupSessions); err != nil {
		return nil, fmt.Errorf("failed to schedule session cleanup: %w", err)
	}

	return w, nil
}

// Start begins running scheduled jobs in the background
func (w *Worker) Start() {
	w.logger.Info("reminder worker starting", "schedule", w.config.Schedule, "lead", w.config.Lead)
	w.cron.Start()
}

// Stop cancels in-flight sends and waits for running jobs to return
func (w *Worker) Stop() {
	w.logger.Info("reminder worker stopping")
	w.cancel()
	<-w.cron.Stop().Done()
	w.logger.Info("reminder worker stopped")
}

func (w *Worker) runScheduled() {
	ctx, cancel := context.WithTimeout(w.ctx, w.config.SendTimeout)
	defer cancel()

	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.Error("reminder pass failed", "error", err)
	}
}

// RunOnce sends reminders for every plan currently due and returns how many were sent.
// Plans whose send fails stay unmarked and are retried on the next pass.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	// Overlapping passes would double-send
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	plans, err := w.db.ListPlansDueForReminder(now, w.config.Lead)
	if err != nil {
		return 0, fmt.Errorf("failed to list due plans: %w", err)
	}

	sent := 0
	for _, plan := range plans {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if !w.notifier.NotifyPlanReminder(ctx, plan) {
			continue
		}
		if err := w.db.MarkPlanReminded(plan.ID, now); err != nil {
			w.logger.Error("failed to mark plan reminded", "plan_id", plan.ID, "error", err)
			continue
		}
		sent++
	}

	if len(plans) > 0 {
		w.logger.Info("reminder pass complete", "due", len(plans), "sent", sent)
	}
	return sent, nil
}

func (w *Worker) cleanupSessions() {
	n, err := w.db.CleanupExpiredSessions()
	if err != nil {
		w.logger.Error("session cleanup failed", "error", err)
		return
	}
	if n > 0 {
		w.logger.Info("removed expired sessions", "count", n)
	}
}
