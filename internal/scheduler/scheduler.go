// Package scheduler triggers daily report runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-edge/internal/logger"
	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/pipeline"
)

// Runner is the report service as seen by the scheduler.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*models.Report, error)
	FirstTipoff(ctx context.Context, date models.Date) (time.Time, bool, error)
	Today() models.Date
}

// Scheduler manages the daily and pre-tip report jobs
type Scheduler struct {
	cron            *cron.Cron
	runner          Runner
	logger          logrus.FieldLogger
	now             func() time.Time
	runTimeout      time.Duration
	gracefulTimeout time.Duration

	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
	pretipWin  time.Duration
	lastPretip models.Date
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock used by the pre-tip check.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a scheduler whose cron expressions are evaluated in loc.
func NewScheduler(runner Runner, loc *time.Location, log logrus.FieldLogger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:            cron.New(cron.WithLocation(loc)),
		runner:          runner,
		logger:          logger.OrDiscard(log).WithField("component", "scheduler"),
		now:             time.Now,
		runTimeout:      10 * time.Minute,
		gracefulTimeout: 30 * time.Second,
		jobIDs:          make([]cron.EntryID, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleDailyRun runs the full pipeline for today on cronExpression.
func (s *Scheduler) ScheduleDailyRun(cronExpression string) error {
	return s.addJob(cronExpression, "daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()
		s.RunDaily(ctx)
	})
}

// SchedulePretipCheck polls on cronExpression and reruns the pipeline once per
// day when the first tip-off is less than window away.
func (s *Scheduler) SchedulePretipCheck(cronExpression string, window time.Duration) error {
	if window <= 0 {
		return fmt.Errorf("pre-tip window must be positive")
	}
	s.mu.Lock()
	s.pretipWin = window
	s.mu.Unlock()

	return s.addJob(cronExpression, "pretip", func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()
		if _, err := s.CheckPretip(ctx); err != nil {
			s.logger.WithError(err).Warn("Pre-tip check failed")
		}
	})
}

func (s *Scheduler) addJob(cronExpression, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, job)
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"job":  name,
		"cron": cronExpression,
	}).Info("Scheduled job")
	return nil
}

// RunDaily runs the pipeline for today and logs the outcome.
func (s *Scheduler) RunDaily(ctx context.Context) {
	s.run(ctx, "scheduler")
}

// CheckPretip runs the pipeline when the first tip-off today is within the
// pre-tip window and no pre-tip run has happened today. It reports whether a
// run was started.
func (s *Scheduler) CheckPretip(ctx context.Context) (bool, error) {
	today := s.runner.Today()

	s.mu.RLock()
	window := s.pretipWin
	done := s.lastPretip.Equal(today)
	s.mu.RUnlock()

	if done || window <= 0 {
		return false, nil
	}

	tipoff, ok, err := s.runner.FirstTipoff(ctx, today)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	now := s.now()
	until := tipoff.Sub(now)
	if until <= 0 || until > window {
		return false, nil
	}

	s.mu.Lock()
	s.lastPretip = today
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"first_tipoff":   tipoff.Format(time.RFC3339),
		"minutes_to_tip": int(until.Minutes()),
	}).Info("Starting pre-tip run")
	s.run(ctx, "scheduler_pretip")
	return true, nil
}

func (s *Scheduler) run(ctx context.Context, origin string) {
	rep, err := s.runner.Run(ctx, pipeline.Request{Origin: origin})
	entry := s.logger.WithField("origin", origin)
	if rep != nil {
		entry = entry.WithFields(logrus.Fields{
			"run_date": rep.RunDate.String(),
			"status":   rep.Status,
			"plays":    len(rep.Plays),
		})
	}
	if err != nil {
		entry.WithError(err).Warn("Scheduled run finished with error")
		return
	}
	entry.Info("Scheduled run completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs to finish, up to the graceful timeout.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	timer := time.NewTimer(s.gracefulTimeout)
	defer timer.Stop()

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-timer.C:
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	next := time.Time{}
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, id := range s.jobIDs {
		if entry := s.cron.Entry(id); entry.Valid() {
			entries = append(entries, entry)
		}
	}
	return entries
}
