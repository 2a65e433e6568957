// Package reset owns the start of every run: it resolves the run date, enforces
// the manual-override gate and clears whatever per-run state collaborators hold.
package reset

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/quant-edge/internal/models"
)

// Resetter is implemented by collaborators that keep per-run scratch state
// (upstream status tables, fetch bookkeeping) which must not leak into the next run.
type Resetter interface {
	Reset()
}

// RunContext is the immutable identity of a single invocation.
type RunContext struct {
	id              uuid.UUID
	runDate         models.Date
	overrideAllowed bool
	overrideUsed    bool
	createdAt       time.Time
	location        *time.Location
}

// ID uniquely identifies the run in logs.
func (rc *RunContext) ID() uuid.UUID { return rc.id }

// RunDate is the calendar day every input must belong to.
func (rc *RunContext) RunDate() models.Date { return rc.runDate }

// OverrideAllowed reports whether the caller passed the override flag.
func (rc *RunContext) OverrideAllowed() bool { return rc.overrideAllowed }

// OverrideUsed reports whether the run date differs from today.
func (rc *RunContext) OverrideUsed() bool { return rc.overrideUsed }

// CreatedAt is when the run began.
func (rc *RunContext) CreatedAt() time.Time { return rc.createdAt }

// Location is the timezone run_date is interpreted in.
func (rc *RunContext) Location() *time.Location { return rc.location }

// DayStart returns midnight at the start of the run date in the run timezone.
func (rc *RunContext) DayStart() time.Time { return rc.runDate.Start(rc.location) }

// Controller starts runs.
type Controller struct {
	location  *time.Location
	now       func() time.Time
	logger    logrus.FieldLogger
	mu        sync.Mutex
	resetters []Resetter
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the wall clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the controller's logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) { c.logger = logger }
}

// NewController creates a controller interpreting dates in loc.
func NewController(loc *time.Location, opts ...Option) *Controller {
	if loc == nil {
		loc = time.UTC
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Controller{
		location: loc,
		now:      time.Now,
		logger:   discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a collaborator whose state is cleared at the start of every run.
func (c *Controller) Register(r Resetter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetters = append(c.resetters, r)
}

// Today returns the current calendar day in the controller's timezone.
func (c *Controller) Today() models.Date {
	return models.DateIn(c.now(), c.location)
}

// BeginRun resolves the run date and returns a fresh context. A cliDate that
// differs from today is rejected unless allowOverride is set; it never falls
// back to today silently.
func (c *Controller) BeginRun(today models.Date, cliDate *models.Date, allowOverride bool) (*RunContext, error) {
	runDate := today
	overrideUsed := false

	if cliDate != nil && !cliDate.IsZero() && !cliDate.Equal(today) {
		if !allowOverride {
			c.logger.WithFields(logrus.Fields{
				"today":     today.String(),
				"requested": cliDate.String(),
			}).Warn("Manual run date rejected without override")
			return nil, &models.OverrideRejectedError{Today: today, Requested: *cliDate}
		}
		runDate = *cliDate
		overrideUsed = true
	}

	c.mu.Lock()
	for _, r := range c.resetters {
		r.Reset()
	}
	cleared := len(c.resetters)
	c.mu.Unlock()

	rc := &RunContext{
		id:              uuid.New(),
		runDate:         runDate,
		overrideAllowed: allowOverride,
		overrideUsed:    overrideUsed,
		createdAt:       c.now().In(c.location),
		location:        c.location,
	}

	c.logger.WithFields(logrus.Fields{
		"run_id":        rc.id.String(),
		"run_date":      runDate.String(),
		"override_used": overrideUsed,
		"reset":         cleared,
	}).Info("Daily state reset")

	return rc, nil
}
