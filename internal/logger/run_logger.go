package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RunLogger records pipeline lifecycle events for one daily run.
type RunLogger struct {
	logrus.FieldLogger
}

// NewRunLogger scopes base to the pipeline component.
func NewRunLogger(base logrus.FieldLogger) *RunLogger {
	return &RunLogger{FieldLogger: OrDiscard(base).WithField("component", "pipeline")}
}

// WithRun tags every subsequent event with the run's identity.
func (rl *RunLogger) WithRun(runID, runDate string) *RunLogger {
	return &RunLogger{FieldLogger: rl.WithFields(logrus.Fields{
		"run_id":   runID,
		"run_date": runDate,
	})}
}

// LogRunStarted logs the start of a run.
func (rl *RunLogger) LogRunStarted(requestedDate string, overrideAllowed bool, iterations int) {
	rl.WithFields(logrus.Fields{
		"requested_date":   requestedDate,
		"override_allowed": overrideAllowed,
		"iterations":       iterations,
	}).Info("Run started")
}

// LogStateTransition logs a pipeline state change.
func (rl *RunLogger) LogStateTransition(from, to string) {
	rl.WithFields(logrus.Fields{
		"from_state": from,
		"to_state":   to,
	}).Debug("Pipeline state changed")
}

// LogAborted logs a run that could not complete.
func (rl *RunLogger) LogAborted(state, reason string, issues []string) {
	rl.WithFields(logrus.Fields{
		"state":  state,
		"reason": reason,
		"issues": issues,
	}).Warn("Run aborted")
}

// LogMarketDropped logs a market excluded from simulation.
func (rl *RunLogger) LogMarketDropped(marketID, reason string) {
	rl.WithFields(logrus.Fields{
		"market_id": marketID,
		"reason":    reason,
	}).Info("Market dropped")
}

// LogSimulationCompleted logs simulation totals.
func (rl *RunLogger) LogSimulationCompleted(markets, iterations int, seed int64, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"markets":     markets,
		"iterations":  iterations,
		"seed":        seed,
		"duration_ms": duration.Milliseconds(),
	}).Info("Simulation completed")
}

// LogReportReady logs the final report summary.
func (rl *RunLogger) LogReportReady(status string, plays int, topEdge float64) {
	rl.WithFields(logrus.Fields{
		"status":   status,
		"plays":    plays,
		"top_edge": topEdge,
	}).Info("Report ready")
}
