// Package freshness decides whether a fetched snapshot may be used for a run.
package freshness

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/quant-edge/internal/models"
)

// ValidatedSnapshot marks a snapshot that passed the gate. It wraps the
// original snapshot rather than copying it; only this package can construct one.
type ValidatedSnapshot struct {
	snapshot *models.DataSnapshot
	runDate  models.Date
	location *time.Location
}

// Snapshot returns the validated data.
func (v *ValidatedSnapshot) Snapshot() *models.DataSnapshot { return v.snapshot }

// RunDate is the date the snapshot was validated against.
func (v *ValidatedSnapshot) RunDate() models.Date { return v.runDate }

// Location is the timezone the run date was interpreted in.
func (v *ValidatedSnapshot) Location() *time.Location { return v.location }

// Gate validates snapshots.
type Gate struct {
	logger logrus.FieldLogger
}

// NewGate creates a gate. A nil logger discards output.
func NewGate(logger logrus.FieldLogger) *Gate {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Gate{logger: logger.WithField("component", "freshness_gate")}
}

// Validate checks that snapshot belongs to runDate and is complete. Every
// problem found is reported in the returned *models.DataUnavailableError.
func (g *Gate) Validate(snapshot *models.DataSnapshot, runDate models.Date, loc *time.Location) (*ValidatedSnapshot, error) {
	if loc == nil {
		loc = time.UTC
	}
	issues := Check(snapshot, runDate, loc)
	if len(issues) > 0 {
		g.logger.WithFields(logrus.Fields{
			"run_date": runDate.String(),
			"issues":   len(issues),
		}).Warn("Snapshot rejected")
		return nil, &models.DataUnavailableError{Issues: issues}
	}

	g.logger.WithFields(logrus.Fields{
		"run_date": runDate.String(),
		"games":    len(snapshot.Schedule),
		"markets":  len(snapshot.Markets),
	}).Info("Snapshot validated")

	return &ValidatedSnapshot{snapshot: snapshot, runDate: runDate, location: loc}, nil
}

// Check returns every freshness and completeness issue in snapshot.
func Check(snapshot *models.DataSnapshot, runDate models.Date, loc *time.Location) []string {
	if snapshot == nil {
		return []string{"no snapshot supplied"}
	}
	var issues []string

	if !snapshot.DataDate.Equal(runDate) {
		issue := fmt.Sprintf("snapshot data_date %s does not match run date %s", displayDate(snapshot.DataDate), runDate)
		if !snapshot.DataDate.IsZero() && snapshot.DataDate.Before(runDate) {
			issue += " (stale)"
		}
		issues = append(issues, issue)
	}

	dayStart := runDate.Start(loc)
	if snapshot.FetchedAt.IsZero() {
		issues = append(issues, "fetched_at is missing")
	} else if snapshot.FetchedAt.Before(dayStart) {
		issues = append(issues, fmt.Sprintf("data fetched at %s, before start of %s", snapshot.FetchedAt.Format(time.RFC3339), runDate))
	}

	if len(snapshot.Schedule) == 0 {
		issues = append(issues, "no confirmed schedule games for run date")
	}
	if len(snapshot.Markets) == 0 {
		issues = append(issues, "betting market feed empty")
	}
	seen := make(map[string]bool, len(snapshot.Markets))
	for _, m := range snapshot.Markets {
		if seen[m.MarketID] {
			issues = append(issues, fmt.Sprintf("duplicate market_id %s", m.MarketID))
			continue
		}
		seen[m.MarketID] = true
	}

	for _, game := range snapshot.Schedule {
		if game.TipoffTime.IsZero() {
			issues = append(issues, fmt.Sprintf("missing tip-off time for %s", game.Matchup()))
			continue
		}
		if tip := models.DateIn(game.TipoffTime, loc); !tip.Equal(runDate) {
			issues = append(issues, fmt.Sprintf("schedule date mismatch for %s: tips off %s", game.Matchup(), tip))
		}
	}

	for _, team := range snapshot.ScheduledTeams() {
		if _, ok := snapshot.Injuries[team]; !ok {
			issues = append(issues, fmt.Sprintf("injury report missing for %s", team))
		}
		if len(snapshot.Lineups[team]) == 0 {
			issues = append(issues, fmt.Sprintf("projected lineup missing for %s", team))
		}
	}

	return issues
}

func displayDate(d models.Date) string {
	if d.IsZero() {
		return "(missing)"
	}
	return d.String()
}
