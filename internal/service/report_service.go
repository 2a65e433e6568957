// Package service runs the daily pipeline and publishes its report.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-edge/internal/datasource"
	"github.com/yourusername/quant-edge/internal/logger"
	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/pipeline"
	"github.com/yourusername/quant-edge/internal/report"
	"github.com/yourusername/quant-edge/internal/repository"
	"github.com/yourusername/quant-edge/internal/reset"
)

// ReportService runs the pipeline against a snapshot source and delivers the
// resulting report to the configured destinations.
type ReportService struct {
	pipeline *pipeline.Pipeline
	source   datasource.Source
	writer   *report.FileWriter
	store    *report.Store
	archive  repository.ReportRepository
	audit    *logger.AuditLogger
	logger   logrus.FieldLogger

	// runs are serialized so a scheduled run and an API request never
	// interleave their resets.
	mu sync.Mutex
}

// Option configures a ReportService.
type Option func(*ReportService)

// WithFileWriter writes every report to w.
func WithFileWriter(w *report.FileWriter) Option {
	return func(s *ReportService) { s.writer = w }
}

// WithStore keeps the latest report in st.
func WithStore(st *report.Store) Option {
	return func(s *ReportService) { s.store = st }
}

// WithArchive saves every report to repo.
func WithArchive(repo repository.ReportRepository) Option {
	return func(s *ReportService) { s.archive = repo }
}

// NewReportService creates a service. The source is registered with the
// pipeline's reset controller when it keeps transport state.
func NewReportService(p *pipeline.Pipeline, source datasource.Source, log logrus.FieldLogger, opts ...Option) *ReportService {
	log = logger.OrDiscard(log)
	s := &ReportService{
		pipeline: p,
		source:   source,
		store:    report.NewStore(0),
		audit:    logger.NewAuditLogger(log),
		logger:   log.WithField("component", "report_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if r, ok := source.(reset.Resetter); ok {
		p.Controller().Register(r)
	}
	return s
}

// Today returns the current date in the run timezone.
func (s *ReportService) Today() models.Date {
	return s.pipeline.Controller().Today()
}

// Store returns the in-memory report store.
func (s *ReportService) Store() *report.Store { return s.store }

// Run executes the pipeline and publishes any report it produced, including
// aborted ones. The pipeline's error is returned unchanged; a publish failure
// is returned only when the pipeline itself succeeded.
func (s *ReportService) Run(ctx context.Context, req pipeline.Request) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep, runErr := s.pipeline.Run(ctx, req, s.source)
	if rep == nil {
		return nil, runErr
	}

	if err := s.publish(ctx, rep); err != nil && runErr == nil {
		return rep, err
	}
	return rep, runErr
}

func (s *ReportService) publish(ctx context.Context, rep *models.Report) error {
	runDate := rep.RunDate.String()

	s.store.Put(rep)
	s.audit.LogReportPublished(runDate, string(rep.Status), "memory", len(rep.Plays), rep.GeneratedAt)
	hits, misses, ratio := s.store.Stats()
	s.logger.WithFields(logrus.Fields{
		"cache_hits":      hits,
		"cache_misses":    misses,
		"cache_hit_ratio": ratio,
	}).Debug("Report cache updated")

	var writeErr error
	if s.writer != nil {
		if err := s.writer.Write(rep); err != nil {
			s.logger.WithError(err).WithField("path", s.writer.Path()).Error("Failed to write report")
			writeErr = fmt.Errorf("write report: %w", err)
		} else {
			s.audit.LogReportPublished(runDate, string(rep.Status), s.writer.Path(), len(rep.Plays), rep.GeneratedAt)
		}
	}

	if s.archive != nil {
		id, err := s.archive.Save(ctx, rep)
		if err != nil {
			s.logger.WithError(err).WithField("run_date", runDate).Warn("Failed to archive report")
		} else {
			s.audit.LogReportPublished(runDate, string(rep.Status), "archive:"+id.String(), len(rep.Plays), rep.GeneratedAt)
		}
	}

	return writeErr
}

// Latest returns the most recently published report.
func (s *ReportService) Latest() (*models.Report, bool) {
	return s.store.Latest()
}

// ForDate returns the cached report published for date, if still held.
func (s *ReportService) ForDate(date models.Date) (*models.Report, bool) {
	return s.store.ForDate(date)
}

// FirstTipoff fetches the schedule for date and returns its earliest tip-off.
// The boolean is false when no games are scheduled.
func (s *ReportService) FirstTipoff(ctx context.Context, date models.Date) (time.Time, bool, error) {
	snap, err := s.source.FetchSnapshot(ctx, date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("fetch schedule: %w", err)
	}

	var first time.Time
	for _, g := range snap.Schedule {
		if g.TipoffTime.IsZero() {
			continue
		}
		if first.IsZero() || g.TipoffTime.Before(first) {
			first = g.TipoffTime
		}
	}
	return first, !first.IsZero(), nil
}
