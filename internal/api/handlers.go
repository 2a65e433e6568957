package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/pipeline"
	"github.com/yourusername/quant-edge/internal/repository"
)

// MsgInvalidDate is returned for a malformed date query parameter.
const MsgInvalidDate = models.MsgInvalidDate

const (
	defaultArchiveLimit = 20
	maxArchiveLimit     = 200
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// ErrorResponse is the body of every non-report error.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if !s.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	if s.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := s.cfg.DB.HealthCheck(ctx); err != nil {
			allHealthy = false
			checks["database"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["database"] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  s.cfg.ServiceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	if allHealthy {
		response.Status = "ok"
		respondJSON(w, http.StatusOK, response)
		return
	}
	response.Status = "not_ready"
	respondJSON(w, http.StatusServiceUnavailable, response)
}

// handleReport runs the pipeline for the requested date.
//
//	GET /report?date=2026-10-17&allow_manual_override=true
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req := pipeline.Request{Origin: "api"}

	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, MsgInvalidDate)
			return
		}
		req.Date = &d
	}
	if raw := r.URL.Query().Get("allow_manual_override"); raw != "" {
		allow, err := strconv.ParseBool(raw)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "allow_manual_override must be true or false")
			return
		}
		req.AllowOverride = allow
	}

	rep, err := s.runner.Run(r.Context(), req)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, rep)
	case errors.Is(err, models.ErrOverrideRejected):
		s.respondError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrDataUnavailable) && rep != nil:
		respondJSON(w, http.StatusServiceUnavailable, rep)
	case errors.Is(err, models.ErrInvalidSimulationConfig):
		s.respondError(w, r, http.StatusBadRequest, err.Error())
	case rep != nil:
		// Published reports with a delivery failure are still returned.
		s.logger.WithError(err).WithField("request_id", RequestID(r.Context())).Warn("Report delivered with errors")
		respondJSON(w, http.StatusOK, rep)
	default:
		s.logger.WithError(err).WithField("request_id", RequestID(r.Context())).Error("Report run failed")
		s.respondError(w, r, http.StatusInternalServerError, "report run failed")
	}
}

// handlePicks returns a published report without running the pipeline: the
// latest one, or the one for ?date= while it is still cached.
func (s *Server) handlePicks(w http.ResponseWriter, r *http.Request) {
	var (
		rep *models.Report
		ok  bool
	)
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, MsgInvalidDate)
			return
		}
		rep, ok = s.runner.ForDate(d)
	} else {
		rep, ok = s.runner.Latest()
	}
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "no report has been published yet")
		return
	}
	status := http.StatusOK
	if rep.Status == models.StatusAbortedNoLiveData {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, rep)
}

// ArchiveEntry summarizes one archived report.
type ArchiveEntry struct {
	ID                 string    `json:"id"`
	RunDate            string    `json:"run_date"`
	Status             string    `json:"status"`
	Plays              int       `json:"plays"`
	ManualOverrideUsed bool      `json:"manual_override_used"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// handleArchiveList lists the most recently archived reports.
//
//	GET /archive?limit=20
func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	limit := defaultArchiveLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxArchiveLimit {
			s.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxArchiveLimit))
			return
		}
		limit = n
	}

	recs, err := s.cfg.Archive.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", RequestID(r.Context())).Error("Archive listing failed")
		s.respondError(w, r, http.StatusInternalServerError, "archive unavailable")
		return
	}

	entries := make([]ArchiveEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, ArchiveEntry{
			ID:                 rec.ID.String(),
			RunDate:            rec.RunDate.String(),
			Status:             string(rec.Status),
			Plays:              rec.Plays,
			ManualOverrideUsed: rec.ManualOverride,
			GeneratedAt:        rec.GeneratedAt,
		})
	}
	respondJSON(w, http.StatusOK, entries)
}

// handleArchiveGet returns one archived report in full.
func (s *Server) handleArchiveGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "id must be a UUID")
		return
	}

	s.respondArchived(w, r, func(ctx context.Context) (*repository.ArchivedReport, error) {
		return s.cfg.Archive.GetByID(ctx, id)
	})
}

// handleArchiveLatest returns the last report archived for ?date=.
func (s *Server) handleArchiveLatest(w http.ResponseWriter, r *http.Request) {
	d, err := models.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, MsgInvalidDate)
		return
	}
	s.respondArchived(w, r, func(ctx context.Context) (*repository.ArchivedReport, error) {
		return s.cfg.Archive.GetLatest(ctx, d)
	})
}

func (s *Server) respondArchived(w http.ResponseWriter, r *http.Request, lookup func(context.Context) (*repository.ArchivedReport, error)) {
	rec, err := lookup(r.Context())
	switch {
	case errors.Is(err, models.ErrNotFound):
		s.respondError(w, r, http.StatusNotFound, "no archived report found")
	case err != nil:
		s.logger.WithError(err).WithField("request_id", RequestID(r.Context())).Error("Archive lookup failed")
		s.respondError(w, r, http.StatusInternalServerError, "archive unavailable")
	default:
		respondJSON(w, http.StatusOK, rec.Report)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	respondJSON(w, status, ErrorResponse{Detail: detail, RequestID: RequestID(r.Context())})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
