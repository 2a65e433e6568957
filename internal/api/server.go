// Package api serves reports over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-edge/internal/logger"
	"github.com/yourusername/quant-edge/internal/metrics"
	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/pipeline"
	"github.com/yourusername/quant-edge/internal/repository"
)

// ReportRunner runs the pipeline and remembers published reports.
type ReportRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*models.Report, error)
	Latest() (*models.Report, bool)
	ForDate(date models.Date) (*models.Report, bool)
}

// ArchiveReader lists reports kept in the database archive.
type ArchiveReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.ArchivedReport, error)
	GetLatest(ctx context.Context, runDate models.Date) (*repository.ArchivedReport, error)
	ListRecent(ctx context.Context, limit int) ([]*repository.ArchivedReport, error)
}

// DatabaseChecker is satisfied by the report archive.
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds the configuration for the API server.
type Config struct {
	ServiceName    string
	Version        string
	Port           int
	AllowedOrigins []string
	MetricsPath    string
	RequestTimeout time.Duration
	Logger         logrus.FieldLogger
	DB             DatabaseChecker
	Archive        ArchiveReader
}

// Server is the report API.
type Server struct {
	cfg    Config
	runner ReportRunner
	logger logrus.FieldLogger
	router chi.Router
	server *http.Server

	mu    sync.RWMutex
	ready bool
}

// NewServer creates a new API server.
func NewServer(cfg Config, runner ReportRunner) *Server {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "quant-edge"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		cfg:    cfg,
		runner: runner,
		logger: logger.OrDiscard(cfg.Logger).WithField("component", "api"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/report", s.handleReport)
	r.Get("/picks", s.handlePicks)
	if s.cfg.Archive != nil {
		r.Route("/archive", func(r chi.Router) {
			r.Get("/", s.handleArchiveList)
			r.Get("/latest", s.handleArchiveLatest)
			r.Get("/{id}", s.handleArchiveGet)
		})
	}
	if s.cfg.MetricsPath != "" {
		r.Method(http.MethodGet, s.cfg.MetricsPath, metrics.Handler())
	}
	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"port":    s.cfg.Port,
			"service": s.cfg.ServiceName,
		}).Info("API server starting")
		s.SetReady(true)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	s.SetReady(false)
	s.logger.Info("API server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
