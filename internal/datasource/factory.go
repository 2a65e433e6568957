package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-edge/internal/config"
	"github.com/yourusername/quant-edge/internal/metrics"
	"github.com/yourusername/quant-edge/internal/models"
)

// SourceType represents the type of data source
type SourceType string

const (
	// FileSourceType reads a snapshot file
	FileSourceType SourceType = "file"
	// HTTPSourceType calls a snapshot service
	HTTPSourceType SourceType = "http"
)

// NewSource creates the configured Source wrapped with fetch metrics.
func NewSource(cfg config.SourceConfig, logger logrus.FieldLogger) (Source, error) {
	switch SourceType(cfg.Kind) {
	case FileSourceType:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file source requires a path")
		}
		return Instrument(NewFileSource(cfg.Path)), nil

	case HTTPSourceType:
		if cfg.URL == "" {
			return nil, fmt.Errorf("http source requires a url")
		}
		tcfg := DefaultTransportConfig()
		if t := cfg.Timeout(); t > 0 {
			tcfg.Timeout = t
		}
		tcfg.Retries = cfg.RetryAttempts
		if cfg.RateLimit > 0 {
			tcfg.RequestsPerSecond = cfg.RateLimit
		}
		client := NewTransport(tcfg, logger)
		return Instrument(NewHTTPSource(client, cfg.URL, cfg.APIKey, logger)), nil

	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Kind)
	}
}

// instrumented records fetch latency and failures.
type instrumented struct {
	Source
}

// Instrument wraps s so every fetch is recorded in metrics.
func Instrument(s Source) Source {
	return &instrumented{Source: s}
}

func (i *instrumented) FetchSnapshot(ctx context.Context, runDate models.Date) (*models.DataSnapshot, error) {
	start := time.Now()
	snap, err := i.Source.FetchSnapshot(ctx, runDate)
	metrics.RecordSnapshotFetch(time.Since(start), err)
	return snap, err
}

// Reset forwards to the wrapped source when it keeps transport state.
func (i *instrumented) Reset() {
	if r, ok := i.Source.(interface{ Reset() }); ok {
		r.Reset()
	}
}
