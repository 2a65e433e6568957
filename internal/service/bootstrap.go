package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-edge/internal/config"
	"github.com/yourusername/quant-edge/internal/database"
	"github.com/yourusername/quant-edge/internal/datasource"
	"github.com/yourusername/quant-edge/internal/logger"
	"github.com/yourusername/quant-edge/internal/odds"
	"github.com/yourusername/quant-edge/internal/pipeline"
	"github.com/yourusername/quant-edge/internal/report"
	"github.com/yourusername/quant-edge/internal/repository"
	"github.com/yourusername/quant-edge/internal/reset"
	"github.com/yourusername/quant-edge/internal/simulation"
)

// Components is everything a binary needs, built from configuration.
type Components struct {
	Service  *ReportService
	Pipeline *pipeline.Pipeline
	DB       *database.DB
	// Archive is nil when the database is disabled.
	Archive repository.ReportRepository
}

// Close releases the database pool when one was opened.
func (c *Components) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
}

// PipelineConfig maps configuration onto pipeline settings.
func PipelineConfig(cfg *config.Config) (pipeline.Config, error) {
	vig, err := odds.ParseVigMethod(cfg.Odds.VigRemoval)
	if err != nil {
		return pipeline.Config{}, err
	}

	sim := simulation.DefaultConfig()
	if cfg.Simulation.Workers > 0 {
		sim.Workers = cfg.Simulation.Workers
	}
	sim.Seed = cfg.Simulation.Seed

	return pipeline.Config{
		Iterations: cfg.Simulation.Iterations,
		Simulation: sim,
		VigRemoval: vig,
		MinEdge:    cfg.Ranking.MinEdge,
		MaxPlays:   cfg.Ranking.MaxPlays,
	}, nil
}

// Build wires the pipeline, snapshot source and report destinations.
func Build(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Components, error) {
	log = logger.OrDiscard(log)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	pcfg, err := PipelineConfig(cfg)
	if err != nil {
		return nil, err
	}

	controller := reset.NewController(loc, reset.WithLogger(log))
	p, err := pipeline.New(pcfg, controller, log)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	source, err := datasource.NewSource(cfg.Source, log)
	if err != nil {
		return nil, fmt.Errorf("build snapshot source: %w", err)
	}

	opts := []Option{
		WithFileWriter(report.NewFileWriter(cfg.Report.OutputPath)),
		WithStore(report.NewStore(cfg.ReportCacheTTL())),
	}

	db, err := database.Initialize(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("initialize report archive: %w", err)
	}
	var archive repository.ReportRepository
	if db != nil {
		repos, err := repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		archive = repos.Reports
		opts = append(opts, WithArchive(archive))
	}

	return &Components{
		Service:  NewReportService(p, source, log, opts...),
		Pipeline: p,
		DB:       db,
		Archive:  archive,
	}, nil
}
