// Package pipeline runs one daily analysis: reset, fetch, validate, filter,
// simulate, evaluate and rank.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-edge/internal/edge"
	"github.com/yourusername/quant-edge/internal/freshness"
	"github.com/yourusername/quant-edge/internal/logger"
	"github.com/yourusername/quant-edge/internal/metrics"
	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/odds"
	"github.com/yourusername/quant-edge/internal/ranking"
	"github.com/yourusername/quant-edge/internal/reset"
	"github.com/yourusername/quant-edge/internal/roster"
	"github.com/yourusername/quant-edge/internal/simulation"
)

// Fetcher assembles the live snapshot for a run date.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, runDate models.Date) (*models.DataSnapshot, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, runDate models.Date) (*models.DataSnapshot, error)

// FetchSnapshot calls f.
func (f FetcherFunc) FetchSnapshot(ctx context.Context, runDate models.Date) (*models.DataSnapshot, error) {
	return f(ctx, runDate)
}

// Static returns a Fetcher that hands back snap as-is.
func Static(snap *models.DataSnapshot) Fetcher {
	return FetcherFunc(func(context.Context, models.Date) (*models.DataSnapshot, error) {
		return snap, nil
	})
}

// Config holds the tunables for a Pipeline.
type Config struct {
	Iterations int
	Simulation simulation.Config
	VigRemoval odds.VigMethod
	MinEdge    float64
	MaxPlays   int
}

// Request describes one invocation.
type Request struct {
	// Today defaults to the controller's current date in the run timezone.
	Today models.Date
	// Date is the requested run date; nil means today.
	Date          *models.Date
	AllowOverride bool
	// Iterations overrides Config.Iterations when non-zero.
	Iterations int
	// Origin names the caller in audit records (cli, api, scheduler).
	Origin string
}

// Pipeline wires the daily analysis stages together. It holds no run data
// between invocations.
type Pipeline struct {
	controller *reset.Controller
	gate       *freshness.Gate
	filter     *roster.Filter
	simulator  *simulation.Simulator
	evaluator  *edge.Evaluator
	selector   *ranking.Selector
	iterations int
	runLog     *logger.RunLogger
	audit      *logger.AuditLogger
}

// Option customizes a Pipeline.
type Option func(*options)

type options struct {
	simulation []simulation.Option
}

// WithSimulationOptions passes options through to the simulator, for example
// to plug in a different model for a market type.
func WithSimulationOptions(opts ...simulation.Option) Option {
	return func(o *options) { o.simulation = append(o.simulation, opts...) }
}

// New builds a Pipeline from cfg.
func New(cfg Config, controller *reset.Controller, log logrus.FieldLogger, opts ...Option) (*Pipeline, error) {
	log = logger.OrDiscard(log)

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	simOpts := append([]simulation.Option{simulation.WithLogger(log)}, o.simulation...)
	sim, err := simulation.NewSimulator(cfg.Simulation, simOpts...)
	if err != nil {
		return nil, err
	}

	selector := ranking.NewSelector()
	if cfg.MinEdge > 0 {
		selector.MinEdge = cfg.MinEdge
	}
	if cfg.MaxPlays > 0 {
		selector.MaxPlays = cfg.MaxPlays
	}

	return &Pipeline{
		controller: controller,
		gate:       freshness.NewGate(log),
		filter:     roster.NewFilter(log),
		simulator:  sim,
		evaluator:  edge.NewEvaluator(cfg.VigRemoval, log),
		selector:   selector,
		iterations: cfg.Iterations,
		runLog:     logger.NewRunLogger(log),
		audit:      logger.NewAuditLogger(log),
	}, nil
}

// Controller returns the reset controller the pipeline begins runs with.
func (p *Pipeline) Controller() *reset.Controller { return p.controller }

type run struct {
	state State
	log   *logger.RunLogger
}

func (r *run) to(next State) {
	if !CanTransition(r.state, next) {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", r.state, next))
	}
	r.log.LogStateTransition(string(r.state), string(next))
	r.state = next
}

// Run executes one invocation.
//
// An OverrideRejected or InvalidSimulationConfig error returns a nil Report:
// the run never started. A DataUnavailable error returns an aborted Report
// carrying the fixed abort message and no plays, together with the error.
func (p *Pipeline) Run(ctx context.Context, req Request, fetch Fetcher) (*models.Report, error) {
	r := &run{state: StateInit, log: p.runLog}

	iterations := req.Iterations
	if iterations == 0 {
		iterations = p.iterations
	}
	n, err := simulation.ResolveIterations(iterations)
	if err != nil {
		p.runLog.WithError(err).Error("Run refused")
		metrics.RecordRun("INVALID_CONFIG")
		return nil, err
	}

	today := req.Today
	if today.IsZero() {
		today = p.controller.Today()
	}

	r.to(StateReset)
	rc, err := p.controller.BeginRun(today, req.Date, req.AllowOverride)
	if err != nil {
		if errors.Is(err, models.ErrOverrideRejected) {
			p.audit.LogOverrideDecision(today.String(), requested(req.Date), false, req.Origin)
			metrics.RecordOverrideRejected()
		}
		return nil, err
	}
	if rc.OverrideUsed() {
		p.audit.LogOverrideDecision(today.String(), rc.RunDate().String(), true, req.Origin)
	}

	r.log = p.runLog.WithRun(rc.ID().String(), rc.RunDate().String())
	r.log.LogRunStarted(requested(req.Date), req.AllowOverride, n)

	r.to(StateFetchPending)
	snap, err := fetch.FetchSnapshot(ctx, rc.RunDate())
	if err != nil {
		return p.abort(r, rc, &models.DataUnavailableError{Issues: []string{fmt.Sprintf("snapshot fetch failed: %v", err)}})
	}

	validated, err := p.gate.Validate(snap, rc.RunDate(), rc.Location())
	if err != nil {
		var unavailable *models.DataUnavailableError
		if !errors.As(err, &unavailable) {
			unavailable = &models.DataUnavailableError{Issues: []string{err.Error()}}
		}
		return p.abort(r, rc, unavailable)
	}

	r.to(StateValidated)
	eligible := p.filter.Filter(validated)
	metrics.RecordPlayersExcluded(len(eligible.Excluded))

	r.to(StateSimulating)
	start := time.Now()
	outcome, err := p.simulator.Simulate(ctx, validated, eligible, n)
	if err != nil {
		r.to(StateAborted)
		r.log.LogAborted(string(StateSimulating), err.Error(), nil)
		return nil, err
	}
	elapsed := time.Since(start)
	r.log.LogSimulationCompleted(len(outcome.Results), outcome.Iterations, outcome.Seed, elapsed)
	metrics.RecordSimulation(len(outcome.Results), len(outcome.Unverified), elapsed)

	records, badPrices := p.evaluator.Evaluate(validated.Snapshot(), outcome.Results, validated.Snapshot().Markets)
	plays := p.selector.Select(records)

	unverified := append(outcome.Unverified, badPrices...)
	for _, u := range unverified {
		r.log.LogMarketDropped(u.MarketID, u.Reason)
	}

	report := &models.Report{
		RunDate:            rc.RunDate(),
		GeneratedAt:        rc.CreatedAt(),
		Status:             models.StatusOK,
		Message:            models.MsgOK,
		Plays:              plays,
		ManualOverrideUsed: rc.OverrideUsed(),
		Iterations:         outcome.Iterations,
		VigRemoval:         string(p.evaluator.Method()),
		ConfirmedGames:     confirmedGames(validated.Snapshot()),
		UnverifiedMarkets:  unverified,
		GameNotes:          eligible.Games,
		AltLines:           ranking.AltLines(plays),
		Parlay:             ranking.CorrelatedParlay(plays),
	}
	if len(plays) == 0 {
		report.Status = models.StatusNoQualifyingBets
		report.Message = models.MsgNoQualifyingBets
	}

	r.to(StateRanked)
	topEdge := 0.0
	if len(plays) > 0 {
		topEdge = plays[0].Edge
	}
	r.log.LogReportReady(string(report.Status), len(plays), topEdge)
	metrics.RecordRun(string(report.Status))
	metrics.RecordReport(len(plays), topEdge, report.GeneratedAt)

	return report, nil
}

func (p *Pipeline) abort(r *run, rc *reset.RunContext, cause *models.DataUnavailableError) (*models.Report, error) {
	from := r.state
	r.to(StateAborted)
	r.log.LogAborted(string(from), models.ErrDataUnavailable.Error(), cause.Issues)
	metrics.RecordRun(string(models.StatusAbortedNoLiveData))

	return &models.Report{
		RunDate:            rc.RunDate(),
		GeneratedAt:        rc.CreatedAt(),
		Status:             models.StatusAbortedNoLiveData,
		Message:            models.MsgLiveDataUnavailable,
		Plays:              []models.EdgeRecord{},
		ManualOverrideUsed: rc.OverrideUsed(),
		Issues:             cause.Issues,
	}, cause
}

func confirmedGames(snap *models.DataSnapshot) []string {
	games := make([]string, 0, len(snap.Schedule))
	for _, g := range snap.Schedule {
		games = append(games, g.Matchup())
	}
	return games
}

func requested(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
