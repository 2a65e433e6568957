package simulation

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/quant-edge/internal/freshness"
	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/roster"
)

// Outcome is everything one simulation pass produced.
type Outcome struct {
	Iterations int
	// Seed is the seed the pass actually used.
	Seed int64
	// Results holds one entry per simulated market, in snapshot order.
	Results []models.SimulationResult
	// Unverified lists markets that were not simulated, with the reason.
	Unverified []models.UnverifiedMarket
}

// Simulator runs Monte Carlo trials for every eligible market.
type Simulator struct {
	cfg    Config
	models map[models.MarketType]MarketModel
	logger logrus.FieldLogger
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithModel registers or replaces the model for a market type.
func WithModel(t models.MarketType, m MarketModel) Option {
	return func(s *Simulator) { s.models[t] = m }
}

// WithLogger sets the simulator's logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Simulator) { s.logger = logger.WithField("component", "simulator") }
}

// NewSimulator validates cfg and returns a Simulator.
func NewSimulator(cfg Config, opts ...Option) (*Simulator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Simulator{
		cfg:    cfg,
		models: DefaultModels(),
		logger: discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type prepared struct {
	market models.MarketLine
	Prepared
}

// Simulate estimates the win probability of every market the roster filter
// kept. Iterations of zero selects DefaultIterations; fewer than MinIterations
// fails before any work is done. Markets that lack a required model input are
// reported in Outcome.Unverified instead of being simulated.
func (s *Simulator) Simulate(ctx context.Context, validated *freshness.ValidatedSnapshot, eligible *roster.Result, iterations int) (*Outcome, error) {
	n, err := ResolveIterations(iterations)
	if err != nil {
		return nil, err
	}

	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	snap := validated.Snapshot()
	markets, dropped := eligible.Markets(validated)

	out := &Outcome{Iterations: n, Seed: seed}
	for _, d := range dropped {
		out.Unverified = append(out.Unverified, models.UnverifiedMarket{MarketID: d.MarketID, Reason: d.Reason})
	}

	work := make([]prepared, 0, len(markets))
	for _, m := range markets {
		p, err := s.prepare(m, snap, eligible)
		if err != nil {
			var missingErr *models.MissingInputError
			if !errors.As(err, &missingErr) {
				return nil, err
			}
			s.logger.WithFields(logrus.Fields{
				"market_id": m.MarketID,
				"input":     missingErr.Input,
			}).Warn("Market not simulated: missing model input")
			out.Unverified = append(out.Unverified, models.UnverifiedMarket{MarketID: m.MarketID, Reason: missingErr.Error()})
			continue
		}
		work = append(work, p)
	}

	results := make([]models.SimulationResult, len(work))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range work {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = run(work[i], n, seed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulate markets: %w", err)
	}
	out.Results = results

	s.logger.WithFields(logrus.Fields{
		"markets":    len(results),
		"unverified": len(out.Unverified),
		"iterations": n,
		"seed":       seed,
	}).Debug("Simulation completed")

	return out, nil
}

func (s *Simulator) prepare(m models.MarketLine, snap *models.DataSnapshot, eligible *roster.Result) (prepared, error) {
	model, ok := s.models[m.MarketType]
	if !ok {
		return prepared{}, missing(m, fmt.Sprintf("model for market type %q", m.MarketType))
	}
	game, _ := snap.GameByID(m.GameID)
	p, err := model(m, Inputs{Game: game, Snapshot: snap, Eligible: eligible, Config: s.cfg})
	if err != nil {
		return prepared{}, err
	}
	return prepared{market: m, Prepared: p}, nil
}

func run(p prepared, n int, seed int64) models.SimulationResult {
	rng := rand.New(rand.NewSource(marketSeed(seed, p.market.MarketID)))

	wins := 0
	for i := 0; i < n; i++ {
		if p.Generator.Trial(rng) {
			wins++
		}
	}

	raw := float64(wins) / float64(n)
	prob, note := clampProbability(raw, n)
	return models.SimulationResult{
		MarketID:           p.market.MarketID,
		ModeledProbability: prob,
		SampleCount:        n,
		ConvergenceNote:    note,
		ConfidenceFlags:    p.Flags,
		ProjectedScore:     p.ProjectedScore,
	}
}

// marketSeed derives an independent stream per market so results do not depend
// on scheduling order.
func marketSeed(seed int64, marketID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(marketID))
	return seed ^ int64(h.Sum64())
}

// clampProbability keeps estimates inside [1/n, 1-1/n]; a finite sample never
// proves certainty.
func clampProbability(p float64, n int) (float64, string) {
	lo := 1.0 / float64(n)
	hi := 1.0 - lo
	stdErr := math.Sqrt(p * (1 - p) / float64(n))
	switch {
	case p < lo:
		return lo, fmt.Sprintf("clamped from %.4f to %.6f", p, lo)
	case p > hi:
		return hi, fmt.Sprintf("clamped from %.4f to %.6f", p, hi)
	}
	return p, fmt.Sprintf("std_err=%.4f", stdErr)
}
