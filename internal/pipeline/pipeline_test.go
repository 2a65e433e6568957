package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/odds"
	"github.com/yourusername/quant-edge/internal/reset"
	"github.com/yourusername/quant-edge/internal/simulation"
	"github.com/yourusername/quant-edge/internal/testutil"
)

func newPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	controller := reset.NewController(time.UTC, reset.WithClock(testutil.Clock))
	cfg := Config{
		Iterations: simulation.MinIterations,
		Simulation: simulation.Config{Seed: 42, Workers: 4},
		VigRemoval: odds.VigNone,
	}
	p, err := New(cfg, controller, nil, opts...)
	require.NoError(t, err)
	return p
}

// fractionTrial wins on exactly the given fraction of trials.
type fractionTrial struct {
	p   float64
	acc float64
}

func (f *fractionTrial) Trial(*rand.Rand) bool {
	f.acc += f.p
	if f.acc >= 1-1e-9 {
		f.acc--
		return true
	}
	return false
}

func fixedTotals(probabilities map[string]float64) Option {
	return WithSimulationOptions(simulation.WithModel(models.MarketTotal, func(m models.MarketLine, _ simulation.Inputs) (simulation.Prepared, error) {
		return simulation.Prepared{Generator: &fractionTrial{p: probabilities[m.MarketID]}}, nil
	}))
}

// evenMoneyTotals replaces the markets with three +100 totals.
func evenMoneyTotals(snap *models.DataSnapshot) *models.DataSnapshot {
	snap.Markets = []models.MarketLine{
		{MarketID: "m-a", GameID: "g1", MarketType: models.MarketTotal, Side: models.SideOver, Price: models.AmericanPrice(100), LineValue: testutil.Line(220.5)},
		{MarketID: "m-b", GameID: "g1", MarketType: models.MarketTotal, Side: models.SideUnder, Price: models.AmericanPrice(100), LineValue: testutil.Line(220.5)},
		{MarketID: "m-c", GameID: "g1", MarketType: models.MarketTotal, Side: models.SideOver, Price: models.AmericanPrice(100), LineValue: testutil.Line(230.5)},
	}
	return snap
}

func TestRunProducesRankedReport(t *testing.T) {
	report, err := newPipeline(t).Run(context.Background(), Request{}, Static(testutil.Snapshot()))
	require.NoError(t, err)

	assert.Equal(t, testutil.RunDate, report.RunDate)
	assert.Equal(t, testutil.Clock(), report.GeneratedAt)
	assert.Contains(t, []models.ReportStatus{models.StatusOK, models.StatusNoQualifyingBets}, report.Status)
	assert.Equal(t, simulation.MinIterations, report.Iterations)
	assert.Equal(t, "none", report.VigRemoval)
	assert.Equal(t, []string{"NYK at BOS"}, report.ConfirmedGames)
	require.Len(t, report.GameNotes, 1)
	assert.Equal(t, models.GameReady, report.GameNotes[0].Status)
	assert.False(t, report.ManualOverrideUsed)

	assert.LessOrEqual(t, len(report.Plays), 10)
	for i, play := range report.Plays {
		assert.GreaterOrEqual(t, play.Edge, 0.03)
		if i > 0 {
			prev := report.Plays[i-1]
			assert.True(t, prev.Edge > play.Edge || (prev.Edge == play.Edge && prev.MarketID < play.MarketID))
		}
	}
}

func TestRunAbortsOnStaleSnapshot(t *testing.T) {
	snap := testutil.Snapshot()
	snap.DataDate = testutil.RunDate.AddDays(-1)

	report, err := newPipeline(t).Run(context.Background(), Request{}, Static(snap))

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
	require.NotNil(t, report)
	assert.Equal(t, models.StatusAbortedNoLiveData, report.Status)
	assert.Equal(t, "Live data unavailable. Analysis aborted.", report.Message)
	assert.Empty(t, report.Plays)
	assert.NotEmpty(t, report.Issues)
}

func TestRunAbortsOnRepeatedMarketID(t *testing.T) {
	snap := testutil.Snapshot()
	var dup models.MarketLine
	for _, m := range snap.Markets {
		if m.MarketID == "g1-tt-bos-over" {
			dup = m
		}
	}
	require.NotEmpty(t, dup.MarketID)
	dup.Price = models.AmericanPrice(300)
	snap.Markets = append(snap.Markets, dup)

	report, err := newPipeline(t).Run(context.Background(), Request{}, Static(snap))

	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	require.NotNil(t, report)
	assert.Equal(t, models.StatusAbortedNoLiveData, report.Status)
	assert.Empty(t, report.Plays)
	assert.Contains(t, report.Issues, "duplicate market_id g1-tt-bos-over")
}

func TestRunAbortsWhenFetchFails(t *testing.T) {
	fetch := FetcherFunc(func(context.Context, models.Date) (*models.DataSnapshot, error) {
		return nil, errors.New("upstream 502")
	})

	report, err := newPipeline(t).Run(context.Background(), Request{}, fetch)

	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	require.NotNil(t, report)
	assert.Equal(t, models.MsgLiveDataUnavailable, report.Message)
	assert.Contains(t, report.Issues[0], "upstream 502")
}

func TestRunRejectsManualDateWithoutOverride(t *testing.T) {
	past := testutil.RunDate.AddDays(-3)
	fetched := false
	fetch := FetcherFunc(func(context.Context, models.Date) (*models.DataSnapshot, error) {
		fetched = true
		return testutil.Snapshot(), nil
	})

	report, err := newPipeline(t).Run(context.Background(), Request{Date: &past}, fetch)

	assert.ErrorIs(t, err, models.ErrOverrideRejected)
	assert.Nil(t, report)
	assert.False(t, fetched)
}

func TestRunHonorsManualOverride(t *testing.T) {
	past := testutil.RunDate.AddDays(-1)
	var fetchedFor models.Date
	fetch := FetcherFunc(func(_ context.Context, d models.Date) (*models.DataSnapshot, error) {
		fetchedFor = d
		snap := testutil.Snapshot()
		snap.DataDate = d
		snap.FetchedAt = snap.FetchedAt.AddDate(0, 0, -1)
		for i := range snap.Schedule {
			snap.Schedule[i].TipoffTime = snap.Schedule[i].TipoffTime.AddDate(0, 0, -1)
		}
		return snap, nil
	})

	report, err := newPipeline(t).Run(context.Background(), Request{Date: &past, AllowOverride: true}, fetch)

	require.NoError(t, err)
	assert.Equal(t, past, fetchedFor)
	assert.Equal(t, past, report.RunDate)
	assert.True(t, report.ManualOverrideUsed)
}

func TestRunRejectsLowIterationsBeforeWork(t *testing.T) {
	fetched := false
	fetch := FetcherFunc(func(context.Context, models.Date) (*models.DataSnapshot, error) {
		fetched = true
		return testutil.Snapshot(), nil
	})

	report, err := newPipeline(t).Run(context.Background(), Request{Iterations: 9999}, fetch)

	assert.ErrorIs(t, err, models.ErrInvalidSimulationConfig)
	assert.Nil(t, report)
	assert.False(t, fetched)
}

func TestRunSelectsQualifyingEdges(t *testing.T) {
	p := newPipeline(t, fixedTotals(map[string]float64{"m-a": 0.55, "m-b": 0.52, "m-c": 0.60}))

	report, err := p.Run(context.Background(), Request{}, Static(evenMoneyTotals(testutil.Snapshot())))
	require.NoError(t, err)

	assert.Equal(t, models.StatusOK, report.Status)
	require.Len(t, report.Plays, 2)
	assert.Equal(t, "m-c", report.Plays[0].MarketID)
	assert.InDelta(t, 0.10, report.Plays[0].Edge, 1e-3)
	assert.Equal(t, "m-a", report.Plays[1].MarketID)
	assert.InDelta(t, 0.05, report.Plays[1].Edge, 1e-3)
	assert.NotEmpty(t, report.Plays[0].KeyDataReasons)

	require.Len(t, report.AltLines, 2)
	assert.Equal(t, "m-c", report.AltLines[0].MarketID)
	require.NotNil(t, report.Parlay)
	assert.Equal(t, []string{"m-c", "m-a"}, report.Parlay.MarketIDs)
	assert.Equal(t, "NYK at BOS", report.Parlay.Matchup)
}

func TestRunReportsNoQualifyingBets(t *testing.T) {
	p := newPipeline(t, fixedTotals(map[string]float64{"m-a": 0.51, "m-b": 0.49, "m-c": 0.52}))

	report, err := p.Run(context.Background(), Request{}, Static(evenMoneyTotals(testutil.Snapshot())))
	require.NoError(t, err)

	assert.Equal(t, models.StatusNoQualifyingBets, report.Status)
	assert.Equal(t, "No positive expected value opportunities today.", report.Message)
	assert.NotNil(t, report.Plays)
	assert.Empty(t, report.Plays)
	assert.Empty(t, report.AltLines)
	assert.Nil(t, report.Parlay)
}

func TestRunNeverPricesPropWithoutRoleShare(t *testing.T) {
	snap := testutil.Snapshot()
	form := snap.PlayerForm["BOS1"]
	form.RoleShare = nil
	snap.PlayerForm["BOS1"] = form

	report, err := newPipeline(t).Run(context.Background(), Request{}, Static(snap))
	require.NoError(t, err)

	for _, play := range report.Plays {
		assert.NotEqual(t, "g1-prop-bos1-pts", play.MarketID)
	}
	require.Len(t, report.UnverifiedMarkets, 1)
	assert.Equal(t, "g1-prop-bos1-pts", report.UnverifiedMarkets[0].MarketID)
	assert.Contains(t, report.UnverifiedMarkets[0].Reason, "role_share")
}

func TestRunExcludesIneligiblePlayersFromPlays(t *testing.T) {
	snap := testutil.Snapshot()
	snap.Injuries["BOS"]["BOS1"] = models.StatusOut
	// keep the game ready with a bench player
	snap.Players["BOS6"] = models.Player{PlayerID: "BOS6", Name: "BOS6", TeamID: "BOS", RecentAppearances: 3}

	report, err := newPipeline(t).Run(context.Background(), Request{}, Static(snap))
	require.NoError(t, err)

	for _, play := range report.Plays {
		assert.NotEqual(t, "g1-prop-bos1-pts", play.MarketID)
	}
	ids := make([]string, 0, len(report.UnverifiedMarkets))
	for _, u := range report.UnverifiedMarkets {
		ids = append(ids, u.MarketID)
	}
	assert.Contains(t, ids, "g1-prop-bos1-pts")
}

func TestRunIsIdempotentForSeed(t *testing.T) {
	p := newPipeline(t)

	first, err := p.Run(context.Background(), Request{}, Static(testutil.Snapshot()))
	require.NoError(t, err)
	second, err := p.Run(context.Background(), Request{}, Static(testutil.Snapshot()))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateInit, StateReset))
	assert.True(t, CanTransition(StateFetchPending, StateAborted))
	assert.False(t, CanTransition(StateFetchPending, StateSimulating))
	assert.False(t, CanTransition(StateRanked, StateInit))
	assert.False(t, CanTransition(StateAborted, StateReset))
	assert.True(t, StateRanked.Terminal())
	assert.False(t, StateSimulating.Terminal())
}
