package edge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/odds"
	"github.com/yourusername/quant-edge/internal/testutil"
)

func TestEvaluateComputesAdditiveEdge(t *testing.T) {
	snap := testutil.Snapshot()
	results := []models.SimulationResult{
		{MarketID: "g1-spread-home", ModeledProbability: 0.60, SampleCount: 20000, ProjectedScore: "BOS 115 - NYK 109"},
		{MarketID: "g1-prop-bos1-pts", ModeledProbability: 0.58, SampleCount: 20000, ConfidenceFlags: []models.ConfidenceFlag{models.FlagLowSample}},
	}

	records, unverified := NewEvaluator(odds.VigNone, nil).Evaluate(snap, results, snap.Markets)
	require.Empty(t, unverified)
	require.Len(t, records, 2)

	spread := records[0]
	assert.Equal(t, "g1-spread-home", spread.MarketID)
	assert.InDelta(t, 110.0/210.0, spread.MarketImpliedProbability, 1e-9)
	assert.InDelta(t, 0.60-110.0/210.0, spread.Edge, 1e-9)
	assert.Equal(t, -110, spread.AmericanOdds)
	assert.Equal(t, "NYK at BOS", spread.Matchup)
	assert.Equal(t, "Spread: BOS -3.5", spread.Description)
	assert.Equal(t, RiskMedium, spread.Risk)
	assert.Equal(t, "BOS 115 - NYK 109", spread.ProjectedScore)

	prop := records[1]
	assert.InDelta(t, 115.0/215.0, prop.MarketImpliedProbability, 1e-9)
	assert.Equal(t, "Player Prop: BOS1 Points Over 25.5", prop.Description)
	assert.Equal(t, RiskHigh, prop.Risk)
	assert.Equal(t, []models.ConfidenceFlag{models.FlagLowSample}, prop.ConfidenceFlags)

	assert.Len(t, spread.KeyDataReasons, 3)
	assert.Contains(t, prop.KeyDataReasons, "Simulation ran below the convergence sample target")
}

func TestEvaluateDropsUnmatchedMarkets(t *testing.T) {
	snap := testutil.Snapshot()
	results := []models.SimulationResult{
		{MarketID: "g1-total-over", ModeledProbability: 0.55},
		{MarketID: "no-such-line", ModeledProbability: 0.90},
	}

	records, _ := NewEvaluator(odds.VigNone, nil).Evaluate(snap, results, snap.Markets)

	require.Len(t, records, 1)
	assert.Equal(t, "g1-total-over", records[0].MarketID)
}

func TestEvaluateReportsUnusablePrices(t *testing.T) {
	snap := testutil.Snapshot()
	snap.Markets[3].Price = models.AmericanPrice(50)
	results := []models.SimulationResult{{MarketID: "g1-total-over", ModeledProbability: 0.55}}

	records, unverified := NewEvaluator(odds.VigNone, nil).Evaluate(snap, results, snap.Markets)

	assert.Empty(t, records)
	require.Len(t, unverified, 1)
	assert.Equal(t, "g1-total-over", unverified[0].MarketID)
}

func TestEvaluateMultiplicativeVigRemoval(t *testing.T) {
	snap := testutil.Snapshot()
	results := []models.SimulationResult{
		{MarketID: "g1-spread-home", ModeledProbability: 0.55},
		{MarketID: "g1-spread-away", ModeledProbability: 0.45},
		{MarketID: "g1-total-over", ModeledProbability: 0.55},
	}

	records, _ := NewEvaluator(odds.VigMultiplicative, nil).Evaluate(snap, results, snap.Markets)
	require.Len(t, records, 3)

	assert.InDelta(t, 0.5, records[0].MarketImpliedProbability, 1e-9)
	assert.InDelta(t, 0.5, records[1].MarketImpliedProbability, 1e-9)
	assert.InDelta(t, 0.05, records[0].Edge, 1e-9)
	// a one-sided offer keeps its raw price
	assert.InDelta(t, 110.0/210.0, records[2].MarketImpliedProbability, 1e-9)
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, RiskHigh, RiskLevel(models.MarketPlayerProp, -110))
	assert.Equal(t, RiskHigh, RiskLevel(models.MarketMoneyline, -180))
	assert.Equal(t, RiskHigh, RiskLevel(models.MarketMoneyline, 200))
	assert.Equal(t, RiskMedium, RiskLevel(models.MarketMoneyline, -150))
	assert.Equal(t, RiskMedium, RiskLevel(models.MarketSpread, -300))
}

func TestReasons(t *testing.T) {
	spread := Reasons(models.MarketSpread, nil)
	assert.Equal(t, "Projected margin differs materially from market spread", spread[0])
	assert.Len(t, spread, 3)

	flagged := Reasons(models.MarketTotal, []models.ConfidenceFlag{models.FlagLowSample, models.FlagUnverified})
	assert.Len(t, flagged, 4)
	assert.Equal(t, "Simulation ran below the convergence sample target", flagged[3])

	unverified := Reasons(models.MarketMoneyline, []models.ConfidenceFlag{models.FlagUnverified})
	assert.Equal(t, "Some model inputs could not be verified", unverified[3])

	assert.Empty(t, Reasons(models.MarketType("futures"), nil))
}

func TestUnits(t *testing.T) {
	tests := []struct {
		edge float64
		want float64
	}{
		{-0.01, 0},
		{0, 0},
		{0.01, 1.0},
		{0.05, 2.0},
		{0.0612, 2.4},
		{0.2, 5.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Units(tt.edge), 1e-9, "edge %v", tt.edge)
	}
}

func TestDescribe(t *testing.T) {
	game := models.Game{GameID: "g1", HomeTeamID: "BOS", AwayTeamID: "NYK"}
	tests := []struct {
		name string
		line models.MarketLine
		want string
	}{
		{"away spread", models.MarketLine{MarketType: models.MarketSpread, Side: models.SideAway, LineValue: testutil.Line(3.5)}, "Spread: NYK +3.5"},
		{"moneyline", models.MarketLine{MarketType: models.MarketMoneyline, Side: models.SideHome}, "Moneyline: BOS"},
		{"total", models.MarketLine{MarketType: models.MarketTotal, Side: models.SideUnder, LineValue: testutil.Line(220.5)}, "Game Total: Under 220.5"},
		{"team total", models.MarketLine{MarketType: models.MarketTeamTotal, Side: models.SideOver, TeamID: "NYK", LineValue: testutil.Line(108)}, "Team Total: NYK Over 108"},
		{"threes", models.MarketLine{MarketType: models.MarketPlayerProp, Side: models.SideUnder, PlayerID: "p9", Stat: models.StatThrees, LineValue: testutil.Line(2.5)}, "Player Prop: p9 3PM Under 2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.line, game, ""))
		})
	}
}
