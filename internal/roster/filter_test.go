package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quant-edge/internal/freshness"
	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/testutil"
)

func validate(t *testing.T, snap *models.DataSnapshot) *freshness.ValidatedSnapshot {
	t.Helper()
	validated, err := freshness.NewGate(nil).Validate(snap, testutil.RunDate, time.UTC)
	require.NoError(t, err)
	return validated
}

func marketIDs(markets []models.MarketLine) []string {
	ids := make([]string, 0, len(markets))
	for _, m := range markets {
		ids = append(ids, m.MarketID)
	}
	return ids
}

func TestFilterKeepsHealthyRegulars(t *testing.T) {
	validated := validate(t, testutil.Snapshot())
	result := NewFilter(nil).Filter(validated)

	assert.Len(t, result.Eligible, 10)
	assert.Empty(t, result.Excluded)
	require.Len(t, result.Games, 1)
	assert.Equal(t, models.GameReady, result.Games[0].Status)
	assert.True(t, result.GameReady("g1"))

	kept, dropped := result.Markets(validated)
	assert.Len(t, kept, len(validated.Snapshot().Markets))
	assert.Empty(t, dropped)
}

func TestFilterStatusRules(t *testing.T) {
	snap := testutil.Snapshot()
	snap.Injuries["BOS"] = map[string]models.PlayerStatus{
		"BOS1": models.StatusOut,
		"BOS2": models.StatusDoubtful,
		"BOS3": models.StatusInactive,
		"BOS4": models.StatusQuestionable,
	}

	result := NewFilter(nil).Filter(validate(t, snap))

	for _, id := range []string{"BOS1", "BOS2", "BOS3"} {
		assert.False(t, result.IsEligible(id), id)
	}
	assert.True(t, result.IsEligible("BOS4"))
	p, ok := result.Player("BOS4")
	require.True(t, ok)
	assert.Equal(t, models.StatusQuestionable, p.Status)

	for _, p := range result.Eligible {
		assert.False(t, p.Status.Excluded(), p.PlayerID)
	}
}

func TestFilterAppearanceRule(t *testing.T) {
	snap := testutil.Snapshot()
	p := snap.Players["NYK1"]
	p.RecentAppearances = 1
	snap.Players["NYK1"] = p
	p = snap.Players["NYK2"]
	p.RecentAppearances = 2
	snap.Players["NYK2"] = p
	delete(snap.Players, "NYK3")

	result := NewFilter(nil).Filter(validate(t, snap))

	assert.False(t, result.IsEligible("NYK1"))
	assert.True(t, result.IsEligible("NYK2"))
	assert.False(t, result.IsEligible("NYK3"))

	reasons := map[string]string{}
	for _, e := range result.Excluded {
		reasons[e.PlayerID] = e.Reason
	}
	assert.Equal(t, "appeared in 1 of last 3 games", reasons["NYK1"])
	assert.Equal(t, "appearance history unavailable", reasons["NYK3"])
}

func TestFilterIncludesBenchPlayers(t *testing.T) {
	snap := testutil.Snapshot()
	snap.Players["BOS9"] = models.Player{PlayerID: "BOS9", TeamID: "BOS", RecentAppearances: 3}

	result := NewFilter(nil).Filter(validate(t, snap))
	assert.True(t, result.IsEligible("BOS9"))
	assert.Equal(t, 11, result.Games[0].EligiblePlayers)
}

func TestPropForExcludedPlayerIsDropped(t *testing.T) {
	snap := testutil.Snapshot()
	snap.Injuries["BOS"] = map[string]models.PlayerStatus{"BOS1": models.StatusOut}
	validated := validate(t, snap)

	result := NewFilter(nil).Filter(validated)
	kept, dropped := result.Markets(validated)

	assert.NotContains(t, marketIDs(kept), "g1-prop-bos1-pts")
	require.Len(t, dropped, 1)
	assert.Equal(t, "g1-prop-bos1-pts", dropped[0].MarketID)
}

func TestGameWithTooFewEligiblePlayersIsNotModeled(t *testing.T) {
	snap := testutil.Snapshot()
	snap.Injuries["BOS"] = map[string]models.PlayerStatus{
		"BOS1": models.StatusOut,
		"BOS2": models.StatusOut,
		"BOS3": models.StatusOut,
	}
	validated := validate(t, snap)

	result := NewFilter(nil).Filter(validated)
	assert.Equal(t, models.GameInsufficientActivePlayers, result.Games[0].Status)

	kept, dropped := result.Markets(validated)
	assert.Empty(t, kept)
	assert.Len(t, dropped, len(snap.Markets))
}

func TestShortLineupIsNotModeled(t *testing.T) {
	snap := testutil.Snapshot()
	snap.Lineups["NYK"] = snap.Lineups["NYK"][:4]

	result := NewFilter(nil).Filter(validate(t, snap))
	assert.Equal(t, models.GameInsufficientLineupData, result.Games[0].Status)
	assert.False(t, result.GameReady("g1"))
}

func TestRepeatedLineupEntriesDoNotFillLineup(t *testing.T) {
	snap := testutil.Snapshot()
	short := snap.Lineups["NYK"][:4]
	snap.Lineups["NYK"] = append(append([]string{}, short...), short[0])
	require.Len(t, snap.Lineups["NYK"], 5)

	result := NewFilter(nil).Filter(validate(t, snap))
	assert.Equal(t, models.GameInsufficientLineupData, result.Games[0].Status)
	assert.False(t, result.GameReady("g1"))
}

func TestMarketForUnscheduledGameIsDropped(t *testing.T) {
	snap := testutil.Snapshot()
	snap.Markets = append(snap.Markets, models.MarketLine{
		MarketID: "g9-total", GameID: "g9", MarketType: models.MarketTotal,
		Side: models.SideOver, Price: models.AmericanPrice(-110), LineValue: testutil.Line(230),
	})
	validated := validate(t, snap)

	result := NewFilter(nil).Filter(validated)
	kept, dropped := result.Markets(validated)

	assert.NotContains(t, marketIDs(kept), "g9-total")
	require.Len(t, dropped, 1)
	assert.Contains(t, dropped[0].Reason, "not on schedule")
}

func TestGameWithoutMarketsIsNoted(t *testing.T) {
	snap := testutil.Snapshot()
	snap.Schedule = append(snap.Schedule, models.Game{
		GameID: "g2", HomeTeamID: "LAL", AwayTeamID: "GSW",
		TipoffTime: time.Date(2026, time.October, 17, 22, 0, 0, 0, time.UTC),
	})
	for _, team := range []string{"LAL", "GSW"} {
		snap.Injuries[team] = map[string]models.PlayerStatus{}
		for i := 1; i <= 5; i++ {
			id := team + string(rune('0'+i))
			snap.Lineups[team] = append(snap.Lineups[team], id)
			snap.Players[id] = models.Player{PlayerID: id, TeamID: team, RecentAppearances: 3}
		}
	}

	result := NewFilter(nil).Filter(validate(t, snap))
	require.Len(t, result.Games, 2)
	assert.Equal(t, models.GameMissingMarketData, result.Games[1].Status)
}
