// Package testutil builds realistic snapshots for tests.
package testutil

import (
	"fmt"
	"time"

	"github.com/yourusername/quant-edge/internal/models"
)

// RunDate is the calendar day fixtures are built for.
var RunDate = models.Date{Year: 2026, Month: time.October, Day: 17}

// FetchedAt is a same-day fetch time in UTC.
var FetchedAt = time.Date(2026, time.October, 17, 15, 0, 0, 0, time.UTC)

// Clock returns a fixed instant on RunDate.
func Clock() time.Time {
	return time.Date(2026, time.October, 17, 16, 0, 0, 0, time.UTC)
}

// Line returns a pointer to v.
func Line(v float64) *float64 {
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Snapshot returns a complete, valid single-game snapshot for RunDate:
// NYK at BOS with five-man lineups, ratings, form and one market of each type.
func Snapshot() *models.DataSnapshot {
	game := models.Game{
		GameID:     "g1",
		HomeTeamID: "BOS",
		AwayTeamID: "NYK",
		TipoffTime: time.Date(2026, time.October, 17, 23, 30, 0, 0, time.UTC),
	}

	snap := &models.DataSnapshot{
		Schedule: []models.Game{game},
		Injuries: map[string]map[string]models.PlayerStatus{
			"BOS": {},
			"NYK": {},
		},
		Lineups:   map[string][]string{},
		FetchedAt: FetchedAt,
		DataDate:  RunDate,
		Players:   map[string]models.Player{},
		TeamRatings: map[string]models.TeamRatings{
			"BOS": {OffRating: 118, DefRating: 110, Pace: 99},
			"NYK": {OffRating: 112, DefRating: 114, Pace: 97},
		},
		PlayerForm: map[string]models.PlayerForm{},
	}

	for _, team := range []string{"BOS", "NYK"} {
		for i := 1; i <= 5; i++ {
			id := fmt.Sprintf("%s%d", team, i)
			snap.Lineups[team] = append(snap.Lineups[team], id)
			snap.Players[id] = models.Player{PlayerID: id, Name: id, TeamID: team, RecentAppearances: 3}
		}
	}

	snap.PlayerForm["BOS1"] = models.PlayerForm{
		Stats: map[models.StatKind]models.StatLine{
			models.StatPoints:   {Mean: 27, SD: 6},
			models.StatRebounds: {Mean: 8, SD: 2.5},
		},
		GamesSampled:    5,
		RoleShare:       Float(1.0),
		MinutesVerified: true,
	}

	snap.Markets = []models.MarketLine{
		{MarketID: "g1-spread-home", GameID: "g1", MarketType: models.MarketSpread, Side: models.SideHome, Price: models.AmericanPrice(-110), LineValue: Line(-3.5), TeamID: "BOS", Bookmaker: "draftkings"},
		{MarketID: "g1-spread-away", GameID: "g1", MarketType: models.MarketSpread, Side: models.SideAway, Price: models.AmericanPrice(-110), LineValue: Line(3.5), TeamID: "NYK", Bookmaker: "draftkings"},
		{MarketID: "g1-ml-home", GameID: "g1", MarketType: models.MarketMoneyline, Side: models.SideHome, Price: models.AmericanPrice(-180), TeamID: "BOS", Bookmaker: "fanduel"},
		{MarketID: "g1-total-over", GameID: "g1", MarketType: models.MarketTotal, Side: models.SideOver, Price: models.AmericanPrice(-110), LineValue: Line(220.5), Bookmaker: "betmgm"},
		{MarketID: "g1-tt-bos-over", GameID: "g1", MarketType: models.MarketTeamTotal, Side: models.SideOver, Price: models.AmericanPrice(-110), LineValue: Line(112.5), TeamID: "BOS", Bookmaker: "caesars"},
		{MarketID: "g1-prop-bos1-pts", GameID: "g1", MarketType: models.MarketPlayerProp, Side: models.SideOver, Price: models.AmericanPrice(-115), LineValue: Line(25.5), PlayerID: "BOS1", Stat: models.StatPoints, Bookmaker: "draftkings"},
	}

	return snap
}
