// Package roster decides which players, games and markets may be modeled.
package roster

import (
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/quant-edge/internal/freshness"
	"github.com/yourusername/quant-edge/internal/models"
)

// Eligibility thresholds
const (
	DefaultMinAppearances     = 2
	DefaultMinLineupSize      = 5
	DefaultMinEligiblePerGame = 8
)

// Exclusion records why a player was removed.
type Exclusion struct {
	PlayerID string `json:"player_id"`
	TeamID   string `json:"team_id"`
	Reason   string `json:"reason"`
}

// DroppedMarket records why a market was removed before simulation.
type DroppedMarket struct {
	MarketID string `json:"market_id"`
	Reason   string `json:"reason"`
}

// Result is the outcome of filtering one validated snapshot.
type Result struct {
	Eligible []models.Player
	Excluded []Exclusion
	Games    []models.GameNote

	byID      map[string]models.Player
	readiness map[string]string
}

// IsEligible reports whether playerID survived the filter.
func (r *Result) IsEligible(playerID string) bool {
	_, ok := r.byID[playerID]
	return ok
}

// Player returns an eligible player by ID.
func (r *Result) Player(playerID string) (models.Player, bool) {
	p, ok := r.byID[playerID]
	return p, ok
}

// GameReady reports whether a game has enough lineup and eligibility data to model.
func (r *Result) GameReady(gameID string) bool {
	return r.readiness[gameID] == models.GameReady
}

// Filter applies the eligibility rules.
type Filter struct {
	MinAppearances     int
	MinLineupSize      int
	MinEligiblePerGame int
	logger             logrus.FieldLogger
}

// NewFilter creates a filter with the default thresholds.
func NewFilter(logger logrus.FieldLogger) *Filter {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Filter{
		MinAppearances:     DefaultMinAppearances,
		MinLineupSize:      DefaultMinLineupSize,
		MinEligiblePerGame: DefaultMinEligiblePerGame,
		logger:             logger.WithField("component", "roster_filter"),
	}
}

// Filter drops OUT, DOUBTFUL and INACTIVE players and anyone who appeared in
// fewer than MinAppearances of the last three games. QUESTIONABLE players stay.
func (f *Filter) Filter(validated *freshness.ValidatedSnapshot) *Result {
	snap := validated.Snapshot()
	result := &Result{
		byID:      make(map[string]models.Player),
		readiness: make(map[string]string),
	}

	for _, team := range snap.ScheduledTeams() {
		for _, id := range candidates(snap, team) {
			player, reason := f.evaluate(snap, team, id)
			if reason != "" {
				result.Excluded = append(result.Excluded, Exclusion{PlayerID: id, TeamID: team, Reason: reason})
				continue
			}
			result.Eligible = append(result.Eligible, player)
			result.byID[id] = player
		}
	}

	marketsPerGame := make(map[string]int)
	for _, m := range snap.Markets {
		marketsPerGame[m.GameID]++
	}

	for _, game := range snap.Schedule {
		note := models.GameNote{
			GameID:          game.GameID,
			Matchup:         game.Matchup(),
			EligiblePlayers: result.countForGame(game),
		}
		switch {
		case lineupSize(snap, game.HomeTeamID) < f.MinLineupSize || lineupSize(snap, game.AwayTeamID) < f.MinLineupSize:
			note.Status = models.GameInsufficientLineupData
		case note.EligiblePlayers < f.MinEligiblePerGame:
			note.Status = models.GameInsufficientActivePlayers
		case marketsPerGame[game.GameID] == 0:
			note.Status = models.GameMissingMarketData
		default:
			note.Status = models.GameReady
		}
		result.readiness[game.GameID] = note.Status
		result.Games = append(result.Games, note)
	}

	f.logger.WithFields(logrus.Fields{
		"eligible": len(result.Eligible),
		"excluded": len(result.Excluded),
	}).Info("Roster filtered")

	return result
}

// Markets returns the markets that may be simulated, in input order, and the
// ones dropped: markets for unscheduled or unready games, and player props
// whose player did not survive the filter.
func (r *Result) Markets(validated *freshness.ValidatedSnapshot) ([]models.MarketLine, []DroppedMarket) {
	snap := validated.Snapshot()
	kept := make([]models.MarketLine, 0, len(snap.Markets))
	var dropped []DroppedMarket

	for _, m := range snap.Markets {
		if _, ok := snap.GameByID(m.GameID); !ok {
			dropped = append(dropped, DroppedMarket{MarketID: m.MarketID, Reason: fmt.Sprintf("game %s not on schedule", m.GameID)})
			continue
		}
		if !r.GameReady(m.GameID) {
			dropped = append(dropped, DroppedMarket{MarketID: m.MarketID, Reason: r.readiness[m.GameID]})
			continue
		}
		if m.MarketType == models.MarketPlayerProp && !r.IsEligible(m.PlayerID) {
			dropped = append(dropped, DroppedMarket{MarketID: m.MarketID, Reason: fmt.Sprintf("player %s not eligible", m.PlayerID)})
			continue
		}
		kept = append(kept, m)
	}
	return kept, dropped
}

func (f *Filter) evaluate(snap *models.DataSnapshot, team, id string) (models.Player, string) {
	record, known := snap.Players[id]
	player := models.Player{
		PlayerID:          id,
		Name:              record.Name,
		TeamID:            team,
		Status:            resolveStatus(snap, team, id, record),
		RecentAppearances: record.RecentAppearances,
	}

	if player.Status.Excluded() {
		return player, fmt.Sprintf("status %s", player.Status)
	}
	if !known {
		return player, "appearance history unavailable"
	}
	if player.RecentAppearances < f.MinAppearances {
		return player, fmt.Sprintf("appeared in %d of last 3 games", player.RecentAppearances)
	}
	return player, ""
}

func (r *Result) countForGame(game models.Game) int {
	n := 0
	for _, p := range r.Eligible {
		if game.HasTeam(p.TeamID) {
			n++
		}
	}
	return n
}

// candidates lists lineup players first, then any other rostered players on the
// team, without duplicates.
// lineupSize counts distinct players in team's projected lineup.
func lineupSize(snap *models.DataSnapshot, team string) int {
	distinct := make(map[string]bool, len(snap.Lineups[team]))
	for _, id := range snap.Lineups[team] {
		distinct[id] = true
	}
	return len(distinct)
}

func candidates(snap *models.DataSnapshot, team string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, id := range snap.Lineups[team] {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var bench []string
	for id, p := range snap.Players {
		if p.TeamID == team && !seen[id] {
			seen[id] = true
			bench = append(bench, id)
		}
	}
	sort.Strings(bench)
	return append(ids, bench...)
}

func resolveStatus(snap *models.DataSnapshot, team, id string, record models.Player) models.PlayerStatus {
	if status, ok := snap.Injuries[team][id]; ok && status != "" {
		return status
	}
	if record.Status != "" {
		return record.Status
	}
	return models.StatusActive
}
