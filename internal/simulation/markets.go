package simulation

import (
	"fmt"
	"math"

	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/roster"
)

// Prepared is a market ready to simulate.
type Prepared struct {
	Generator      TrialGenerator
	Flags          []models.ConfidenceFlag
	ProjectedScore string
}

// Inputs is what a MarketModel may read while preparing a market.
type Inputs struct {
	Game     models.Game
	Snapshot *models.DataSnapshot
	Eligible *roster.Result
	Config   Config
}

// MarketModel prepares a trial generator for one market, or returns a
// *models.MissingInputError when a required input is absent.
type MarketModel func(market models.MarketLine, in Inputs) (Prepared, error)

// DefaultModels covers every supported market type.
func DefaultModels() map[models.MarketType]MarketModel {
	return map[models.MarketType]MarketModel{
		models.MarketSpread:     spreadModel,
		models.MarketMoneyline:  moneylineModel,
		models.MarketTotal:      totalModel,
		models.MarketTeamTotal:  teamTotalModel,
		models.MarketPlayerProp: propModel,
	}
}

func missing(market models.MarketLine, input string) error {
	return &models.MissingInputError{MarketID: market.MarketID, Input: input}
}

func projectGame(market models.MarketLine, in Inputs) (Projection, error) {
	home, ok := in.Snapshot.TeamRatings[in.Game.HomeTeamID]
	if !ok || !home.Complete() {
		return Projection{}, missing(market, "team_ratings:"+in.Game.HomeTeamID)
	}
	away, ok := in.Snapshot.TeamRatings[in.Game.AwayTeamID]
	if !ok || !away.Complete() {
		return Projection{}, missing(market, "team_ratings:"+in.Game.AwayTeamID)
	}
	return Project(home, away, in.Config.HomeCourt), nil
}

func gameScores(market models.MarketLine, in Inputs) (scoreModel, string, error) {
	proj, err := projectGame(market, in)
	if err != nil {
		return scoreModel{}, "", err
	}
	return newScoreModel(proj, in.Config.MarginSD, in.Config.TotalSD), proj.ScoreLine(in.Game), nil
}

func homeOrAway(market models.MarketLine) (bool, error) {
	switch market.Side {
	case models.SideHome:
		return true, nil
	case models.SideAway:
		return false, nil
	}
	return false, missing(market, fmt.Sprintf("side %q for %s", market.Side, market.MarketType))
}

func overOrUnder(market models.MarketLine) (bool, error) {
	switch market.Side {
	case models.SideOver:
		return true, nil
	case models.SideUnder:
		return false, nil
	}
	return false, missing(market, fmt.Sprintf("side %q for %s", market.Side, market.MarketType))
}

func spreadModel(market models.MarketLine, in Inputs) (Prepared, error) {
	home, err := homeOrAway(market)
	if err != nil {
		return Prepared{}, err
	}
	if market.LineValue == nil {
		return Prepared{}, missing(market, "line_value")
	}
	scores, score, err := gameScores(market, in)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{
		Generator:      spreadTrial{scores: scores, home: home, line: *market.LineValue},
		ProjectedScore: score,
	}, nil
}

func moneylineModel(market models.MarketLine, in Inputs) (Prepared, error) {
	home, err := homeOrAway(market)
	if err != nil {
		return Prepared{}, err
	}
	scores, score, err := gameScores(market, in)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{
		Generator:      moneylineTrial{scores: scores, home: home},
		ProjectedScore: score,
	}, nil
}

func totalModel(market models.MarketLine, in Inputs) (Prepared, error) {
	over, err := overOrUnder(market)
	if err != nil {
		return Prepared{}, err
	}
	if market.LineValue == nil {
		return Prepared{}, missing(market, "line_value")
	}
	scores, score, err := gameScores(market, in)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{
		Generator:      totalTrial{scores: scores, over: over, line: *market.LineValue},
		ProjectedScore: score,
	}, nil
}

func teamTotalModel(market models.MarketLine, in Inputs) (Prepared, error) {
	over, err := overOrUnder(market)
	if err != nil {
		return Prepared{}, err
	}
	if market.LineValue == nil {
		return Prepared{}, missing(market, "line_value")
	}
	if !in.Game.HasTeam(market.TeamID) {
		return Prepared{}, missing(market, "team_id")
	}
	scores, score, err := gameScores(market, in)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{
		Generator:      teamTotalTrial{scores: scores, home: market.TeamID == in.Game.HomeTeamID, over: over, line: *market.LineValue},
		ProjectedScore: score,
	}, nil
}

func propModel(market models.MarketLine, in Inputs) (Prepared, error) {
	over, err := overOrUnder(market)
	if err != nil {
		return Prepared{}, err
	}
	if market.LineValue == nil {
		return Prepared{}, missing(market, "line_value")
	}
	form, ok := in.Snapshot.PlayerForm[market.PlayerID]
	if !ok {
		return Prepared{}, missing(market, "player_form:"+market.PlayerID)
	}
	stat, ok := form.Stats[market.Stat]
	if !ok {
		return Prepared{}, missing(market, fmt.Sprintf("stat %s for %s", market.Stat, market.PlayerID))
	}
	if form.RoleShare == nil {
		return Prepared{}, missing(market, "role_share:"+market.PlayerID)
	}

	var flags []models.ConfidenceFlag
	if player, ok := in.Eligible.Player(market.PlayerID); ok && player.Status == models.StatusQuestionable && !form.MinutesVerified {
		flags = models.AddFlag(flags, models.FlagUnverified)
	}
	if form.GamesSampled < LowSampleGames {
		flags = models.AddFlag(flags, models.FlagLowSample)
	}

	return Prepared{
		Generator: propTrial{
			mean: stat.Mean * *form.RoleShare,
			sd:   math.Max(stat.SD, in.Config.PropSDFloor),
			over: over,
			line: *market.LineValue,
		},
		Flags: flags,
	}, nil
}
