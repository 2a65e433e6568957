package edge

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/odds"
)

// Risk levels
const (
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Sizing constants
const (
	unitsPerEdge     = 40.0
	minUnits         = 1.0
	maxUnits         = 5.0
	highRiskAmerican = 170
	maxReasons       = 4
)

var marketReasons = map[models.MarketType][]string{
	models.MarketSpread: {
		"Projected margin differs materially from market spread",
		"Recent pace/off-def blend supports cover probability",
		"Eligible active-player filter satisfied",
	},
	models.MarketMoneyline: {
		"Win-probability simulation exceeds implied probability",
		"Last-10 net-rating differential supports side",
		"Home-court and efficiency adjustment included",
	},
	models.MarketTotal: {
		"Projected possessions and efficiency imply total mispricing",
		"Model variance profile still clears 3% edge threshold",
		"Fresh same-day inputs used",
	},
	models.MarketTeamTotal: {
		"Team-scoring projection diverges from posted team total",
		"Opponent defensive rating embedded in mean projection",
		"Distribution model keeps edge above cutoff",
	},
	models.MarketPlayerProp: {
		"Recent-form mean and variance project a mispriced prop",
		"Only active eligible players included",
		"Edge remains above 3% after variance adjustment",
	},
}

// Evaluator turns modeled probabilities into edges against market prices.
type Evaluator struct {
	vig    odds.VigMethod
	logger logrus.FieldLogger
}

// NewEvaluator creates an evaluator that treats bookmaker margin per method.
func NewEvaluator(method odds.VigMethod, logger logrus.FieldLogger) *Evaluator {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if method == "" {
		method = odds.VigNone
	}
	return &Evaluator{vig: method, logger: logger.WithField("component", "edge_evaluator")}
}

// Method reports the vig treatment in use.
func (e *Evaluator) Method() odds.VigMethod { return e.vig }

// Evaluate returns one EdgeRecord per market that has both a simulation result
// and a line, in result order. Markets with an unusable price are returned as
// unverified rather than priced at zero.
func (e *Evaluator) Evaluate(snap *models.DataSnapshot, results []models.SimulationResult, lines []models.MarketLine) ([]models.EdgeRecord, []models.UnverifiedMarket) {
	implied, unverified := e.impliedProbabilities(lines)

	byID := make(map[string]models.MarketLine, len(lines))
	for _, l := range lines {
		byID[l.MarketID] = l
	}

	records := make([]models.EdgeRecord, 0, len(results))
	for _, r := range results {
		line, ok := byID[r.MarketID]
		if !ok {
			e.logger.WithField("market_id", r.MarketID).Debug("No market line for simulation result")
			continue
		}
		p, ok := implied[r.MarketID]
		if !ok {
			continue
		}
		american, _ := odds.ToAmerican(line.Price)

		var game models.Game
		if snap != nil {
			game, _ = snap.GameByID(line.GameID)
		}

		edge := r.ModeledProbability - p
		records = append(records, models.EdgeRecord{
			MarketID:                 r.MarketID,
			GameID:                   line.GameID,
			Matchup:                  matchup(game),
			MarketType:               line.MarketType,
			Side:                     line.Side,
			LineValue:                line.LineValue,
			AmericanOdds:             american,
			Bookmaker:                line.Bookmaker,
			Description:              Describe(line, game, playerName(snap, line.PlayerID)),
			ModeledProbability:       r.ModeledProbability,
			MarketImpliedProbability: p,
			Edge:                     edge,
			ConfidenceFlags:          append([]models.ConfidenceFlag{}, r.ConfidenceFlags...),
			ProjectedScore:           r.ProjectedScore,
			Risk:                     RiskLevel(line.MarketType, american),
			Units:                    Units(edge),
			KeyDataReasons:           Reasons(line.MarketType, r.ConfidenceFlags),
		})
	}
	return records, unverified
}

// impliedProbabilities prices every line. With multiplicative removal each
// complete group of opposing sides is normalized together; a group with a
// single quoted side keeps its raw probability.
func (e *Evaluator) impliedProbabilities(lines []models.MarketLine) (map[string]float64, []models.UnverifiedMarket) {
	implied := make(map[string]float64, len(lines))
	var unverified []models.UnverifiedMarket

	groups := make(map[string][]string)
	var order []string
	for _, l := range lines {
		p, err := odds.ImpliedProbability(l.Price)
		if err != nil {
			e.logger.WithError(err).WithField("market_id", l.MarketID).Warn("Unusable market price")
			unverified = append(unverified, models.UnverifiedMarket{MarketID: l.MarketID, Reason: err.Error()})
			continue
		}
		implied[l.MarketID] = p

		key := groupKey(l)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], l.MarketID)
	}

	if e.vig != odds.VigMultiplicative {
		return implied, unverified
	}

	for _, key := range order {
		ids := groups[key]
		if len(ids) < 2 {
			continue
		}
		raw := make([]float64, len(ids))
		for i, id := range ids {
			raw[i] = implied[id]
		}
		fair, err := odds.RemoveVigMultiplicative(raw)
		if err != nil {
			continue
		}
		e.logger.WithFields(logrus.Fields{
			"group":     key,
			"overround": odds.Overround(raw),
		}).Debug("Removed vig")
		for i, id := range ids {
			implied[id] = fair[i]
		}
	}
	return implied, unverified
}

// groupKey identifies the opposing sides of one offer: same game, market,
// book, subject and absolute line.
func groupKey(l models.MarketLine) string {
	line := ""
	if l.LineValue != nil {
		line = strconv.FormatFloat(math.Abs(l.Line()), 'f', -1, 64)
	}
	subject := ""
	switch l.MarketType {
	case models.MarketTeamTotal:
		subject = l.TeamID
	case models.MarketPlayerProp:
		subject = l.PlayerID + "/" + string(l.Stat)
	}
	return strings.Join([]string{l.GameID, string(l.MarketType), l.Bookmaker, subject, line}, "|")
}

// RiskLevel is High for props and for moneylines priced beyond +/-170.
func RiskLevel(t models.MarketType, american int) string {
	switch {
	case t == models.MarketPlayerProp:
		return RiskHigh
	case t == models.MarketMoneyline && (american > highRiskAmerican || american < -highRiskAmerican):
		return RiskHigh
	}
	return RiskMedium
}

// Reasons lists the data behind a play, at most four. Reduced-confidence
// flags are called out after the market's own drivers.
func Reasons(t models.MarketType, flags []models.ConfidenceFlag) []string {
	out := append([]string{}, marketReasons[t]...)
	if models.HasFlag(flags, models.FlagLowSample) {
		out = append(out, "Simulation ran below the convergence sample target")
	}
	if models.HasFlag(flags, models.FlagUnverified) {
		out = append(out, "Some model inputs could not be verified")
	}
	if len(out) > maxReasons {
		out = out[:maxReasons]
	}
	return out
}

// Units sizes a play at 40 units per unit of edge, bounded to [1, 5] and
// rounded to a tenth. Non-positive edges get nothing.
func Units(edge float64) float64 {
	if edge <= 0 {
		return 0
	}
	u := math.Min(maxUnits, math.Max(minUnits, edge*unitsPerEdge))
	return math.Round(u*10) / 10
}

// Describe renders a market the way it is presented to a bettor.
func Describe(l models.MarketLine, game models.Game, player string) string {
	line := ""
	if l.LineValue != nil {
		line = strconv.FormatFloat(l.Line(), 'f', -1, 64)
	}
	team := sideTeam(l, game)

	switch l.MarketType {
	case models.MarketSpread:
		if l.Line() > 0 {
			line = "+" + line
		}
		return fmt.Sprintf("Spread: %s %s", team, line)
	case models.MarketMoneyline:
		return fmt.Sprintf("Moneyline: %s", team)
	case models.MarketTotal:
		return fmt.Sprintf("Game Total: %s %s", title(l.Side), line)
	case models.MarketTeamTotal:
		return fmt.Sprintf("Team Total: %s %s %s", l.TeamID, title(l.Side), line)
	case models.MarketPlayerProp:
		if player == "" {
			player = l.PlayerID
		}
		return fmt.Sprintf("Player Prop: %s %s %s %s", player, statLabel(l.Stat), title(l.Side), line)
	}
	return l.MarketID
}

func sideTeam(l models.MarketLine, game models.Game) string {
	switch {
	case l.TeamID != "":
		return l.TeamID
	case l.Side == models.SideHome:
		return game.HomeTeamID
	case l.Side == models.SideAway:
		return game.AwayTeamID
	}
	return string(l.Side)
}

func statLabel(s models.StatKind) string {
	switch s {
	case models.StatPoints:
		return "Points"
	case models.StatRebounds:
		return "Rebounds"
	case models.StatAssists:
		return "Assists"
	case models.StatThrees:
		return "3PM"
	}
	return string(s)
}

func title(s models.Side) string {
	v := strings.ToLower(string(s))
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + v[1:]
}

func matchup(g models.Game) string {
	if g.GameID == "" {
		return ""
	}
	return g.Matchup()
}

func playerName(snap *models.DataSnapshot, id string) string {
	if snap == nil || id == "" {
		return ""
	}
	return snap.Players[id].Name
}
