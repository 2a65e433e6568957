package simulation

import (
	"fmt"
	"math"

	"github.com/yourusername/quant-edge/internal/models"
)

// Projection is the expected scoring for one game.
type Projection struct {
	Possessions float64
	HomePoints  float64
	AwayPoints  float64
}

// Project blends each offense with the opposing defense over the average of the
// two teams' paces.
func Project(home, away models.TeamRatings, homeCourt float64) Projection {
	poss := (home.Possessions() + away.Possessions()) / 2.0
	homeEff := (home.Offense() + away.Defense()) / 2.0
	awayEff := (away.Offense() + home.Defense()) / 2.0

	return Projection{
		Possessions: poss,
		HomePoints:  poss*homeEff/100.0 + homeCourt,
		AwayPoints:  poss * awayEff / 100.0,
	}
}

// Margin is the projected home margin.
func (p Projection) Margin() float64 { return p.HomePoints - p.AwayPoints }

// Total is the projected combined score.
func (p Projection) Total() float64 { return p.HomePoints + p.AwayPoints }

// ScoreLine renders the projection as "BOS 115 - NYK 109".
func (p Projection) ScoreLine(game models.Game) string {
	return fmt.Sprintf("%s %d - %s %d", game.HomeTeamID, int(math.Round(p.HomePoints)), game.AwayTeamID, int(math.Round(p.AwayPoints)))
}
