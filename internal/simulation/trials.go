package simulation

import (
	"math"
	"math/rand"
)

// TrialGenerator draws one simulated outcome and reports whether the market's
// side won it. Each market type supplies its own generator.
type TrialGenerator interface {
	Trial(rng *rand.Rand) bool
}

// scoreModel draws correlated home/away scores. A shared component moves both
// scores together so the margin and total keep their calibrated spreads.
type scoreModel struct {
	homeMean float64
	awayMean float64
	shared   float64
	own      float64
}

func newScoreModel(p Projection, marginSD, totalSD float64) scoreModel {
	return scoreModel{
		homeMean: p.HomePoints,
		awayMean: p.AwayPoints,
		shared:   math.Sqrt((totalSD*totalSD - marginSD*marginSD) / 4.0),
		own:      math.Sqrt(marginSD * marginSD / 2.0),
	}
}

func (m scoreModel) draw(rng *rand.Rand) (home, away float64) {
	z := rng.NormFloat64()
	home = m.homeMean + m.shared*z + m.own*rng.NormFloat64()
	away = m.awayMean + m.shared*z + m.own*rng.NormFloat64()
	return home, away
}

// spreadTrial wins when the side's margin plus its line is positive. A push
// counts as a loss.
type spreadTrial struct {
	scores scoreModel
	home   bool
	line   float64
}

func (t spreadTrial) Trial(rng *rand.Rand) bool {
	h, a := t.scores.draw(rng)
	margin := h - a
	if !t.home {
		margin = -margin
	}
	return margin+t.line > 0
}

type moneylineTrial struct {
	scores scoreModel
	home   bool
}

func (t moneylineTrial) Trial(rng *rand.Rand) bool {
	h, a := t.scores.draw(rng)
	if t.home {
		return h > a
	}
	return a > h
}

type totalTrial struct {
	scores scoreModel
	over   bool
	line   float64
}

func (t totalTrial) Trial(rng *rand.Rand) bool {
	h, a := t.scores.draw(rng)
	return overUnder(h+a, t.line, t.over)
}

type teamTotalTrial struct {
	scores scoreModel
	home   bool
	over   bool
	line   float64
}

func (t teamTotalTrial) Trial(rng *rand.Rand) bool {
	h, a := t.scores.draw(rng)
	if t.home {
		return overUnder(h, t.line, t.over)
	}
	return overUnder(a, t.line, t.over)
}

// propTrial draws a player's stat from a normal around the role-adjusted mean.
type propTrial struct {
	mean float64
	sd   float64
	over bool
	line float64
}

func (t propTrial) Trial(rng *rand.Rand) bool {
	return overUnder(t.mean+t.sd*rng.NormFloat64(), t.line, t.over)
}

func overUnder(value, line float64, over bool) bool {
	if over {
		return value > line
	}
	return value < line
}
