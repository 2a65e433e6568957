// Package odds converts quoted prices into implied probabilities.
package odds

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yourusername/quant-edge/internal/models"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ToDecimal normalizes a price to decimal odds.
//
//	American +150 -> 2.50
//	American -150 -> 1.6667
func ToDecimal(p models.Price) (decimal.Decimal, error) {
	switch p.Format {
	case models.OddsDecimal:
		if p.Value.LessThanOrEqual(one) {
			return decimal.Zero, fmt.Errorf("%w: decimal odds must be > 1.0, got %s", models.ErrInvalidOdds, p.Value)
		}
		return p.Value, nil
	case models.OddsAmerican:
		if !p.Value.IsInteger() || p.Value.Abs().LessThan(hundred) {
			return decimal.Zero, fmt.Errorf("%w: american odds must be whole and |odds| >= 100, got %s", models.ErrInvalidOdds, p.Value)
		}
		if p.Value.IsPositive() {
			return p.Value.Div(hundred).Add(one), nil
		}
		return hundred.Div(p.Value.Neg()).Add(one), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown odds format %q", models.ErrInvalidOdds, p.Format)
	}
}

// ToAmerican expresses a price in American odds, rounded to the nearest whole number.
func ToAmerican(p models.Price) (int, error) {
	if p.Format == models.OddsAmerican {
		if _, err := ToDecimal(p); err != nil {
			return 0, err
		}
		return int(p.Value.IntPart()), nil
	}
	dec, err := ToDecimal(p)
	if err != nil {
		return 0, err
	}
	if dec.GreaterThanOrEqual(decimal.NewFromInt(2)) {
		return int(dec.Sub(one).Mul(hundred).Round(0).IntPart()), nil
	}
	return int(hundred.Neg().Div(dec.Sub(one)).Round(0).IntPart()), nil
}

// ImpliedProbability returns 1/decimal odds, the break-even win probability
// including the bookmaker's margin.
//
//	-110 -> 0.5238
//	+100 -> 0.5000
func ImpliedProbability(p models.Price) (float64, error) {
	dec, err := ToDecimal(p)
	if err != nil {
		return 0, err
	}
	prob, _ := one.Div(dec).Float64()
	return prob, nil
}
