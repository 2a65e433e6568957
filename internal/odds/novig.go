package odds

import (
	"fmt"
	"strings"
)

// VigMethod selects how bookmaker margin is treated when deriving implied
// probabilities.
type VigMethod string

// Supported vig treatments
const (
	// VigNone uses the raw 1/decimal implied probability of each line.
	VigNone VigMethod = "none"
	// VigMultiplicative divides each side of a complete market by the market's
	// overround so the sides sum to one.
	VigMultiplicative VigMethod = "multiplicative"
)

// ParseVigMethod validates a configured method name.
func ParseVigMethod(s string) (VigMethod, error) {
	switch VigMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", VigNone:
		return VigNone, nil
	case VigMultiplicative:
		return VigMultiplicative, nil
	default:
		return "", fmt.Errorf("unknown vig removal method %q", s)
	}
}

// RemoveVigMultiplicative normalizes the implied probabilities of every outcome
// of one market so they sum to 1.0.
//
//	-110 / -110 -> 0.5238 + 0.5238 = 1.0476 overround -> 0.50 / 0.50
func RemoveVigMultiplicative(probabilities []float64) ([]float64, error) {
	if len(probabilities) < 2 {
		return nil, fmt.Errorf("need at least 2 outcomes, got %d", len(probabilities))
	}

	total := 0.0
	for _, p := range probabilities {
		if p <= 0 || p >= 1 {
			return nil, fmt.Errorf("probabilities must be between 0 and 1, got %f", p)
		}
		total += p
	}

	fair := make([]float64, len(probabilities))
	for i, p := range probabilities {
		fair[i] = p / total
	}
	return fair, nil
}

// Overround returns the summed implied probability minus one.
func Overround(probabilities []float64) float64 {
	total := 0.0
	for _, p := range probabilities {
		total += p
	}
	return total - 1.0
}
