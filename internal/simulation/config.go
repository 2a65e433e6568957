package simulation

import (
	"fmt"
	"runtime"

	"github.com/yourusername/quant-edge/internal/models"
)

// Iteration bounds
const (
	MinIterations     = 10000
	DefaultIterations = 20000
)

// Model defaults
const (
	DefaultHomeCourt   = 1.8
	DefaultMarginSD    = 11.5
	DefaultTotalSD     = 16.5
	DefaultPropSDFloor = 1.0
	LowSampleGames     = 3
)

// Config configures a Simulator.
type Config struct {
	// Workers bounds how many markets are simulated concurrently.
	Workers int
	// Seed drives every random draw. Zero seeds from the wall clock.
	Seed int64
	// HomeCourt is added to the home side's projected points.
	HomeCourt float64
	// MarginSD and TotalSD calibrate the joint score distribution.
	MarginSD float64
	TotalSD  float64
	// PropSDFloor is the smallest standard deviation a prop model will use.
	PropSDFloor float64
}

// DefaultConfig returns the production model parameters.
func DefaultConfig() Config {
	return Config{
		Workers:     runtime.GOMAXPROCS(0),
		HomeCourt:   DefaultHomeCourt,
		MarginSD:    DefaultMarginSD,
		TotalSD:     DefaultTotalSD,
		PropSDFloor: DefaultPropSDFloor,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.HomeCourt == 0 {
		c.HomeCourt = d.HomeCourt
	}
	if c.MarginSD <= 0 {
		c.MarginSD = d.MarginSD
	}
	if c.TotalSD <= 0 {
		c.TotalSD = d.TotalSD
	}
	if c.PropSDFloor <= 0 {
		c.PropSDFloor = d.PropSDFloor
	}
	return c
}

// ResolveIterations applies the default to an unspecified (zero) count and
// enforces the floor.
func ResolveIterations(iterations int) (int, error) {
	if iterations == 0 {
		return DefaultIterations, nil
	}
	if iterations < MinIterations {
		return 0, fmt.Errorf("%w: iterations %d below minimum %d", models.ErrInvalidSimulationConfig, iterations, MinIterations)
	}
	return iterations, nil
}

func (c Config) validate() error {
	if c.TotalSD < c.MarginSD {
		return fmt.Errorf("%w: total sd %.2f must be at least margin sd %.2f", models.ErrInvalidSimulationConfig, c.TotalSD, c.MarginSD)
	}
	return nil
}
