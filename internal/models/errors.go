package models

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline errors
var (
	ErrOverrideRejected        = errors.New("manual date override rejected")
	ErrDataUnavailable         = errors.New("live data unavailable")
	ErrInvalidSimulationConfig = errors.New("invalid simulation config")
	ErrMissingModelInput       = errors.New("missing model input")
	ErrInvalidOdds             = errors.New("invalid odds")
)

// Storage errors
var (
	ErrNotFound = errors.New("record not found")
)

// OverrideRejectedError is returned when a manual run date is requested without
// the override flag.
type OverrideRejectedError struct {
	Today     Date
	Requested Date
}

func (e *OverrideRejectedError) Error() string {
	return fmt.Sprintf("%s: requested %s but today is %s (set allow-manual-override)", ErrOverrideRejected, e.Requested, e.Today)
}

// Is matches ErrOverrideRejected.
func (e *OverrideRejectedError) Is(target error) bool {
	return target == ErrOverrideRejected
}

// DataUnavailableError lists every freshness or completeness problem found.
type DataUnavailableError struct {
	Issues []string
}

func (e *DataUnavailableError) Error() string {
	if len(e.Issues) == 0 {
		return ErrDataUnavailable.Error()
	}
	return fmt.Sprintf("%s: %s", ErrDataUnavailable, strings.Join(e.Issues, "; "))
}

// Is matches ErrDataUnavailable.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// MissingInputError names the model input a market could not be simulated without.
type MissingInputError struct {
	MarketID string
	Input    string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("market %s: %s: %s", e.MarketID, ErrMissingModelInput, e.Input)
}

// Is matches ErrMissingModelInput.
func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingModelInput
}
