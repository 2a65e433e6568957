package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/quant-edge/internal/models"
)

// Source assembles the day's live snapshot from an external provider
type Source interface {
	// FetchSnapshot retrieves schedule, injuries, lineups, markets and model
	// inputs for runDate
	FetchSnapshot(ctx context.Context, runDate models.Date) (*models.DataSnapshot, error)

	// Name returns the name of the data source
	Name() string
}

// DataSourceError classifies a failed fetch so callers can tell an
// unreachable provider from one that answered with nothing usable.
type DataSourceError struct {
	Source  string
	Code    string
	Message string
	Err     error
}

func (e DataSourceError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Source, e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e DataSourceError) Unwrap() error { return e.Err }

// Error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// Sentinel errors
var (
	ErrCircuitOpen = errors.New("circuit breaker open")
	ErrNotFound    = errors.New("data not found")
)

// NewDataSourceError builds a DataSourceError wrapping err, which may be nil.
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{Source: source, Code: code, Message: message, Err: err}
}
