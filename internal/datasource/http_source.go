package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-edge/internal/logger"
	"github.com/yourusername/quant-edge/internal/models"
)

const httpSourceName = "snapshot_api"

// HTTPSource fetches an assembled snapshot from a snapshot service:
//
//	GET {baseURL}?date=2026-10-17
//	Authorization: Bearer {apiKey}
type HTTPSource struct {
	client  *Transport
	baseURL string
	apiKey  string
	logger  logrus.FieldLogger
}

// NewHTTPSource creates a snapshot source sending requests through client.
func NewHTTPSource(client *Transport, baseURL, apiKey string, log logrus.FieldLogger) *HTTPSource {
	return &HTTPSource{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger.OrDiscard(log).WithField("source", httpSourceName),
	}
}

// Name returns the name of the data source
func (s *HTTPSource) Name() string { return httpSourceName }

// Reset clears transport state left over from an earlier run.
func (s *HTTPSource) Reset() { s.client.Reset() }

// FetchSnapshot retrieves the snapshot for runDate
func (s *HTTPSource) FetchSnapshot(ctx context.Context, runDate models.Date) (*models.DataSnapshot, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, NewDataSourceError(httpSourceName, ErrCodeInvalidData, "invalid base url", err)
	}
	q := u.Query()
	q.Set("date", runDate.String())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, NewDataSourceError(httpSourceName, ErrCodeNetworkError, "failed to create request", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(httpSourceName, ErrCodeNetworkError, "failed to fetch snapshot", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, NewDataSourceError(httpSourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case http.StatusNotFound:
		return nil, NewDataSourceError(httpSourceName, ErrCodeNotFound, "no snapshot for "+runDate.String(), ErrNotFound)
	case http.StatusTooManyRequests:
		return nil, NewDataSourceError(httpSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(httpSourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var snap models.DataSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, NewDataSourceError(httpSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_date": runDate.String(),
		"games":    len(snap.Schedule),
		"markets":  len(snap.Markets),
	}).Info("Snapshot fetched")

	return &snap, nil
}
