package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/quant-edge/internal/logger"
)

// TransportConfig tunes retries, pacing and failure isolation for snapshot requests.
type TransportConfig struct {
	Timeout    time.Duration
	Retries    int
	BackoffMin time.Duration
	BackoffMax time.Duration
	// RequestsPerSecond paces outgoing requests; zero disables pacing.
	RequestsPerSecond float64
	// FailureThreshold consecutive failed requests trip the breaker.
	FailureThreshold int
	// Cooldown lets one trial request through a tripped breaker; zero keeps it
	// tripped until Reset.
	Cooldown time.Duration
}

// DefaultTransportConfig returns the production settings.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:           20 * time.Second,
		Retries:           3,
		BackoffMin:        200 * time.Millisecond,
		BackoffMax:        5 * time.Second,
		RequestsPerSecond: 2,
		FailureThreshold:  5,
		Cooldown:          0,
	}
}

type breaker struct {
	threshold int
	cooldown  time.Duration

	failures  int
	trippedAt time.Time
	cause     error
}

func (b *breaker) tripped(now time.Time) bool {
	if b.failures < b.threshold {
		return false
	}
	return b.cooldown == 0 || now.Sub(b.trippedAt) < b.cooldown
}

func (b *breaker) fail(now time.Time, err error) (justTripped bool) {
	b.failures++
	b.cause = err
	if b.failures == b.threshold || (b.failures > b.threshold && b.cooldown > 0) {
		b.trippedAt = now
		return true
	}
	return false
}

func (b *breaker) succeed() {
	b.failures = 0
	b.cause = nil
}

// Transport sends snapshot requests with retries, pacing and a breaker that
// stops hammering a provider that keeps failing. Breaker state belongs to a
// single run and is cleared by Reset.
type Transport struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  logrus.FieldLogger
	now     func() time.Time

	mu      sync.Mutex
	breaker breaker
}

// NewTransport creates a transport from cfg. Non-positive values fall back to
// DefaultTransportConfig.
func NewTransport(cfg TransportConfig, log logrus.FieldLogger) *Transport {
	def := DefaultTransportConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = cfg.Timeout
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = cfg.BackoffMin
	client.RetryWaitMax = cfg.BackoffMax
	client.CheckRetry = retryPolicy
	client.Logger = nil

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Transport{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.OrDiscard(log).WithField("component", "snapshot_transport"),
		now:     time.Now,
		breaker: breaker{threshold: cfg.FailureThreshold, cooldown: cfg.Cooldown},
	}
}

// Do sends req. A request that still fails after every retry counts against
// the breaker, as does a final 5xx response.
func (t *Transport) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	if t.breaker.tripped(t.now()) {
		cause := t.breaker.cause
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, cause)
	}
	t.mu.Unlock()

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limit: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(retryReq)

	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case err != nil:
		t.recordFailure(err)
		return nil, err
	case resp.StatusCode >= http.StatusInternalServerError:
		t.recordFailure(fmt.Errorf("status %d", resp.StatusCode))
	default:
		t.breaker.succeed()
	}
	return resp, nil
}

func (t *Transport) recordFailure(err error) {
	if t.breaker.fail(t.now(), err) {
		t.logger.WithError(err).WithField("consecutive_failures", t.breaker.failures).Error("Snapshot provider breaker tripped")
	}
}

// Reset forgets every failure recorded so far.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breaker.succeed()
	t.breaker.trippedAt = time.Time{}
}

// Tripped reports whether requests are currently being refused.
func (t *Transport) Tripped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.breaker.tripped(t.now())
}

// Close drops idle connections.
func (t *Transport) Close() error {
	t.client.HTTPClient.CloseIdleConnections()
	return nil
}

// retryPolicy retries transport errors, throttling and transient server
// failures. 501 and other 4xx responses are final.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return true, nil
	case resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusNotImplemented:
		return true, nil
	default:
		return false, nil
	}
}
