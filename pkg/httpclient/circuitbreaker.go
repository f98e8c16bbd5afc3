package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig tunes when the breaker opens and when it lets trial requests through.
type CircuitBreakerConfig struct {
	Name string

	// MaxRequests are let through while half-open; that many successes close it.
	MaxRequests uint32
	// Interval resets the closed-state counters; zero keeps them forever.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// The breaker opens once at least MinRequests were seen and the failure
	// share reaches FailureRatio.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultCircuitBreakerConfig suits a catalog upstream polled every few minutes.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var circuitBreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "storefront_circuit_breaker_state",
		Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

var stateValues = map[gobreaker.State]float64{
	gobreaker.StateClosed:   0,
	gobreaker.StateHalfOpen: 1,
	gobreaker.StateOpen:     2,
}

// ErrCircuitOpen is returned without contacting the upstream while the
// breaker is open.
var ErrCircuitOpen = gobreaker.ErrOpenState

// CircuitBreakerClient guards a Client. Transport errors, 5xx and 429
// responses count as failures and are returned as errors; other statuses are
// handed back for the caller to interpret.
type CircuitBreakerClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	name    string
}

// NewCircuitBreakerClient wraps client. State changes are logged and exported
// on the storefront_circuit_breaker_state gauge.
func NewCircuitBreakerClient(client *Client, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	gauge := circuitBreakerState.WithLabelValues(cfg.Name)
	gauge.Set(stateValues[gobreaker.StateClosed])

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinRequests &&
				float64(c.TotalFailures) >= cfg.FailureRatio*float64(c.Requests)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			gauge.Set(stateValues[to])
		},
	})

	return &CircuitBreakerClient{client: client, breaker: breaker, name: cfg.Name}
}

// Do executes req through the breaker.
func (c *CircuitBreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			defer func() { _ = resp.Body.Close() }()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			kind := "server error"
			if resp.StatusCode == http.StatusTooManyRequests {
				kind = "throttled"
			}
			return nil, fmt.Errorf("%s: %s %d: %s", c.name, kind, resp.StatusCode, string(body))
		}
		return resp, nil
	})
}

// Get issues a JSON GET through the breaker.
func (c *CircuitBreakerClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, req)
}

// State returns the breaker's current state.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}

// Check reports ErrCircuitOpen while the breaker is open, for use as a
// non-critical readiness check.
func (c *CircuitBreakerClient) Check(context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s: %w", c.name, ErrCircuitOpen)
	}
	return nil
}
