package services

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Checker reports whether a dependency of the portal is reachable
type Checker interface {
	// Type returns the dependency kind, e.g. "upstream" or "redis"
	Type() string

	// HealthCheck returns nil when the dependency is usable
	HealthCheck(ctx context.Context) error
}

// BaseChecker provides common functionality for checkers
type BaseChecker struct {
	checkerType string
}

// Type returns the checker type
func (c *BaseChecker) Type() string {
	return c.checkerType
}

// HTTPChecker checks a gateway upstream. Any response below 500 counts as
// healthy: the upstream answered, even if the root path is not routed.
type HTTPChecker struct {
	BaseChecker
	url    string
	client *http.Client
}

// NewHTTPChecker creates a checker for an upstream base URL
func NewHTTPChecker(url string, timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPChecker{
		BaseChecker: BaseChecker{checkerType: "upstream"},
		url:         url,
		client:      &http.Client{Timeout: timeout},
	}
}

// HealthCheck issues a GET against the upstream
func (c *HTTPChecker) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstream unreachable: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("upstream returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// PingChecker adapts a store's Ping method
type PingChecker struct {
	BaseChecker
	ping func(ctx context.Context) error
}

// NewPingChecker creates a checker of the given type around ping
func NewPingChecker(checkerType string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{
		BaseChecker: BaseChecker{checkerType: checkerType},
		ping:        ping,
	}
}

// HealthCheck calls the wrapped ping
func (c *PingChecker) HealthCheck(ctx context.Context) error {
	return c.ping(ctx)
}
