package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/student-portal/internal/services"
)

// Status is the outcome of the latest check of one dependency
type Status struct {
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Prober periodically checks every registered dependency and keeps the
// latest results
type Prober struct {
	registry *services.Registry
	interval time.Duration
	timeout  time.Duration

	mu      sync.RWMutex
	results map[string]Status
	probed  bool
}

// NewProber creates a new health prober
func NewProber(registry *services.Registry, interval time.Duration) *Prober {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Prober{
		registry: registry,
		interval: interval,
		timeout:  10 * time.Second,
		results:  make(map[string]Status),
	}
}

// Start begins probing in a goroutine
func (p *Prober) Start(ctx context.Context) {
	go p.run(ctx)
}

// run is the main loop for the prober
func (p *Prober) run(ctx context.Context) {
	slog.Info("health prober started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Probe immediately on start
	p.Probe(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("health prober stopped")
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// Probe runs one round of checks and records the results
func (p *Prober) Probe(ctx context.Context) map[string]Status {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	errs := p.registry.HealthCheckAll(checkCtx)
	now := time.Now().UTC()

	results := make(map[string]Status, len(errs))
	for name, err := range errs {
		status := Status{Healthy: err == nil, CheckedAt: now}
		if err != nil {
			status.Error = err.Error()
			slog.Warn("dependency unhealthy", "name", name, "error", err)
		} else {
			slog.Debug("dependency healthy", "name", name)
		}
		results[name] = status
	}

	p.mu.Lock()
	p.results = results
	p.probed = true
	p.mu.Unlock()

	return results
}

// Results returns a copy of the latest results
func (p *Prober) Results() map[string]Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	results := make(map[string]Status, len(p.results))
	for name, s := range p.results {
		results[name] = s
	}
	return results
}

// Ready reports whether a probe has run and every dependency in critical
// was healthy in it. Dependencies not listed only affect Results.
func (p *Prober) Ready(critical ...string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.probed {
		return false
	}
	for _, name := range critical {
		if s, ok := p.results[name]; ok && !s.Healthy {
			return false
		}
	}
	return true
}
