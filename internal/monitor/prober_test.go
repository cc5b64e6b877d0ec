package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/student-portal/internal/services"
)

func TestProber_Probe(t *testing.T) {
	registry := services.NewRegistry()
	registry.Register("database", services.NewPingChecker("postgres", func(ctx context.Context) error { return nil }))
	registry.Register("questions", services.NewPingChecker("upstream", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	prober := NewProber(registry, time.Minute)
	assert.False(t, prober.Ready(), "not ready before the first probe")

	results := prober.Probe(context.Background())
	require.Len(t, results, 2)
	assert.True(t, results["database"].Healthy)
	assert.False(t, results["questions"].Healthy)
	assert.Equal(t, "connection refused", results["questions"].Error)

	assert.True(t, prober.Ready("database"))
	assert.False(t, prober.Ready("database", "questions"))
	assert.Equal(t, results, prober.Results())
}

func TestProber_StartStop(t *testing.T) {
	var calls int32
	registry := services.NewRegistry()
	registry.Register("redis", services.NewPingChecker("redis", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	prober := NewProber(registry, 10*time.Millisecond)
	prober.Start(ctx)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	assert.True(t, prober.Ready("redis"))
}
