package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReadTracker(t *testing.T) {
	tracker := NewMemoryReadTracker()
	ctx := context.Background()

	read, err := tracker.ReadSet(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, read)

	require.NoError(t, tracker.MarkRead(ctx, "s1", "nt-1"))
	require.NoError(t, tracker.MarkRead(ctx, "s1", "nt-1"))
	require.NoError(t, tracker.MarkRead(ctx, "s1", "nt-2"))
	require.NoError(t, tracker.MarkRead(ctx, "s2", "nt-3"))

	read, err = tracker.ReadSet(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"nt-1": true, "nt-2": true}, read)

	// Returned sets are copies
	read["nt-9"] = true
	again, err := tracker.ReadSet(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestMemoryReadTracker_Concurrent(t *testing.T) {
	tracker := NewMemoryReadTracker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = tracker.MarkRead(ctx, "s1", fmt.Sprintf("nt-%d", i%10))
			_, _ = tracker.ReadSet(ctx, "s1")
		}(i)
	}
	wg.Wait()

	read, err := tracker.ReadSet(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, read, 10)
}

func TestReadKey(t *testing.T) {
	assert.Equal(t, "portal:notifications:read:s-42", readKey("s-42"))
}
