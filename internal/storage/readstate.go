package storage

import (
	"context"
	"sync"
)

// MemoryReadTracker keeps read state in process memory
type MemoryReadTracker struct {
	mu   sync.RWMutex
	read map[string]map[string]bool
}

// NewMemoryReadTracker creates an empty in-memory tracker
func NewMemoryReadTracker() *MemoryReadTracker {
	return &MemoryReadTracker{
		read: make(map[string]map[string]bool),
	}
}

// MarkRead records a notification as read. Marking twice is a no-op.
func (t *MemoryReadTracker) MarkRead(ctx context.Context, studentID, notificationID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.read[studentID]
	if !ok {
		set = make(map[string]bool)
		t.read[studentID] = set
	}
	set[notificationID] = true
	return nil
}

// ReadSet returns a copy of the student's read notification ids
func (t *MemoryReadTracker) ReadSet(ctx context.Context, studentID string) (map[string]bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]bool, len(t.read[studentID]))
	for id := range t.read[studentID] {
		result[id] = true
	}
	return result, nil
}

// Ping always succeeds
func (t *MemoryReadTracker) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (t *MemoryReadTracker) Close() error {
	return nil
}
