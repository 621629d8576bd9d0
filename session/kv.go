package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/oops"
)

// ErrKVUnavailable marks a failure of the backing key-value store.
var ErrKVUnavailable = errors.New("session kv unavailable")

// KV is the durable key-value collaborator the session record is written to.
// Get reports a missing key as ok == false with a nil error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

func kvError(code, op, key string, err error) error {
	return oops.
		Code(code).
		In("session").
		With("key", key).
		Wrapf(fmt.Errorf("%w: %w", ErrKVUnavailable, err), "%s slot %q", op, key)
}

// MemoryKV is a process-local KV. The zero value is ready to use.
type MemoryKV struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{slots: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.slots[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots == nil {
		m.slots = make(map[string]string)
	}
	m.slots[key] = value
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, key)
	return nil
}

// Len returns the number of occupied slots.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}
