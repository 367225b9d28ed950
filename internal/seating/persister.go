package seating

import (
	"context"
	"errors"
	"sync"
)

// Keys of the two blobs that hold the layout.
const (
	TablesKey  = "sj_seating_tables_v1"
	SeatingKey = "sj_seating_state_v1"
)

// ErrBlobNotFound is returned by a Persister when a key was never saved.
var ErrBlobNotFound = errors.New("layout blob not found")

// Persister is the durable key/value storage behind a Store.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// MemoryPersister keeps blobs in memory.  It is safe for concurrent use.
type MemoryPersister struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: make(map[string][]byte)}
}

func (m *MemoryPersister) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryPersister) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

var _ Persister = (*MemoryPersister)(nil)
