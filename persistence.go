package session

import (
	"context"
	"encoding/json"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// MemoryPersistence is an in-process Persistence, the default for tests and
// for hosts that do not want reload durability.
type MemoryPersistence struct {
	mu      sync.RWMutex
	records map[string][]byte
}

var _ Persistence = (*MemoryPersistence)(nil)

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{records: map[string][]byte{}}
}

func (m *MemoryPersistence) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	clone := make([]byte, len(raw))
	copy(clone, raw)
	return clone, nil
}

func (m *MemoryPersistence) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := make([]byte, len(value))
	copy(clone, value)
	m.records[key] = clone
	return nil
}

func (m *MemoryPersistence) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}

func encodeUser(user *User) ([]byte, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode user projection")
	}
	return raw, nil
}

func decodeUser(raw []byte) (*User, error) {
	user := &User{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "corrupt user projection")
	}
	return user, nil
}
