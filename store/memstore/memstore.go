// Package memstore provides an in-memory store.Backend.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/jrsteele09/go-delivery-auth/store"
)

var _ store.Backend = (*MemStore)(nil)

// MemStore keeps values in a map guarded by a RWMutex
type MemStore struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *MemStore {
	return &MemStore{
		values: make(map[string]string),
	}
}

func (m *MemStore) Get(_ context.Context, key string) (string, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemStore) Set(_ context.Context, key, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes keys; absent keys are ignored
func (m *MemStore) Delete(_ context.Context, keys ...string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Snapshot returns a copy of every stored key and value
func (m *MemStore) Snapshot() map[string]string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return maps.Clone(m.values)
}
