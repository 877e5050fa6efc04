// Package memory provides an in-process key-value store for development
// and tests.
package memory

import (
	"context"
	"sync"

	apperrors "github.com/utafrali/designstudio/pkg/errors"
)

// KV is a mutex-guarded map implementing storage.KV.
type KV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewKV creates an empty store.
func NewKV() *KV {
	return &KV{data: make(map[string]string)}
}

func (m *KV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", apperrors.NotFound("key", key)
	}
	return v, nil
}

func (m *KV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *KV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *KV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
