package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemStore is an in-process stand-in for the Redis JSON cache.
type MemStore struct {
	mu      sync.Mutex
	Data    map[string][]byte
	TTLs    map[string]time.Duration
	Writes  int
	Deletes int
}

func NewMemStore() *MemStore {
	return &MemStore{Data: map[string][]byte{}, TTLs: map[string]time.Duration{}}
}

func (m *MemStore) GetJSON(_ context.Context, key string, out any) (bool, error) {
	m.mu.Lock()
	b, ok := m.Data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *MemStore) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = b
	m.TTLs[key] = ttl
	m.Writes++
	return nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
	m.Deletes++
	return nil
}

func (m *MemStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Data[key]
	return ok, nil
}

func (m *MemStore) SetIfNotExists(_ context.Context, key string, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Data[key]; ok {
		return false, nil
	}
	m.Data[key] = []byte(value)
	m.TTLs[key] = ttl
	m.Writes++
	return true, nil
}
