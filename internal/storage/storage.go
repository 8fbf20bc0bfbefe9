// Package storage defines the key-value persistence boundary used by the
// state store and the migration engine.
package storage

import (
	"sort"
	"sync"
)

// Backend is a durable string key-value store. Implementations must be safe
// for use from multiple goroutines.
type Backend interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Keys returns all keys in lexical order.
	Keys() ([]string, error)
}

// Memory is an in-process Backend, used by tests and the "memory" driver.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// NewMemoryFrom returns a Memory backend seeded with a copy of data.
func NewMemoryFrom(data map[string]string) *Memory {
	m := NewMemory()
	for k, v := range data {
		m.data[k] = v
	}
	return m
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Snapshot returns a copy of every key/value pair in b.
func Snapshot(b Backend) (map[string]string, error) {
	keys, err := b.Keys()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := b.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}
