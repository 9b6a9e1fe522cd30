package datalake

import (
	"sync"
)

// KeySet records which dimension keys have already been emitted. Add reports
// whether key was absent (and is now present). Implementations should be
// threadsafe.
type KeySet interface {
	Add(key []byte) (added bool, err error)
	Close() error
}

// KeySetFunc opens a fresh, empty KeySet for the named table.
type KeySetFunc func(table string) (KeySet, error)

// MapKeySet is an in-memory KeySet.
type MapKeySet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMapKeySet creates a new MapKeySet.
func NewMapKeySet() *MapKeySet {
	return &MapKeySet{
		keys: make(map[string]struct{}),
	}
}

// NewMapKeySetFunc is a KeySetFunc returning MapKeySets.
func NewMapKeySetFunc(table string) (KeySet, error) {
	return NewMapKeySet(), nil
}

// Add implements KeySet.
func (m *MapKeySet) Add(key []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[string(key)]; ok {
		return false, nil
	}
	m.keys[string(key)] = struct{}{}
	return true, nil
}

// Len returns the number of keys in the set.
func (m *MapKeySet) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

// Close drops the keys.
func (m *MapKeySet) Close() error {
	m.mu.Lock()
	m.keys = make(map[string]struct{})
	m.mu.Unlock()
	return nil
}
