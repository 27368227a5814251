// Package store provides BlobStore implementations.
package store

import (
	"context"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	saves map[string]int

	// Injected failures, returned by every call until cleared.
	loadErr error
	saveErr error
}

func NewMemory() *Memory {
	return &Memory{
		blobs: make(map[string][]byte),
		saves: make(map[string]int),
	}
}

// Load returns a copy of the blob under key, or nil if there is none.
func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Save replaces the blob under key with a copy of data.
func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.blobs[key] = append([]byte(nil), data...)
	m.saves[key]++
	return nil
}

// Put seeds a blob without counting it as a save.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
}

// Saves reports how many successful saves key has received.
func (m *Memory) Saves(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves[key]
}

// FailLoads makes every Load return err. Nil clears it.
func (m *Memory) FailLoads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// FailSaves makes every Save return err. Nil clears it.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}
