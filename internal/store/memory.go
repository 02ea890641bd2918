// Package store provides tabular segment stores keyed by location name.
package store

import (
	"context"
	"sort"
	"sync"

	"docquery/internal/domain"
)

// Memory is an in-process tabular store. Overwrites swap the whole table
// under the lock, so readers never see a partial generation.
type Memory struct {
	mu          sync.RWMutex
	tables      map[string][]domain.Row
	tracked     map[string]bool
	generations map[string]int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tables:      make(map[string][]domain.Row),
		tracked:     make(map[string]bool),
		generations: make(map[string]int64),
	}
}

// Write replaces the full contents of location with rows.
func (m *Memory) Write(ctx context.Context, location string, rows []domain.Row) error {
	cp := make([]domain.Row, len(rows))
	copy(cp, rows)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[location] = cp
	if m.tracked[location] {
		m.generations[location]++
	}
	return nil
}

// EnableChangeTracking makes each subsequent overwrite of location count as
// one change batch.
func (m *Memory) EnableChangeTracking(ctx context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked[location] = true
	return nil
}

// Rows returns the current contents of location in id order.
func (m *Memory) Rows(ctx context.Context, location string) ([]domain.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[location]
	out := make([]domain.Row, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Generation returns the change-batch counter for location.
func (m *Memory) Generation(ctx context.Context, location string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generations[location], nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
