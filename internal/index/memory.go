package index

import (
	"context"
	"errors"
	"sort"
	"sync"

	"docquery/internal/domain"
)

// Memory is an in-process vector index using brute-force similarity search.
// Vectors are assumed L2-normalized, so the dot product is cosine similarity.
// Load swaps a full generation in under the lock, so queries never observe
// a mix of two generations.
type Memory struct {
	mu      sync.RWMutex
	indexes map[string]*memoryIndex
}

type memoryIndex struct {
	spec     domain.IndexSpec
	state    domain.IndexState
	segments []domain.Segment
	vectors  [][]float64
}

// NewMemory creates an empty in-memory index registry.
func NewMemory() *Memory {
	return &Memory{indexes: make(map[string]*memoryIndex)}
}

// Create registers the named index in the Building state. An existing index
// of the same name is marked Stale and rebuilt.
func (m *Memory) Create(ctx context.Context, spec domain.IndexSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prior, ok := m.indexes[spec.Name]; ok {
		prior.state = domain.IndexStale
	}
	m.indexes[spec.Name] = &memoryIndex{spec: spec, state: domain.IndexBuilding}
	return nil
}

// Delete removes the named index. Missing indexes are not an error.
func (m *Memory) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indexes, name)
	return nil
}

// Load replaces the index contents with one full generation and marks it Ready.
func (m *Memory) Load(ctx context.Context, name string, segments []domain.Segment, vectors [][]float64) error {
	if len(segments) != len(vectors) {
		return errors.New("segments and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.indexes[name]
	if !ok {
		return &domain.IndexUnavailableError{Name: name, Err: errors.New("index has not been created")}
	}
	idx.segments = append([]domain.Segment(nil), segments...)
	idx.vectors = append([][]float64(nil), vectors...)
	idx.state = domain.IndexReady
	return nil
}

// Query returns up to k hits by descending cosine similarity. Ties break on
// ascending id for determinism.
func (m *Memory) Query(ctx context.Context, name string, vector []float64, k int, fields []string) ([]domain.ScoredSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[name]
	if !ok {
		return nil, &domain.IndexUnavailableError{Name: name, Err: errors.New("index does not exist")}
	}
	order := make([]int, len(idx.segments))
	scores := make([]float64, len(idx.segments))
	for i := range idx.segments {
		order[i] = i
		scores[i] = dot(idx.vectors[i], vector)
	}
	sort.Slice(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return idx.segments[order[a]].ID < idx.segments[order[b]].ID
	})
	if k > len(order) {
		k = len(order)
	}
	out := make([]domain.ScoredSegment, 0, k)
	for _, i := range order[:k] {
		seg := idx.segments[i]
		out = append(out, project(domain.ScoredSegment{ID: seg.ID, Content: seg.Content, Score: scores[i]}, fields))
	}
	return out, nil
}

// State reports the lifecycle state of the named index.
func (m *Memory) State(ctx context.Context, name string) (domain.IndexState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[name]
	if !ok {
		return domain.IndexAbsent, nil
	}
	return idx.state, nil
}
