// Package syncer persists a segment collection to the tabular store and
// rebuilds the vector index over it.
package syncer

import (
	"context"
	"fmt"

	"docquery/internal/domain"
)

// Syncer is the sole writer for its store location and index. Concurrent
// Sync calls on the same location must be serialized by the caller.
type Syncer struct {
	store    domain.Tabular
	index    domain.VectorIndex
	embedder domain.Embedder
}

// New creates a Syncer over the given store, index and embedding capability.
func New(store domain.Tabular, index domain.VectorIndex, embedder domain.Embedder) *Syncer {
	return &Syncer{store: store, index: index, embedder: embedder}
}

// Sync replaces the store contents at storeLocation with the segments and
// rebuilds indexName over them. The store write survives an index or
// embedding failure: on IndexUnavailableError the rows are durable and the
// caller may retry Sync until the index is queryable.
func (s *Syncer) Sync(ctx context.Context, segments []domain.Segment, storeLocation, indexName string) (*domain.IndexHandle, error) {
	rows := make([]domain.Row, len(segments))
	corpus := make([]string, len(segments))
	for i, seg := range segments {
		rows[i] = domain.Row{ID: seg.ID, Content: seg.Content}
		corpus[i] = seg.Content
	}
	if err := s.store.Write(ctx, storeLocation, rows); err != nil {
		return nil, fmt.Errorf("writing segment rows to %s: %w", storeLocation, err)
	}
	if err := s.store.EnableChangeTracking(ctx, storeLocation); err != nil {
		return nil, fmt.Errorf("enabling change tracking on %s: %w", storeLocation, err)
	}

	// An empty generation has nothing to embed and no meaningful vector
	// dimension, so the index is torn down rather than rebuilt. The handle
	// records the emptiness and searches return no hits.
	if len(segments) == 0 {
		if err := s.index.Delete(ctx, indexName); err != nil {
			return nil, err
		}
		return &domain.IndexHandle{
			Name:          indexName,
			StoreLocation: storeLocation,
			Embedder:      s.embedder,
			Index:         s.index,
			Empty:         true,
		}, nil
	}

	if err := s.embedder.Prepare(ctx, corpus); err != nil {
		return nil, &domain.IndexUnavailableError{Name: indexName, Err: fmt.Errorf("preparing embedder: %w", err)}
	}
	vectors := make([][]float64, len(segments))
	for i, seg := range segments {
		vec, err := s.embedder.Embed(ctx, seg.Content)
		if err != nil {
			return nil, &domain.IndexUnavailableError{Name: indexName, Err: fmt.Errorf("embedding segment %d: %w", seg.ID, err)}
		}
		vectors[i] = vec
	}

	if err := s.index.Delete(ctx, indexName); err != nil {
		return nil, err
	}
	spec := domain.IndexSpec{
		Name:           indexName,
		SourceLocation: storeLocation,
		EmbeddingField: "content",
		PrimaryKey:     "id",
		SyncMode:       domain.SyncTriggered,
		Dimension:      s.embedder.Dimension(),
	}
	if err := s.index.Create(ctx, spec); err != nil {
		return nil, err
	}
	if err := s.index.Load(ctx, indexName, segments, vectors); err != nil {
		return nil, err
	}

	return &domain.IndexHandle{
		Name:          indexName,
		StoreLocation: storeLocation,
		Embedder:      s.embedder,
		Index:         s.index,
	}, nil
}
