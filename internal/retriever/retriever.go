// Package retriever executes nearest-neighbour queries against a synced
// vector index.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"docquery/internal/domain"
)

// Search embeds the query with the handle's embedding capability, the same
// one used at index time, and returns up to k hits by descending similarity
// restricted to the requested columns. Fewer than k indexed segments is a
// normal outcome, not an error. Results may be stale while the index is
// still converging from a recent sync.
func Search(ctx context.Context, h *domain.IndexHandle, query string, k int, columns []string) ([]domain.ScoredSegment, error) {
	if h == nil {
		return nil, &domain.IndexUnavailableError{Err: errors.New("nil index handle")}
	}
	if k <= 0 {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("top-k must be positive, got %d", k)}
	}
	// an empty generation matches nothing; the embedder may not even be
	// fitted, so return before embedding the query
	if h.Empty {
		return nil, nil
	}
	vector, err := h.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, &domain.IndexUnavailableError{Name: h.Name, Err: fmt.Errorf("embedding query: %w", err)}
	}
	hits, err := h.Index.Query(ctx, h.Name, vector, k, columns)
	if err != nil {
		return nil, err
	}
	// collapse duplicate ids, keeping the better-ranked hit
	seen := make(map[int64]struct{}, len(hits))
	out := make([]domain.ScoredSegment, 0, len(hits))
	for _, hit := range hits {
		if _, ok := seen[hit.ID]; ok {
			continue
		}
		seen[hit.ID] = struct{}{}
		out = append(out, hit)
	}
	return out, nil
}
