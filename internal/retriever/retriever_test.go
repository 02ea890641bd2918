package retriever

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docquery/internal/chunker"
	"docquery/internal/domain"
	"docquery/internal/index"
	"docquery/internal/store"
	"docquery/internal/syncer"
)

type letterEmbedder struct{}

func (letterEmbedder) Name() string                                       { return "letters" }
func (letterEmbedder) Prepare(ctx context.Context, corpus []string) error { return nil }
func (letterEmbedder) Dimension() int                                     { return 26 }

func (letterEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, 26)
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
		if r >= 'A' && r <= 'Z' {
			vec[r-'A']++
		}
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func syncedHandle(t *testing.T, contents ...string) *domain.IndexHandle {
	t.Helper()
	s := syncer.New(store.NewMemory(), index.NewMemory(), letterEmbedder{})
	handle, err := s.Sync(context.Background(), chunker.AssignIDs(contents), "segments", "segments_index")
	require.NoError(t, err)
	return handle
}

func TestSearchTopMatch(t *testing.T) {
	handle := syncedHandle(t, "A.", "B.", "C.")

	hits, err := Search(context.Background(), handle, "A", 1, []string{"id", "content"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, "A.", hits[0].Content)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestSearchKLargerThanSegmentCount(t *testing.T) {
	handle := syncedHandle(t, "alpha", "beta")

	hits, err := Search(context.Background(), handle, "alpha", 10, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 2, "all segments, no padding, no error")
}

func TestSearchOrderedByDescendingScore(t *testing.T) {
	handle := syncedHandle(t, "aaa", "aab", "zzz")

	hits, err := Search(context.Background(), handle, "aaaa", 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
	assert.Equal(t, int64(1), hits[0].ID)
}

// failingEmbedder stands in for an embedder that was never fitted.
type failingEmbedder struct{ letterEmbedder }

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, errors.New("embedder not prepared")
}

func TestSearchEmptyGenerationSkipsEmbedding(t *testing.T) {
	s := syncer.New(store.NewMemory(), index.NewMemory(), failingEmbedder{})
	handle, err := s.Sync(context.Background(), nil, "segments", "segments_index")
	require.NoError(t, err)

	hits, err := Search(context.Background(), handle, "any query", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchInvalidK(t *testing.T) {
	handle := syncedHandle(t, "alpha")
	for _, k := range []int{0, -3} {
		_, err := Search(context.Background(), handle, "q", k, nil)
		require.Error(t, err)
		var cfgErr *domain.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	}
}

func TestSearchNilHandle(t *testing.T) {
	_, err := Search(context.Background(), nil, "q", 1, nil)
	require.Error(t, err)
	var unavailable *domain.IndexUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestSearchMissingIndex(t *testing.T) {
	handle := &domain.IndexHandle{
		Name:          "never_synced",
		StoreLocation: "segments",
		Embedder:      letterEmbedder{},
		Index:         index.NewMemory(),
	}
	_, err := Search(context.Background(), handle, "q", 1, nil)
	require.Error(t, err)
	var unavailable *domain.IndexUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestSearchColumnProjection(t *testing.T) {
	handle := syncedHandle(t, "alpha", "beta")

	hits, err := Search(context.Background(), handle, "alpha", 2, []string{"id"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Empty(t, h.Content)
		assert.Positive(t, h.ID)
	}
}

// duplicatingIndex returns the same id twice to exercise result collapsing.
type duplicatingIndex struct{ index.Memory }

func (d *duplicatingIndex) Query(ctx context.Context, name string, vector []float64, k int, fields []string) ([]domain.ScoredSegment, error) {
	return []domain.ScoredSegment{
		{ID: 1, Content: "first", Score: 0.9},
		{ID: 1, Content: "first again", Score: 0.8},
		{ID: 2, Content: "second", Score: 0.7},
	}, nil
}

func TestSearchCollapsesDuplicateIDs(t *testing.T) {
	handle := &domain.IndexHandle{
		Name:     "dupes",
		Embedder: letterEmbedder{},
		Index:    &duplicatingIndex{},
	}
	hits, err := Search(context.Background(), handle, "q", 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, "first", hits[0].Content)
	assert.Equal(t, int64(2), hits[1].ID)
}
