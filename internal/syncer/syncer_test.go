package syncer

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docquery/internal/chunker"
	"docquery/internal/domain"
	"docquery/internal/embedding"
	"docquery/internal/index"
	"docquery/internal/retriever"
	"docquery/internal/store"
)

// letterEmbedder maps text to normalized letter frequencies. Deterministic
// and dependency-free, which is all these tests need.
type letterEmbedder struct{}

func (letterEmbedder) Name() string                                    { return "letters" }
func (letterEmbedder) Prepare(ctx context.Context, corpus []string) error { return nil }
func (letterEmbedder) Dimension() int                                  { return 26 }

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

// downEmbedder simulates an unreachable embedding endpoint.
type downEmbedder struct{ letterEmbedder }

func (downEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, errors.New("connection refused")
}

func newSyncer(emb domain.Embedder) (*Syncer, *store.Memory, *index.Memory) {
	st := store.NewMemory()
	idx := index.NewMemory()
	return New(st, idx, emb), st, idx
}

func TestSyncThenSearchReturnsAllSegments(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newSyncer(letterEmbedder{})
	segments := chunker.AssignIDs([]string{"alpha", "beta", "gamma"})

	handle, err := s.Sync(ctx, segments, "segments", "segments_index")
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, "segments_index", handle.Name)
	assert.Equal(t, "segments", handle.StoreLocation)

	rows, err := st.Rows(ctx, "segments")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	hits, err := retriever.Search(ctx, handle, "anything", 3, []string{"id", "content"})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	seen := map[int64]bool{}
	for _, h := range hits {
		assert.False(t, seen[h.ID], "duplicate id %d", h.ID)
		seen[h.ID] = true
	}
	assert.True(t, seen[1] && seen[2] && seen[3])
}

func TestSecondSyncReplacesGeneration(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newSyncer(letterEmbedder{})

	_, err := s.Sync(ctx, chunker.AssignIDs([]string{"alpha", "beta", "gamma"}), "segments", "segments_index")
	require.NoError(t, err)

	handle, err := s.Sync(ctx, chunker.AssignIDs([]string{"delta", "epsilon"}), "segments", "segments_index")
	require.NoError(t, err)

	hits, err := retriever.Search(ctx, handle, "query", 10, []string{"id", "content"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Contains(t, []string{"delta", "epsilon"}, h.Content)
	}
}

func TestSyncEmbedderFailureKeepsStoreWrite(t *testing.T) {
	ctx := context.Background()
	s, st, idx := newSyncer(downEmbedder{})
	segments := chunker.AssignIDs([]string{"alpha", "beta"})

	_, err := s.Sync(ctx, segments, "segments", "segments_index")
	require.Error(t, err)
	var unavailable *domain.IndexUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "segments_index", unavailable.Name)

	rows, err := st.Rows(ctx, "segments")
	require.NoError(t, err)
	assert.Len(t, rows, 2, "store write must survive an index failure")

	state, err := idx.State(ctx, "segments_index")
	require.NoError(t, err)
	assert.Equal(t, domain.IndexAbsent, state)
}

func TestSyncRetryAfterFailureSucceeds(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	idx := index.NewMemory()
	segments := chunker.AssignIDs([]string{"alpha", "beta"})

	_, err := New(st, idx, downEmbedder{}).Sync(ctx, segments, "segments", "segments_index")
	require.Error(t, err)

	handle, err := New(st, idx, letterEmbedder{}).Sync(ctx, segments, "segments", "segments_index")
	require.NoError(t, err)

	hits, err := retriever.Search(ctx, handle, "alpha", 2, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSyncEmptySegments(t *testing.T) {
	ctx := context.Background()
	// the real TF-IDF embedder cannot be fitted on an empty corpus, so the
	// empty generation must never reach it
	s, st, idx := newSyncer(embedding.NewTFIDF())

	handle, err := s.Sync(ctx, nil, "segments", "segments_index")
	require.NoError(t, err)

	rows, err := st.Rows(ctx, "segments")
	require.NoError(t, err)
	assert.Empty(t, rows)

	state, err := idx.State(ctx, "segments_index")
	require.NoError(t, err)
	assert.Equal(t, domain.IndexAbsent, state)

	hits, err := retriever.Search(ctx, handle, "any query at all", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSyncEmptySegmentsQdrant(t *testing.T) {
	ctx := context.Background()
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			created = true
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(store.NewMemory(), index.NewQdrant(index.QdrantConfig{URL: srv.URL}), embedding.NewTFIDF())
	handle, err := s.Sync(ctx, nil, "segments", "segments_index")
	require.NoError(t, err)
	assert.False(t, created, "an empty generation must not provision a collection")

	hits, err := retriever.Search(ctx, handle, "query", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSyncCountsOneChangeBatch(t *testing.T) {
	ctx := context.Background()
	s, st, _ := newSyncer(letterEmbedder{})

	_, err := s.Sync(ctx, chunker.AssignIDs([]string{"alpha", "beta", "gamma"}), "segments", "segments_index")
	require.NoError(t, err)
	_, err = s.Sync(ctx, chunker.AssignIDs([]string{"delta"}), "segments", "segments_index")
	require.NoError(t, err)

	gen, err := st.Generation(ctx, "segments")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen, "tracking enabled after the first write, so only the second counts")
}
