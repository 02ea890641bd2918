package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docquery/internal/answer"
	"docquery/internal/chunker"
	"docquery/internal/domain"
	"docquery/internal/index"
	"docquery/internal/llm"
	"docquery/internal/store"
	"docquery/internal/syncer"
)

// textExtractor serves fixed text per source name.
type textExtractor map[string]string

func (e textExtractor) Extract(ctx context.Context, source string) (string, error) {
	return e[source], nil
}

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

func newPipeline(t *testing.T, docs textExtractor, chunkSize, overlap int) (*Pipeline, *store.Memory) {
	t.Helper()
	ch, err := chunker.New(chunkSize, overlap)
	require.NoError(t, err)
	st := store.NewMemory()
	p := New(
		docs,
		ch,
		syncer.New(st, index.NewMemory(), letterEmbedder{}),
		answer.New(llm.NewExtractive()),
		Config{StoreLocation: "segments", IndexName: "segments_index", TopK: 5, Params: domain.GenerationParams{MaxTokens: 64}},
	)
	return p, st
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	p, st := newPipeline(t, textExtractor{"doc.txt": "A.\n\nB.\n\nC."}, 5, 0)

	stats, err := p.Ingest(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, IngestStats{Sources: 1, Segments: 3}, stats)

	rows, err := st.Rows(ctx, "segments")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.Row{ID: 1, Content: "A."}, rows[0])
	assert.Equal(t, domain.Row{ID: 2, Content: "B."}, rows[1])
	assert.Equal(t, domain.Row{ID: 3, Content: "C."}, rows[2])

	got, err := p.Ask(ctx, "A")
	require.NoError(t, err)
	require.NotEmpty(t, got.Sources)
	assert.Equal(t, int64(1), got.Sources[0].ID)
	assert.Equal(t, "A.", got.Sources[0].Content)
	assert.NotEmpty(t, got.Text)
}

func TestPipelineEmptyDocument(t *testing.T) {
	ctx := context.Background()
	p, st := newPipeline(t, textExtractor{"empty.txt": ""}, 100, 10)

	stats, err := p.Ingest(ctx, "empty.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Segments)

	rows, err := st.Rows(ctx, "segments")
	require.NoError(t, err)
	assert.Empty(t, rows)

	// retrieval is empty and the extractive capability yields no text,
	// which must surface as a GenerationError without grounding
	_, err = p.Ask(ctx, "anything")
	require.Error(t, err)
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.False(t, genErr.ContextPresent)
	assert.Equal(t, "anything", genErr.Question)
}

func TestPipelineAskBeforeIngest(t *testing.T) {
	p, _ := newPipeline(t, textExtractor{}, 100, 10)

	_, err := p.Ask(context.Background(), "anything")
	require.Error(t, err)
	var unavailable *domain.IndexUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestPipelineBatchIngestion(t *testing.T) {
	ctx := context.Background()
	p, st := newPipeline(t, textExtractor{
		"one.txt": "alpha beta.",
		"two.txt": "gamma delta.",
	}, 100, 10)

	stats, err := p.Ingest(ctx, "one.txt", "two.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sources)
	assert.Greater(t, stats.Segments, 0)

	rows, err := st.Rows(ctx, "segments")
	require.NoError(t, err)
	assert.Len(t, rows, stats.Segments)
}

func TestPipelineReingestReplacesSegments(t *testing.T) {
	ctx := context.Background()
	docs := textExtractor{"doc.txt": "old content here.", "doc2.txt": "brand new words."}
	p, _ := newPipeline(t, docs, 100, 10)

	_, err := p.Ingest(ctx, "doc.txt")
	require.NoError(t, err)
	_, err = p.Ingest(ctx, "doc2.txt")
	require.NoError(t, err)

	got, err := p.Ask(ctx, "words")
	require.NoError(t, err)
	for _, src := range got.Sources {
		assert.NotContains(t, src.Content, "old")
	}
}
