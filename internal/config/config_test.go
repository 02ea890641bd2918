package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, "segments", cfg.Store.Location)
	assert.Equal(t, "segments_index", cfg.Index.Name)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder:\n  type: tfidf\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, "segments", cfg.Store.Location)
	assert.Equal(t, 256, cfg.Generator.MaxTokens)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	want := &AppConfig{
		Chunker:  ChunkerConfig{ChunkSize: 400, Overlap: 50},
		Embedder: EmbedderConfig{Type: "openai", OpenAI: &OpenAIEmbedderConfig{Model: "text-embedding-3-small"}},
		Store:    StoreConfig{Type: "sqlite", Location: "docs", SQLite: &SQLiteConfig{Path: "/tmp/docs.db"}},
		Index:    IndexConfig{Type: "qdrant", Name: "docs_index", Qdrant: &QdrantConfig{URL: "http://localhost:6333"}},
		Generator: GeneratorConfig{
			Type: "extractive", Temperature: 0.1, MaxTokens: 64,
		},
		Retrieval: RetrievalConfig{TopK: 3},
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 400, got.Chunker.ChunkSize)
	assert.Equal(t, "sqlite", got.Store.Type)
	assert.Equal(t, "/tmp/docs.db", got.Store.SQLite.Path)
	assert.Equal(t, "docs_index", got.Index.Name)
	assert.Equal(t, 3, got.Retrieval.TopK)
}
