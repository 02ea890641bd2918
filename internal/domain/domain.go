package domain

import "context"

// Segment is a bounded slice of document text with a stable primary key.
// IDs are assigned sequentially from 1 in chunk order, per ingestion run.
type Segment struct {
	ID      int64
	Content string
}

// ScoredSegment is a single retrieval hit: a segment plus its similarity
// score. Results are ordered by descending score and contain no duplicate ids.
type ScoredSegment struct {
	ID      int64
	Content string
	Score   float64
}

// Row is the tabular projection of a segment as persisted in the store.
type Row struct {
	ID      int64
	Content string
}

// GenerationParams tune a generation capability call.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// SyncMode is the index update policy.
type SyncMode string

// SyncTriggered means the index converges only when a caller explicitly
// pushes a generation into it; it does not watch the source store.
const SyncTriggered SyncMode = "triggered"

// IndexState is the lifecycle state of a vector index.
type IndexState int

const (
	IndexAbsent IndexState = iota
	IndexBuilding
	IndexReady
	IndexStale
)

func (s IndexState) String() string {
	switch s {
	case IndexAbsent:
		return "absent"
	case IndexBuilding:
		return "building"
	case IndexReady:
		return "ready"
	case IndexStale:
		return "stale"
	}
	return "unknown"
}

// IndexSpec describes a vector index bound to a tabular source location.
type IndexSpec struct {
	Name           string
	SourceLocation string
	EmbeddingField string
	PrimaryKey     string
	SyncMode       SyncMode
	Dimension      int
}

// IndexHandle identifies a synced index generation. It carries the embedding
// capability used at build time so query embedding resolves to the same
// embedding space. Empty marks a generation with no segments; searches
// against it return no hits without touching the embedder or the index.
type IndexHandle struct {
	Name          string
	StoreLocation string
	Embedder      Embedder
	Index         VectorIndex
	Empty         bool
}

// Extractor converts a source document into a single text string.
type Extractor interface {
	Extract(ctx context.Context, source string) (string, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator produces a text completion for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// Tabular is a durable, location-keyed table of segment rows.
type Tabular interface {
	// Write replaces the full contents of location with rows. The prior
	// generation is never partially visible to readers.
	Write(ctx context.Context, location string, rows []Row) error

	// EnableChangeTracking makes subsequent overwrites of location count
	// as one change batch each.
	EnableChangeTracking(ctx context.Context, location string) error

	// Rows returns the current contents of location in id order.
	// An unknown location yields an empty result, not an error.
	Rows(ctx context.Context, location string) ([]Row, error)

	// Generation returns the change-batch counter for a tracked location.
	Generation(ctx context.Context, location string) (int64, error)

	Close() error
}

// VectorIndex supports nearest-neighbour queries over segment embeddings.
type VectorIndex interface {
	// Create registers an index in the Building state.
	Create(ctx context.Context, spec IndexSpec) error

	// Delete tears the index down. Deleting a missing index is not an error.
	Delete(ctx context.Context, name string) error

	// Load replaces the index contents with one full generation of segments
	// and their vectors, then marks the index Ready.
	Load(ctx context.Context, name string, segments []Segment, vectors [][]float64) error

	// Query returns up to k hits ordered by descending similarity,
	// restricted to the requested fields.
	Query(ctx context.Context, name string, vector []float64, k int, fields []string) ([]ScoredSegment, error)

	// State reports the lifecycle state of the named index.
	State(ctx context.Context, name string) (IndexState, error)
}
