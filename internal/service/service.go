// Package service wires the ingestion pipeline and the query cycle behind
// one facade.
package service

import (
	"context"
	"errors"
	"strings"

	"docquery/internal/answer"
	"docquery/internal/chunker"
	"docquery/internal/domain"
	"docquery/internal/retriever"
	"docquery/internal/syncer"
)

// Config fixes the pipeline's store location, index name and query shape.
type Config struct {
	StoreLocation string
	IndexName     string
	TopK          int
	Params        domain.GenerationParams
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Sources  int
	Segments int
}

// Answer is a grounded answer with the segments that grounded it.
type Answer struct {
	Text    string
	Sources []domain.ScoredSegment
}

// Pipeline is the application core: Ingest runs extract, chunk, assign ids
// and sync in strict sequence; Ask runs one retrieve-and-generate cycle.
// Not safe for concurrent Ingest calls; one ingestion job at a time.
type Pipeline struct {
	extractor domain.Extractor
	chunker   *chunker.Chunker
	syncer    *syncer.Syncer
	answerer  *answer.Synthesizer
	cfg       Config
	handle    *domain.IndexHandle
}

// New assembles a Pipeline from its components.
func New(extractor domain.Extractor, ch *chunker.Chunker, sy *syncer.Syncer, an *answer.Synthesizer, cfg Config) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Pipeline{extractor: extractor, chunker: ch, syncer: sy, answerer: an, cfg: cfg}
}

// Ingest extracts the sources as one batch, chunks them, assigns segment
// ids and syncs store and index. A failed run leaves no queryable handle.
func (p *Pipeline) Ingest(ctx context.Context, sources ...string) (IngestStats, error) {
	texts := make([]string, 0, len(sources))
	for _, src := range sources {
		text, err := p.extractor.Extract(ctx, src)
		if err != nil {
			return IngestStats{}, err
		}
		texts = append(texts, text)
	}
	pieces := p.chunker.Chunk(strings.Join(texts, "\n\n"))
	segments := chunker.AssignIDs(pieces)

	handle, err := p.syncer.Sync(ctx, segments, p.cfg.StoreLocation, p.cfg.IndexName)
	if err != nil {
		return IngestStats{}, err
	}
	p.handle = handle
	return IngestStats{Sources: len(sources), Segments: len(segments)}, nil
}

// Ask retrieves the top-k segments for the question and synthesizes a
// grounded answer. Fewer than k retrieved segments is normal; a generation
// failure is returned as an error, never as a degraded answer.
func (p *Pipeline) Ask(ctx context.Context, question string) (Answer, error) {
	if p.handle == nil {
		return Answer{}, &domain.IndexUnavailableError{Name: p.cfg.IndexName, Err: errors.New("no completed sync")}
	}
	hits, err := retriever.Search(ctx, p.handle, question, p.cfg.TopK, []string{"id", "content"})
	if err != nil {
		return Answer{}, err
	}
	text, err := p.answerer.Answer(ctx, question, hits, p.cfg.Params)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Sources: hits}, nil
}

// Handle exposes the current index handle, nil before the first successful
// Ingest.
func (p *Pipeline) Handle() *domain.IndexHandle { return p.handle }
