package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"docquery/internal/domain"
)

// Qdrant is a REST client treating one Qdrant collection per index. It
// assumes cosine distance; collections are torn down and recreated per sync.
type Qdrant struct {
	url    string
	apiKey string
	client *http.Client

	mu     sync.Mutex
	states map[string]domain.IndexState
}

// QdrantConfig contains connection details for a Qdrant server.
type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewQdrant creates a Qdrant-backed vector index client.
func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
		states: make(map[string]domain.IndexState),
	}
}

// Create provisions the collection for the named index in the Building state.
func (q *Qdrant) Create(ctx context.Context, spec domain.IndexSpec) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     spec.Dimension,
			"distance": "Cosine",
		},
	}
	status, err := q.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", q.url, spec.Name), body, nil)
	if err != nil {
		return &domain.IndexUnavailableError{Name: spec.Name, Err: err}
	}
	if status >= 300 {
		return &domain.IndexUnavailableError{Name: spec.Name, Err: fmt.Errorf("creating collection: status %d", status)}
	}
	q.setState(spec.Name, domain.IndexBuilding)
	return nil
}

// Delete drops the collection. A missing collection is not an error.
func (q *Qdrant) Delete(ctx context.Context, name string) error {
	status, err := q.do(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", q.url, name), nil, nil)
	if err != nil {
		return &domain.IndexUnavailableError{Name: name, Err: err}
	}
	if status >= 300 && status != http.StatusNotFound {
		return &domain.IndexUnavailableError{Name: name, Err: fmt.Errorf("deleting collection: status %d", status)}
	}
	q.setState(name, domain.IndexAbsent)
	return nil
}

// Load upserts one full generation of points and marks the index Ready.
// The preceding Delete+Create already emptied the collection.
func (q *Qdrant) Load(ctx context.Context, name string, segments []domain.Segment, vectors [][]float64) error {
	if len(segments) != len(vectors) {
		return fmt.Errorf("segments and vectors length mismatch")
	}
	if len(segments) > 0 {
		points := make([]map[string]any, len(segments))
		for i, seg := range segments {
			points[i] = map[string]any{
				"id":     seg.ID,
				"vector": vectors[i],
				"payload": map[string]any{
					"id":      seg.ID,
					"content": seg.Content,
				},
			}
		}
		status, err := q.do(ctx, http.MethodPut,
			fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, name),
			map[string]any{"points": points}, nil)
		if err != nil {
			return &domain.IndexUnavailableError{Name: name, Err: err}
		}
		if status >= 300 {
			return &domain.IndexUnavailableError{Name: name, Err: fmt.Errorf("loading points: status %d", status)}
		}
	}
	q.setState(name, domain.IndexReady)
	return nil
}

// Query runs a nearest-neighbour search over the collection.
func (q *Qdrant) Query(ctx context.Context, name string, vector []float64, k int, fields []string) ([]domain.ScoredSegment, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      int64          `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	status, err := q.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", q.url, name), req, &resp)
	if err != nil {
		return nil, &domain.IndexUnavailableError{Name: name, Err: err}
	}
	if status == http.StatusNotFound {
		return nil, &domain.IndexUnavailableError{Name: name, Err: fmt.Errorf("index does not exist")}
	}
	if status >= 300 {
		return nil, &domain.IndexUnavailableError{Name: name, Err: fmt.Errorf("searching: status %d", status)}
	}
	out := make([]domain.ScoredSegment, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := domain.ScoredSegment{ID: r.ID, Score: r.Score}
		if v, ok := r.Payload["id"].(float64); ok {
			hit.ID = int64(v)
		}
		if v, ok := r.Payload["content"].(string); ok {
			hit.Content = v
		}
		out = append(out, project(hit, fields))
	}
	return out, nil
}

// State reports the locally tracked lifecycle state of the named index.
func (q *Qdrant) State(ctx context.Context, name string) (domain.IndexState, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.states[name], nil
}

func (q *Qdrant) setState(name string, state domain.IndexState) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if state == domain.IndexAbsent {
		delete(q.states, name)
		return
	}
	q.states[name] = state
}

func (q *Qdrant) do(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
