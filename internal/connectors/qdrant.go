package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var errNotFound = errors.New("qdrant: not found")

// QdrantOptions configures the Qdrant knowledge base.
type QdrantOptions struct {
	URL        string
	Collection string
	APIKey     string
	Timeout    time.Duration
}

// Qdrant looks up and stores knowledge base chunks through the Qdrant
// points API. Chunk text lives in the "text" payload field.
type Qdrant struct {
	opts     QdrantOptions
	embedder Embedder
	http     *http.Client
}

// NewQdrant creates a Qdrant-backed KnowledgeBase.
func NewQdrant(opts QdrantOptions, embedder Embedder) *Qdrant {
	return &Qdrant{
		opts:     opts,
		embedder: embedder,
		http:     &http.Client{Timeout: opts.Timeout},
	}
}

type qdrantQuery struct {
	Query       []float32 `json:"query"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantQueryResponse struct {
	Result struct {
		Points []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	} `json:"result"`
}

// Lookup embeds question and returns the topK nearest chunk texts joined
// by blank lines.
func (q *Qdrant) Lookup(ctx context.Context, question string, topK int) (string, error) {
	vec, err := q.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	var out qdrantQueryResponse
	query := qdrantQuery{Query: vec, Limit: topK, WithPayload: true}
	if err := q.do(ctx, http.MethodPost, q.collectionPath("/points/query"), query, &out); err != nil {
		return "", err
	}

	chunks := make([]string, 0, len(out.Result.Points))
	for _, p := range out.Result.Points {
		if text, ok := p.Payload["text"].(string); ok && text != "" {
			chunks = append(chunks, text)
		}
	}
	return strings.Join(chunks, "\n\n"), nil
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Store replaces the points of source with chunks. The collection is
// created with cosine distance on first use, sized to the chunk vectors.
// Point ids derive from source and chunk index, so storing a source twice
// overwrites it.
func (q *Qdrant) Store(ctx context.Context, source string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	if err := q.ensureCollection(ctx, len(chunks[0].Embedding)); err != nil {
		return err
	}

	filter := map[string]any{
		"filter": map[string]any{
			"must": []any{
				map[string]any{"key": "source", "match": map[string]any{"value": source}},
			},
		},
	}
	if err := q.do(ctx, http.MethodPost, q.collectionPath("/points/delete?wait=true"), filter, nil); err != nil {
		return fmt.Errorf("delete %s: %w", source, err)
	}

	points := make([]qdrantPoint, len(chunks))
	for i, c := range chunks {
		points[i] = qdrantPoint{
			ID:     uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d", source, c.Index)).String(),
			Vector: c.Embedding,
			Payload: map[string]any{
				"text":        c.Content,
				"source":      source,
				"chunk_index": c.Index,
			},
		}
	}

	body := map[string]any{"points": points}
	if err := q.do(ctx, http.MethodPut, q.collectionPath("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("upsert %s: %w", source, err)
	}
	return nil
}

func (q *Qdrant) ensureCollection(ctx context.Context, size int) error {
	err := q.do(ctx, http.MethodGet, q.collectionPath(""), nil, nil)
	if err == nil || !errors.Is(err, errNotFound) {
		return err
	}

	create := map[string]any{
		"vectors": map[string]any{"size": size, "distance": "Cosine"},
	}
	if err := q.do(ctx, http.MethodPut, q.collectionPath(""), create, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", q.opts.Collection, err)
	}
	return nil
}

func (q *Qdrant) collectionPath(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", strings.TrimRight(q.opts.URL, "/"), q.opts.Collection, suffix)
}

// do sends in as JSON and decodes the response into out when out is set.
func (q *Qdrant) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal qdrant request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.opts.APIKey != "" {
		req.Header.Set("api-key", q.opts.APIKey)
	}

	resp, err := q.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && method == http.MethodGet:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
