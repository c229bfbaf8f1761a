package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Embedder turns text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingsOptions configures an OpenAI-compatible /embeddings client.
type EmbeddingsOptions struct {
	BaseURL   string
	Model     string
	APIKey    string
	Dimension int
	Timeout   time.Duration
	CacheTTL  time.Duration
}

type embeddingsClient struct {
	opts EmbeddingsOptions
	http *http.Client
	memo *gocache.Cache
}

// NewEmbeddings returns an Embedder that posts to {BaseURL}/embeddings and
// memoizes vectors per input text for CacheTTL.
func NewEmbeddings(opts EmbeddingsOptions) Embedder {
	c := &embeddingsClient{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
	}
	if opts.CacheTTL > 0 {
		c.memo = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return c
}

type embeddingsRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *embeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.memo != nil {
		if v, ok := c.memo.Get(text); ok {
			return v.([]float32), nil
		}
	}

	body, err := json.Marshal(embeddingsRequest{Model: c.opts.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embeddings request: %w", err)
	}

	url := strings.TrimRight(c.opts.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: embeddings: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrDecode)
	}

	vec := normalize(out.Data[0].Embedding)
	if c.opts.Dimension > 0 && len(vec) != c.opts.Dimension {
		return nil, fmt.Errorf("%w: embedding dimension %d, want %d", ErrDecode, len(vec), c.opts.Dimension)
	}

	if c.memo != nil {
		c.memo.Set(text, vec, gocache.DefaultExpiration)
	}
	return vec, nil
}

// normalize scales to unit length so cosine distance is meaningful.
func normalize(v []float64) []float32 {
	var mag float64
	for _, x := range v {
		mag += x * x
	}
	mag = math.Sqrt(mag)

	out := make([]float32, len(v))
	for i, x := range v {
		if mag == 0 {
			out[i] = float32(x)
			continue
		}
		out[i] = float32(x / mag)
	}
	return out
}
