package connectors_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/prfaq/internal/connectors"
	"github.com/JaimeStill/prfaq/pkg/database"
)

func alphabet(n int) string {
	var sb strings.Builder
	for i := range n {
		sb.WriteByte(byte('a' + i%26))
	}
	return sb.String()
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{"empty", " \n\t ", 10, 2, nil},
		{"fits in one chunk", "  solar\n\n loans\tnow  ", 100, 10, []string{"solar loans now"}},
		{"zero size keeps whole text", "a b c", 0, 0, []string{"a b c"}},
		{"ends on word boundary", "aaaa bbbb cccc", 9, 0, []string{"aaaa bbbb", "cccc"}},
		{"overlap starts at next word", "aaaa bbbb cccc dddd", 10, 5, []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}},
		{"overlap not below size is dropped", "aaaa bbbb cccc", 9, 9, []string{"aaaa bbbb", "cccc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := connectors.SplitText(tt.text, tt.size, tt.overlap)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitTextOverlapWithoutSpaces(t *testing.T) {
	text := alphabet(4500)

	chunks := connectors.SplitText(text, 2000, 200)

	lengths := make([]int, len(chunks))
	for i, c := range chunks {
		lengths[i] = len(c)
	}
	if want := []int{2000, 2000, 900}; !slices.Equal(lengths, want) {
		t.Fatalf("chunk lengths: got %v, want %v", lengths, want)
	}

	for i := 1; i < len(chunks); i++ {
		if chunks[i-1][1800:] != chunks[i][:200] {
			t.Errorf("chunk %d does not start with the last 200 characters of chunk %d", i, i-1)
		}
	}
	if chunks[0] != text[:2000] || chunks[2] != text[3600:] {
		t.Error("chunks do not cover the text")
	}
}

func TestSplitTextKeepsWordsWhole(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}

	chunks := connectors.SplitText(strings.Join(words, " "), 20, 6)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if len(c) > 20 {
			t.Errorf("chunk %d: %d characters exceeds size", i, len(c))
		}
		for _, f := range strings.Fields(c) {
			if !slices.Contains(words, f) {
				t.Errorf("chunk %d: split word %q", i, f)
			}
		}
		if i == 0 {
			continue
		}
		prev := strings.Fields(chunks[i-1])
		if first := strings.Fields(c)[0]; first != prev[len(prev)-1] {
			t.Errorf("chunk %d starts with %q, want overlap word %q", i, first, prev[len(prev)-1])
		}
	}

	if !strings.HasPrefix(chunks[0], words[0]) || !strings.HasSuffix(chunks[len(chunks)-1], words[len(words)-1]) {
		t.Error("chunks do not cover the text")
	}
}

// lengthEmbedder embeds text as its length so chunks can be matched to
// their vectors.
type lengthEmbedder struct {
	fail string
}

func (e lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.fail != "" && strings.Contains(text, e.fail) {
		return nil, errors.New("embed failed")
	}
	return []float32{float32(len(text))}, nil
}

type recordingStore struct {
	mu     sync.Mutex
	source string
	chunks []connectors.Chunk
	calls  int
	err    error
}

func (s *recordingStore) Store(_ context.Context, source string, chunks []connectors.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.source = source
	s.chunks = chunks
	return s.err
}

func TestIngester(t *testing.T) {
	store := &recordingStore{}
	ing := connectors.NewIngester(connectors.IngestOptions{ChunkSize: 10, ChunkOverlap: 5, Workers: 3}, lengthEmbedder{}, store)

	n, err := ing.Ingest(context.Background(), "guide.pdf", "aaaa bbbb cccc dddd")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 3 || len(store.chunks) != 3 {
		t.Fatalf("chunks: got n=%d stored=%d, want 3", n, len(store.chunks))
	}
	if store.source != "guide.pdf" {
		t.Errorf("source: got %q", store.source)
	}

	want := []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}
	for i, c := range store.chunks {
		if c.Index != i || c.Content != want[i] {
			t.Errorf("chunk %d: got %+v, want index %d content %q", i, c, i, want[i])
		}
		if len(c.Embedding) != 1 || c.Embedding[0] != float32(len(c.Content)) {
			t.Errorf("chunk %d: embedding %v does not belong to %q", i, c.Embedding, c.Content)
		}
	}
}

func TestIngesterFailures(t *testing.T) {
	storeErr := errors.New("store down")

	tests := []struct {
		name      string
		text      string
		embedder  lengthEmbedder
		storeErr  error
		wantErr   error
		wantCalls int
	}{
		{"empty document", "  \n ", lengthEmbedder{}, nil, connectors.ErrNoContent, 0},
		{"embed failure stores nothing", "aaaa bbbb cccc dddd", lengthEmbedder{fail: "cccc"}, nil, nil, 0},
		{"store failure", "aaaa bbbb", lengthEmbedder{}, storeErr, storeErr, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{err: tt.storeErr}
			ing := connectors.NewIngester(connectors.IngestOptions{ChunkSize: 10, ChunkOverlap: 5}, tt.embedder, store)

			n, err := ing.Ingest(context.Background(), "doc", tt.text)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error: got %v, want %v", err, tt.wantErr)
			}
			if n != 0 {
				t.Errorf("count: got %d, want 0", n)
			}
			if store.calls != tt.wantCalls {
				t.Errorf("store calls: got %d, want %d", store.calls, tt.wantCalls)
			}
		})
	}
}

func TestQdrantStore(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
		created  map[string]any
		points   []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		}
		deleted map[string]any
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		requests = append(requests, r.Method+" "+r.URL.Path)

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/kb":
			w.WriteHeader(http.StatusNotFound)
			return
		case r.Method == http.MethodPut && r.URL.Path == "/collections/kb":
			json.NewDecoder(r.Body).Decode(&created)
		case r.URL.Path == "/collections/kb/points/delete":
			json.NewDecoder(r.Body).Decode(&deleted)
		case r.URL.Path == "/collections/kb/points":
			if r.URL.Query().Get("wait") != "true" {
				t.Error("upsert should wait for the write")
			}
			var body struct {
				Points []struct {
					ID      string         `json:"id"`
					Vector  []float32      `json:"vector"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			points = body.Points
		}
		w.Write([]byte(`{"result":true,"status":"ok"}`))
	}))
	defer srv.Close()

	q := connectors.NewQdrant(connectors.QdrantOptions{URL: srv.URL, Collection: "kb", Timeout: time.Second}, fixedEmbedder{})

	chunks := []connectors.Chunk{
		{Index: 0, Content: "first", Embedding: []float32{0.1, 0.2, 0.3}},
		{Index: 1, Content: "second", Embedding: []float32{0.4, 0.5, 0.6}},
	}
	if err := q.Store(context.Background(), "guide.pdf", chunks); err != nil {
		t.Fatalf("Store: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	wantRequests := []string{
		"GET /collections/kb",
		"PUT /collections/kb",
		"POST /collections/kb/points/delete",
		"PUT /collections/kb/points",
	}
	if !slices.Equal(requests, wantRequests) {
		t.Errorf("requests: got %v, want %v", requests, wantRequests)
	}

	vectors, _ := created["vectors"].(map[string]any)
	if vectors["size"] != float64(3) || vectors["distance"] != "Cosine" {
		t.Errorf("collection: got %v", created)
	}

	filter, _ := json.Marshal(deleted)
	if !strings.Contains(string(filter), `"value":"guide.pdf"`) {
		t.Errorf("delete filter: got %s", filter)
	}

	if len(points) != 2 {
		t.Fatalf("points: got %d, want 2", len(points))
	}
	if points[0].ID == points[1].ID {
		t.Error("point ids must differ per chunk")
	}
	if points[1].Payload["text"] != "second" || points[1].Payload["source"] != "guide.pdf" {
		t.Errorf("payload: got %v", points[1].Payload)
	}
}

func TestQdrantStoreIDsAreStable(t *testing.T) {
	var (
		mu  sync.Mutex
		ids [][]string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		if r.URL.Path == "/collections/kb/points" {
			var body struct {
				Points []struct {
					ID string `json:"id"`
				} `json:"points"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			var run []string
			for _, p := range body.Points {
				run = append(run, p.ID)
			}
			ids = append(ids, run)
		}
		w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	q := connectors.NewQdrant(connectors.QdrantOptions{URL: srv.URL, Collection: "kb", Timeout: time.Second}, fixedEmbedder{})
	chunks := []connectors.Chunk{{Index: 0, Content: "x", Embedding: []float32{1}}}

	for range 2 {
		if err := q.Store(context.Background(), "guide.pdf", chunks); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()

	if len(ids) != 2 || !slices.Equal(ids[0], ids[1]) {
		t.Errorf("restoring a source should reuse point ids: got %v", ids)
	}
}

func TestQdrantStoreStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"result":{}}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	q := connectors.NewQdrant(connectors.QdrantOptions{URL: srv.URL, Collection: "kb", Timeout: time.Second}, fixedEmbedder{})
	err := q.Store(context.Background(), "doc", []connectors.Chunk{{Content: "x", Embedding: []float32{1}}})
	if !errors.Is(err, connectors.ErrStatus) {
		t.Errorf("got %v, want ErrStatus", err)
	}
}

func TestStoreUnavailable(t *testing.T) {
	chunks := []connectors.Chunk{{Content: "x", Embedding: []float32{1}}}

	err := connectors.NewPgvector(notReadyDB{}, "kb_chunks", fixedEmbedder{}).Store(context.Background(), "doc", chunks)
	if !errors.Is(err, connectors.ErrUnavailable) || !errors.Is(err, database.ErrNotReady) {
		t.Errorf("pgvector: got %v, want ErrUnavailable wrapping database.ErrNotReady", err)
	}

	err = connectors.Disabled{Name: "kb"}.Store(context.Background(), "doc", chunks)
	if !errors.Is(err, connectors.ErrUnavailable) {
		t.Errorf("disabled: got %v, want ErrUnavailable", err)
	}
}
