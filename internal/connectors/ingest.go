package connectors

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Chunk is one embedded span of a source document.
type Chunk struct {
	Index     int
	Content   string
	Embedding []float32
}

// IngestOptions controls how documents are split and embedded.
type IngestOptions struct {
	ChunkSize    int
	ChunkOverlap int
	Workers      int
}

// Ingester splits documents into overlapping chunks, embeds each chunk, and
// writes them to a knowledge base Store.
type Ingester struct {
	opts     IngestOptions
	embedder Embedder
	store    Store
}

// NewIngester creates an Ingester. Workers below one embed sequentially.
func NewIngester(opts IngestOptions, embedder Embedder, store Store) *Ingester {
	opts.Workers = max(opts.Workers, 1)
	return &Ingester{opts: opts, embedder: embedder, store: store}
}

// Ingest stores text under source and returns the number of chunks written.
// Nothing is stored when any chunk fails to embed.
func (i *Ingester) Ingest(ctx context.Context, source, text string) (int, error) {
	parts := SplitText(text, i.opts.ChunkSize, i.opts.ChunkOverlap)
	if len(parts) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoContent, source)
	}

	chunks := make([]Chunk, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Workers)

	for idx, part := range parts {
		g.Go(func() error {
			vec, err := i.embedder.Embed(gctx, part)
			if err != nil {
				return fmt.Errorf("embed chunk %d of %s: %w", idx, source, err)
			}
			chunks[idx] = Chunk{Index: idx, Content: part, Embedding: vec}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := i.store.Store(ctx, source, chunks); err != nil {
		return 0, fmt.Errorf("store %s: %w", source, err)
	}
	return len(chunks), nil
}

// SplitText collapses whitespace in text and splits it into chunks of at
// most size runes, each starting with the last overlap runes of the one
// before it. Chunks end at a word boundary when one falls past the overlap,
// and the overlap is moved forward to the next word start when it would
// begin mid-word. A size of zero or less returns the whole text as one
// chunk; an overlap outside [0, size) is treated as zero.
func SplitText(text string, size, overlap int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	r := []rune(text)
	if size <= 0 || len(r) <= size {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	for start := 0; ; {
		end := min(start+size, len(r))
		if end < len(r) {
			// r[end] is included so a window ending on a word keeps it
			if i := lastIndex(r[start:end+1], ' '); i > overlap {
				end = start + i
			}
		}

		chunks = append(chunks, strings.TrimSpace(string(r[start:end])))
		if end == len(r) {
			return chunks
		}

		next := end - overlap
		if r[next-1] != ' ' {
			if i := slices.Index(r[next:end], ' '); i >= 0 {
				next += i + 1
			}
		}
		start = next
	}
}

func lastIndex(r []rune, target rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == target {
			return i
		}
	}
	return -1
}
