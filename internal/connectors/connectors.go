// Package connectors implements the source connectors the PR/FAQ workflow
// retrieves evidence from: the vector knowledge base, web search, and page
// scraping. Each connector returns text or an error; callers decide how a
// failure is represented. The knowledge base backends also accept documents
// through an Ingester.
package connectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Connector errors.
var (
	ErrUnavailable = errors.New("connector unavailable")
	ErrStatus      = errors.New("unexpected upstream status")
	ErrDecode      = errors.New("decode upstream response")
	ErrNoContent   = errors.New("document has no text")
)

// KnowledgeBase performs similarity lookup against company reference text.
type KnowledgeBase interface {
	Lookup(ctx context.Context, question string, topK int) (string, error)
}

// WebSearch queries the public web. When trust is set, additional queries
// are scoped to configured trusted domains.
type WebSearch interface {
	Search(ctx context.Context, query string, trust bool, topK int) (string, error)
}

// Scraper fetches the readable text of a single page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// Store persists embedded chunks of one source document. Storing a source
// replaces whatever was stored under it before.
type Store interface {
	Store(ctx context.Context, source string, chunks []Chunk) error
}

// Disabled satisfies every connector interface and always fails with
// ErrUnavailable. It stands in when a backend is configured off.
type Disabled struct {
	Name string
}

func (d Disabled) Lookup(context.Context, string, int) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrUnavailable, d.Name)
}

func (d Disabled) Search(context.Context, string, bool, int) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrUnavailable, d.Name)
}

func (d Disabled) Scrape(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrUnavailable, d.Name)
}

func (d Disabled) Store(context.Context, string, []Chunk) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, d.Name)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, string(body))
}
