package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxScrapeBytes bounds the page text read from the scrape service.
const maxScrapeBytes = 4 << 20

// ScrapeAPI fetches page text from an HTTP scrape service that accepts
// {"website_url": url} and replies with the page body.
type ScrapeAPI struct {
	url  string
	http *http.Client
}

// NewScrapeAPI creates a Scraper posting to url.
func NewScrapeAPI(url string, timeout time.Duration) *ScrapeAPI {
	return &ScrapeAPI{url: url, http: &http.Client{Timeout: timeout}}
}

func (s *ScrapeAPI) Scrape(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(map[string]string{"website_url": url})
	if err != nil {
		return "", fmt.Errorf("marshal scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: scrape: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	text, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBytes))
	if err != nil {
		return "", fmt.Errorf("read scrape response: %w", err)
	}
	return string(text), nil
}
