package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/prfaq/internal/llm"
)

// BraveOptions configures the Brave web search connector.
type BraveOptions struct {
	BaseURL         string
	APIKey          string
	Country         string
	TrustedDomains  []string
	TrustedPerQuery int
	RatePerSecond   float64
	MaxRetries      int
	RetryInterval   time.Duration
	Timeout         time.Duration
}

// DomainChooser picks at most n of domains likely to hold information
// relevant to query.
type DomainChooser func(ctx context.Context, query string, domains []string, n int) []string

// FirstDomains chooses the first n configured domains.
func FirstDomains(_ context.Context, _ string, domains []string, n int) []string {
	if n > len(domains) {
		n = len(domains)
	}
	return domains[:n]
}

// ModelChooser asks model which trusted domains fit the query and keeps
// the configured domains its reply names. Each token of the reply is
// compared as a host, so "www.bls.gov" selects "bls.gov" but "box.com"
// does not select "x.com". It falls back to FirstDomains when the model
// fails or names none.
func ModelChooser(model llm.Model) DomainChooser {
	return func(ctx context.Context, query string, domains []string, n int) []string {
		prompt := fmt.Sprintf(
			"You are helping a researcher identify the most relevant websites to search.\n"+
				"Query: %s\n"+
				"Here is a list of approved domains:\n%s\n\n"+
				"Pick the top %d most likely to contain helpful info for this context. "+
				"Return ONLY the domain names.",
			query, strings.Join(domains, "\n"), n,
		)

		reply, err := model.Chat(ctx, prompt)
		if err != nil {
			return FirstDomains(ctx, query, domains, n)
		}

		tokens := hostTokens(reply)
		var selected []string
		for _, d := range domains {
			if len(selected) == n {
				break
			}
			if slices.ContainsFunc(tokens, func(tok string) bool { return hostMatches(tok, d) }) {
				selected = append(selected, d)
			}
		}
		if len(selected) == 0 {
			return FirstDomains(ctx, query, domains, n)
		}
		return selected
	}
}

// Brave performs web searches against the Brave Search API.
type Brave struct {
	opts    BraveOptions
	http    *http.Client
	limiter *rate.Limiter
	choose  DomainChooser
	logger  *slog.Logger
}

// NewBrave creates a Brave WebSearch. A nil chooser uses FirstDomains.
func NewBrave(opts BraveOptions, choose DomainChooser, logger *slog.Logger) *Brave {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	if choose == nil {
		choose = FirstDomains
	}

	return &Brave{
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		choose:  choose,
		logger:  logger.With("system", "brave"),
	}
}

// SearchResult is a single scored web result.
type SearchResult struct {
	Title     string
	URL       string
	Content   string
	Published time.Time
	Score     int
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			PageAge     string `json:"page_age"`
		} `json:"results"`
	} `json:"web"`
}

// Search runs query, plus one site-scoped query per chosen trusted domain
// when trust is set, then returns the topK results by relevance as text.
// Failures of individual queries are logged and skipped; an error is
// returned only when every query fails.
func (b *Brave) Search(ctx context.Context, query string, trust bool, topK int) (string, error) {
	results, err := b.Results(ctx, query, trust, topK)
	if err != nil {
		return "", err
	}
	return FormatResults(results), nil
}

// Results is Search without the text rendering.
func (b *Brave) Results(ctx context.Context, query string, trust bool, topK int) ([]SearchResult, error) {
	queries := []string{}
	if trust && len(b.opts.TrustedDomains) > 0 && b.opts.TrustedPerQuery > 0 {
		for _, d := range b.choose(ctx, query, b.opts.TrustedDomains, b.opts.TrustedPerQuery) {
			queries = append(queries, fmt.Sprintf("site:%s %s", d, query))
		}
	}
	queries = append(queries, query)

	var (
		results []SearchResult
		errs    []error
	)
	for _, q := range queries {
		page, err := b.query(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Warn("search query failed", "query", q, "error", err)
			errs = append(errs, err)
			continue
		}
		results = append(results, page...)
	}

	if len(errs) == len(queries) {
		return nil, errors.Join(errs...)
	}

	now := time.Now()
	for i := range results {
		results[i].Score = RelevanceScore(results[i], query, b.opts.TrustedDomains, now)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (b *Brave) query(ctx context.Context, q string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("summary", "true")
	if b.opts.Country != "" {
		params.Set("country", b.opts.Country)
	}
	endpoint := strings.TrimRight(b.opts.BaseURL, "/") + "/res/v1/web/search?" + params.Encode()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.opts.RetryInterval
	policy.Multiplier = 2
	policy.RandomizationFactor = 0

	var out braveResponse
	op := func() error {
		if err := b.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", b.opts.APIKey)

		resp, err := b.http.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: brave: %w", ErrUnavailable, err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return statusError(resp)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(statusError(resp))
		}

		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %w", ErrDecode, err))
		}
		return nil
	}

	retries := uint64(max(b.opts.MaxRetries, 0))
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx)); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(out.Web.Results))
	for _, r := range out.Web.Results {
		results = append(results, SearchResult{
			Title:     r.Title,
			URL:       r.URL,
			Content:   r.Description,
			Published: parseAge(r.PageAge),
		})
	}
	return results, nil
}

func parseAge(s string) time.Time {
	if len(s) < 10 {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}
	}
	return t
}

// RelevanceScore ranks a result against query. Content and title matches
// of the whole query and of each word longer than two characters score,
// as do recency, content length, highlight marks, and a trusted domain.
func RelevanceScore(r SearchResult, query string, trusted []string, now time.Time) int {
	content := strings.ToLower(r.Content)
	title := strings.ToLower(r.Title)
	q := strings.ToLower(query)

	var words []string
	for _, w := range strings.Fields(q) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}

	score := 0
	if q != "" && strings.Contains(content, q) {
		score += 30
	}
	for _, w := range words {
		score += strings.Count(content, w) * 3
	}

	if q != "" && strings.Contains(title, q) {
		score += 20
	}
	for _, w := range words {
		if strings.Contains(title, w) {
			score += 10
		}
	}

	if !r.Published.IsZero() {
		days := now.Sub(r.Published).Hours() / 24
		switch {
		case days < 30:
			score += 15
		case days < 90:
			score += 10
		case days < 365:
			score += 5
		}
	}

	switch {
	case len(r.Content) < 200:
		score -= 10
	case len(r.Content) > 1000:
		score += 5
	}

	score += strings.Count(r.Content, "<mark>") * 2

	if u, err := url.Parse(r.URL); err == nil {
		host := u.Hostname()
		if slices.ContainsFunc(trusted, func(d string) bool { return hostMatches(host, d) }) {
			score += 30
		}
	}

	return score
}

// hostMatches reports whether host is domain or one of its subdomains.
func hostMatches(host, domain string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	domain = strings.Trim(strings.ToLower(domain), ".")
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// hostTokens splits a model reply into candidate host names. Any rune that
// cannot appear in a host name separates tokens.
func hostTokens(reply string) []string {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '-'
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.Trim(f, ".-"); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// FormatResults renders results as numbered text blocks for prompting.
func FormatResults(results []SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\nURL: %s\n%s", i+1, r.Title, r.URL, r.Content)
	}
	return sb.String()
}
