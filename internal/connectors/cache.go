package connectors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache memoizes connector results by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// CacheKey hashes the parts of a connector call into a stable key.
func CacheKey(kind string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return kind + ":" + hex.EncodeToString(h[:16])
}

type memoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache returns an in-process TTL cache.
func NewMemoryCache(ttl time.Duration) Cache {
	return &memoryCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *memoryCache) Set(_ context.Context, key, value string) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

type redisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache returns a Cache shared across replicas through Redis.
// Redis failures degrade to cache misses and are logged at debug.
func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration, logger *slog.Logger) Cache {
	return &redisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With("system", "cache"),
	}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.DebugContext(ctx, "cache get failed", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}

func (c *redisCache) Set(ctx context.Context, key, value string) {
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		c.logger.DebugContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (string, bool) { return "", false }
func (NopCache) Set(context.Context, string, string)        {}

type cachedKB struct {
	next  KnowledgeBase
	cache Cache
}

// CachedKnowledgeBase memoizes successful lookups.
func CachedKnowledgeBase(next KnowledgeBase, cache Cache) KnowledgeBase {
	return &cachedKB{next: next, cache: cache}
}

func (c *cachedKB) Lookup(ctx context.Context, question string, topK int) (string, error) {
	key := CacheKey("kb", question, fmt.Sprint(topK))
	if v, ok := c.cache.Get(ctx, key); ok {
		return v, nil
	}
	v, err := c.next.Lookup(ctx, question, topK)
	if err != nil {
		return "", err
	}
	c.cache.Set(ctx, key, v)
	return v, nil
}

type cachedSearch struct {
	next  WebSearch
	cache Cache
}

// CachedWebSearch memoizes successful searches.
func CachedWebSearch(next WebSearch, cache Cache) WebSearch {
	return &cachedSearch{next: next, cache: cache}
}

func (c *cachedSearch) Search(ctx context.Context, query string, trust bool, topK int) (string, error) {
	key := CacheKey("web", query, fmt.Sprint(trust), fmt.Sprint(topK))
	if v, ok := c.cache.Get(ctx, key); ok {
		return v, nil
	}
	v, err := c.next.Search(ctx, query, trust, topK)
	if err != nil {
		return "", err
	}
	c.cache.Set(ctx, key, v)
	return v, nil
}

type cachedScraper struct {
	next  Scraper
	cache Cache
}

// CachedScraper memoizes successful page scrapes.
func CachedScraper(next Scraper, cache Cache) Scraper {
	return &cachedScraper{next: next, cache: cache}
}

func (c *cachedScraper) Scrape(ctx context.Context, url string) (string, error) {
	key := CacheKey("scrape", url)
	if v, ok := c.cache.Get(ctx, key); ok {
		return v, nil
	}
	v, err := c.next.Scrape(ctx, url)
	if err != nil {
		return "", err
	}
	c.cache.Set(ctx, key, v)
	return v, nil
}
