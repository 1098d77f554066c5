// Package cache provides a Redis-backed cache of decode results keyed by
// source sentence, with singleflight dedup so concurrent requests for the
// same sentence share one decode. Grounded on internal/searcher/cache's
// QueryCache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/latticemt/cubedecoder/pkg/config"
	pkgredis "github.com/latticemt/cubedecoder/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "decode:"

// Entry is the cached shape of a decode result.
type Entry struct {
	TargetWords []string  `json:"target_words"`
	Score       float64   `json:"score"`
	NBest       [][]string `json:"nbest,omitempty"`
}

// DecodeCache caches decode results by source sentence.
type DecodeCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New builds a DecodeCache backed by client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *DecodeCache {
	return &DecodeCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "decode-cache"),
	}
}

// Get returns the cached Entry for words, if present.
func (c *DecodeCache) Get(ctx context.Context, words []string) (*Entry, bool) {
	key := c.buildKey(words)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &entry, true
}

// Set stores entry for words with the configured TTL.
func (c *DecodeCache) Set(ctx context.Context, words []string, entry Entry) {
	key := c.buildKey(words)
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached entry, or computes and stores it via
// computeFn, deduplicating concurrent callers for the same sentence through
// a singleflight.Group.
func (c *DecodeCache) GetOrCompute(
	ctx context.Context,
	words []string,
	computeFn func() (Entry, error),
) (Entry, bool, error) {
	if entry, ok := c.Get(ctx, words); ok {
		return *entry, true, nil
	}
	key := c.buildKey(words)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if entry, ok := c.Get(ctx, words); ok {
			return *entry, nil
		}
		entry, err := computeFn()
		if err != nil {
			return Entry{}, err
		}
		c.Set(ctx, words, entry)
		return entry, nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	return val.(Entry), false, nil
}

// Invalidate clears every cached decode result.
func (c *DecodeCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating decode cache: %w", err)
	}
	c.logger.Info("decode cache invalidate", "keys_deleted", deleted)
	return nil
}

// Stats returns cumulative hit/miss counts.
func (c *DecodeCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *DecodeCache) buildKey(words []string) string {
	raw := strings.Join(words, "\x1f")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
