package semcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"
	"unicode"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"guest-assistant-be/pkg/metrics"
)

// Group clusters paraphrase phrasings that must resolve to one cached
// answer. A normalized question containing any of the phrases maps to the
// group key instead of its exact hash.
type Group struct {
	Key     string
	Phrases []string
}

// Cache is the two-level semantic response cache wrapping the whole
// pipeline: an in-process L1 and an optional shared redis L2. Constructed
// once at process start and injected; entries are evicted lazily on read and
// nothing survives a restart unless redis does.
type Cache struct {
	local  *gocache.Cache
	rdb    *redis.Client // nil disables the second level
	groups []Group
	ttl    time.Duration
	logger *log.Logger
}

func New(rdb *redis.Client, groups []Group, ttl time.Duration, logger *log.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		local:  gocache.New(ttl, 10*time.Minute),
		rdb:    rdb,
		groups: groups,
		ttl:    ttl,
		logger: logger,
	}
}

// Key derives the cache key: semantic-group membership first, exact
// normalized hash as the fallback.
func (c *Cache) Key(question string) string {
	norm := Normalize(question)

	for _, g := range c.groups {
		for _, phrase := range g.Phrases {
			if strings.Contains(norm, phrase) {
				return "sem:" + g.Key
			}
		}
	}

	sum := sha256.Sum256([]byte(norm))
	return "exact:" + hex.EncodeToString(sum[:16])
}

// Lookup returns the cached payload for the question, if any. Redis being
// down only costs the second level.
func (c *Cache) Lookup(ctx context.Context, question string) ([]byte, bool) {
	key := c.Key(question)

	if x, found := c.local.Get(key); found {
		metrics.CacheHits.Inc()
		return x.([]byte), true
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			c.local.Set(key, data, gocache.DefaultExpiration)
			metrics.CacheHits.Inc()
			return data, true
		}
		if err != redis.Nil {
			c.logger.Printf("[WARN] Cache L2 lookup failed: %v", err)
		}
	}

	metrics.CacheMisses.Inc()
	return nil, false
}

// Store writes the payload to both levels, best-effort.
func (c *Cache) Store(ctx context.Context, question string, payload []byte) {
	key := c.Key(question)

	c.local.Set(key, payload, gocache.DefaultExpiration)

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Printf("[WARN] Cache L2 store failed: %v", err)
		}
	}
}

// Normalize lowercases, strips punctuation, and collapses whitespace so
// trivially different phrasings hash the same.
func Normalize(question string) string {
	var sb strings.Builder
	sb.Grow(len(question))

	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(question)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				sb.WriteRune(' ')
				lastSpace = true
			}
		}
		// Punctuation and symbols are dropped entirely.
	}

	return strings.TrimSpace(sb.String())
}
