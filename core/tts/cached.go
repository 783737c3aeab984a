package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"Slidecast/logger"
)

// NarrationCache stores synthesized audio. Get returns nil, nil on a miss.
type NarrationCache interface {
	Get(ctx context.Context, key string) (*Result, error)
	Set(ctx context.Context, key string, res *Result, ttl time.Duration) error
}

// CachedProvider serves repeated narrations from a cache. Cache failures are
// logged and treated as misses; they never fail synthesis.
type CachedProvider struct {
	inner Provider
	cache NarrationCache
	ttl   time.Duration
}

func NewCachedProvider(inner Provider, cache NarrationCache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

// Scoped is implemented by providers whose output depends on settings beyond
// the language, such as a model or voice. The scope is folded into cache keys.
type Scoped interface {
	CacheScope() string
}

// cacheName is the provider segment of a cache key.
func cacheName(p Provider) string {
	if s, ok := p.(Scoped); ok {
		if scope := s.CacheScope(); scope != "" {
			return p.Name() + "/" + scope
		}
	}
	return p.Name()
}

// CacheKey identifies a narration by backend, language and text.
func CacheKey(provider, lang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "narration:" + provider + ":" + lang + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedProvider) Synthesize(ctx context.Context, req Request) (*Result, error) {
	key := CacheKey(cacheName(c.inner), req.Lang, req.Text)

	cached, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Narration cache read failed", logger.String("key", key), logger.ErrorField(err))
	} else if cached != nil {
		logger.Debug("Narration cache hit", logger.String("key", key), logger.Int("size", len(cached.Audio)))
		return cached, nil
	}

	res, err := c.inner.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, res, c.ttl); err != nil {
		logger.Warn("Narration cache write failed", logger.String("key", key), logger.ErrorField(err))
	}
	return res, nil
}
