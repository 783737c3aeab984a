// Package cache keeps synthesized narration audio in Redis so repeated
// requests skip the speech backend.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Slidecast/core/tts"
	"Slidecast/logger"

	"github.com/redis/go-redis/v9"
)

const (
	fieldFormat = "format"
	fieldAudio  = "audio"

	// NarrationPattern matches every narration key.
	NarrationPattern = "narration:*"
)

// NarrationCache stores narrations as hashes of format and audio bytes.
type NarrationCache struct {
	client  *redis.Client
	timeout time.Duration
}

func NewNarrationCache(client *redis.Client) *NarrationCache {
	return &NarrationCache{client: client, timeout: 5 * time.Second}
}

var _ tts.NarrationCache = (*NarrationCache)(nil)

// Get returns nil, nil when the key is absent.
func (c *NarrationCache) Get(ctx context.Context, key string) (*tts.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vals, err := c.client.HMGet(ctx, key, fieldFormat, fieldAudio).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read narration %s: %w", key, err)
	}

	format, _ := vals[0].(string)
	audio, _ := vals[1].(string)
	if format == "" || audio == "" {
		return nil, nil
	}
	return &tts.Result{Audio: []byte(audio), Format: format}, nil
}

// Set writes the narration and its expiry in one transaction. A zero ttl
// keeps the entry until it is flushed.
func (c *NarrationCache) Set(ctx context.Context, key string, res *tts.Result, ttl time.Duration) error {
	if res == nil || len(res.Audio) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldFormat, res.Format, fieldAudio, res.Audio)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write narration %s: %w", key, err)
	}

	logger.Debug("Narration cached",
		logger.String("key", key),
		logger.Int("dataSize", len(res.Audio)),
		logger.Duration("expiration", ttl))
	return nil
}

// Flush deletes every key matching pattern and reports how many were removed.
func (c *NarrationCache) Flush(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		pattern = NarrationPattern
	}

	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete narrations: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	logger.Info("Narration cache flushed", logger.String("pattern", pattern), logger.Int("removed", removed))
	return removed, nil
}
