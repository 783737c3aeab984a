package cache

import (
	"context"
	"testing"
	"time"

	"Slidecast/config"
	"Slidecast/core/tts"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestNarrationCacheRoundTrip(t *testing.T) {
	mr, client := newTestClient(t)
	c := NewNarrationCache(client)
	ctx := context.Background()
	key := tts.CacheKey("google", "en", "Hello world")

	got, err := c.Get(ctx, key)
	if err != nil || got != nil {
		t.Fatalf("Get() on miss = %v, %v; want nil, nil", got, err)
	}

	want := &tts.Result{Audio: []byte{0xff, 0xfb, 0x00, 0x01}, Format: "mp3"}
	if err := c.Set(ctx, key, want, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err = c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.Format != "mp3" || string(got.Audio) != string(want.Audio) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	got, err = c.Get(ctx, key)
	if err != nil || got != nil {
		t.Errorf("Get() after expiry = %v, %v; want miss", got, err)
	}
}

func TestNarrationCacheZeroTTL(t *testing.T) {
	mr, client := newTestClient(t)
	c := NewNarrationCache(client)

	if err := c.Set(context.Background(), "narration:k", &tts.Result{Audio: []byte("a"), Format: "wav"}, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if ttl := mr.TTL("narration:k"); ttl != 0 {
		t.Errorf("TTL = %v, want none", ttl)
	}
}

func TestNarrationCacheUnavailable(t *testing.T) {
	mr, client := newTestClient(t)
	c := NewNarrationCache(client)
	mr.Close()

	if _, err := c.Get(context.Background(), "narration:k"); err == nil {
		t.Error("Get() with Redis down should fail")
	}
}

func TestFlush(t *testing.T) {
	mr, client := newTestClient(t)
	c := NewNarrationCache(client)
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, tts.CacheKey("google", "en", text), &tts.Result{Audio: []byte(text), Format: "mp3"}, time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	mr.Set("other", "keep")

	n, err := c.Flush(ctx, "")
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Flush() removed %d, want 3", n)
	}
	if !mr.Exists("other") {
		t.Error("Flush() removed a non-narration key")
	}
}

func TestConnectAndCheck(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = mr.Port()

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := Check(context.Background(), client); err != nil {
		t.Errorf("Check() error = %v", err)
	}
	if mr.Exists("slidecast:healthcheck") {
		t.Error("Check() left its key behind")
	}
}

func TestConnectFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = "1"

	if _, err := Connect(cfg); err == nil {
		t.Error("Connect() to a closed port should fail")
	}
}
