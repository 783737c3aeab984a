// Package app assembles the render pipeline and its optional backends from
// configuration. The HTTP server and the offline CLI commands share it.
package app

import (
	"context"
	"fmt"

	"Slidecast/cache"
	"Slidecast/config"
	"Slidecast/core/combine"
	"Slidecast/core/media"
	"Slidecast/core/slide"
	"Slidecast/core/tts"
	"Slidecast/logger"
	"Slidecast/storage"

	"github.com/redis/go-redis/v9"
)

// App holds the wired components. Redis and Archive are nil when their
// backends are not configured.
type App struct {
	Config   *config.Config
	Slides   *slide.Synthesizer
	Combiner *combine.Concatenator
	Encoder  *media.FFmpegEncoder
	Prober   *media.Prober
	Provider tts.Provider
	Redis    *redis.Client
	Archive  *storage.ArtifactStore
}

// Options controls which optional backends New connects to.
type Options struct {
	// Archive enables the MinIO artifact store when it is configured.
	Archive bool
}

// New wires the pipeline from cfg. Failing to reach Redis disables the
// narration cache instead of failing startup.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	executor := media.NewCommandExecutor()
	encoder := media.NewFFmpegEncoder(cfg.FFmpeg.FFmpegPath, executor)
	prober := media.NewProber(cfg.FFmpeg.FFprobePath, cfg.FFmpeg.FFmpegPath, executor)

	provider, err := tts.NewFromConfig(cfg.TTS, executor)
	if err != nil {
		return nil, fmt.Errorf("tts provider: %w", err)
	}

	a := &App{Config: cfg, Encoder: encoder, Prober: prober}

	if cfg.RedisEnabled() {
		client, err := cache.Connect(cfg)
		if err != nil {
			logger.Warn("Narration cache disabled", logger.String("addr", cfg.RedisAddr()), logger.ErrorField(err))
		} else {
			a.Redis = client
			provider = tts.NewCachedProvider(provider, cache.NewNarrationCache(client), cfg.Redis.NarrationTTL)
			logger.Info("Narration cache enabled",
				logger.String("addr", cfg.RedisAddr()),
				logger.Duration("ttl", cfg.Redis.NarrationTTL))
		}
	}
	a.Provider = provider

	if opts.Archive && cfg.MinioEnabled() {
		store, err := storage.New(cfg.Minio)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.Archive = store
	}

	a.Slides = slide.NewSynthesizer(provider, encoder,
		slide.WithProber(prober),
		slide.WithScratchDir(cfg.Server.ScratchDir),
		slide.WithLang(cfg.TTS.Lang))
	a.Combiner = combine.NewConcatenator(encoder,
		combine.WithProber(prober),
		combine.WithScratchDir(cfg.Server.ScratchDir))

	logger.Info("Pipeline ready",
		logger.String("ffmpeg", encoder.FFmpegPath()),
		logger.String("tts", provider.Name()),
		logger.String("lang", cfg.TTS.Lang),
		logger.Bool("cache", a.Redis != nil),
		logger.Bool("archive", a.Archive != nil))
	return a, nil
}

// Close releases backend connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("Error closing Redis", logger.ErrorField(err))
		}
	}
}

// ReadinessChecks returns the probes /readyz runs for this configuration.
func (a *App) ReadinessChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"ffmpeg": func(ctx context.Context) error {
			_, err := a.Encoder.Version(ctx)
			return err
		},
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	if a.Archive != nil {
		checks["minio"] = a.Archive.Ping
	}
	return checks
}
