// Package tts turns narration text into speech audio.
package tts

import (
	"context"
	"fmt"

	"Slidecast/config"
	"Slidecast/core/media"
)

// Request holds the parameters for text-to-speech generation.
type Request struct {
	Text string
	Lang string
}

// Result holds the generated audio and its container format ("mp3", "wav"),
// which doubles as the scratch file extension.
type Result struct {
	Audio  []byte
	Format string
}

// Provider is the interface for text-to-speech backends.
type Provider interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
	Name() string
}

// NewFromConfig builds the provider selected by cfg.Provider.
func NewFromConfig(cfg config.TTSConfig, executor media.InputExecutor) (Provider, error) {
	switch cfg.Provider {
	case "", "google":
		return NewGoogleTTS(GoogleTTSConfig{BaseURL: cfg.GoogleBaseURL}), nil
	case "openai":
		return NewOpenAITTS(OpenAITTSConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Voice:   cfg.OpenAIVoice,
		}), nil
	case "piper":
		return NewPiperTTS(PiperTTSConfig{
			BinPath:    cfg.PiperPath,
			ModelPath:  cfg.PiperModel,
			SampleRate: cfg.PiperSampleRate,
		}, executor), nil
	default:
		return nil, fmt.Errorf("unknown tts provider %q", cfg.Provider)
	}
}
