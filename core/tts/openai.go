package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAITTSConfig holds configuration for the OpenAI speech backend.
type OpenAITTSConfig struct {
	APIKey  string
	BaseURL string // default: the SDK's api.openai.com endpoint
	Model   string // default: "tts-1"
	Voice   string // default: "alloy"
}

// OpenAITTS synthesizes MP3 speech through the OpenAI audio API. The model
// detects the language from the text, so Request.Lang is not sent.
type OpenAITTS struct {
	cfg    OpenAITTSConfig
	client *openai.Client
}

// NewOpenAITTS creates an OpenAITTS with sensible defaults applied.
func NewOpenAITTS(cfg OpenAITTSConfig) *OpenAITTS {
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.VoiceAlloy)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAITTS{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}
}

func (o *OpenAITTS) Name() string { return "openai" }

// CacheScope separates narrations by model and voice.
func (o *OpenAITTS) CacheScope() string { return o.cfg.Model + "/" + o.cfg.Voice }

func (o *OpenAITTS) Synthesize(ctx context.Context, req Request) (*Result, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.Model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(o.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio response")
	}

	return &Result{Audio: audio, Format: "mp3"}, nil
}
