// Package slide renders a narrated single-image video.
package slide

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Slidecast/core/media"
	"Slidecast/core/scratch"
	"Slidecast/core/tts"
	"Slidecast/logger"
	"Slidecast/model"
)

const (
	imageFileName = "slide.jpg"
	audioFileBase = "narration"
)

// Synthesizer turns a SlideRequest into an MP4 artifact.
type Synthesizer struct {
	provider   tts.Provider
	encoder    media.Encoder
	prober     media.DurationProber
	scratchDir string
	lang       string
}

// Option customizes a Synthesizer.
type Option func(*Synthesizer)

// WithProber reports the output duration on each artifact.
func WithProber(p media.DurationProber) Option {
	return func(s *Synthesizer) { s.prober = p }
}

// WithScratchDir sets the parent of per-request workspaces.
func WithScratchDir(dir string) Option {
	return func(s *Synthesizer) { s.scratchDir = dir }
}

// WithLang sets the narration language code. The default is "en".
func WithLang(lang string) Option {
	return func(s *Synthesizer) {
		if lang != "" {
			s.lang = lang
		}
	}
}

// NewSynthesizer creates a new Synthesizer.
func NewSynthesizer(provider tts.Provider, encoder media.Encoder, opts ...Option) *Synthesizer {
	s := &Synthesizer{provider: provider, encoder: encoder, lang: "en"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks a request without touching the provider or encoder and
// returns the normalized frame and trimmed text.
func Validate(req model.SlideRequest) (*NormalizedImage, string, error) {
	if len(req.Image) == 0 {
		return nil, "", &model.ValidationError{Field: "image", Reason: "please upload an image slide"}
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, "", &model.ValidationError{Field: "text", Reason: "please enter some text"}
	}

	img, err := NormalizeImage(req.Image)
	if err != nil {
		return nil, "", err
	}
	return img, text, nil
}

// Synthesize validates the request, narrates the text, and encodes the frame
// held for the length of the narration. The scratch workspace is removed
// whether or not the render succeeds.
func (s *Synthesizer) Synthesize(ctx context.Context, req model.SlideRequest) (*model.Artifact, error) {
	startTime := time.Now()

	img, text, err := Validate(req)
	if err != nil {
		return nil, err
	}
	if img.Width() != img.SourceWidth || img.Height() != img.SourceHeight {
		logger.Info("Resized slide to even dimensions",
			logger.Int("fromWidth", img.SourceWidth), logger.Int("fromHeight", img.SourceHeight),
			logger.Int("toWidth", img.Width()), logger.Int("toHeight", img.Height()))
	}

	ws, err := scratch.New(s.scratchDir)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	frame, err := img.JPEG()
	if err != nil {
		return nil, err
	}
	imagePath, err := ws.WriteFile(imageFileName, frame)
	if err != nil {
		return nil, err
	}

	speech, err := s.provider.Synthesize(ctx, tts.Request{Text: text, Lang: s.lang})
	if err != nil {
		return nil, &model.SynthesisError{Provider: s.provider.Name(), Err: err}
	}
	audioPath, err := ws.WriteFile(audioFileBase+"."+speech.Format, speech.Audio)
	if err != nil {
		return nil, err
	}

	job := media.SlideJob{
		ImagePath:  imagePath,
		AudioPath:  audioPath,
		OutputPath: ws.Path(model.SlideFileName),
	}
	if err := s.encoder.SynthesizeSlideVideo(ctx, job); err != nil {
		if !model.IsEncoding(err) {
			err = &model.EncodingError{Op: "slide encode", Err: err}
		}
		return nil, err
	}

	data, err := ws.ReadFile(model.SlideFileName)
	if err != nil {
		return nil, fmt.Errorf("read encoded slide: %w", err)
	}
	if len(data) == 0 {
		return nil, &model.EncodingError{Op: "slide encode", Err: errors.New("encoder produced an empty file")}
	}

	artifact := &model.Artifact{
		Name:        model.SlideFileName,
		ContentType: model.ContentTypeMP4,
		Data:        data,
	}
	if s.prober != nil {
		if d, err := s.prober.Duration(ctx, job.OutputPath); err != nil {
			logger.Warn("Could not probe slide duration", logger.ErrorField(err))
		} else {
			artifact.Duration = d
		}
	}

	logger.Info("Slide rendered",
		logger.String("provider", s.provider.Name()),
		logger.Int("textLength", len(text)),
		logger.Int("bytes", len(data)),
		logger.Float64("durationSec", artifact.Duration),
		logger.Duration("elapsed", time.Since(startTime)))

	return artifact, nil
}
