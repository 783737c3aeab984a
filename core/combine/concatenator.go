// Package combine joins uploaded videos end to end without re-encoding.
package combine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Slidecast/core/media"
	"Slidecast/core/scratch"
	"Slidecast/logger"
	"Slidecast/model"
)

const manifestFileName = "inputs.txt"

// Concatenator turns a VideoCombineRequest into one MP4 artifact.
type Concatenator struct {
	encoder    media.Encoder
	prober     media.DurationProber
	scratchDir string
}

// Option customizes a Concatenator.
type Option func(*Concatenator)

// WithProber reports the output duration on each artifact.
func WithProber(p media.DurationProber) Option {
	return func(c *Concatenator) { c.prober = p }
}

// WithScratchDir sets the parent of per-request workspaces.
func WithScratchDir(dir string) Option {
	return func(c *Concatenator) { c.scratchDir = dir }
}

// NewConcatenator creates a new Concatenator.
func NewConcatenator(encoder media.Encoder, opts ...Option) *Concatenator {
	c := &Concatenator{encoder: encoder}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate rejects an empty file list.
func Validate(req model.VideoCombineRequest) error {
	if len(req.Files) == 0 {
		return &model.ValidationError{Field: "videos", Reason: "please upload at least one video"}
	}
	return nil
}

// Combine writes the uploads to a fresh workspace in order, lists them in a
// concat manifest and stream-copies them into one file. The workspace is
// removed on every path.
func (c *Concatenator) Combine(ctx context.Context, req model.VideoCombineRequest) (*model.Artifact, error) {
	startTime := time.Now()

	if err := Validate(req); err != nil {
		return nil, err
	}

	ws, err := scratch.New(c.scratchDir)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	paths := make([]string, 0, len(req.Files))
	for i, f := range req.Files {
		path, err := ws.WriteFile(scratchName(i, f.Name), f.Data)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	manifestPath, err := ws.WriteFile(manifestFileName, []byte(BuildManifest(paths)))
	if err != nil {
		return nil, err
	}

	job := media.ConcatJob{
		ManifestPath: manifestPath,
		OutputPath:   ws.Path(model.CombinedFileName),
	}
	if err := c.encoder.ConcatenateVideos(ctx, job); err != nil {
		if !model.IsEncoding(err) {
			err = &model.EncodingError{Op: "concat", Err: err}
		}
		return nil, err
	}

	data, err := ws.ReadFile(model.CombinedFileName)
	if err != nil {
		return nil, fmt.Errorf("read combined video: %w", err)
	}
	if len(data) == 0 {
		return nil, &model.EncodingError{Op: "concat", Err: errors.New("encoder produced an empty file")}
	}

	artifact := &model.Artifact{
		Name:        model.CombinedFileName,
		ContentType: model.ContentTypeMP4,
		Data:        data,
	}
	if c.prober != nil {
		if d, err := c.prober.Duration(ctx, job.OutputPath); err != nil {
			logger.Warn("Could not probe combined duration", logger.ErrorField(err))
		} else {
			artifact.Duration = d
		}
	}

	logger.Info("Videos combined",
		logger.Int("inputs", len(req.Files)),
		logger.Int("bytes", len(data)),
		logger.Float64("durationSec", artifact.Duration),
		logger.Duration("elapsed", time.Since(startTime)))

	return artifact, nil
}
