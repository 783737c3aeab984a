package media

import "context"

// SlideJob names the scratch files for one slide render.
type SlideJob struct {
	ImagePath  string
	AudioPath  string
	OutputPath string
}

// ConcatJob names the concat manifest and the output file.
type ConcatJob struct {
	ManifestPath string
	OutputPath   string
}

// Encoder is the video tool capability the slide and combine services need.
// Failures are reported as *model.EncodingError.
type Encoder interface {
	SynthesizeSlideVideo(ctx context.Context, job SlideJob) error
	ConcatenateVideos(ctx context.Context, job ConcatJob) error
}
