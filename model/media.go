package model

// SlideRequest is one image plus the narration to read over it.
type SlideRequest struct {
	Image     []byte
	ImageName string
	Text      string
}

// UploadedFile is a single file taken from a multipart form, kept in memory.
type UploadedFile struct {
	Name string
	Data []byte
}

// VideoCombineRequest lists videos in the order they must appear in the output.
type VideoCombineRequest struct {
	Files []UploadedFile
}

// Artifact is what a handler hands back to the caller: the bytes for inline
// playback and download, plus an archive URL when archiving is enabled.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	URL         string
	// Duration is the probed length in seconds, zero when unknown.
	Duration float64
}

const (
	SlideFileName    = "tts_slide.mp4"
	CombinedFileName = "combined.mp4"
	ContentTypeMP4   = "video/mp4"
)
