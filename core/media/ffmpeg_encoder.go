package media

import (
	"context"
	"errors"
	"strings"

	"Slidecast/logger"
	"Slidecast/model"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Output format shared by every slide render.
const (
	SlideFrameRate    = "1"
	SlideVideoCodec   = "libx264"
	SlideAudioCodec   = "aac"
	SlideAudioBitrate = "192k"
	SlidePixelFormat  = "yuv420p"
)

// FFmpegEncoder implements Encoder by building ffmpeg command lines and
// handing them to an Executor.
type FFmpegEncoder struct {
	ffmpegPath string
	executor   Executor
}

// NewFFmpegEncoder creates a new FFmpegEncoder.
func NewFFmpegEncoder(ffmpegPath string, executor Executor) *FFmpegEncoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegEncoder{ffmpegPath: ffmpegPath, executor: executor}
}

func (e *FFmpegEncoder) FFmpegPath() string {
	return e.ffmpegPath
}

// SlideArgs loops the image at 1 fps against the narration and stops at the
// shorter stream, which is always the audio.
func SlideArgs(job SlideJob) []string {
	image := ffmpeg.Input(job.ImagePath, ffmpeg.KwArgs{
		"loop":      "1",
		"framerate": SlideFrameRate,
	})
	audio := ffmpeg.Input(job.AudioPath)

	return ffmpeg.Output([]*ffmpeg.Stream{image, audio}, job.OutputPath, ffmpeg.KwArgs{
		"c:v":      SlideVideoCodec,
		"c:a":      SlideAudioCodec,
		"b:a":      SlideAudioBitrate,
		"pix_fmt":  SlidePixelFormat,
		"shortest": "",
	}).OverWriteOutput().GetArgs()
}

// ConcatArgs stream-copies every file listed in the manifest. Paths in the
// manifest are absolute, hence safe=0.
func ConcatArgs(job ConcatJob) []string {
	return ffmpeg.Input(job.ManifestPath, ffmpeg.KwArgs{
		"f":    "concat",
		"safe": "0",
	}).Output(job.OutputPath, ffmpeg.KwArgs{
		"c": "copy",
	}).OverWriteOutput().GetArgs()
}

func (e *FFmpegEncoder) SynthesizeSlideVideo(ctx context.Context, job SlideJob) error {
	return e.run(ctx, "ffmpeg slide encode", SlideArgs(job))
}

func (e *FFmpegEncoder) ConcatenateVideos(ctx context.Context, job ConcatJob) error {
	return e.run(ctx, "ffmpeg concat", ConcatArgs(job))
}

func (e *FFmpegEncoder) run(ctx context.Context, op string, args []string) error {
	logger.Debug("Executing FFmpeg command",
		logger.String("op", op),
		logger.String("cmd", e.ffmpegPath+" "+strings.Join(args, " ")))

	if _, err := e.executor.Execute(ctx, e.ffmpegPath, args...); err != nil {
		encErr := &model.EncodingError{Op: op, Err: err}
		var execErr *ExecError
		if errors.As(err, &execErr) {
			encErr.Err = execErr.Err
			encErr.Diagnostics = execErr.Stderr
		}
		return encErr
	}
	return nil
}

// Version returns the first line of "ffmpeg -version".
func (e *FFmpegEncoder) Version(ctx context.Context) (string, error) {
	out, err := e.executor.Execute(ctx, e.ffmpegPath, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line), nil
}
