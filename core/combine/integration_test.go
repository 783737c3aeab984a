package combine

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"Slidecast/core/media"
	"Slidecast/core/media/mediatest"
	"Slidecast/model"
)

func TestCombineWithFFmpeg(t *testing.T) {
	tools := mediatest.Require(t)

	src := t.TempDir()
	var files []model.UploadedFile
	for _, c := range []struct{ name, colour string }{
		{"A.mp4", "red"},
		{"B.mp4", "green"},
		{"C.mp4", "blue"},
	} {
		path := filepath.Join(src, c.name)
		tools.Clip(t, path, c.colour, 2)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		files = append(files, model.UploadedFile{Name: c.name, Data: data})
	}

	executor := media.NewCommandExecutor()
	c := NewConcatenator(media.NewFFmpegEncoder(tools.FFmpeg, executor),
		WithProber(media.NewProber(tools.FFprobe, tools.FFmpeg, executor)),
		WithScratchDir(t.TempDir()))

	art, err := c.Combine(context.Background(), model.VideoCombineRequest{Files: files})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	if math.Abs(art.Duration-6) > 0.5 {
		t.Errorf("probed duration = %.2fs, want about 6s", art.Duration)
	}

	out := filepath.Join(t.TempDir(), model.CombinedFileName)
	if err := os.WriteFile(out, art.Data, 0600); err != nil {
		t.Fatal(err)
	}

	// Stream copy keeps the source codecs and dimensions.
	info := tools.Probe(t, out)
	video, ok := info.Stream("video")
	if !ok || video.CodecName != "h264" || video.Width != 64 || video.Height != 64 {
		t.Errorf("video stream = %+v, want h264 64x64", video)
	}
	if a, ok := info.Stream("audio"); !ok || a.CodecName != "aac" {
		t.Errorf("audio stream = %+v, want aac", a)
	}

	for _, f := range []struct {
		at   float64
		want string
	}{{1, "r"}, {3, "g"}, {5, "b"}} {
		if got := mediatest.Dominant(tools.FrameAt(t, out, f.at)); got != f.want {
			t.Errorf("frame at %.0fs dominant channel = %s, want %s", f.at, got, f.want)
		}
	}
}
