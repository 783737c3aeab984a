// Package mediatest holds helpers for tests that drive a real ffmpeg install.
package mediatest

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
	"testing"
)

// Tools are the binaries found on PATH.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// Require skips the test unless ffmpeg and ffprobe are on PATH and ffmpeg
// was built with the libx264 and aac encoders.
func Require(t *testing.T) Tools {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping ffmpeg integration test in short mode")
	}
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not found on PATH")
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not found on PATH")
	}
	out, err := exec.Command(ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		t.Skipf("ffmpeg -encoders: %v", err)
	}
	for _, enc := range []string{" libx264 ", " aac "} {
		if !bytes.Contains(out, []byte(enc)) {
			t.Skipf("ffmpeg lacks the%sencoder", enc)
		}
	}
	return Tools{FFmpeg: ffmpegPath, FFprobe: ffprobePath}
}

// Run executes ffmpeg with args and fails the test on a non-zero exit.
func (tl Tools) Run(t *testing.T, args ...string) []byte {
	t.Helper()
	cmd := exec.Command(tl.FFmpeg, append([]string{"-hide_banner", "-v", "error", "-y"}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("ffmpeg %s: %v\n%s", strings.Join(args, " "), err, stderr.String())
	}
	return out
}

// Tone writes a sine wave of the given length to path.
func (tl Tools) Tone(t *testing.T, path string, seconds float64) {
	t.Helper()
	tl.Run(t, "-f", "lavfi", "-i", "sine=frequency=440:duration="+formatSeconds(seconds), path)
}

// Clip writes an H.264/AAC MP4 of a solid colour with a sine track.
func (tl Tools) Clip(t *testing.T, path, colour string, seconds float64) {
	t.Helper()
	d := formatSeconds(seconds)
	tl.Run(t,
		"-f", "lavfi", "-i", "color=c="+colour+":s=64x64:r=10:d="+d,
		"-f", "lavfi", "-i", "sine=frequency=440:duration="+d,
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-shortest",
		path)
}

// Stream is the subset of ffprobe stream metadata the tests check.
type Stream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	PixFmt    string `json:"pix_fmt"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Info is what ffprobe reports about a container.
type Info struct {
	Streams  []Stream
	Duration float64
}

// Stream returns the first stream of the given type, or false.
func (i Info) Stream(codecType string) (Stream, bool) {
	for _, s := range i.Streams {
		if s.CodecType == codecType {
			return s, true
		}
	}
	return Stream{}, false
}

// Probe reads stream and format metadata from path.
func (tl Tools) Probe(t *testing.T, path string) Info {
	t.Helper()
	out, err := exec.Command(tl.FFprobe, "-v", "error",
		"-show_entries", "stream=codec_type,codec_name,pix_fmt,width,height:format=duration",
		"-of", "json", path).Output()
	if err != nil {
		t.Fatalf("ffprobe %s: %v", path, err)
	}

	var raw struct {
		Streams []Stream `json:"streams"`
		Format  struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		t.Fatalf("ffprobe output: %v", err)
	}
	d, err := strconv.ParseFloat(raw.Format.Duration, 64)
	if err != nil {
		t.Fatalf("ffprobe duration %q: %v", raw.Format.Duration, err)
	}
	return Info{Streams: raw.Streams, Duration: d}
}

// FrameAt decodes the video frame shown at the given offset.
func (tl Tools) FrameAt(t *testing.T, path string, seconds float64) image.Image {
	t.Helper()
	out := tl.Run(t, "-ss", formatSeconds(seconds), "-i", path,
		"-frames:v", "1", "-f", "image2", "-c:v", "png", "pipe:1")
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode frame at %.1fs: %v", seconds, err)
	}
	return img
}

// Dominant names the strongest channel ("r", "g" or "b") at the image centre.
func Dominant(img image.Image) string {
	b := img.Bounds()
	r, g, bl, _ := img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2).RGBA()
	switch {
	case r >= g && r >= bl:
		return "r"
	case g >= bl:
		return "g"
	default:
		return "b"
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
