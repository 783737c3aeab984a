package media

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Prober reads container metadata with ffprobe.
type Prober struct {
	ffprobePath string
	executor    Executor
}

// NewProber creates a Prober. An empty path derives ffprobe from the ffmpeg
// path, the way both binaries usually ship side by side.
func NewProber(ffprobePath, ffmpegPath string, executor Executor) *Prober {
	if ffprobePath == "" && ffmpegPath != "" {
		base := strings.Replace(filepath.Base(ffmpegPath), "ffmpeg", "ffprobe", 1)
		ffprobePath = filepath.Join(filepath.Dir(ffmpegPath), base)
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{ffprobePath: ffprobePath, executor: executor}
}

// ffprobeOutput defines the structure for ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the length of a media file in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	}

	out, err := p.executor.Execute(ctx, p.ffprobePath, args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseDuration(out)
}

// Version returns the first line of "ffprobe -version".
func (p *Prober) Version(ctx context.Context) (string, error) {
	out, err := p.executor.Execute(ctx, p.ffprobePath, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line), nil
}

func parseDuration(out string) (float64, error) {
	var probeData ffprobeOutput
	if err := json.Unmarshal([]byte(out), &probeData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}

	if probeData.Format.Duration == "" {
		return 0, fmt.Errorf("duration not found in ffprobe output: %s", out)
	}

	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probeData.Format.Duration, err)
	}
	return duration, nil
}

// DurationProber is the part of Prober the render services depend on.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}
