package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"Slidecast/core/media"
)

// PiperTTSConfig holds configuration for the local Piper backend.
type PiperTTSConfig struct {
	BinPath    string // default: "piper"
	ModelPath  string // required: path to the .onnx voice model
	SampleRate int    // default: 22050
}

// PiperTTS synthesizes speech with the Piper binary. Piper streams raw 16-bit
// mono PCM, which is wrapped in a WAV header so ffmpeg can read it.
type PiperTTS struct {
	cfg      PiperTTSConfig
	executor media.InputExecutor
}

// NewPiperTTS creates a PiperTTS backed by a local Piper binary.
func NewPiperTTS(cfg PiperTTSConfig, executor media.InputExecutor) *PiperTTS {
	if cfg.BinPath == "" {
		cfg.BinPath = "piper"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 22050
	}
	return &PiperTTS{cfg: cfg, executor: executor}
}

func (p *PiperTTS) Name() string { return "piper" }

// CacheScope separates narrations by voice model and sample rate.
func (p *PiperTTS) CacheScope() string {
	return p.cfg.ModelPath + "@" + strconv.Itoa(p.cfg.SampleRate)
}

// Synthesize pipes text into Piper via stdin. The voice model fixes the
// language, so Request.Lang is ignored.
func (p *PiperTTS) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if p.cfg.ModelPath == "" {
		return nil, fmt.Errorf("piper model path is required (set TTS_PIPER_MODEL)")
	}

	pcm, err := p.executor.ExecuteInput(ctx, strings.NewReader(req.Text), p.cfg.BinPath, "--model", p.cfg.ModelPath, "--output-raw")
	if err != nil {
		return nil, fmt.Errorf("piper failed: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("piper produced no audio")
	}

	return &Result{Audio: wavFromPCM(pcm, p.cfg.SampleRate), Format: "wav"}, nil
}

// wavFromPCM prepends a canonical 44-byte RIFF header for 16-bit mono PCM.
func wavFromPCM(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
