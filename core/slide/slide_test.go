package slide

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"Slidecast/core/media"
	"Slidecast/core/tts"
	"Slidecast/model"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNormalizeImageDimensions(t *testing.T) {
	sizes := [][2]int{{2, 2}, {3, 3}, {101, 101}, {640, 481}, {17, 64}, {1920, 1080}}

	for _, sz := range sizes {
		img, err := NormalizeImage(pngBytes(t, sz[0], sz[1], color.NRGBA{R: 200, G: 30, B: 90, A: 255}))
		if err != nil {
			t.Fatalf("NormalizeImage(%dx%d) error = %v", sz[0], sz[1], err)
		}
		w, h := img.Width(), img.Height()
		if w%2 != 0 || h%2 != 0 {
			t.Errorf("%dx%d normalized to odd %dx%d", sz[0], sz[1], w, h)
		}
		if d := sz[0] - w; d != 0 && d != 1 {
			t.Errorf("width %d -> %d", sz[0], w)
		}
		if d := sz[1] - h; d != 0 && d != 1 {
			t.Errorf("height %d -> %d", sz[1], h)
		}
		if img.SourceWidth != sz[0] || img.SourceHeight != sz[1] || img.SourceFormat != "png" {
			t.Errorf("source metadata = %dx%d %s", img.SourceWidth, img.SourceHeight, img.SourceFormat)
		}
	}
}

func TestNormalizeImageDropsAlpha(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		in   color.NRGBA
		want color.RGBA
	}{
		{"transparent white", 4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 0}, color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{"transparent red", 4, 4, color.NRGBA{R: 255, A: 0}, color.RGBA{R: 255, A: 255}},
		{"half transparent blue", 4, 4, color.NRGBA{B: 200, A: 128}, color.RGBA{B: 200, A: 255}},
		{"transparent white resized", 5, 5, color.NRGBA{R: 255, G: 255, B: 255, A: 0}, color.RGBA{R: 255, G: 255, B: 255, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := NormalizeImage(pngBytes(t, tt.w, tt.h, tt.in))
			if err != nil {
				t.Fatal(err)
			}
			for _, px := range []image.Point{{0, 0}, {img.Width() - 1, img.Height() - 1}} {
				got := img.Image.RGBAAt(px.X, px.Y)
				if !closeRGBA(got, tt.want, 2) {
					t.Errorf("pixel %v = %v, want %v", px, got, tt.want)
				}
			}

			out, err := img.JPEG()
			if err != nil {
				t.Fatal(err)
			}
			if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
				t.Errorf("JPEG() output does not decode: %v", err)
			}
		})
	}
}

func TestDropAlphaPaletted(t *testing.T) {
	palette := color.Palette{
		color.NRGBA{R: 255, G: 255, B: 255, A: 0},
		color.NRGBA{R: 10, G: 20, B: 30, A: 255},
	}
	src := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
	src.SetColorIndex(1, 0, 1)

	flat := dropAlpha(src)
	if got := flat.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("transparent entry = %v, want opaque white", got)
	}
	if got := flat.NRGBAAt(1, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("opaque entry = %v", got)
	}
}

func closeRGBA(a, b color.RGBA, tol int) bool {
	diff := func(x, y uint8) bool {
		d := int(x) - int(y)
		return d <= tol && d >= -tol
	}
	return diff(a.R, b.R) && diff(a.G, b.G) && diff(a.B, b.B) && a.A == b.A
}

func TestNormalizeImageRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
		{"one pixel wide", pngBytes(t, 1, 10, color.White)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeImage(tt.data)
			if !model.IsValidation(err) {
				t.Errorf("NormalizeImage() error = %v, want ValidationError", err)
			}
		})
	}
}

type fakeProvider struct {
	calls int
	err   error
	last  tts.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Synthesize(ctx context.Context, req tts.Request) (*tts.Result, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &tts.Result{Audio: []byte("ID3fake"), Format: "mp3"}, nil
}

type fakeEncoder struct {
	calls    int
	err      error
	job      media.SlideJob
	frame    image.Config
	audioExt string
}

func (f *fakeEncoder) SynthesizeSlideVideo(ctx context.Context, job media.SlideJob) error {
	f.calls++
	f.job = job
	if data, err := os.ReadFile(job.ImagePath); err == nil {
		f.frame, _, _ = image.DecodeConfig(bytes.NewReader(data))
	}
	f.audioExt = filepath.Ext(job.AudioPath)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(job.OutputPath, []byte("mp4-bytes"), 0600)
}

func (f *fakeEncoder) ConcatenateVideos(ctx context.Context, job media.ConcatJob) error {
	return errors.New("not used")
}

type fixedProber float64

func (p fixedProber) Duration(ctx context.Context, path string) (float64, error) {
	return float64(p), nil
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch base %s not cleaned up: %d entries left", dir, len(entries))
	}
}

func TestSynthesizeHelloWorld(t *testing.T) {
	base := t.TempDir()
	provider := &fakeProvider{}
	encoder := &fakeEncoder{}
	s := NewSynthesizer(provider, encoder, WithScratchDir(base), WithProber(fixedProber(1.4)))

	art, err := s.Synthesize(context.Background(), model.SlideRequest{
		Image: pngBytes(t, 101, 101, color.White),
		Text:  "  Hello world \n",
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if provider.last.Text != "Hello world" || provider.last.Lang != "en" {
		t.Errorf("provider request = %+v, want trimmed text in en", provider.last)
	}
	if encoder.frame.Width != 100 || encoder.frame.Height != 100 {
		t.Errorf("encoded frame = %dx%d, want 100x100", encoder.frame.Width, encoder.frame.Height)
	}
	if encoder.audioExt != ".mp3" {
		t.Errorf("audio extension = %q, want .mp3", encoder.audioExt)
	}
	if string(art.Data) != "mp4-bytes" || art.Name != model.SlideFileName || art.ContentType != model.ContentTypeMP4 {
		t.Errorf("artifact = %s %s %q", art.Name, art.ContentType, art.Data)
	}
	if art.Duration != 1.4 {
		t.Errorf("Duration = %v, want probed 1.4", art.Duration)
	}
	assertEmptyDir(t, base)
}

func TestSynthesizeValidationMakesNoExternalCalls(t *testing.T) {
	img := pngBytes(t, 8, 8, color.White)

	tests := []struct {
		name string
		req  model.SlideRequest
	}{
		{"empty text", model.SlideRequest{Image: img, Text: ""}},
		{"whitespace text", model.SlideRequest{Image: img, Text: " \t\n "}},
		{"no image", model.SlideRequest{Text: "Hello world"}},
		{"undecodable image", model.SlideRequest{Image: []byte("GIF89a-broken"), Text: "Hello world"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			provider := &fakeProvider{}
			encoder := &fakeEncoder{}
			s := NewSynthesizer(provider, encoder, WithScratchDir(base))

			_, err := s.Synthesize(context.Background(), tt.req)
			if !model.IsValidation(err) {
				t.Fatalf("Synthesize() error = %v, want ValidationError", err)
			}
			if provider.calls != 0 || encoder.calls != 0 {
				t.Errorf("external calls: provider=%d encoder=%d", provider.calls, encoder.calls)
			}
			assertEmptyDir(t, base)
		})
	}
}

func TestSynthesizeProviderFailure(t *testing.T) {
	base := t.TempDir()
	encoder := &fakeEncoder{}
	s := NewSynthesizer(&fakeProvider{err: errors.New("503 from provider")}, encoder, WithScratchDir(base))

	_, err := s.Synthesize(context.Background(), model.SlideRequest{Image: pngBytes(t, 4, 4, color.White), Text: "hi"})
	if !model.IsSynthesis(err) {
		t.Fatalf("Synthesize() error = %v, want SynthesisError", err)
	}
	if encoder.calls != 0 {
		t.Error("encoder must not run after a synthesis failure")
	}
	assertEmptyDir(t, base)
}

func TestSynthesizeEncoderFailure(t *testing.T) {
	base := t.TempDir()
	encoder := &fakeEncoder{err: &model.EncodingError{Op: "ffmpeg", Err: errors.New("exit status 1"), Diagnostics: "height not divisible by 2"}}
	s := NewSynthesizer(&fakeProvider{}, encoder, WithScratchDir(base), WithLang("de"))

	_, err := s.Synthesize(context.Background(), model.SlideRequest{Image: pngBytes(t, 4, 4, color.White), Text: "hallo"})
	var encErr *model.EncodingError
	if !errors.As(err, &encErr) || encErr.Diagnostics != "height not divisible by 2" {
		t.Fatalf("Synthesize() error = %v, want EncodingError with diagnostics", err)
	}
	assertEmptyDir(t, base)
}
