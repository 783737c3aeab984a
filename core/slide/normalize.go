package slide

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	// Decoders accepted for slide uploads.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"Slidecast/model"
)

const jpegQuality = 90

// NormalizedImage is a slide frame ready for H.264 4:2:0 encoding: opaque
// RGB with even width and height.
type NormalizedImage struct {
	Image        *image.RGBA
	SourceFormat string
	SourceWidth  int
	SourceHeight int
}

func (n *NormalizedImage) Width() int  { return n.Image.Bounds().Dx() }
func (n *NormalizedImage) Height() int { return n.Image.Bounds().Dy() }

// JPEG encodes the frame for the encoder's image input.
func (n *NormalizedImage) JPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, n.Image, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// evenFloor drops an odd dimension by one pixel.
func evenFloor(n int) int {
	return n - n%2
}

// NormalizeImage decodes data, drops its alpha channel and trims each odd
// dimension by one pixel. The resize does not preserve the
// aspect ratio; at most one pixel per axis is lost.
func NormalizeImage(data []byte) (*NormalizedImage, error) {
	if len(data) == 0 {
		return nil, &model.ValidationError{Field: "image", Reason: "please upload an image slide"}
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &model.ValidationError{Field: "image", Reason: fmt.Sprintf("cannot decode image: %v", err)}
	}

	sb := src.Bounds()
	w, h := evenFloor(sb.Dx()), evenFloor(sb.Dy())
	if w <= 0 || h <= 0 {
		return nil, &model.ValidationError{
			Field:  "image",
			Reason: fmt.Sprintf("image %dx%d is too small to encode", sb.Dx(), sb.Dy()),
		}
	}

	flat := dropAlpha(src)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), flat, sb.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), flat, sb, draw.Src, nil)
	}

	return &NormalizedImage{
		Image:        dst,
		SourceFormat: format,
		SourceWidth:  sb.Dx(),
		SourceHeight: sb.Dy(),
	}, nil
}

// dropAlpha copies src into an opaque image. Every pixel keeps its stored
// colour whatever its alpha, so a transparent white background stays white.
func dropAlpha(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)

	var at func(x, y int) color.NRGBA
	switch s := src.(type) {
	case *image.NRGBA:
		at = s.NRGBAAt
	case *image.NRGBA64:
		at = func(x, y int) color.NRGBA {
			c := s.NRGBA64At(x, y)
			return color.NRGBA{R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8)}
		}
	case *image.Paletted:
		palette := make([]color.NRGBA, len(s.Palette))
		for i, c := range s.Palette {
			palette[i] = storedNRGBA(c)
		}
		at = func(x, y int) color.NRGBA {
			if i := int(s.ColorIndexAt(x, y)); i < len(palette) {
				return palette[i]
			}
			return color.NRGBA{}
		}
	default:
		at = func(x, y int) color.NRGBA { return storedNRGBA(src.At(x, y)) }
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := at(x, y)
			c.A = 0xff
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}

// storedNRGBA returns c without alpha premultiplication. Non-premultiplied
// inputs pass through unchanged.
func storedNRGBA(c color.Color) color.NRGBA {
	switch n := c.(type) {
	case color.NRGBA:
		return n
	case color.NRGBA64:
		return color.NRGBA{R: uint8(n.R >> 8), G: uint8(n.G >> 8), B: uint8(n.B >> 8), A: uint8(n.A >> 8)}
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
