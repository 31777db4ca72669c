package ggrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/user/mediaplay/pkg/ports"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderer_AnnotateDrawsBox(t *testing.T) {
	r := New()
	src := solid(120, 60, color.RGBA{R: 255, A: 255})

	out := r.Annotate(src, []string{"00:00:01.000", "25.0 fps"}, ports.TextStyle{
		Background: color.RGBA{A: 255},
	})

	if out.Bounds() != src.Bounds() {
		t.Fatalf("expected bounds %v, got %v", src.Bounds(), out.Bounds())
	}
	// The opaque black box covers the top-left corner.
	if c := color.RGBAModel.Convert(out.At(1, 1)).(color.RGBA); c.R != 0 {
		t.Errorf("expected box at corner, got %v", c)
	}
	// The source is left untouched.
	if src.RGBAAt(1, 1).R != 255 {
		t.Error("expected source image to be unmodified")
	}
	// The far corner keeps the original colour.
	if c := color.RGBAModel.Convert(out.At(119, 59)).(color.RGBA); c.R != 255 {
		t.Errorf("expected original pixel, got %v", c)
	}
}

func TestRenderer_AnnotateWithoutLines(t *testing.T) {
	r := New()
	src := solid(10, 10, color.RGBA{G: 200, A: 255})

	out := r.Annotate(src, nil, ports.TextStyle{})
	if c := color.RGBAModel.Convert(out.At(0, 0)).(color.RGBA); c.G != 200 {
		t.Errorf("expected unchanged pixel, got %v", c)
	}
}

func TestRenderer_EncodeImage(t *testing.T) {
	r := New()
	img := solid(50, 40, color.RGBA{B: 255, A: 255})

	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage PNG failed: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 50 || decoded.Bounds().Dy() != 40 {
		t.Errorf("expected 50x40, got %v", decoded.Bounds())
	}

	data, err = r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage JPEG failed: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("jpeg.Decode failed: %v", err)
	}

	if _, err := r.EncodeImage(img, ports.ImageFormat(99), 0); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()
	out := r.ResizeImage(solid(100, 100, color.RGBA{R: 10, A: 255}), 25, 30)
	if out.Bounds().Dx() != 25 || out.Bounds().Dy() != 30 {
		t.Errorf("expected 25x30, got %v", out.Bounds())
	}
}
