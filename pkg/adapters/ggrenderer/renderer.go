// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/mediaplay/pkg/ports"
)

const (
	defaultFontSize = 13
	padding         = 6
	lineSpacing     = 1.4
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Annotate copies img and draws lines over a translucent box in the
// top-left corner.
func (r *Renderer) Annotate(img image.Image, lines []string, style ports.TextStyle) image.Image {
	dc := gg.NewContextForImage(img)
	if len(lines) == 0 {
		return dc.Image()
	}

	size := style.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	if style.FontPath != "" {
		// The built-in face is used when the font cannot be loaded.
		_ = dc.LoadFontFace(style.FontPath, size)
	}

	var width, height float64
	for _, line := range lines {
		w, h := dc.MeasureString(line)
		if w > width {
			width = w
		}
		height = h
	}
	lineHeight := height * lineSpacing

	bg := style.Background
	if bg == nil {
		bg = color.RGBA{A: 160}
	}
	dc.SetColor(bg)
	dc.DrawRectangle(0, 0, width+2*padding, lineHeight*float64(len(lines))+2*padding)
	dc.Fill()

	fg := style.Color
	if fg == nil {
		fg = color.White
	}
	dc.SetColor(fg)
	for i, line := range lines {
		y := padding + lineHeight*float64(i) + lineHeight/2
		dc.DrawStringAnchored(line, padding, y, 0, 0.5)
	}
	return dc.Image()
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage scales img to width x height with Catmull-Rom.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

var _ ports.Renderer = (*Renderer)(nil)
