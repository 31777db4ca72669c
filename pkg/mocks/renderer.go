package mocks

import (
	"image"
	"sync"

	"github.com/user/mediaplay/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer that records
// annotations.
type Renderer struct {
	AnnotateFunc    func(img image.Image, lines []string, style ports.TextStyle) image.Image
	EncodeImageFunc func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc func(img image.Image, width, height int) image.Image

	mu          sync.Mutex
	Annotations [][]string
}

func (m *Renderer) Annotate(img image.Image, lines []string, style ports.TextStyle) image.Image {
	m.mu.Lock()
	m.Annotations = append(m.Annotations, append([]string(nil), lines...))
	m.mu.Unlock()
	if m.AnnotateFunc != nil {
		return m.AnnotateFunc(img, lines, style)
	}
	return img
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	b := img.Bounds()
	return []byte{byte(b.Dx()), byte(b.Dy())}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)
