package summarizer

import (
	"fmt"
	"path/filepath"

	"github.com/user/mediaplay/pkg/ports"
)

// Writer saves summaries through a FileSystem.
type Writer struct {
	fs        ports.FileSystem
	formatter Formatter // nil selects by extension
}

func NewWriter(fs ports.FileSystem) *Writer {
	return &Writer{fs: fs}
}

// WithFormatter fixes the format regardless of the output extension.
func (w *Writer) WithFormatter(f Formatter) *Writer {
	w.formatter = f
	return w
}

// Write renders s and stores it at path, creating the parent directory.
func (w *Writer) Write(path string, s *Summary) error {
	f := w.formatter
	if f == nil {
		f = FormatterFor(path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := w.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("write summary %s: %w", path, err)
		}
	}
	if err := w.fs.WriteFile(path, []byte(f.Format(s))); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}
