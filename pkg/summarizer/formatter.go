// Package summarizer builds and formats playback summaries.
package summarizer

import (
	"path/filepath"
	"strings"
)

// Formatter renders a Summary as text.
type Formatter interface {
	Format(s *Summary) string
}

// FormatterFor picks a formatter from the extension of an output path:
// Markdown for .md and .markdown, plain text for anything else.
func FormatterFor(path string) Formatter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return NewMarkdownFormatter()
	}
	return NewTextFormatter()
}
