package summarizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/user/mediaplay/pkg/mocks"
)

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()

	if err := NewWriter(fs).Write("reports/run.md", sampleSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok := fs.GetFile("reports/run.md")
	if !ok {
		t.Fatal("expected summary file to be written")
	}
	if !strings.HasPrefix(string(data), "# Playback Summary") {
		t.Errorf("unexpected content: %q", string(data)[:20])
	}
	if exists, _ := fs.Exists("reports"); !exists {
		t.Error("expected parent directory to be created")
	}
}

func TestWriter_FormatByExtension(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(fs)

	if err := w.Write("run.txt", sampleSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := fs.GetFile("run.txt")
	if strings.HasPrefix(string(data), "#") {
		t.Errorf("expected plain text for .txt, got %q", string(data)[:20])
	}
	if len(fs.Dirs()) != 0 {
		t.Errorf("expected no directories for a bare file name, got %v", fs.Dirs())
	}

	if err := w.WithFormatter(NewMarkdownFormatter()).Write("run.log", sampleSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ = fs.GetFile("run.log")
	if !strings.HasPrefix(string(data), "# Playback Summary") {
		t.Errorf("expected forced Markdown, got %q", string(data)[:20])
	}
}

func TestWriter_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	writeErr := errors.New("disk full")
	fs.WriteFileFunc = func(string, []byte) error { return writeErr }

	err := NewWriter(fs).Write("run.txt", sampleSummary())
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestFormatterFor(t *testing.T) {
	tests := []struct {
		path     string
		markdown bool
	}{
		{"summary.md", true},
		{"out/Summary.MARKDOWN", true},
		{"summary.txt", false},
		{"summary", false},
	}
	for _, tt := range tests {
		_, isMD := FormatterFor(tt.path).(*MarkdownFormatter)
		if isMD != tt.markdown {
			t.Errorf("FormatterFor(%q) markdown = %v, want %v", tt.path, isMD, tt.markdown)
		}
	}
}
