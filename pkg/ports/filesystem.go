package ports

import "io"

// FileSystem is the file access used by configuration loading, sinks and
// the summary writer.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces path with data. Readers see either the old or the
	// new content, never a partial write.
	WriteFile(path string, data []byte) error

	// Create truncates path and opens it for streaming writes, creating
	// parent directories.
	Create(path string) (io.WriteCloser, error)

	MkdirAll(path string) error
}
