// Package snapshotsink saves every Nth frame as an annotated image.
package snapshotsink

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// Options configures a Sink.
type Options struct {
	Dir string
	// Every saves one frame out of Every. Values below 1 mean every frame.
	Every   int
	Format  ports.ImageFormat
	Quality int
	// Width scales snapshots to this width keeping the aspect ratio. Zero
	// keeps the frame size.
	Width    int
	Annotate bool
	FontPath string
}

// Sink encodes frames through a Renderer and writes them through a
// FileSystem.
type Sink struct {
	opts     Options
	fs       ports.FileSystem
	renderer ports.Renderer
	now      func() time.Time

	mu    sync.Mutex
	seen  int64
	saved int64
	first time.Time
	last  string
}

// New creates a snapshot sink.
func New(opts Options, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	if opts.Every < 1 {
		opts.Every = 1
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	return &Sink{opts: opts, fs: fs, renderer: renderer, now: time.Now}
}

// OnFrame saves the frame when its index is a multiple of Every.
func (s *Sink) OnFrame(frame *media.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.seen == 0 {
		s.first = now
	}
	index := s.seen
	s.seen++
	if index%int64(s.opts.Every) != 0 {
		return nil
	}

	rgba := frame.Image()
	if rgba == nil {
		return fmt.Errorf("snapshot: unsupported pixel format %s", frame.Format)
	}
	var img image.Image = rgba
	if s.opts.Width > 0 && s.opts.Width != frame.Width {
		h := frame.Height * s.opts.Width / frame.Width
		if h < 1 {
			h = 1
		}
		img = s.renderer.ResizeImage(img, s.opts.Width, h)
	}
	if s.opts.Annotate {
		img = s.renderer.Annotate(img, s.caption(frame, index, now), ports.TextStyle{FontPath: s.opts.FontPath})
	}

	data, err := s.renderer.EncodeImage(img, s.opts.Format, s.opts.Quality)
	if err != nil {
		return fmt.Errorf("snapshot %d: %w", index, err)
	}
	path := filepath.Join(s.opts.Dir, fmt.Sprintf("frame-%06d%s", index, s.opts.Format.Extension()))
	if err := s.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("snapshot %d: %w", index, err)
	}
	s.saved++
	s.last = path
	return nil
}

func (s *Sink) caption(frame *media.Frame, index int64, now time.Time) []string {
	lines := []string{
		fmt.Sprintf("#%d  %s", index, FormatTimestamp(frame.Timestamp)),
	}
	if elapsed := now.Sub(s.first); elapsed > 0 {
		lines = append(lines, fmt.Sprintf("%.1f fps", float64(index)/elapsed.Seconds()))
	}
	return lines
}

// Saved returns the number of snapshots written.
func (s *Sink) Saved() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// LastPath returns the path of the latest snapshot, or "".
func (s *Sink) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// FormatTimestamp renders milliseconds as HH:MM:SS.mmm. Negative values get
// a leading minus.
func FormatTimestamp(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	sec := ms / 1000 % 60
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, h, m, sec, ms%1000)
}

var _ ports.FrameSink = (*Sink)(nil)
