package snapshotsink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/mocks"
	"github.com/user/mediaplay/pkg/ports"
)

func testFrame(ts int64) *media.Frame {
	f := &media.Frame{Timestamp: ts}
	f.Resize(8, 4, media.PixelFormatBGR24)
	return f
}

func TestSavesEveryNthFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	r := &mocks.Renderer{}
	s := New(Options{Dir: "shots", Every: 3, Format: ports.FormatPNG}, fs, r)

	for i := 0; i < 7; i++ {
		require.NoError(t, s.OnFrame(testFrame(int64(i)*40)))
	}

	assert.Equal(t, int64(3), s.Saved())
	files := fs.GetAllFiles()
	for _, name := range []string{"frame-000000.png", "frame-000003.png", "frame-000006.png"} {
		data, ok := files[filepath.Join("shots", name)]
		require.True(t, ok, name)
		assert.Equal(t, []byte{8, 4}, data)
	}
	assert.Equal(t, filepath.Join("shots", "frame-000006.png"), s.LastPath())
	assert.Empty(t, r.Annotations)
}

func TestResizesKeepingAspect(t *testing.T) {
	fs := mocks.NewFileSystem()
	var gotW, gotH int
	r := &mocks.Renderer{ResizeImageFunc: func(img image.Image, w, h int) image.Image {
		gotW, gotH = w, h
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}}
	s := New(Options{Dir: "out", Width: 4}, fs, r)

	require.NoError(t, s.OnFrame(testFrame(0)))
	assert.Equal(t, 4, gotW)
	assert.Equal(t, 2, gotH)

	data, ok := fs.GetFile(filepath.Join("out", "frame-000000.jpg"))
	require.True(t, ok)
	assert.Equal(t, []byte{4, 2}, data)
}

func TestAnnotatesWithTimestampAndRate(t *testing.T) {
	fs := mocks.NewFileSystem()
	r := &mocks.Renderer{}
	s := New(Options{Dir: "out", Every: 2, Annotate: true}, fs, r)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	s.now = func() time.Time { return now }

	require.NoError(t, s.OnFrame(testFrame(0)))
	now = start.Add(time.Second)
	require.NoError(t, s.OnFrame(testFrame(40)))
	require.NoError(t, s.OnFrame(testFrame(3_723_080)))

	require.Len(t, r.Annotations, 2)
	assert.Equal(t, []string{"#0  00:00:00.000"}, r.Annotations[0])
	assert.Equal(t, []string{"#2  01:02:03.080", "2.0 fps"}, r.Annotations[1])
}

func TestRejectsUnsupportedFormat(t *testing.T) {
	s := New(Options{Dir: "out"}, mocks.NewFileSystem(), &mocks.Renderer{})
	f := &media.Frame{}
	f.Resize(8, 4, media.PixelFormatYUV420P)

	err := s.OnFrame(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported pixel format")
	assert.Zero(t, s.Saved())
}

func TestPropagatesWriteErrors(t *testing.T) {
	fs := mocks.NewFileSystem()
	writeErr := errors.New("read-only")
	fs.WriteFileFunc = func(string, []byte) error { return writeErr }
	s := New(Options{Dir: "out"}, fs, &mocks.Renderer{})

	err := s.OnFrame(testFrame(0))
	assert.ErrorIs(t, err, writeErr)
	assert.Zero(t, s.Saved())
	assert.Empty(t, s.LastPath())
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00.000"},
		{999, "00:00:00.999"},
		{61_001, "00:01:01.001"},
		{3_723_080, "01:02:03.080"},
		{-1500, "-00:00:01.500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimestamp(tt.ms))
	}
}
