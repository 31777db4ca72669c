package nativeengine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mediaplay/pkg/adapters/y4m"
	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

func writeY4M(t *testing.T, dir, name string, frames int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, y4m.WritePattern(&buf, y4m.PatternOptions{
		Width:     32,
		Height:    16,
		FrameRate: media.Rational{Num: 25, Den: 1},
		Frames:    frames,
	}))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(Options{DisableFFmpeg: true})
	require.NoError(t, e.Init())
	return e
}

func TestOpenInputSniffsY4M(t *testing.T) {
	// The extension is misleading on purpose; magic bytes win.
	path := writeY4M(t, t.TempDir(), "clip.ts", 5)
	e := newEngine(t)

	d, err := e.OpenInput(context.Background(), path, "")
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.FindStreamInfo())
	streams := d.Streams()
	require.Len(t, streams, 1)
	assert.Equal(t, ports.CodecID("rawvideo"), streams[0].Codec)
	assert.Equal(t, int64(5), streams[0].Duration)
}

func TestOpenInputFileURL(t *testing.T) {
	path := writeY4M(t, t.TempDir(), "clip.y4m", 2)
	e := newEngine(t)

	d, err := e.OpenInput(context.Background(), "file://"+path, "")
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

func TestOpenInputMissingFile(t *testing.T) {
	e := newEngine(t)
	_, err := e.OpenInput(context.Background(), filepath.Join(t.TempDir(), "nope.y4m"), "")
	require.Error(t, err)
	assert.Equal(t, ports.CodeENOENT, ports.StatusCode(err))
}

func TestOpenInputUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("definitely not media"), 0644))
	e := newEngine(t)

	_, err := e.OpenInput(context.Background(), path, "")
	require.Error(t, err)
	assert.Equal(t, ports.CodeInvalidData, ports.StatusCode(err))
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestOpenInputUnknownScheme(t *testing.T) {
	e := newEngine(t)
	_, err := e.OpenInput(context.Background(), "rtmp://example.com/live", "")
	require.Error(t, err)
	assert.Equal(t, ports.CodeProtocolNotFound, ports.StatusCode(err))
}

func TestOpenInputForcedFormat(t *testing.T) {
	path := writeY4M(t, t.TempDir(), "clip.bin", 3)
	e := newEngine(t)

	d, err := e.OpenInput(context.Background(), path, "yuv4mpegpipe")
	require.NoError(t, err)
	d.Close()

	_, err = e.OpenInput(context.Background(), path, "matroska")
	require.Error(t, err)
	assert.Equal(t, ports.CodeDemuxerNotFound, ports.StatusCode(err))
}

func TestOpenInputHTTP(t *testing.T) {
	path := writeY4M(t, t.TempDir(), "clip.y4m", 4)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clip" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	e := newEngine(t)
	d, err := e.OpenInput(context.Background(), srv.URL+"/clip", "")
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.FindStreamInfo())
	// Streams are not seekable, so the frame count is unknown.
	assert.Equal(t, media.NoPTS, d.Streams()[0].Duration)

	var pkt ports.Packet
	n := 0
	for {
		err := d.ReadPacket(&pkt)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 4, n)

	_, err = e.OpenInput(context.Background(), srv.URL+"/missing", "")
	require.Error(t, err)
	assert.Equal(t, ports.CodeENOENT, ports.StatusCode(err))
}

func TestFindInputFormatRejectsCaptureDevices(t *testing.T) {
	e := newEngine(t)
	for _, f := range []string{"dshow", "v4l2", "avfoundation"} {
		assert.False(t, e.FindInputFormat(f), f)
	}
	assert.True(t, e.FindInputFormat("mpegts"))
	assert.True(t, e.FindInputFormat("mp4"))
}

func TestDecodersWithoutFFmpeg(t *testing.T) {
	e := newEngine(t)

	names := map[string]bool{}
	for _, d := range e.Decoders() {
		names[d.Name] = true
		assert.False(t, d.Hardware)
	}
	assert.Equal(t, map[string]bool{"mjpeg": true, "rawvideo": true}, names)

	c, ok := e.FindDecoder("rawvideo")
	require.True(t, ok)
	assert.Equal(t, "rawvideo", c.Name())

	_, ok = e.FindDecoder("h264")
	assert.False(t, ok)
	_, ok = e.FindDecoderByName("h264_cuvid")
	assert.False(t, ok)
}

func TestNewConverterRejectsBadGeometry(t *testing.T) {
	e := newEngine(t)
	_, err := e.NewConverter(
		ports.PictureSpec{Width: 0, Height: 0, Format: media.PixelFormatYUV420P},
		ports.PictureSpec{Width: 0, Height: 0, Format: media.PixelFormatBGR24},
		ports.ScaleFastBilinear,
	)
	require.Error(t, err)
	assert.Equal(t, ports.CodeEINVAL, ports.StatusCode(err))
}

func TestSniff(t *testing.T) {
	assert.Equal(t, FormatY4M, sniff([]byte("YUV4MPEG2 W2 H2"), "x"))
	assert.Equal(t, FormatMP4, sniff([]byte{0, 0, 0, 0x20, 'f', 't', 'y', 'p'}, "x"))
	assert.Equal(t, FormatTS, sniff(nil, "http://host/live.ts?token=1"))
	assert.Equal(t, "", sniff(nil, "clip.mkv"))
}
