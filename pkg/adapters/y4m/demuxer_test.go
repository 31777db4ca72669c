package y4m

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

func writeFixture(t *testing.T, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pattern.y4m")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, WritePattern(f, PatternOptions{
		Width: 64, Height: 48, FrameRate: media.Rational{Num: 25, Den: 1}, Frames: frames,
	}))
	return path
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte("YUV4MPEG2 W320 H240 F30000:1001 It A1:1 C422 XYSCSS=422"))
	require.NoError(t, err)
	assert.Equal(t, 320, h.Width)
	assert.Equal(t, 240, h.Height)
	assert.Equal(t, media.Rational{Num: 30000, Den: 1001}, h.FrameRate)
	assert.Equal(t, byte('t'), h.Interlace)
	assert.Equal(t, media.PixelFormatYUV422P, h.Format)
	assert.Equal(t, 320*240*2, h.FrameSize())

	_, err = ParseHeader([]byte("RIFF W1 H1"))
	assert.ErrorIs(t, err, ErrBadMagic)
	_, err = ParseHeader([]byte("YUV4MPEG2 W0 H1"))
	assert.ErrorIs(t, err, ErrBadHeader)
	_, err = ParseHeader([]byte("YUV4MPEG2 W2 H2 C411"))
	assert.ErrorIs(t, err, ErrUnsupportedColorspace)
}

func TestDemuxerReadsAllFrames(t *testing.T) {
	f, err := os.Open(writeFixture(t, 30))
	require.NoError(t, err)

	d, err := NewDemuxer(f)
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.FindStreamInfo())

	streams := d.Streams()
	require.Len(t, streams, 1)
	s := streams[0]
	assert.Equal(t, ports.KindVideo, s.Kind)
	assert.Equal(t, CodecRawVideo, s.Codec)
	assert.Equal(t, media.Rational{Num: 1, Den: 25}, s.TimeBase)
	assert.Equal(t, int64(30), s.Duration)
	assert.Equal(t, int64(1_200_000), d.Duration())
	assert.Equal(t, -1, d.FindBestStream(ports.KindAudio))

	var pkt ports.Packet
	for i := 0; i < 30; i++ {
		require.NoError(t, d.ReadPacket(&pkt))
		assert.Equal(t, int64(i), pkt.PTS)
		assert.Equal(t, byte(i), pkt.Data[0])
		assert.Len(t, pkt.Data, 64*48*3/2)
	}
	assert.ErrorIs(t, d.ReadPacket(&pkt), io.EOF)
}

func TestDemuxerSeek(t *testing.T) {
	f, err := os.Open(writeFixture(t, 50))
	require.NoError(t, err)
	d, err := NewDemuxer(f)
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.FindStreamInfo())

	var pkt ports.Packet
	require.NoError(t, d.ReadPacket(&pkt))

	require.NoError(t, d.Seek(0, 20, ports.SeekBackward))
	require.NoError(t, d.ReadPacket(&pkt))
	assert.Equal(t, int64(20), pkt.PTS)
	assert.Equal(t, byte(20), pkt.Data[0])

	require.NoError(t, d.Seek(0, 500, ports.SeekBackward))
	assert.ErrorIs(t, d.ReadPacket(&pkt), io.EOF)

	require.NoError(t, d.Seek(0, -3, ports.SeekBackward))
	require.NoError(t, d.ReadPacket(&pkt))
	assert.Equal(t, int64(0), pkt.PTS)
}

// taggedStream writes frames whose FRAME lines carry parameters of varying
// length, followed by a partial record.
func taggedStream(frames int) []byte {
	var buf bytes.Buffer
	buf.WriteString("YUV4MPEG2 W8 H8 F10:1 C420\n")
	for i := 0; i < frames; i++ {
		buf.WriteString("FRAME")
		for j := 0; j < i; j++ {
			buf.WriteString(" Ip")
		}
		buf.WriteString("\n")
		data := make([]byte, 8*8*3/2)
		data[0] = byte(i)
		buf.Write(data)
	}
	buf.WriteString("FRAME XPARTIAL\n")
	buf.Write(make([]byte, 10))
	return buf.Bytes()
}

func TestDemuxerFrameParameters(t *testing.T) {
	d, err := NewDemuxer(bytes.NewReader(taggedStream(6)))
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.FindStreamInfo())
	assert.Equal(t, int64(6), d.Streams()[0].Duration, "the partial record is not counted")

	var pkt ports.Packet
	for _, frame := range []int64{4, 1, 5, 0} {
		require.NoError(t, d.Seek(0, frame, ports.SeekBackward))
		require.NoError(t, d.ReadPacket(&pkt))
		assert.Equal(t, frame, pkt.PTS)
		assert.Equal(t, byte(frame), pkt.Data[0])
	}

	require.NoError(t, d.Seek(0, 6, ports.SeekBackward))
	err = d.ReadPacket(&pkt)
	require.Error(t, err)
	assert.Equal(t, ports.CodeEOF, ports.StatusCode(err))
}

func TestDemuxerIndexKeepsReadPosition(t *testing.T) {
	d, err := NewDemuxer(bytes.NewReader(taggedStream(4)))
	require.NoError(t, err)
	defer d.Close()

	var pkt ports.Packet
	require.NoError(t, d.ReadPacket(&pkt))
	require.NoError(t, d.ReadPacket(&pkt))
	require.NoError(t, d.FindStreamInfo())

	require.NoError(t, d.ReadPacket(&pkt))
	assert.Equal(t, int64(2), pkt.PTS)
	assert.Equal(t, byte(2), pkt.Data[0])
}

func TestDemuxerSeekIndexesLazily(t *testing.T) {
	d, err := NewDemuxer(bytes.NewReader(taggedStream(4)))
	require.NoError(t, err)
	defer d.Close()

	var pkt ports.Packet
	require.NoError(t, d.Seek(0, 3, ports.SeekBackward))
	require.NoError(t, d.ReadPacket(&pkt))
	assert.Equal(t, byte(3), pkt.Data[0])
}

func TestDemuxerNonSeekable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePattern(&buf, PatternOptions{Width: 8, Height: 8, FrameRate: media.Rational{Num: 10, Den: 1}, Frames: 3}))

	d, err := NewDemuxer(io.MultiReader(&buf))
	require.NoError(t, err)
	require.NoError(t, d.FindStreamInfo())
	assert.Equal(t, media.NoPTS, d.Streams()[0].Duration)
	assert.Equal(t, media.NoPTS, d.Duration())

	err = d.Seek(0, 1, ports.SeekBackward)
	assert.True(t, errors.Is(err, ports.ErrNotSeekable))
}

func TestDemuxerTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePattern(&buf, PatternOptions{Width: 8, Height: 8, FrameRate: media.Rational{Num: 10, Den: 1}, Frames: 2}))
	data := buf.Bytes()[:buf.Len()-10]

	d, err := NewDemuxer(bytes.NewReader(data))
	require.NoError(t, err)
	var pkt ports.Packet
	require.NoError(t, d.ReadPacket(&pkt))
	err = d.ReadPacket(&pkt)
	require.Error(t, err)
	assert.Equal(t, ports.CodeEOF, ports.StatusCode(err))
}

func TestNewDemuxerRejectsGarbage(t *testing.T) {
	_, err := NewDemuxer(bytes.NewReader([]byte("not a y4m stream\n")))
	require.Error(t, err)
	assert.Equal(t, ports.CodeInvalidData, ports.StatusCode(err))
}
