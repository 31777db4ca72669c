package tsdemux

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/asticode/go-astits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

const (
	videoPID  = 256
	startPTS  = 90000
	frameTick = 3600 // 25 fps on the 90 kHz clock
)

// muxFixture writes n H.264-like access units, an IDR every 10 frames.
func muxFixture(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	mx := astits.NewMuxer(context.Background(), &buf)
	require.NoError(t, mx.AddElementaryStream(astits.PMTElementaryStream{
		ElementaryPID: videoPID,
		StreamType:    astits.StreamTypeH264Video,
	}))
	mx.SetPCRPID(videoPID)

	for i := 0; i < n; i++ {
		nalType := byte(0x41)
		var af *astits.PacketAdaptationField
		if i%10 == 0 {
			nalType = 0x65
			af = &astits.PacketAdaptationField{RandomAccessIndicator: true}
		}
		payload := []byte{0, 0, 0, 1, 0x09, 0xf0, 0, 0, 0, 1, nalType, byte(i), 0x80}
		_, err := mx.WriteData(&astits.MuxerData{
			PID:             videoPID,
			AdaptationField: af,
			PES: &astits.PESData{
				Header: &astits.PESHeader{
					OptionalHeader: &astits.PESOptionalHeader{
						MarkerBits:      2,
						PTSDTSIndicator: astits.PTSDTSIndicatorOnlyPTS,
						PTS:             &astits.ClockReference{Base: int64(startPTS + i*frameTick)},
					},
					StreamID: 0xe0,
				},
				Data: payload,
			},
		})
		require.NoError(t, err)
	}
	return buf.Bytes()
}

func TestProbe(t *testing.T) {
	data := muxFixture(t, 3)
	assert.True(t, Probe(data))
	assert.False(t, Probe([]byte("YUV4MPEG2 W2 H2")))
}

func TestDemuxSeekableFile(t *testing.T) {
	d := NewDemuxer(context.Background(), bytes.NewReader(muxFixture(t, 50)))
	defer d.Close()
	require.NoError(t, d.FindStreamInfo())

	streams := d.Streams()
	require.Len(t, streams, 1)
	s := streams[0]
	assert.Equal(t, ports.KindVideo, s.Kind)
	assert.Equal(t, CodecH264, s.Codec)
	assert.Equal(t, media.Rational{Num: 1, Den: 90000}, s.TimeBase)
	assert.Equal(t, media.Rational{Num: 25, Den: 1}, s.AvgFrameRate)
	assert.Equal(t, int64(startPTS), s.StartTime)
	assert.Equal(t, int64(50*frameTick), s.Duration)
	assert.Equal(t, 0, d.FindBestStream(ports.KindVideo))
	assert.Equal(t, -1, d.FindBestStream(ports.KindAudio))

	var pkt ports.Packet
	for i := 0; i < 50; i++ {
		require.NoError(t, d.ReadPacket(&pkt))
		assert.Equal(t, int64(startPTS+i*frameTick), pkt.PTS)
		assert.Equal(t, i%10 == 0, pkt.Keyframe, "frame %d", i)
	}
	assert.ErrorIs(t, d.ReadPacket(&pkt), io.EOF)

	require.NoError(t, d.Seek(0, startPTS+25*frameTick+100, ports.SeekBackward))
	require.NoError(t, d.ReadPacket(&pkt))
	assert.Equal(t, int64(startPTS+20*frameTick), pkt.PTS)
	require.NoError(t, d.ReadPacket(&pkt))
	assert.Equal(t, int64(startPTS+21*frameTick), pkt.PTS)
}

func TestDemuxNonSeekable(t *testing.T) {
	d := NewDemuxer(context.Background(), io.MultiReader(bytes.NewReader(muxFixture(t, 12))))
	require.NoError(t, d.FindStreamInfo())
	require.Len(t, d.Streams(), 1)
	assert.Equal(t, media.NoPTS, d.Streams()[0].Duration)

	var pkt ports.Packet
	n := 0
	for {
		err := d.ReadPacket(&pkt)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, int64(startPTS+n*frameTick), pkt.PTS)
		n++
	}
	assert.Equal(t, 12, n)
	assert.True(t, errors.Is(d.Seek(0, 0, ports.SeekBackward), ports.ErrNotSeekable))
}

func TestEstimateRate(t *testing.T) {
	// B-frame order: 0, 3, 1, 2 ... in units of 3003 (29.97 fps)
	pts := []int64{0, 9009, 3003, 6006, 18018, 12012, 15015}
	assert.Equal(t, media.Rational{Num: 30000, Den: 1001}, estimateRate(pts))
	assert.Equal(t, media.Rational{}, estimateRate([]int64{5}))
}
