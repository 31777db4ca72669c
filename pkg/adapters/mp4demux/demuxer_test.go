package mp4demux

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/Eyevinn/mp4ff/aac"
	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

func TestAvccToAnnexB(t *testing.T) {
	in := []byte{0, 0, 0, 2, 0x65, 0x01, 0, 0, 0, 1, 0x41}
	got := avccToAnnexB([]byte{9}, in)
	want := []byte{9, 0, 0, 0, 1, 0x65, 0x01, 0, 0, 0, 1, 0x41}
	assert.Equal(t, want, got)

	// a truncated length stops conversion instead of panicking
	assert.Empty(t, avccToAnnexB(nil, []byte{0, 0, 0, 9, 1}))
}

func TestCodecMapping(t *testing.T) {
	assert.Equal(t, CodecH264, codecForSampleEntry("avc3"))
	assert.Equal(t, CodecHEVC, codecForSampleEntry("hev1"))
	assert.Equal(t, CodecAV1, codecForSampleEntry("av01"))
	assert.Equal(t, ports.CodecID("zzzz"), codecForSampleEntry("zzzz"))
	assert.Equal(t, ports.KindVideo, kindForHandler("vide"))
	assert.Equal(t, ports.KindSubtitle, kindForHandler("subt"))
}

func TestReduce(t *testing.T) {
	assert.Equal(t, media.Rational{Num: 25, Den: 1}, reduce(250*90000, 900000))
	assert.Equal(t, media.Rational{}, reduce(0, 0))
}

// fragmentedAudio builds an init segment with one AAC track and a single
// fragment of n samples, 1024 ticks each at 48 kHz.
func fragmentedAudio(t *testing.T, n int) []byte {
	t.Helper()
	initSeg := mp4.CreateEmptyInit()
	initSeg.AddEmptyTrack(48000, "audio", "und")
	require.NoError(t, initSeg.Moov.Trak.SetAACDescriptor(aac.AAClc, 48000))
	trackID := initSeg.Moov.Trak.Tkhd.TrackID

	frag, err := mp4.CreateFragment(1, trackID)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		data := []byte{byte(i), 1, 2, 3}
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: mp4.SyncSampleFlags,
				Dur:   1024,
				Size:  uint32(len(data)),
			},
			DecodeTime: uint64(i) * 1024,
			Data:       data,
		})
	}

	var buf bytes.Buffer
	require.NoError(t, initSeg.Encode(&buf))
	require.NoError(t, frag.Encode(&buf))
	return buf.Bytes()
}

func TestFragmentedTrack(t *testing.T) {
	d, err := NewDemuxer(bytes.NewReader(fragmentedAudio(t, 10)))
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.FindStreamInfo())

	streams := d.Streams()
	require.Len(t, streams, 1)
	s := streams[0]
	assert.Equal(t, ports.KindAudio, s.Kind)
	assert.Equal(t, CodecAAC, s.Codec)
	assert.Equal(t, media.Rational{Num: 1, Den: 48000}, s.TimeBase)
	assert.Equal(t, int64(10*1024), s.Duration)
	assert.Equal(t, int64(10), s.FrameCount)
	assert.Equal(t, -1, d.FindBestStream(ports.KindVideo))
	assert.Equal(t, 0, d.FindBestStream(ports.KindAudio))

	var pkt ports.Packet
	for i := 0; i < 10; i++ {
		require.NoError(t, d.ReadPacket(&pkt))
		assert.Equal(t, int64(i*1024), pkt.DTS)
		assert.Equal(t, byte(i), pkt.Data[0])
		assert.True(t, pkt.Keyframe)
	}
	assert.ErrorIs(t, d.ReadPacket(&pkt), io.EOF)

	require.NoError(t, d.Seek(0, 5*1024+10, ports.SeekBackward))
	require.NoError(t, d.ReadPacket(&pkt))
	assert.Equal(t, int64(5*1024), pkt.DTS)

	require.NoError(t, d.Seek(0, 5*1024+10, 0))
	require.NoError(t, d.ReadPacket(&pkt))
	assert.Equal(t, int64(6*1024), pkt.DTS)
}

// jpegEntry returns a QuickTime jpeg sample entry, which mp4ff keeps as an
// undecoded box.
func jpegEntry(width, height uint16) *mp4.UnknownBox {
	payload := make([]byte, 78)
	binary.BigEndian.PutUint16(payload[6:], 1)
	binary.BigEndian.PutUint16(payload[24:], width)
	binary.BigEndian.PutUint16(payload[26:], height)
	binary.BigEndian.PutUint16(payload[74:], 24)
	return mp4.CreateUnknownBox("jpeg", uint64(8+len(payload)), payload)
}

// progressiveVideo builds a non-fragmented file with one video track of
// four samples in one chunk, 512 ticks each at 12800 Hz. A non-nil offsets
// adds a ctts box with one entry per sample.
func progressiveVideo(t *testing.T, entry mp4.Box, offsets []int32) []byte {
	t.Helper()
	const n = 4
	trak := mp4.CreateEmptyTrak(1, 12800, "video", "und")
	stbl := trak.Mdia.Minf.Stbl
	stbl.Stsd.AddChild(entry)
	stbl.Stts.SampleCount = []uint32{n}
	stbl.Stts.SampleTimeDelta = []uint32{512}
	require.NoError(t, stbl.Stsc.AddEntry(1, n, 1))

	var payload []byte
	for i := 0; i < n; i++ {
		payload = append(payload, byte(i), 0xd8)
		stbl.Stsz.SampleSize = append(stbl.Stsz.SampleSize, 2)
	}
	stbl.Stsz.SampleNumber = n
	if offsets != nil {
		counts := make([]uint32, len(offsets))
		for i := range counts {
			counts[i] = 1
		}
		ctts := &mp4.CttsBox{}
		require.NoError(t, ctts.AddSampleCountsAndOffset(counts, offsets))
		stbl.AddChild(ctts)
	}

	ftyp := mp4.CreateFtyp()
	moov := mp4.NewMoovBox()
	moov.AddChild(mp4.CreateMvhd())
	moov.AddChild(trak)
	stbl.Stco.ChunkOffset = []uint32{0}
	stbl.Stco.ChunkOffset[0] = uint32(ftyp.Size() + moov.Size() + 8)

	mdat := &mp4.MdatBox{}
	mdat.SetData(payload)
	var buf bytes.Buffer
	require.NoError(t, ftyp.Encode(&buf))
	require.NoError(t, moov.Encode(&buf))
	require.NoError(t, mdat.Encode(&buf))
	return buf.Bytes()
}

func TestJPEGSampleEntryGeometry(t *testing.T) {
	d, err := NewDemuxer(bytes.NewReader(progressiveVideo(t, jpegEntry(320, 240), nil)))
	require.NoError(t, err)
	defer d.Close()

	streams := d.Streams()
	require.Len(t, streams, 1)
	s := streams[0]
	assert.Equal(t, ports.KindVideo, s.Kind)
	assert.Equal(t, CodecMJPEG, s.Codec)
	assert.Equal(t, 320, s.Width)
	assert.Equal(t, 240, s.Height)
	assert.Equal(t, media.Rational{Num: 25, Den: 1}, s.AvgFrameRate)
	assert.Equal(t, 0, d.FindBestStream(ports.KindVideo))

	var pkt ports.Packet
	for i := 0; i < 4; i++ {
		require.NoError(t, d.ReadPacket(&pkt))
		assert.Equal(t, []byte{byte(i), 0xd8}, pkt.Data)
		assert.Equal(t, pkt.DTS, pkt.PTS, "no ctts means presentation follows decode order")
	}
	assert.ErrorIs(t, d.ReadPacket(&pkt), io.EOF)
}

func TestVisualEntrySizeNeedsFullHeader(t *testing.T) {
	_, _, ok := visualEntrySize(make([]byte, 27))
	assert.False(t, ok)
	_, _, ok = visualEntrySize(make([]byte, 78))
	assert.False(t, ok, "zero geometry is unknown")
}

func TestCompositionOffsets(t *testing.T) {
	offsets := []int32{512, 1536, 0, 0}
	d, err := NewDemuxer(bytes.NewReader(progressiveVideo(t, jpegEntry(64, 48), offsets)))
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, int64(512), d.Streams()[0].StartTime)

	var pkt ports.Packet
	for i, off := range offsets {
		require.NoError(t, d.ReadPacket(&pkt))
		assert.Equal(t, int64(i*512), pkt.DTS)
		assert.Equal(t, int64(i*512)+int64(off), pkt.PTS, "sample %d", i)
	}
}

func TestShortCompositionTable(t *testing.T) {
	ctts := &mp4.CttsBox{}
	require.NoError(t, ctts.AddSampleCountsAndOffset([]uint32{2}, []int32{100}))
	assert.True(t, hasComposition(ctts, 2))
	assert.False(t, hasComposition(ctts, 3))
	assert.False(t, hasComposition(nil, 1))
}

func TestRejectsGarbage(t *testing.T) {
	_, err := NewDemuxer(bytes.NewReader([]byte("definitely not an mp4 file")))
	require.Error(t, err)
	assert.Equal(t, ports.CodeInvalidData, ports.StatusCode(err))
}
