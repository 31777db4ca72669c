// Package mp4demux reads progressive and fragmented MP4 files through mp4ff
// and exposes their tracks as ports.Demuxer streams.
package mp4demux

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

var (
	// ErrNoMoov is returned for files without a movie box.
	ErrNoMoov = errors.New("mp4demux: no moov box found")
	// ErrNoSampleTable is returned for tracks without a usable sample table.
	ErrNoSampleTable = errors.New("mp4demux: no sample table found")
)

// sample is one index entry. Progressive samples are read from the source
// at offset; fragmented samples carry their data.
type sample struct {
	stream int
	dts    int64
	pts    int64
	key    bool
	offset int64
	size   int
	data   []byte
}

type track struct {
	info       ports.StreamInfo
	trackID    uint32
	lengthNALU bool
	params     []byte
	samples    int
	firstDTS   int64
	end        uint64
}

// Demuxer implements ports.Demuxer over an in-memory sample index.
type Demuxer struct {
	mu      sync.Mutex
	src     io.ReadSeeker
	tracks  []*track
	index   []sample
	next    int
	closed  bool
	scratch []byte
}

// NewDemuxer parses the box structure of r and builds the sample index.
// If r is an io.Closer it is closed by Close.
func NewDemuxer(r io.ReadSeeker) (*Demuxer, error) {
	f, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, ports.NewStatusError("mp4 decode", ports.CodeInvalidData, err)
	}
	d := &Demuxer{src: r}
	if f.IsFragmented() {
		err = d.indexFragmented(f)
	} else {
		err = d.indexProgressive(f)
	}
	if err != nil {
		return nil, ports.NewStatusError("mp4 index", ports.CodeInvalidData, err)
	}
	return d, nil
}

func (d *Demuxer) addTrack(trak *mp4.TrakBox) *track {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Mdhd == nil {
		return nil
	}
	t := &track{trackID: trak.Tkhd.TrackID}
	t.info = ports.StreamInfo{
		Index:     len(d.tracks),
		Kind:      kindForHandler(trak.Mdia.Hdlr.HandlerType),
		TimeBase:  media.Rational{Num: 1, Den: int(trak.Mdia.Mdhd.Timescale)},
		StartTime: media.NoPTS,
		Duration:  media.NoPTS,
	}
	if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			t.info.Codec = codecForSampleEntry(child.Type())
			if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
				t.info.Width = int(vse.Width)
				t.info.Height = int(vse.Height)
				t.info.PixelFormat = media.PixelFormatYUV420P
				t.params = parameterSets(vse)
				t.info.Extradata = t.params
				t.lengthNALU = vse.AvcC != nil || vse.HvcC != nil
			} else if box, ok := child.(*mp4.UnknownBox); ok && t.info.Kind == ports.KindVideo {
				if w, h, ok := visualEntrySize(box.Payload()); ok {
					t.info.Width, t.info.Height = w, h
					t.info.PixelFormat = media.PixelFormatYUV420P
				}
			}
			break
		}
	}
	d.tracks = append(d.tracks, t)
	return t
}

// visualEntrySize reads the geometry of a visual sample entry mp4ff leaves
// undecoded, such as the QuickTime jpeg entries. Width and height follow 24
// bytes of reserved and predefined fields.
func visualEntrySize(payload []byte) (width, height int, ok bool) {
	if len(payload) < 28 {
		return 0, 0, false
	}
	width = int(binary.BigEndian.Uint16(payload[24:]))
	height = int(binary.BigEndian.Uint16(payload[26:]))
	return width, height, width > 0 && height > 0
}

func (d *Demuxer) indexProgressive(f *mp4.File) error {
	if f.Moov == nil {
		return ErrNoMoov
	}
	for _, trak := range f.Moov.Traks {
		t := d.addTrack(trak)
		if t == nil {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsz == nil {
			return fmt.Errorf("%w: track %d", ErrNoSampleTable, t.trackID)
		}
		if err := d.indexSampleTable(t, trak.Mdia.Minf.Stbl); err != nil {
			return fmt.Errorf("track %d: %w", t.trackID, err)
		}
	}
	// Chunk order in the file is the muxer's interleaving.
	sort.SliceStable(d.index, func(i, j int) bool {
		return d.index[i].offset < d.index[j].offset
	})
	d.finish()
	return nil
}

func (d *Demuxer) indexSampleTable(t *track, stbl *mp4.StblBox) error {
	if stbl.Stsc == nil {
		return fmt.Errorf("%w: missing stsc", ErrNoSampleTable)
	}
	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	lastChunk := -1
	var offset uint64
	for nr := uint32(1); nr <= stbl.Stsz.SampleNumber; nr++ {
		chunkNr, _, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
		if err != nil {
			return fmt.Errorf("chunk of sample %d: %w", nr, err)
		}
		if chunkNr != lastChunk {
			offset, err = chunkOffset(stbl, chunkNr)
			if err != nil {
				return err
			}
			lastChunk = chunkNr
		}
		size := stbl.Stsz.GetSampleSize(int(nr))

		var dts uint64
		var dur uint32
		if stbl.Stts != nil {
			dts, dur = stbl.Stts.GetDecodeTime(nr)
		}
		if nr == 1 {
			t.firstDTS = int64(dts)
		}
		if end := dts + uint64(dur); end > t.end {
			t.end = end
		}
		pts := int64(dts)
		if hasComposition(stbl.Ctts, nr) {
			pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}
		d.index = append(d.index, sample{
			stream: t.info.Index,
			dts:    int64(dts),
			pts:    pts,
			key:    syncSamples[nr] || stbl.Stss == nil,
			offset: int64(offset),
			size:   int(size),
		})
		offset += uint64(size)
	}
	t.samples = int(stbl.Stsz.SampleNumber)
	return nil
}

// hasComposition reports whether ctts covers sample nr. Samples past a short
// table keep their decode time.
func hasComposition(ctts *mp4.CttsBox, nr uint32) bool {
	if ctts == nil || len(ctts.SampleOffset) == 0 || len(ctts.EndSampleNr) != len(ctts.SampleOffset)+1 {
		return false
	}
	return nr <= ctts.EndSampleNr[len(ctts.EndSampleNr)-1]
}

func chunkOffset(stbl *mp4.StblBox, chunkNr int) (uint64, error) {
	switch {
	case stbl.Stco != nil:
		off, err := stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return 0, fmt.Errorf("chunk %d offset: %w", chunkNr, err)
		}
		return off, nil
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return 0, fmt.Errorf("chunk nr %d out of range", chunkNr)
		}
		return stbl.Co64.ChunkOffset[chunkNr-1], nil
	}
	return 0, fmt.Errorf("%w: no stco or co64", ErrNoSampleTable)
}

func (d *Demuxer) indexFragmented(f *mp4.File) error {
	if f.Init == nil || f.Init.Moov == nil {
		return ErrNoMoov
	}
	byID := make(map[uint32]*track)
	trexs := make(map[uint32]*mp4.TrexBox)
	for _, trak := range f.Init.Moov.Traks {
		if t := d.addTrack(trak); t != nil {
			byID[t.trackID] = t
		}
	}
	if f.Init.Moov.Mvex != nil {
		for _, trex := range f.Init.Moov.Mvex.Trexs {
			trexs[trex.TrackID] = trex
		}
	}

	next := make(map[uint32]uint64)
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				t, ok := byID[traf.Tfhd.TrackID]
				if !ok {
					continue
				}
				samples, err := frag.GetFullSamples(trexs[t.trackID])
				if err != nil {
					return fmt.Errorf("fragment samples: %w", err)
				}
				dts := next[t.trackID]
				if traf.Tfdt != nil {
					dts = traf.Tfdt.BaseMediaDecodeTime()
				}
				if t.samples == 0 {
					t.firstDTS = int64(dts)
				}
				for _, s := range samples {
					d.index = append(d.index, sample{
						stream: t.info.Index,
						dts:    int64(dts),
						pts:    int64(dts) + int64(s.CompositionTimeOffset),
						key:    s.Flags == mp4.SyncSampleFlags,
						size:   len(s.Data),
						data:   s.Data,
					})
					dts += uint64(s.Dur)
					t.samples++
					if dts > t.end {
						t.end = dts
					}
				}
				next[t.trackID] = dts
			}
		}
	}
	d.finish()
	return nil
}

// finish derives start time, duration and frame rate from the index.
func (d *Demuxer) finish() {
	bytes := make([]int64, len(d.tracks))
	for _, s := range d.index {
		t := d.tracks[s.stream]
		if t.info.StartTime == media.NoPTS || s.pts < t.info.StartTime {
			t.info.StartTime = s.pts
		}
		bytes[s.stream] += int64(s.size)
	}
	for i, t := range d.tracks {
		t.info.FrameCount = int64(t.samples)
		span := int64(t.end) - t.firstDTS
		if t.samples == 0 || span <= 0 {
			continue
		}
		t.info.Duration = span
		t.info.AvgFrameRate = reduce(int64(t.samples)*int64(t.info.TimeBase.Den), span)
		if ms := media.TicksToMillis(span, t.info.TimeBase); ms > 0 {
			t.info.BitRate = bytes[i] * 8 * 1000 / ms
		}
	}
}

func reduce(num, den int64) media.Rational {
	a, b := num, den
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return media.Rational{}
	}
	return media.Rational{Num: int(num / a), Den: int(den / a)}
}

// FindStreamInfo is a no-op: the index is complete after NewDemuxer.
func (d *Demuxer) FindStreamInfo() error {
	return nil
}

// Streams returns one stream per track.
func (d *Demuxer) Streams() []ports.StreamInfo {
	out := make([]ports.StreamInfo, len(d.tracks))
	for i, t := range d.tracks {
		out[i] = t.info
	}
	return out
}

// FindBestStream picks the largest video track, or the highest bitrate
// track of other kinds. Ties keep the first track.
func (d *Demuxer) FindBestStream(kind ports.StreamKind) int {
	best, bestScore := -1, int64(-1)
	for i, t := range d.tracks {
		if t.info.Kind != kind || t.samples == 0 {
			continue
		}
		score := t.info.BitRate
		if kind == ports.KindVideo {
			score = int64(t.info.Width) * int64(t.info.Height)
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// Duration returns the longest track duration in microseconds.
func (d *Demuxer) Duration() int64 {
	longest := media.NoPTS
	for _, t := range d.tracks {
		if t.info.Duration == media.NoPTS {
			continue
		}
		us := media.TicksToMillis(t.info.Duration, t.info.TimeBase) * 1000
		if us > longest {
			longest = us
		}
	}
	return longest
}

// ReadPacket returns the next sample in file order.
func (d *Demuxer) ReadPacket(pkt *ports.Packet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return io.ErrClosedPipe
	}
	if d.next >= len(d.index) {
		return io.EOF
	}
	s := d.index[d.next]
	d.next++

	data := s.data
	if data == nil {
		if cap(d.scratch) < s.size {
			d.scratch = make([]byte, s.size)
		}
		data = d.scratch[:s.size]
		if _, err := d.src.Seek(s.offset, io.SeekStart); err != nil {
			return ports.NewStatusError("mp4 read", ports.CodeEIO, err)
		}
		if _, err := io.ReadFull(d.src, data); err != nil {
			return ports.NewStatusError("mp4 read", ports.CodeEOF, err)
		}
	}

	t := d.tracks[s.stream]
	pkt.Data = pkt.Data[:0]
	if t.lengthNALU {
		if s.key {
			pkt.Data = append(pkt.Data, t.params...)
		}
		pkt.Data = avccToAnnexB(pkt.Data, data)
	} else {
		pkt.Data = append(pkt.Data, data...)
	}
	pkt.StreamIndex = s.stream
	pkt.DTS = s.dts
	pkt.PTS = s.pts
	pkt.Keyframe = s.key
	return nil
}

// Seek positions the reader on the last key sample of stream whose decode
// time is at or before ts. Without SeekBackward the first key sample at or
// after ts is used instead.
func (d *Demuxer) Seek(stream int, ts int64, flags ports.SeekFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stream < 0 || stream >= len(d.tracks) {
		return ports.NewStatusError("mp4 seek", ports.CodeStreamNotFound, fmt.Errorf("stream %d", stream))
	}
	target := -1
	for i, s := range d.index {
		if s.stream != stream || (!s.key && flags&ports.SeekAny == 0) {
			continue
		}
		if flags&ports.SeekBackward != 0 {
			if s.dts > ts {
				if target < 0 {
					target = i
				}
				break
			}
			target = i
		} else if s.dts >= ts {
			target = i
			break
		}
	}
	if target < 0 {
		target = len(d.index)
	}
	d.next = target
	return nil
}

// Close closes the source if it is closable.
func (d *Demuxer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.index = nil
	if c, ok := d.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ ports.Demuxer = (*Demuxer)(nil)
