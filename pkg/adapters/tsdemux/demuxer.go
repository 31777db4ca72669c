// Package tsdemux reads MPEG transport streams with go-astits, probing the
// program tables with gots when the input is seekable.
package tsdemux

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Comcast/gots/v2/packet"
	"github.com/Comcast/gots/v2/psi"
	"github.com/asticode/go-astits"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

const (
	// PacketSize is the size of one transport stream packet.
	PacketSize = 188
	// probeLimit bounds the number of demuxed units buffered while probing.
	probeLimit = 4000
	// rateSamples is the number of video timestamps used to estimate fps.
	rateSamples = 32
	// tailProbe is how many bytes at the end of a seekable file are scanned
	// for the last timestamp.
	tailProbe = 2000 * PacketSize
)

var (
	// ErrNoPMT is returned when no program map table is found while probing.
	ErrNoPMT = errors.New("tsdemux: no program map table found")

	timeBase = media.Rational{Num: 1, Den: 90000}
)

// Probe reports whether data looks like a transport stream.
func Probe(data []byte) bool {
	if len(data) < 2*PacketSize {
		return false
	}
	off, err := packet.Sync(bufio.NewReader(bytes.NewReader(data)))
	return err == nil && off < PacketSize
}

type stream struct {
	info  ports.StreamInfo
	pid   uint16
	pts   []int64
	ready bool
}

// Demuxer implements ports.Demuxer over astits.
type Demuxer struct {
	mu      sync.Mutex
	ctx     context.Context
	src     io.Reader
	seeker  io.ReadSeeker
	dmx     *astits.Demuxer
	streams []*stream
	byPID   map[uint16]*stream
	pending []*astits.DemuxerData
	probed  bool
	closed  bool
}

// NewDemuxer wraps r. Nothing is read until FindStreamInfo. If r is an
// io.Closer it is closed by Close.
func NewDemuxer(ctx context.Context, r io.Reader) *Demuxer {
	d := &Demuxer{ctx: ctx, src: r, byPID: make(map[uint16]*stream)}
	if rs, ok := r.(io.ReadSeeker); ok {
		d.seeker = rs
	}
	d.dmx = astits.NewDemuxer(ctx, bufio.NewReaderSize(r, 1000*PacketSize))
	return d
}

func (d *Demuxer) rewind() error {
	if d.seeker == nil {
		return ports.ErrNotSeekable
	}
	if _, err := d.seeker.Seek(0, io.SeekStart); err != nil {
		return ports.NewStatusError("ts seek", ports.CodeEIO, err)
	}
	d.dmx = astits.NewDemuxer(d.ctx, bufio.NewReaderSize(d.seeker, 1000*PacketSize))
	d.pending = nil
	return nil
}

func (d *Demuxer) next() (*astits.DemuxerData, error) {
	if len(d.pending) > 0 {
		dd := d.pending[0]
		d.pending = d.pending[1:]
		return dd, nil
	}
	dd, err := d.dmx.NextData()
	if err != nil {
		if errors.Is(err, astits.ErrNoMorePackets) || errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, ports.NewStatusError("ts read", ports.CodeInvalidData, err)
	}
	return dd, nil
}

func (d *Demuxer) addStream(pid uint16, streamType uint8) {
	if _, ok := d.byPID[pid]; ok {
		return
	}
	kind, codec := classify(streamType)
	s := &stream{
		pid: pid,
		info: ports.StreamInfo{
			Index:     len(d.streams),
			Kind:      kind,
			Codec:     codec,
			TimeBase:  timeBase,
			StartTime: media.NoPTS,
			Duration:  media.NoPTS,
		},
	}
	if kind == ports.KindVideo {
		s.info.PixelFormat = media.PixelFormatYUV420P
	}
	d.streams = append(d.streams, s)
	d.byPID[pid] = s
}

// probeTables reads PAT and PMTs with gots from the start of a seekable input.
func (d *Demuxer) probeTables() error {
	br := bufio.NewReaderSize(d.seeker, 1000*PacketSize)
	if _, err := packet.Sync(br); err != nil {
		return fmt.Errorf("syncing with reader: %w", err)
	}
	pat, err := psi.ReadPAT(br)
	if err != nil {
		return fmt.Errorf("reading PAT: %w", err)
	}
	for _, pid := range pat.ProgramMap() {
		pmt, err := psi.ReadPMT(br, pid)
		if err != nil {
			return fmt.Errorf("reading PMT: %w", err)
		}
		for _, es := range pmt.ElementaryStreams() {
			d.addStream(uint16(es.ElementaryPid()), es.StreamType())
		}
	}
	return d.rewind()
}

// FindStreamInfo discovers the programs' elementary streams, then reads
// ahead until every video stream has geometry and enough timestamps to
// estimate its frame rate. Units read ahead are replayed by ReadPacket.
func (d *Demuxer) FindStreamInfo() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.probed {
		return nil
	}
	d.probed = true

	if d.seeker != nil {
		if err := d.probeTables(); err != nil {
			// fall back to the astits PMT below
			if rerr := d.rewind(); rerr != nil {
				return rerr
			}
		}
	}

	var buffered []*astits.DemuxerData
	for n := 0; n < probeLimit && !d.probeDone(); n++ {
		dd, err := d.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		buffered = append(buffered, dd)
		if dd.PMT != nil {
			for _, es := range dd.PMT.ElementaryStreams {
				d.addStream(es.ElementaryPID, uint8(es.StreamType))
			}
		}
		if dd.PES != nil {
			if s, ok := d.byPID[dd.PID]; ok {
				d.observe(s, dd)
			}
		}
	}
	d.pending = append(buffered, d.pending...)

	if len(d.streams) == 0 {
		return ports.NewStatusError("ts probe", ports.CodeStreamNotFound, ErrNoPMT)
	}
	for _, s := range d.streams {
		s.info.AvgFrameRate = estimateRate(s.pts)
	}
	if d.seeker != nil {
		d.probeTail()
	}
	return nil
}

func (d *Demuxer) probeDone() bool {
	if len(d.streams) == 0 {
		return false
	}
	for _, s := range d.streams {
		if s.info.Kind == ports.KindVideo && !s.ready {
			return false
		}
	}
	return true
}

func (d *Demuxer) observe(s *stream, dd *astits.DemuxerData) {
	pts, _ := timestamps(dd.PES)
	if pts != media.NoPTS {
		if s.info.StartTime == media.NoPTS || pts < s.info.StartTime {
			s.info.StartTime = pts
		}
		if len(s.pts) < rateSamples {
			s.pts = append(s.pts, pts)
		}
	}
	if s.info.Kind == ports.KindVideo {
		inspect(s.info.Codec, dd.PES.Data, &s.info)
		s.ready = s.info.Width > 0 && len(s.pts) >= rateSamples
	}
}

// estimateRate takes the median spacing of presentation timestamps, which is
// robust against B-frame reordering once the samples are sorted.
func estimateRate(pts []int64) media.Rational {
	if len(pts) < 2 {
		return media.Rational{}
	}
	sorted := append([]int64(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	deltas := make([]int64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		if dt := sorted[i] - sorted[i-1]; dt > 0 {
			deltas = append(deltas, dt)
		}
	}
	if len(deltas) == 0 {
		return media.Rational{}
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i] < deltas[j] })
	step := deltas[len(deltas)/2]
	return reduce(int64(timeBase.Den), step)
}

func reduce(num, den int64) media.Rational {
	a, b := num, den
	for b != 0 {
		a, b = b, a%b
	}
	return media.Rational{Num: int(num / a), Den: int(den / a)}
}

// probeTail scans the end of the file for the last timestamp of each stream
// and derives durations from it.
func (d *Demuxer) probeTail() {
	end, err := d.seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return
	}
	start := end - tailProbe
	if start < 0 {
		start = 0
	}
	start -= start % PacketSize
	if _, err := d.seeker.Seek(start, io.SeekStart); err != nil {
		return
	}

	last := make(map[uint16]int64)
	tail := astits.NewDemuxer(d.ctx, bufio.NewReaderSize(d.seeker, 1000*PacketSize))
	for {
		dd, err := tail.NextData()
		if err != nil {
			break
		}
		if dd.PES == nil {
			continue
		}
		if pts, _ := timestamps(dd.PES); pts != media.NoPTS && pts > last[dd.PID] {
			last[dd.PID] = pts
		}
	}

	for _, s := range d.streams {
		l, ok := last[s.pid]
		if !ok || s.info.StartTime == media.NoPTS || l < s.info.StartTime {
			continue
		}
		step := int64(0)
		if s.info.AvgFrameRate.Valid() {
			step = int64(timeBase.Den) * int64(s.info.AvgFrameRate.Den) / int64(s.info.AvgFrameRate.Num)
		}
		s.info.Duration = l - s.info.StartTime + step
	}

	// Restore the read position: replay buffer plus the stream after it.
	pending := d.pending
	if err := d.reposition(pending); err != nil {
		d.pending = pending
	}
}

// reposition rewinds and skips the units already held in pending so the
// astits reader continues right after them.
func (d *Demuxer) reposition(pending []*astits.DemuxerData) error {
	if err := d.rewind(); err != nil {
		return err
	}
	for range pending {
		if _, err := d.dmx.NextData(); err != nil {
			break
		}
	}
	d.pending = pending
	return nil
}

func timestamps(pes *astits.PESData) (pts, dts int64) {
	pts, dts = media.NoPTS, media.NoPTS
	if pes == nil || pes.Header == nil || pes.Header.OptionalHeader == nil {
		return
	}
	oh := pes.Header.OptionalHeader
	if oh.PTS != nil {
		pts = oh.PTS.Base
	}
	if oh.DTS != nil {
		dts = oh.DTS.Base
	} else {
		dts = pts
	}
	return
}

// Streams returns the probed elementary streams in PMT order.
func (d *Demuxer) Streams() []ports.StreamInfo {
	out := make([]ports.StreamInfo, len(d.streams))
	for i, s := range d.streams {
		out[i] = s.info
	}
	return out
}

// FindBestStream returns the largest video stream or the first stream of
// other kinds.
func (d *Demuxer) FindBestStream(kind ports.StreamKind) int {
	best, bestArea := -1, -1
	for i, s := range d.streams {
		if s.info.Kind != kind {
			continue
		}
		area := s.info.Width * s.info.Height
		if kind != ports.KindVideo {
			area = 0
		}
		if area > bestArea {
			best, bestArea = i, area
		}
	}
	return best
}

// Duration returns the longest stream duration in microseconds.
func (d *Demuxer) Duration() int64 {
	longest := media.NoPTS
	for _, s := range d.streams {
		if s.info.Duration == media.NoPTS {
			continue
		}
		if us := s.info.Duration * 1_000_000 / int64(timeBase.Den); us > longest {
			longest = us
		}
	}
	return longest
}

// ReadPacket returns the next PES of a known elementary stream.
func (d *Demuxer) ReadPacket(pkt *ports.Packet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return io.ErrClosedPipe
	}
	for {
		dd, err := d.next()
		if err != nil {
			return err
		}
		if dd.PMT != nil {
			for _, es := range dd.PMT.ElementaryStreams {
				d.addStream(es.ElementaryPID, uint8(es.StreamType))
			}
		}
		if dd.PES == nil {
			continue
		}
		s, ok := d.byPID[dd.PID]
		if !ok {
			continue
		}
		d.fill(pkt, s, dd)
		return nil
	}
}

func (d *Demuxer) fill(pkt *ports.Packet, s *stream, dd *astits.DemuxerData) {
	pkt.StreamIndex = s.info.Index
	pkt.PTS, pkt.DTS = timestamps(dd.PES)
	pkt.Data = append(pkt.Data[:0], dd.PES.Data...)
	pkt.Keyframe = false
	if dd.FirstPacket != nil && dd.FirstPacket.AdaptationField != nil {
		pkt.Keyframe = dd.FirstPacket.AdaptationField.RandomAccessIndicator
	}
	if s.info.Kind == ports.KindVideo {
		if inspect(s.info.Codec, dd.PES.Data, &s.info) {
			pkt.Keyframe = true
		}
	} else {
		pkt.Keyframe = true
	}
}

// Seek rescans the input from the start and positions the reader on the
// last key unit of stream whose PTS is at or before ts.
func (d *Demuxer) Seek(stream int, ts int64, flags ports.SeekFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stream < 0 || stream >= len(d.streams) {
		return ports.NewStatusError("ts seek", ports.CodeStreamNotFound, fmt.Errorf("stream %d", stream))
	}
	if d.seeker == nil {
		return ports.ErrNotSeekable
	}
	s := d.streams[stream]

	// First pass: find the ordinal of the target unit among the stream's PES.
	if err := d.rewind(); err != nil {
		return err
	}
	target, ordinal := -1, -1
	var probe ports.Packet
	for {
		dd, err := d.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if dd.PES == nil || dd.PID != s.pid {
			continue
		}
		ordinal++
		d.fill(&probe, s, dd)
		if !probe.Keyframe && flags&ports.SeekAny == 0 {
			continue
		}
		if probe.PTS == media.NoPTS {
			continue
		}
		if flags&ports.SeekBackward != 0 {
			if probe.PTS > ts {
				if target < 0 {
					target = ordinal
				}
				break
			}
			target = ordinal
		} else if probe.PTS >= ts {
			target = ordinal
			break
		}
	}

	// Second pass: skip everything before the target unit.
	if err := d.rewind(); err != nil {
		return err
	}
	if target < 0 {
		// past the end: drain so the next read reports EOF
		for {
			if _, err := d.next(); err != nil {
				return nil
			}
		}
	}
	ordinal = -1
	for {
		dd, err := d.next()
		if err != nil {
			return nil
		}
		if dd.PES == nil || dd.PID != s.pid {
			continue
		}
		ordinal++
		if ordinal == target {
			d.pending = append(d.pending, dd)
			return nil
		}
	}
}

// Close closes the source if it is closable.
func (d *Demuxer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.pending = nil
	if c, ok := d.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ ports.Demuxer = (*Demuxer)(nil)
