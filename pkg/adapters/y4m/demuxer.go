package y4m

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// CodecRawVideo is the codec id of every y4m stream.
const CodecRawVideo ports.CodecID = "rawvideo"

// Demuxer exposes a y4m stream as a single rawvideo stream whose time base
// is one frame.
type Demuxer struct {
	mu     sync.Mutex
	src    io.Reader
	br     *bufio.Reader
	header Header
	// headerLen is the byte length of the header line including newline.
	headerLen int64
	// offsets holds the start of every complete record plus the end of the
	// last one. It is nil until a seekable source was indexed.
	offsets []int64
	frames  int64
	next    int64
	indexed bool
	closed  bool
}

// NewDemuxer reads the stream header from r. If r is an io.Closer it is
// closed by Close.
func NewDemuxer(r io.Reader) (*Demuxer, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	line, err := readLine(br)
	if err != nil {
		return nil, ports.NewStatusError("y4m header", ports.CodeInvalidData, err)
	}
	h, err := ParseHeader(line)
	if err != nil {
		return nil, ports.NewStatusError("y4m header", ports.CodeInvalidData, err)
	}
	return &Demuxer{
		src:       r,
		br:        br,
		header:    h,
		headerLen: int64(len(line)) + 1,
		frames:    -1,
	}, nil
}

// Header returns the parsed stream header.
func (d *Demuxer) Header() Header {
	return d.header
}

// FindStreamInfo indexes the frame records when the source is seekable,
// which yields the frame count and the seek offsets. FRAME lines may carry
// parameters, so records are not assumed to be of equal size.
func (d *Demuxer) FindStreamInfo() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.indexRecords()
}

func (d *Demuxer) indexRecords() error {
	if d.indexed {
		return nil
	}
	d.indexed = true
	rs, ok := d.src.(io.ReadSeeker)
	if !ok {
		return nil
	}
	if _, err := rs.Seek(0, io.SeekCurrent); err != nil {
		return nil
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return ports.NewStatusError("y4m index", ports.CodeEIO, err)
	}

	size := int64(d.header.FrameSize())
	br := bufio.NewReaderSize(rs, maxHeaderLen+1)
	var offsets []int64
	pos := d.headerLen
	for pos < end {
		if _, err := rs.Seek(pos, io.SeekStart); err != nil {
			return ports.NewStatusError("y4m index", ports.CodeEIO, err)
		}
		br.Reset(rs)
		line, err := readLine(br)
		if err != nil || !isFrameMarker(line) {
			break
		}
		next := pos + int64(len(line)) + 1 + size
		if next > end {
			break
		}
		offsets = append(offsets, pos)
		pos = next
	}
	d.offsets = append(offsets, pos)
	d.frames = int64(len(offsets))

	// Resume where ReadPacket left off.
	resume := d.next
	if resume > d.frames {
		resume = d.frames
	}
	if _, err := rs.Seek(d.offsets[resume], io.SeekStart); err != nil {
		return ports.NewStatusError("y4m index", ports.CodeEIO, err)
	}
	d.br.Reset(d.src)
	return nil
}

func isFrameMarker(line []byte) bool {
	if len(line) < len(frameMarker) || string(line[:len(frameMarker)]) != frameMarker {
		return false
	}
	return len(line) == len(frameMarker) || line[len(frameMarker)] == ' '
}

// Streams returns the single video stream.
func (d *Demuxer) Streams() []ports.StreamInfo {
	h := d.header
	si := ports.StreamInfo{
		Index:        0,
		Kind:         ports.KindVideo,
		Codec:        CodecRawVideo,
		AvgFrameRate: h.FrameRate,
		TimeBase:     h.FrameRate.Invert(),
		StartTime:    0,
		Duration:     media.NoPTS,
		Width:        h.Width,
		Height:       h.Height,
		PixelFormat:  h.Format,
		FrameCount:   d.frames,
	}
	if !h.FrameRate.Valid() {
		si.TimeBase = media.Rational{}
	}
	if d.frames >= 0 {
		si.Duration = d.frames
		si.BitRate = int64(h.FrameSize()) * 8 * int64(h.FrameRate.Float())
	}
	return []ports.StreamInfo{si}
}

// FindBestStream returns 0 for video and -1 otherwise.
func (d *Demuxer) FindBestStream(kind ports.StreamKind) int {
	if kind == ports.KindVideo {
		return 0
	}
	return -1
}

// Duration returns the stream length in microseconds.
func (d *Demuxer) Duration() int64 {
	if d.frames < 0 || !d.header.FrameRate.Valid() {
		return media.NoPTS
	}
	return d.frames * 1_000_000 * int64(d.header.FrameRate.Den) / int64(d.header.FrameRate.Num)
}

// ReadPacket reads one frame. Each packet is a complete picture.
func (d *Demuxer) ReadPacket(pkt *ports.Packet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return io.ErrClosedPipe
	}

	line, err := readLine(d.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return ports.NewStatusError("y4m read", ports.CodeEIO, err)
	}
	if !isFrameMarker(line) {
		return ports.NewStatusError("y4m read", ports.CodeInvalidData, fmt.Errorf("expected FRAME marker at frame %d", d.next))
	}

	size := d.header.FrameSize()
	if cap(pkt.Data) < size {
		pkt.Data = make([]byte, size)
	}
	pkt.Data = pkt.Data[:size]
	if _, err := io.ReadFull(d.br, pkt.Data); err != nil {
		return ports.NewStatusError("y4m read", ports.CodeEOF, fmt.Errorf("truncated frame %d: %w", d.next, err))
	}

	pkt.StreamIndex = 0
	pkt.PTS = d.next
	pkt.DTS = d.next
	pkt.Keyframe = true
	d.next++
	return nil
}

// Seek moves to frame ts. Every frame is a key frame, so backward and
// forward seeks land on the same frame; targets beyond the end clamp to the
// end.
func (d *Demuxer) Seek(stream int, ts int64, flags ports.SeekFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stream != 0 && stream != -1 {
		return ports.NewStatusError("y4m seek", ports.CodeStreamNotFound, fmt.Errorf("stream %d", stream))
	}
	if err := d.indexRecords(); err != nil {
		return err
	}
	if d.offsets == nil {
		return ports.ErrNotSeekable
	}
	if ts < 0 {
		ts = 0
	}
	if ts > d.frames {
		ts = d.frames
	}
	if _, err := d.src.(io.Seeker).Seek(d.offsets[ts], io.SeekStart); err != nil {
		return ports.NewStatusError("y4m seek", ports.CodeEIO, err)
	}
	d.br.Reset(d.src)
	d.next = ts
	return nil
}

// Close closes the underlying reader if it is closable.
func (d *Demuxer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if c, ok := d.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func readLine(br *bufio.Reader) ([]byte, error) {
	line, err := br.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) || len(line) > maxHeaderLen {
			return nil, fmt.Errorf("%w: line too long", ErrBadHeader)
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if len(line) > maxHeaderLen {
		return nil, fmt.Errorf("%w: line too long", ErrBadHeader)
	}
	return line[:len(line)-1], nil
}

var _ ports.Demuxer = (*Demuxer)(nil)
