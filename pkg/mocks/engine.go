package mocks

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// Engine is a mock implementation of ports.Engine. Without hooks it opens
// Demuxer and resolves decoders from Codecs.
type Engine struct {
	Demuxer *Demuxer
	Codecs  []*Codec
	Formats map[string]bool

	// Devices and DevicesErr are returned by CaptureDevices.
	Devices    []ports.CaptureDevice
	DevicesErr error

	InitFunc         func() error
	OpenInputFunc    func(ctx context.Context, url, format string) (ports.Demuxer, error)
	NewConverterFunc func(src, dst ports.PictureSpec, alg ports.ScaleAlgorithm) (ports.Converter, error)

	mu            sync.Mutex
	InitCalls     int
	OpenCalls     []OpenCall
	Converters    []*Converter
	DeviceFormats []string
}

// OpenCall records one OpenInput invocation.
type OpenCall struct {
	URL    string
	Format string
}

func (m *Engine) Name() string { return "mock" }

func (m *Engine) Init() error {
	m.mu.Lock()
	m.InitCalls++
	m.mu.Unlock()
	if m.InitFunc != nil {
		return m.InitFunc()
	}
	return nil
}

// FindInputFormat reports Formats[name], or true when Formats is nil.
func (m *Engine) FindInputFormat(name string) bool {
	if m.Formats == nil {
		return true
	}
	return m.Formats[name]
}

func (m *Engine) OpenInput(ctx context.Context, url, format string) (ports.Demuxer, error) {
	m.mu.Lock()
	m.OpenCalls = append(m.OpenCalls, OpenCall{URL: url, Format: format})
	m.mu.Unlock()
	if m.OpenInputFunc != nil {
		return m.OpenInputFunc(ctx, url, format)
	}
	if m.Demuxer == nil {
		return nil, ports.NewStatusError("open "+url, ports.CodeENOENT, nil)
	}
	return m.Demuxer, nil
}

func (m *Engine) FindDecoderByName(name string) (ports.Codec, bool) {
	for _, c := range m.Codecs {
		if c.CodecName == name {
			return c, true
		}
	}
	return nil, false
}

func (m *Engine) FindDecoder(id ports.CodecID) (ports.Codec, bool) {
	for _, c := range m.Codecs {
		if c.CodecID == id && !c.IsHardware {
			return c, true
		}
	}
	return nil, false
}

func (m *Engine) Decoders() []ports.CodecDescriptor {
	out := make([]ports.CodecDescriptor, len(m.Codecs))
	for i, c := range m.Codecs {
		out[i] = ports.CodecDescriptor{Name: c.CodecName, ID: c.CodecID, Hardware: c.IsHardware}
	}
	return out
}

func (m *Engine) NewConverter(src, dst ports.PictureSpec, alg ports.ScaleAlgorithm) (ports.Converter, error) {
	if m.NewConverterFunc != nil {
		return m.NewConverterFunc(src, dst, alg)
	}
	c := &Converter{Src: src, Dst: dst, Algorithm: alg}
	m.mu.Lock()
	m.Converters = append(m.Converters, c)
	m.mu.Unlock()
	return c, nil
}

func (m *Engine) CaptureDevices(format string) ([]ports.CaptureDevice, error) {
	m.mu.Lock()
	m.DeviceFormats = append(m.DeviceFormats, format)
	m.mu.Unlock()
	return m.Devices, m.DevicesErr
}

var (
	_ ports.Engine       = (*Engine)(nil)
	_ ports.DeviceLister = (*Engine)(nil)
)

// SeekCall records one Demuxer.Seek invocation.
type SeekCall struct {
	Stream    int
	Timestamp int64
	Flags     ports.SeekFlags
}

// Demuxer is a mock implementation of ports.Demuxer serving Packets in
// order.
type Demuxer struct {
	StreamList []ports.StreamInfo
	Packets    []ports.Packet
	// DurationUS is returned by Duration. Zero means NoPTS.
	DurationUS int64
	// Best overrides FindBestStream when not nil.
	Best *int

	FindStreamInfoErr error
	// ReadErr is returned once Packets are exhausted instead of io.EOF.
	ReadErr  error
	SeekFunc func(stream int, ts int64, flags ports.SeekFlags) error

	mu     sync.Mutex
	pos    int
	Seeks  []SeekCall
	Reads  int
	Closed int
}

func (m *Demuxer) FindStreamInfo() error { return m.FindStreamInfoErr }

func (m *Demuxer) Streams() []ports.StreamInfo { return m.StreamList }

// FindBestStream returns the first stream of kind unless Best is set.
func (m *Demuxer) FindBestStream(kind ports.StreamKind) int {
	if m.Best != nil {
		return *m.Best
	}
	for i, s := range m.StreamList {
		if s.Kind == kind {
			return i
		}
	}
	return -1
}

func (m *Demuxer) Duration() int64 {
	if m.DurationUS == 0 {
		return media.NoPTS
	}
	return m.DurationUS
}

func (m *Demuxer) ReadPacket(pkt *ports.Packet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	if m.pos >= len(m.Packets) {
		if m.ReadErr != nil {
			return m.ReadErr
		}
		return io.EOF
	}
	p := m.Packets[m.pos]
	m.pos++
	pkt.StreamIndex = p.StreamIndex
	pkt.PTS = p.PTS
	pkt.DTS = p.DTS
	pkt.Keyframe = p.Keyframe
	pkt.Data = append(pkt.Data[:0], p.Data...)
	return nil
}

// Seek records the call and moves to the last key packet of stream at or
// before ts.
func (m *Demuxer) Seek(stream int, ts int64, flags ports.SeekFlags) error {
	m.mu.Lock()
	m.Seeks = append(m.Seeks, SeekCall{Stream: stream, Timestamp: ts, Flags: flags})
	m.mu.Unlock()
	if m.SeekFunc != nil {
		return m.SeekFunc(stream, ts, flags)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pos := 0
	for i, p := range m.Packets {
		if p.StreamIndex == stream && p.Keyframe && p.PTS <= ts {
			pos = i
		}
	}
	m.pos = pos
	return nil
}

func (m *Demuxer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	return nil
}

// Position returns the index of the next packet.
func (m *Demuxer) Position() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

var _ ports.Demuxer = (*Demuxer)(nil)

// Codec is a mock implementation of ports.Codec.
type Codec struct {
	CodecName  string
	CodecID    ports.CodecID
	IsHardware bool
	// Decoder is returned by Open. A fresh Decoder replaces a nil or closed
	// one.
	Decoder  *Decoder
	OpenErr  error
	OpenFunc func(stream ports.StreamInfo) (ports.Decoder, error)

	mu     sync.Mutex
	Opened []ports.StreamInfo
}

func (m *Codec) Name() string      { return m.CodecName }
func (m *Codec) LongName() string  { return "mock " + m.CodecName }
func (m *Codec) ID() ports.CodecID { return m.CodecID }
func (m *Codec) Hardware() bool    { return m.IsHardware }

func (m *Codec) Open(stream ports.StreamInfo) (ports.Decoder, error) {
	m.mu.Lock()
	m.Opened = append(m.Opened, stream)
	m.mu.Unlock()
	if m.OpenFunc != nil {
		return m.OpenFunc(stream)
	}
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	if m.Decoder == nil {
		m.Decoder = &Decoder{}
	} else if m.Decoder.Closed > 0 {
		m.Decoder = &Decoder{Latency: m.Decoder.Latency, SendErr: m.Decoder.SendErr, ReceiveErr: m.Decoder.ReceiveErr}
	}
	if m.Decoder.Width == 0 {
		m.Decoder.Width, m.Decoder.Height = stream.Width, stream.Height
	}
	if m.Decoder.Format == media.PixelFormatNone {
		m.Decoder.Format = stream.PixelFormat
	}
	return m.Decoder, nil
}

var _ ports.Codec = (*Codec)(nil)

// ErrDecoderClosed is returned by a closed mock decoder.
var ErrDecoderClosed = errors.New("mocks: decoder closed")

// Decoder is a mock implementation of ports.Decoder producing one picture
// per packet. Pictures are held back until more than Latency are queued,
// or the decoder is draining. Each picture's first luma byte is the first
// byte of its packet.
type Decoder struct {
	Width   int
	Height  int
	Format  media.PixelFormat
	Latency int

	SendErr    error
	ReceiveErr error

	mu       sync.Mutex
	queue    []ports.Picture
	draining bool
	Sent     int
	Flushes  int
	Closed   int
}

func (m *Decoder) SendPacket(pkt *ports.Packet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed > 0 {
		return ErrDecoderClosed
	}
	if pkt == nil {
		m.draining = true
		m.Flushes++
		return nil
	}
	if m.SendErr != nil {
		return m.SendErr
	}
	if len(m.queue) > m.Latency {
		return ports.ErrAgain
	}
	m.Sent++
	m.queue = append(m.queue, m.picture(pkt, pkt.PTS))
	return nil
}

func (m *Decoder) picture(pkt *ports.Packet, pts int64) ports.Picture {
	format := m.Format
	if format == media.PixelFormatNone {
		format = media.PixelFormatYUV420P
	}
	sizes := format.PlaneSizes(m.Width, m.Height)
	planes := make([][]byte, len(sizes))
	for i, n := range sizes {
		planes[i] = make([]byte, n)
	}
	if len(planes) > 0 && len(planes[0]) > 0 && len(pkt.Data) > 0 {
		planes[0][0] = pkt.Data[0]
	}
	return ports.Picture{
		Width:   m.Width,
		Height:  m.Height,
		Format:  format,
		Planes:  planes,
		Strides: format.PlaneStrides(m.Width),
		PTS:     pts,
	}
}

func (m *Decoder) ReceivePicture(pic *ports.Picture) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed > 0 {
		return ErrDecoderClosed
	}
	if m.ReceiveErr != nil {
		return m.ReceiveErr
	}
	if len(m.queue) > m.Latency || (m.draining && len(m.queue) > 0) {
		*pic = m.queue[0]
		m.queue = m.queue[1:]
		return nil
	}
	if m.draining {
		return io.EOF
	}
	return ports.ErrAgain
}

func (m *Decoder) Output() ports.PictureSpec {
	return ports.PictureSpec{Width: m.Width, Height: m.Height, Format: m.Format}
}

func (m *Decoder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	m.queue = nil
	return nil
}

// Pending returns the number of queued pictures.
func (m *Decoder) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

var _ ports.Decoder = (*Decoder)(nil)

// Converter is a mock implementation of ports.Converter. By default it
// copies the first luma byte of the picture into every destination row.
type Converter struct {
	Src       ports.PictureSpec
	Dst       ports.PictureSpec
	Algorithm ports.ScaleAlgorithm

	ConvertFunc func(src *ports.Picture, dst []byte, dstStride int) error

	mu     sync.Mutex
	Calls  int
	Closed int
}

func (m *Converter) Convert(src *ports.Picture, dst []byte, dstStride int) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.ConvertFunc != nil {
		return m.ConvertFunc(src, dst, dstStride)
	}
	if dstStride <= 0 || len(src.Planes) == 0 || len(src.Planes[0]) == 0 {
		return nil
	}
	for off := 0; off < len(dst); off += dstStride {
		dst[off] = src.Planes[0][0]
	}
	return nil
}

func (m *Converter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	return nil
}

var _ ports.Converter = (*Converter)(nil)
