package ffmpegdecoder

import (
	"bytes"
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// closeTimeout bounds how long Close waits for ffmpeg to exit on its own.
const closeTimeout = 2 * time.Second

// decoder feeds packets to ffmpeg's stdin and collects yuv420p frames from
// its stdout on a reader goroutine.
type decoder struct {
	codec  *Codec
	width  int
	height int
	sizes  []int
	frame  int

	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdin  io.WriteCloser
	stderr *bytes.Buffer

	mu       sync.Mutex
	cond     *sync.Cond
	ready    [][]byte
	free     [][]byte
	last     []byte
	exited   bool
	exitErr  error
	pts      ptsHeap
	draining bool
	closed   bool
	done     chan struct{}
}

func newDecoder(c *Codec, s ports.StreamInfo) (*decoder, error) {
	format, ok := pipeFormats[c.id]
	if !ok {
		return nil, ports.NewStatusError("ffmpeg open", ports.CodeENOSYS, ErrUnsupportedCodec)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, ports.NewStatusError("ffmpeg open", ports.CodeEINVAL, ErrNoGeometry)
	}

	d := &decoder{
		codec:  c,
		width:  s.Width,
		height: s.Height,
		sizes:  media.PixelFormatYUV420P.PlaneSizes(s.Width, s.Height),
		stderr: &bytes.Buffer{},
		done:   make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	for _, n := range d.sizes {
		d.frame += n
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", format,
		"-c:v", c.name,
		"-i", "pipe:0",
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"-s", fmt.Sprintf("%dx%d", s.Width, s.Height),
		"-fps_mode", "passthrough",
		"pipe:1",
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.cmd = exec.CommandContext(ctx, c.ffmpegPath, args...)
	d.cmd.Stderr = d.stderr

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, ports.NewStatusError("ffmpeg open", ports.CodeExternal, err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, ports.NewStatusError("ffmpeg open", ports.CodeExternal, err)
	}
	if err := d.cmd.Start(); err != nil {
		cancel()
		return nil, ports.NewStatusError("ffmpeg open", ports.CodeExternal, err)
	}
	d.stdin = stdin

	go d.readFrames(stdout)

	if len(s.Extradata) > 0 {
		if _, err := d.stdin.Write(s.Extradata); err != nil {
			d.Close()
			return nil, ports.NewStatusError("ffmpeg open", ports.CodeExternal, err)
		}
	}
	return d, nil
}

func (d *decoder) readFrames(stdout io.Reader) {
	defer close(d.done)
	var readErr error
	for {
		buf := d.takeBuffer()
		if _, err := io.ReadFull(stdout, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				readErr = err
			}
			break
		}
		d.mu.Lock()
		d.ready = append(d.ready, buf)
		d.cond.Broadcast()
		d.mu.Unlock()
	}

	waitErr := d.cmd.Wait()
	d.mu.Lock()
	d.exited = true
	switch {
	case readErr != nil:
		d.exitErr = readErr
	case waitErr != nil && !d.closed:
		d.exitErr = fmt.Errorf("%w\nstderr: %s", waitErr, d.stderr.String())
	}
	d.cond.Broadcast()
	d.mu.Unlock()
}

func (d *decoder) takeBuffer() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := len(d.free); n > 0 {
		b := d.free[n-1]
		d.free = d.free[:n-1]
		return b
	}
	return make([]byte, d.frame)
}

// SendPacket writes the packet to ffmpeg. A nil packet closes stdin so the
// process flushes its remaining frames.
func (d *decoder) SendPacket(pkt *ports.Packet) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.draining {
		d.mu.Unlock()
		return io.EOF
	}
	if pkt == nil {
		d.draining = true
		d.mu.Unlock()
		if err := d.stdin.Close(); err != nil {
			return ports.NewStatusError("ffmpeg drain", ports.CodeEIO, err)
		}
		return nil
	}
	if d.exited {
		err := d.exitErr
		d.mu.Unlock()
		if err == nil {
			err = io.ErrClosedPipe
		}
		return ports.NewStatusError("ffmpeg decode", ports.CodeExternal, err)
	}
	pts := pkt.PTS
	if pts == media.NoPTS {
		pts = pkt.DTS
	}
	heap.Push(&d.pts, pts)
	d.mu.Unlock()

	if _, err := d.stdin.Write(pkt.Data); err != nil {
		return ports.NewStatusError("ffmpeg decode", ports.CodeExternal, err)
	}
	return nil
}

// ReceivePicture returns a queued frame. While draining it blocks until a
// frame arrives or the process exits.
func (d *decoder) ReceivePicture(pic *ports.Picture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	for len(d.ready) == 0 {
		if d.exited {
			if d.exitErr != nil {
				return ports.NewStatusError("ffmpeg decode", ports.CodeExternal, d.exitErr)
			}
			return io.EOF
		}
		if !d.draining {
			return ports.ErrAgain
		}
		d.cond.Wait()
	}

	buf := d.ready[0]
	d.ready = d.ready[1:]
	if d.last != nil {
		d.free = append(d.free, d.last)
	}
	d.last = buf

	pts := media.NoPTS
	if d.pts.Len() > 0 {
		pts = heap.Pop(&d.pts).(int64)
	}

	planes := make([][]byte, len(d.sizes))
	off := 0
	for i, n := range d.sizes {
		planes[i] = buf[off : off+n]
		off += n
	}
	*pic = ports.Picture{
		Width:   d.width,
		Height:  d.height,
		Format:  media.PixelFormatYUV420P,
		Planes:  planes,
		Strides: media.PixelFormatYUV420P.PlaneStrides(d.width),
		PTS:     pts,
	}
	return nil
}

// Output is fixed: the child process is told to emit yuv420p at the stream
// size.
func (d *decoder) Output() ports.PictureSpec {
	return ports.PictureSpec{Width: d.width, Height: d.height, Format: media.PixelFormatYUV420P}
}

func (d *decoder) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	draining := d.draining
	d.mu.Unlock()

	if !draining {
		_ = d.stdin.Close()
	}
	select {
	case <-d.done:
	case <-time.After(closeTimeout):
		d.cancel()
		<-d.done
	}
	d.cancel()

	d.mu.Lock()
	d.ready, d.free, d.last = nil, nil, nil
	d.mu.Unlock()
	return nil
}

// ptsHeap orders submitted timestamps so frames leaving ffmpeg in display
// order get the smallest outstanding PTS.
type ptsHeap []int64

func (h ptsHeap) Len() int           { return len(h) }
func (h ptsHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h ptsHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *ptsHeap) Push(x any) { *h = append(*h, x.(int64)) }

func (h *ptsHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
