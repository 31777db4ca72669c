package nativeengine

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
)

// udpReader turns a datagram socket into a byte stream.
type udpReader struct {
	conn net.PacketConn
	buf  []byte
	rest []byte
	once sync.Once
	stop func() bool
}

// listenUDP binds addr. Reads fail once ctx is cancelled or the reader is
// closed.
func listenUDP(ctx context.Context, addr string) (io.ReadCloser, error) {
	if i := strings.IndexByte(addr, '?'); i >= 0 {
		addr = addr[:i]
	}
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	r := &udpReader{conn: conn, buf: make([]byte, 64*1024)}
	r.stop = context.AfterFunc(ctx, func() { r.Close() })
	return r, nil
}

func (r *udpReader) Read(p []byte) (int, error) {
	for len(r.rest) == 0 {
		n, _, err := r.conn.ReadFrom(r.buf)
		if err != nil {
			return 0, io.EOF
		}
		r.rest = r.buf[:n]
	}
	n := copy(p, r.rest)
	r.rest = r.rest[n:]
	return n, nil
}

func (r *udpReader) Close() error {
	var err error
	r.once.Do(func() {
		r.stop()
		err = r.conn.Close()
	})
	return err
}
