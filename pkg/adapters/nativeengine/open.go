package nativeengine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/mediaplay/pkg/adapters/mp4demux"
	"github.com/user/mediaplay/pkg/adapters/tsdemux"
	"github.com/user/mediaplay/pkg/adapters/y4m"
	"github.com/user/mediaplay/pkg/ports"
)

// Container formats understood by OpenInput.
const (
	FormatY4M  = "yuv4mpegpipe"
	FormatMP4  = "mp4"
	FormatTS   = "mpegts"
	sniffBytes = 3 * tsdemux.PacketSize
)

// formatAliases maps forced format names to a container.
var formatAliases = map[string]string{
	"yuv4mpegpipe": FormatY4M,
	"y4m":          FormatY4M,
	"mp4":          FormatMP4,
	"mov":          FormatMP4,
	"mpegts":       FormatTS,
	"ts":           FormatTS,
}

var extensionFormats = map[string]string{
	".y4m":  FormatY4M,
	".mp4":  FormatMP4,
	".m4v":  FormatMP4,
	".mov":  FormatMP4,
	".ts":   FormatTS,
	".m2ts": FormatTS,
	".mts":  FormatTS,
}

// ErrUnknownFormat is returned when no container matches the input.
var ErrUnknownFormat = errors.New("nativeengine: unrecognized container format")

// OpenInput opens url and creates the matching demuxer. format forces the
// container when not empty.
func (e *Engine) OpenInput(ctx context.Context, url, format string) (ports.Demuxer, error) {
	if format != "" {
		f, ok := formatAliases[format]
		if !ok {
			return nil, ports.NewStatusError("open "+url, ports.CodeDemuxerNotFound, fmt.Errorf("format %q", format))
		}
		format = f
	}

	switch {
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return e.openHTTP(ctx, url, format)
	case strings.HasPrefix(url, "udp://"):
		return e.openUDP(ctx, url, format)
	case strings.Contains(url, "://") && !strings.HasPrefix(url, "file://"):
		return nil, ports.NewStatusError("open "+url, ports.CodeProtocolNotFound, nil)
	}
	return e.openFile(ctx, strings.TrimPrefix(url, "file://"), format)
}

func (e *Engine) openFile(ctx context.Context, path, format string) (ports.Demuxer, error) {
	f, err := os.Open(path)
	if err != nil {
		code := ports.CodeEIO
		if errors.Is(err, os.ErrNotExist) {
			code = ports.CodeENOENT
		}
		return nil, ports.NewStatusError("open "+path, code, err)
	}

	if format == "" {
		head := make([]byte, sniffBytes)
		n, _ := io.ReadFull(f, head)
		format = sniff(head[:n], path)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, ports.NewStatusError("open "+path, ports.CodeEIO, err)
		}
	}
	e.log.Debug("Opening %s as %s", path, format)
	return newDemuxer(ctx, format, f, path)
}

// stream is a non-seekable input with sniffing lookahead.
type stream struct {
	io.Reader
	io.Closer
}

func (e *Engine) openHTTP(ctx context.Context, url, format string) (ports.Demuxer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ports.NewStatusError("open "+url, ports.CodeEINVAL, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, ports.NewStatusError("open "+url, ports.CodeEIO, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		code := ports.CodeEIO
		if resp.StatusCode == http.StatusNotFound {
			code = ports.CodeENOENT
		}
		return nil, ports.NewStatusError("open "+url, code, fmt.Errorf("http status %s", resp.Status))
	}
	return e.openStream(ctx, url, format, resp.Body)
}

func (e *Engine) openUDP(ctx context.Context, url, format string) (ports.Demuxer, error) {
	rc, err := listenUDP(ctx, strings.TrimPrefix(url, "udp://"))
	if err != nil {
		return nil, ports.NewStatusError("open "+url, ports.CodeEIO, err)
	}
	if format == "" {
		format = FormatTS
	}
	return e.openStream(ctx, url, format, rc)
}

func (e *Engine) openStream(ctx context.Context, url, format string, rc io.ReadCloser) (ports.Demuxer, error) {
	br := bufio.NewReaderSize(rc, 64*1024)
	if format == "" {
		head, _ := br.Peek(sniffBytes)
		format = sniff(head, url)
	}
	e.log.Debug("Opening %s as %s", url, format)

	if format == FormatMP4 {
		// The box index needs random access, so the body is buffered.
		data, err := io.ReadAll(br)
		rc.Close()
		if err != nil {
			return nil, ports.NewStatusError("open "+url, ports.CodeEIO, err)
		}
		return newDemuxer(ctx, format, bytes.NewReader(data), url)
	}
	return newDemuxer(ctx, format, stream{Reader: br, Closer: rc}, url)
}

func newDemuxer(ctx context.Context, format string, r io.Reader, name string) (ports.Demuxer, error) {
	var (
		d   ports.Demuxer
		err error
	)
	switch format {
	case FormatY4M:
		d, err = y4m.NewDemuxer(r)
	case FormatMP4:
		rs, ok := r.(io.ReadSeeker)
		if !ok {
			err = ports.ErrNotSeekable
			break
		}
		d, err = mp4demux.NewDemuxer(rs)
	case FormatTS:
		d = tsdemux.NewDemuxer(ctx, r)
	default:
		err = ports.NewStatusError("open "+name, ports.CodeInvalidData, ErrUnknownFormat)
	}
	if err != nil {
		if c, ok := r.(io.Closer); ok {
			c.Close()
		}
		return nil, err
	}
	return d, nil
}

// sniff identifies the container from magic bytes, then from the name's
// extension.
func sniff(head []byte, name string) string {
	switch {
	case bytes.HasPrefix(head, []byte("YUV4MPEG2")):
		return FormatY4M
	case len(head) >= 8 && string(head[4:8]) == "ftyp":
		return FormatMP4
	case len(head) >= 8 && (string(head[4:8]) == "moov" || string(head[4:8]) == "styp"):
		return FormatMP4
	case tsdemux.Probe(head):
		return FormatTS
	}
	ext := strings.ToLower(filepath.Ext(name))
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	return extensionFormats[ext]
}
