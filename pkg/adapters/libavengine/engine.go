//go:build libav && cgo

package libavengine

// #cgo pkg-config: libavformat libavcodec libavutil libswscale libavdevice
// #include <stdint.h>
// #include <stdlib.h>
// #include <libavcodec/avcodec.h>
// #include <libavformat/avformat.h>
// #include <libavdevice/avdevice.h>
//
// static const AVCodec *next_decoder(uintptr_t *it) {
//     void *opaque = (void *)*it;
//     const AVCodec *c;
//     while ((c = av_codec_iterate(&opaque)) != NULL) {
//         if (av_codec_is_decoder(c))
//             break;
//     }
//     *it = (uintptr_t)opaque;
//     return c;
// }
import "C"

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"unsafe"

	"github.com/user/mediaplay/pkg/adapters/logger"
	"github.com/user/mediaplay/pkg/media"
	"github.com/user/mediaplay/pkg/ports"
)

// Available reports whether the binary carries the libav engine.
const Available = true

// Engine implements ports.Engine on top of libavformat and libavcodec.
type Engine struct {
	log ports.Logger
}

// New creates the engine. Library registration happens in Init.
func New(opts Options) (ports.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	return &Engine{log: log.WithComponent("libav")}, nil
}

func (e *Engine) Name() string { return "libav" }

// Init registers capture devices and the network layer, then logs the
// devices of the platform capture driver.
func (e *Engine) Init() error {
	C.avdevice_register_all()
	if r := C.avformat_network_init(); r < 0 {
		return statusError("network init", r)
	}
	v := uint32(C.avformat_version())
	e.log.Debug("libavformat %d.%d.%d", v>>16, (v>>8)&0xff, v&0xff)

	if format := media.CaptureFormat(runtime.GOOS); format != "" {
		devices, err := e.CaptureDevices(format)
		if err != nil {
			e.log.Debug("No %s device list: %v", format, err)
			return nil
		}
		for _, d := range devices {
			e.log.Debug("Capture device %s (%s)", d.Name, d.Description)
		}
	}
	return nil
}

// CaptureDevices asks the capture driver format for its sources. Drivers
// without enumeration report ENOSYS.
func (e *Engine) CaptureDevices(format string) ([]ports.CaptureDevice, error) {
	cfmt := C.CString(format)
	defer C.free(unsafe.Pointer(cfmt))
	ifmt := C.av_find_input_format(cfmt)
	if ifmt == nil {
		return nil, ports.NewStatusError("list devices", ports.CodeDemuxerNotFound, fmt.Errorf("input format %q", format))
	}

	var list *C.AVDeviceInfoList
	if r := C.avdevice_list_input_sources(ifmt, nil, nil, &list); r < 0 {
		return nil, statusError("list devices "+format, r)
	}
	defer C.avdevice_free_list_devices(&list)

	infos := unsafe.Slice(list.devices, int(list.nb_devices))
	out := make([]ports.CaptureDevice, 0, len(infos))
	for i, info := range infos {
		out = append(out, ports.CaptureDevice{
			Name:        C.GoString(info.device_name),
			Description: C.GoString(info.device_description),
			Default:     i == int(list.default_device),
		})
	}
	return out, nil
}

func (e *Engine) FindInputFormat(name string) bool {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return C.av_find_input_format(cname) != nil
}

// OpenInput opens url. libav performs the blocking connect itself, so ctx is
// only checked before the call.
func (e *Engine) OpenInput(ctx context.Context, url, format string) (ports.Demuxer, error) {
	if err := ctx.Err(); err != nil {
		return nil, ports.NewStatusError("open", ports.CodeEIO, err)
	}

	var ifmt *C.AVInputFormat
	if format != "" {
		cfmt := C.CString(format)
		defer C.free(unsafe.Pointer(cfmt))
		ifmt = C.av_find_input_format(cfmt)
		if ifmt == nil {
			return nil, ports.NewStatusError("open", ports.CodeDemuxerNotFound, fmt.Errorf("input format %q", format))
		}
	}

	curl := C.CString(url)
	defer C.free(unsafe.Pointer(curl))

	var fctx *C.AVFormatContext
	if r := C.avformat_open_input(&fctx, curl, ifmt, nil); r < 0 {
		return nil, statusError("open "+url, r)
	}
	e.log.Debug("Opened %s as %s", url, C.GoString(fctx.iformat.name))
	d, err := newDemuxer(fctx)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (e *Engine) FindDecoderByName(name string) (ports.Codec, bool) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	c := C.avcodec_find_decoder_by_name(cname)
	if c == nil {
		return nil, false
	}
	return newCodec(c), true
}

// FindDecoder resolves the codec name through the codec descriptor table.
func (e *Engine) FindDecoder(id ports.CodecID) (ports.Codec, bool) {
	cname := C.CString(string(id))
	defer C.free(unsafe.Pointer(cname))
	desc := C.avcodec_descriptor_get_by_name(cname)
	if desc == nil {
		return nil, false
	}
	c := C.avcodec_find_decoder(desc.id)
	if c == nil {
		return nil, false
	}
	return newCodec(c), true
}

// Decoders lists the video decoders compiled into libavcodec.
func (e *Engine) Decoders() []ports.CodecDescriptor {
	var out []ports.CodecDescriptor
	var it C.uintptr_t
	for c := C.next_decoder(&it); c != nil; c = C.next_decoder(&it) {
		if c._type != C.AVMEDIA_TYPE_VIDEO {
			continue
		}
		out = append(out, newCodec(c).describe())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (e *Engine) NewConverter(src, dst ports.PictureSpec, alg ports.ScaleAlgorithm) (ports.Converter, error) {
	c, err := newConverter(src, dst, alg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// statusError keeps the libav return code, which already follows the
// negative errno / FFERRTAG convention of ports.
func statusError(op string, r C.int) *ports.StatusError {
	var buf [64]C.char
	C.av_strerror(r, &buf[0], C.size_t(len(buf)))
	return ports.NewStatusError(op, int(r), errors.New(C.GoString(&buf[0])))
}

var (
	_ ports.Engine       = (*Engine)(nil)
	_ ports.DeviceLister = (*Engine)(nil)
)
