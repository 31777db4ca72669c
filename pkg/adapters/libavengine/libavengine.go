// Package libavengine binds the FFmpeg libraries (libavformat, libavcodec,
// libavdevice, libswscale) as a ports.Engine. It is compiled with the
// "libav" build tag and cgo; otherwise New returns ErrNotBuilt.
package libavengine

import (
	"errors"

	"github.com/user/mediaplay/pkg/ports"
)

// ErrNotBuilt is returned by New in binaries built without the libav tag.
var ErrNotBuilt = errors.New("libavengine: not built (rebuild with -tags libav)")

// Options configures the engine.
type Options struct {
	Logger ports.Logger
}
