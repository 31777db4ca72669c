//go:build !libav || !cgo

package libavengine

import "github.com/user/mediaplay/pkg/ports"

// Available reports whether the binary carries the libav engine.
const Available = false

// New always fails with ErrNotBuilt.
func New(opts Options) (ports.Engine, error) {
	return nil, ErrNotBuilt
}
