// Package media holds the value types shared by the decode pipeline:
// source descriptors, frames, pixel formats, rationals and playback signals.
package media

import (
	"fmt"
	"strings"
)

// SourceType identifies where the media comes from.
type SourceType int

const (
	// SourceFile is a local file path or file:// URL.
	SourceFile SourceType = iota
	// SourceNetwork is a URL handled by the engine's protocol layer.
	SourceNetwork
	// SourceCapture is a live capture device name.
	SourceCapture
)

func (t SourceType) String() string {
	switch t {
	case SourceFile:
		return "file"
	case SourceNetwork:
		return "network"
	case SourceCapture:
		return "capture"
	default:
		return "unknown"
	}
}

// ParseSourceType parses the lower-case names used by config files and flags.
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file", "":
		return SourceFile, nil
	case "network", "net", "url":
		return SourceNetwork, nil
	case "capture", "device":
		return SourceCapture, nil
	default:
		return SourceFile, fmt.Errorf("media: unknown source type %q", s)
	}
}

// CaptureFormat names the capture driver of goos, e.g. "v4l2" on linux. It
// is empty where capture is unsupported.
func CaptureFormat(goos string) string {
	switch goos {
	case "windows":
		return "dshow"
	case "linux":
		return "v4l2"
	case "darwin":
		return "avfoundation"
	}
	return ""
}

// DecodeMode selects the decoder family tried first.
type DecodeMode int

const (
	// DecodeSoftware uses the engine's default decoder for the codec.
	DecodeSoftware DecodeMode = iota
	// DecodeHardware tries hardware-accelerated variants before falling back.
	DecodeHardware
)

func (m DecodeMode) String() string {
	if m == DecodeHardware {
		return "hardware"
	}
	return "software"
}

// ParseDecodeMode parses "hardware"/"hw" and "software"/"sw".
func ParseDecodeMode(s string) (DecodeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "software", "sw", "":
		return DecodeSoftware, nil
	case "hardware", "hw":
		return DecodeHardware, nil
	default:
		return DecodeSoftware, fmt.Errorf("media: unknown decode mode %q", s)
	}
}

// Source describes what to play. It is not modified once handed to a player.
type Source struct {
	Type       SourceType
	Src        string
	DecodeMode DecodeMode
}

// SourceFromString builds a Source, guessing file or network from the scheme.
func SourceFromString(src string, mode DecodeMode) Source {
	t := SourceFile
	if i := strings.Index(src, "://"); i > 0 && !strings.EqualFold(src[:i], "file") {
		t = SourceNetwork
	}
	return Source{Type: t, Src: src, DecodeMode: mode}
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%s (%s)", s.Type, s.Src, s.DecodeMode)
}
