package player

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/user/mediaplay/pkg/media"
)

// inputFor maps a source to the URL and forced input format handed to the
// engine. Capture devices use the platform's capture driver.
func inputFor(src media.Source, goos string) (url, format string, err error) {
	switch src.Type {
	case media.SourceFile, media.SourceNetwork:
		return src.Src, "", nil
	case media.SourceCapture:
	default:
		return "", "", fmt.Errorf("%w: source type %d", ErrOpenFailed, src.Type)
	}

	switch format = media.CaptureFormat(goos); format {
	case "dshow":
		return "video=" + src.Src, format, nil
	case "v4l2":
		if strings.HasPrefix(src.Src, "/") {
			return src.Src, format, nil
		}
		return "/dev/" + src.Src, format, nil
	case "avfoundation":
		return src.Src + ":none", format, nil
	}
	return "", "", fmt.Errorf("%w: no capture driver for %s", ErrUnsupportedCaptureBackend, goos)
}

func platformInput(src media.Source) (string, string, error) {
	return inputFor(src, runtime.GOOS)
}
