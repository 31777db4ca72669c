// Package ffmpegdecoder decodes compressed video by piping elementary
// streams through an external ffmpeg process.
package ffmpegdecoder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpegdecoder: ffmpeg not found")
	// ErrUnsupportedCodec is returned for codecs without an elementary stream demuxer.
	ErrUnsupportedCodec = errors.New("ffmpegdecoder: codec cannot be piped")
	// ErrNoGeometry is returned when the stream size is unknown.
	ErrNoGeometry = errors.New("ffmpegdecoder: stream has no geometry")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("ffmpegdecoder: decoder closed")
)

// FindFFmpeg locates ffmpeg. Priority: custom path, FFMPEG_PATH, PATH,
// common install locations.
func FindFFmpeg(custom string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}

// DecoderInfo is one line of `ffmpeg -decoders`.
type DecoderInfo struct {
	Name     string
	LongName string
	Video    bool
}

// ListDecoders runs `ffmpeg -decoders` and parses the video and audio
// decoders it reports.
func ListDecoders(ctx context.Context, ffmpegPath string) ([]DecoderInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-decoders")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg -decoders: %w\nstderr: %s", err, stderr.String())
	}
	return parseDecoders(stdout.Bytes()), nil
}

// parseDecoders parses lines like " V....D h264   H.264 / AVC / MPEG-4 AVC".
// The legend above the "------" separator is skipped.
func parseDecoders(out []byte) []DecoderInfo {
	var list []DecoderInfo
	inTable := false
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "---") {
			inTable = true
			continue
		}
		if !inTable || line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		info := DecoderInfo{
			Name:  fields[1],
			Video: fields[0][0] == 'V',
		}
		if len(fields) > 2 {
			info.LongName = strings.Join(fields[2:], " ")
		}
		list = append(list, info)
	}
	return list
}
