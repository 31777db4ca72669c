// Package main provides the CLI entry point for mediaplay.
package main

import (
	"fmt"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "mediaplay",
		Usage:   l10n.T("Decode a video source and deliver timed frames"),
		Version: version,
		Description: l10n.T("mediaplay opens a file, network stream or capture device, decodes its video " +
			"at the stream's frame rate and hands converted frames to a sink."),
		Commands: []*cli.Command{
			playCommand(),
			probeCommand(),
			decodersCommand(),
			devicesCommand(),
			generateCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("mediaplay version %s", version))
					return nil
				},
			},
		},
	}
}

// engineFlags are shared by every command that opens the engine.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    l10n.T("YAML configuration file"),
			Category: l10n.T("Source"),
		},
		&cli.StringFlag{
			Name:     "type",
			Aliases:  []string{"t"},
			Usage:    l10n.T("Source type (file, network, capture); guessed from the URL when omitted"),
			Category: l10n.T("Source"),
		},
		&cli.BoolFlag{
			Name:     "hw",
			Usage:    l10n.T("Prefer a hardware decoder"),
			Category: l10n.T("Decoding"),
		},
		&cli.StringFlag{
			Name:     "engine",
			Aliases:  []string{"e"},
			Usage:    l10n.T("Decode engine (native, libav)"),
			Category: l10n.T("Decoding"),
		},
		&cli.StringSliceFlag{
			Name:     "hw-suffix",
			Usage:    l10n.T("Hardware decoder name suffix to try, in order (repeatable)"),
			Category: l10n.T("Decoding"),
		},
		&cli.IntFlag{
			Name:     "fallback-fps",
			Usage:    l10n.T("Frame rate used when the stream reports none"),
			Category: l10n.T("Decoding"),
		},
		&cli.StringFlag{
			Name:     "ffmpeg",
			Usage:    l10n.T("Path to the ffmpeg binary used by the native engine"),
			Category: l10n.T("Decoding"),
		},
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: l10n.T("Logging"),
		},
		&cli.BoolFlag{
			Name:     "timestamps",
			Usage:    l10n.T("Prefix log lines with the time of day"),
			Category: l10n.T("Logging"),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T("Logging"),
		},
	}
}

func playCommand() *cli.Command {
	flags := append(engineFlags(),
		&cli.BoolFlag{
			Name:     "no-drain",
			Usage:    l10n.T("Do not flush delayed pictures at the end of input"),
			Category: l10n.T("Decoding"),
		},
		&cli.Int64Flag{
			Name:     "start",
			Aliases:  []string{"s"},
			Usage:    l10n.T("Seek to this position in milliseconds before playing"),
			Category: l10n.T("Run control"),
		},
		&cli.Int64Flag{
			Name:     "max-frames",
			Aliases:  []string{"n"},
			Usage:    l10n.T("Stop after this many frames (0 = no limit)"),
			Category: l10n.T("Run control"),
		},
		&cli.StringFlag{
			Name:     "sink",
			Usage:    l10n.T("Frame sink (null, raw, snapshot)"),
			Category: l10n.T("Output"),
		},
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    l10n.T("Raw output file or snapshot directory"),
			Category: l10n.T("Output"),
		},
		&cli.IntFlag{
			Name:     "every",
			Usage:    l10n.T("Save one snapshot every N frames"),
			Category: l10n.T("Output"),
		},
		&cli.BoolFlag{
			Name:     "overlay",
			Usage:    l10n.T("Draw timestamp and frame rate on snapshots"),
			Category: l10n.T("Output"),
		},
		&cli.StringFlag{
			Name:     "summary",
			Usage:    l10n.T("Write the playback summary to a file (Markdown for .md)"),
			Category: l10n.T("Output"),
		},
	)
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play a source until it ends or is interrupted"),
		ArgsUsage: "<source>",
		Flags:     flags,
		Action:    runPlay,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Open a source and print its stream details"),
		ArgsUsage: "<source>",
		Flags:     engineFlags(),
		Action:    runProbe,
	}
}

func decodersCommand() *cli.Command {
	return &cli.Command{
		Name:   "decoders",
		Usage:  l10n.T("List the video decoders of an engine"),
		Flags:  engineFlags(),
		Action: runDecoders,
	}
}

func devicesCommand() *cli.Command {
	return &cli.Command{
		Name:   "devices",
		Usage:  l10n.T("List the capture devices of an engine"),
		Flags:  engineFlags(),
		Action: runDevices,
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     l10n.T("Write a Y4M test pattern"),
		ArgsUsage: "<output.y4m>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Value: 320, Usage: l10n.T("Frame width")},
			&cli.IntFlag{Name: "height", Value: 240, Usage: l10n.T("Frame height")},
			&cli.IntFlag{Name: "fps", Value: 25, Usage: l10n.T("Frame rate")},
			&cli.IntFlag{Name: "frames", Value: 100, Usage: l10n.T("Number of frames")},
		},
		Action: runGenerate,
	}
}
