// Package main provides localization for the mediaplay CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Source":      "入力",
		"Decoding":    "デコード",
		"Run control": "再生制御",
		"Output":      "出力先",
		"Logging":     "ログ",

		// Root command
		"Decode a video source and deliver timed frames": "動画ソースをデコードし、タイミングに合わせてフレームを出力",
		"mediaplay opens a file, network stream or capture device, decodes its video at the stream's frame rate and hands converted frames to a sink.": "mediaplayはファイル、ネットワークストリーム、キャプチャデバイスを開き、ストリームのフレームレートで映像をデコードして変換済みフレームを出力先に渡します。",

		// Commands
		"Play a source until it ends or is interrupted": "終了または中断までソースを再生",
		"Open a source and print its stream details":    "ソースを開いてストリーム情報を表示",
		"List the video decoders of an engine":          "エンジンの映像デコーダーを一覧表示",
		"List the capture devices of an engine":         "エンジンのキャプチャデバイスを一覧表示",
		"Write a Y4M test pattern":                      "Y4Mテストパターンを書き出す",
		"Show version information":                      "バージョン情報を表示",
		"mediaplay version %s":                          "mediaplay バージョン %s",

		// Source flags
		"YAML configuration file": "YAML設定ファイル",
		"Source type (file, network, capture); guessed from the URL when omitted": "ソース種別（file, network, capture）。省略時はURLから推定",

		// Decoding flags
		"Prefer a hardware decoder":                                  "ハードウェアデコーダーを優先",
		"Decode engine (native, libav)":                              "デコードエンジン（native, libav）",
		"Hardware decoder name suffix to try, in order (repeatable)": "試行するハードウェアデコーダー名の接尾辞（順番に、複数指定可）",
		"Frame rate used when the stream reports none":               "ストリームにフレームレートがない場合に使用する値",
		"Path to the ffmpeg binary used by the native engine":        "nativeエンジンが使用するffmpegのパス",
		"Do not flush delayed pictures at the end of input":          "入力終了時に遅延フレームを出力しない",

		// Run control flags
		"Seek to this position in milliseconds before playing": "再生前にこの位置（ミリ秒）へシーク",
		"Stop after this many frames (0 = no limit)":           "このフレーム数で停止（0 = 無制限）",

		// Output flags
		"Frame sink (null, raw, snapshot)":                        "フレーム出力先（null, raw, snapshot）",
		"Raw output file or snapshot directory":                   "rawの出力ファイルまたはスナップショットのディレクトリ",
		"Save one snapshot every N frames":                        "Nフレームごとにスナップショットを保存",
		"Draw timestamp and frame rate on snapshots":              "スナップショットにタイムスタンプとフレームレートを描画",
		"Write the playback summary to a file (Markdown for .md)": "再生サマリーをファイルに出力（.mdはMarkdown）",

		// Logging flags
		"Log level (debug, info, warn, error)":  "ログレベル（debug, info, warn, error）",
		"Suppress all log output":               "全てのログ出力を抑制",
		"Prefix log lines with the time of day": "ログ行の先頭に時刻を付ける",

		// Generate flags
		"Frame width":      "フレーム幅",
		"Frame height":     "フレーム高さ",
		"Frame rate":       "フレームレート",
		"Number of frames": "フレーム数",

		// Runtime messages
		"Wrote %d frames to %s":       "%d フレームを %s に書き出しました",
		"an output path is required":  "出力パスが必要です",
		"No %s capture devices found": "%s のキャプチャデバイスが見つかりません",
		"Error: %v":                   "エラー: %v",

		// Probe output
		"Input":        "入力URL",
		"Format":       "フォーマット",
		"Video stream": "映像ストリーム",
		"Decoder":      "デコーダー",
		"Time base":    "タイムベース",
		"Duration":     "長さ",
		"Audio stream": "音声ストリーム",
		"Subtitles":    "字幕",
		"hardware":     "ハードウェア",
		"fallback":     "代替値",
	})
}
