package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Run level messages (info)
		"Seeking to %s":                        "%s へシーク中",
		"Decoded %d frames (%.1f fps)":         "%d フレームをデコード (%.1f fps)",
		"Played %d frames in %.1fs (%.1f fps)": "%d フレームを %.1f 秒で再生しました (%.1f fps)",
		"Frame limit %d reached":               "フレーム上限 %d に達しました",
		"Interrupted after %d frames":          "%d フレームで中断されました",
		"Interrupted, shutting down...":        "中断されました。シャットダウン中...",
		"Summary saved to %s":                  "サマリーを %s に保存しました",
		"Failed to write summary: %v":          "サマリーの書き込みに失敗しました: %v",

		// Player
		"Playing %s at %d fps (%s)":                            "%s を %d fps で再生中 (%s)",
		"End of stream after %d frames":                        "%d フレームでストリームが終了しました",
		"Stream reports no frame rate, pacing at %d fps":       "ストリームにフレームレートがないため %d fps で再生します",
		"No hardware decoder for %s, falling back to software": "%s のハードウェアデコーダーがないため、ソフトウェアデコードに切り替えます",
		"Frame sink failed: %v":                                "フレーム出力に失敗しました: %v",
		"Failed to release %s: %v":                             "%s の解放に失敗しました: %v",

		// Player details (debug)
		"Opening input %s": "入力 %s を開いています",
		"Opening %s as %s": "%s を %s として開いています",
		"Streams: %d total, video=%d audio=%d subtitle=%d": "ストリーム: 合計 %d, 映像=%d 音声=%d 字幕=%d",
		"Decoder %s (%s)":                                  "デコーダー %s (%s)",
		"Converting %dx%d %s to %dx%d %s":                  "%dx%d %s を %dx%d %s に変換",
		"Seek to %dms (ts=%d)":                             "%dms へシーク (ts=%d)",
		"Stopping after %d frames":                         "%d フレームで停止します",
		"Hardware decoder %s not found":                    "ハードウェアデコーダー %s が見つかりません",
		"Input ended: %v":                                  "入力が終了しました: %v",
		"Drain refused: %v":                                "ドレインが拒否されました: %v",
		"Decoder output changed to %dx%d %s":               "デコーダー出力が %dx%d %s に変わりました",

		// Errors
		"Failed to start %s: %v": "%s の開始に失敗しました: %v",
		"Failed to seek: %v":     "シークに失敗しました: %v",
		"Decoding failed: %v":    "デコードに失敗しました: %v",

		// Engines
		"Failed to list ffmpeg decoders: %v":         "ffmpeg のデコーダー一覧の取得に失敗しました: %v",
		"ffmpeg at %s provides %d pipeable decoders": "%s の ffmpeg はパイプ入力可能なデコーダーを %d 個提供します",
		"ffmpeg not available: %v":                   "ffmpeg が利用できません: %v",
		"Opened %s as %s":                            "%s を %s として開きました",
		"Capture device %s (%s)":                     "キャプチャデバイス %s (%s)",
		"No %s device list: %v":                      "%s のデバイス一覧を取得できません: %v",
	})
}
