// Package main provides localization for the vadecode CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Device":        "デバイス",
		"Decoding":      "デコード",
		"Output":        "出力先",
		"Debug":         "デバッグ",
		"Logging":       "ログ",

		// Root command
		"Decode video with VA-API hardware acceleration":                                "VA-APIハードウェアアクセラレーションで動画をデコード",
		"vadecode demuxes MP4 files and decodes their video tracks on a VA-API device.": "vadecodeはMP4ファイルを分離し、映像トラックをVA-APIデバイスでデコードします。",

		// Decode command
		"Decode the video track of MP4 files":                                              "MP4ファイルの映像トラックをデコード",
		"Decode the H.264 video track of each MP4 file and report the decoding statistics.": "各MP4ファイルのH.264映像トラックをデコードし、デコード統計を出力します。",

		// Probe command
		"Show the video codec of MP4 files":                                     "MP4ファイルの映像コーデックを表示",
		"Detect the codec and format of the first video track of each MP4 file.": "各MP4ファイルの最初の映像トラックのコーデックと形式を検出します。",
		"Print JSON instead of a table":                                         "表の代わりにJSONを出力",

		// Devices command
		"List the decoders of each device":                                "各デバイスのデコーダーを一覧表示",
		"Open every render node and list the decoders registered for it.": "全てのレンダーノードを開き、登録されたデコーダーを一覧表示します。",

		// Common flags
		"Path to a YAML config file":                   "YAML設定ファイルのパス",
		"Accelerator backend (vaapi, nullaccel)":       "アクセラレーターのバックエンド（vaapi, nullaccel）",
		"Render node path (default: first usable node)": "レンダーノードのパス（デフォルト: 最初に使用可能なノード）",
		"Override the detected driver (intel-ihd, mesa-gallium, intel-i965, other)": "検出されたドライバーを上書き（intel-ihd, mesa-gallium, intel-i965, other）",

		// Decoding flags
		"Missing reference policy (invalid, current, fail)": "欠落した参照の扱い（invalid, current, fail）",
		"Bind a fixed surface pool at context creation":     "コンテキスト作成時に固定サーフェスプールを割り当て",
		"Surfaces allocated beyond the reference window":    "参照ウィンドウを超えて確保するサーフェス数",
		"Number of files decoded at once (0 = CPU count)":   "同時にデコードするファイル数（0 = CPU数）",
		"Stop after the first failed file":                  "最初の失敗で停止",

		// Output flags
		"Directory for stats and timeline files": "統計とタイムラインの出力ディレクトリ",
		"Render a decode order timeline PNG":     "デコード順のタイムラインPNGを出力",

		// Debug flags
		"Enable debug output":        "デバッグ出力を有効化",
		"Directory for debug output": "デバッグ出力のディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Table headers
		"FILE\tDECODER\tDECODED\tDROPPED\tOUTPUT\tDUPLICATED\tSTATUS": "ファイル\tデコーダー\tデコード\tドロップ\t出力\t重複\t状態",
		"FILE\tCODEC\tENTRY\tSIZE\tTIMESCALE\tFRAGMENTED":            "ファイル\tコーデック\tエントリ\tサイズ\tタイムスケール\tフラグメント",
		"DECODER\tCODEC\tDEVICE\tVENDOR\tPRIORITY":                    "デコーダー\tコーデック\tデバイス\tベンダー\t優先度",

		// Status
		"ok":      "成功",
		"skipped": "スキップ",
		"failed":  "失敗",

		// Error messages
		"At least one file argument is required": "ファイル引数が少なくとも1つ必要です",

		// Summary output flag
		"Output execution summary to file (Markdown format)": "実行サマリーをファイルに出力（Markdown形式）",
		"Summary saved to %s":                                "サマリーを %s に保存しました",
		"Failed to write summary: %s":                        "サマリーの書き込みに失敗しました: %s",

		// Summary content
		"Decode Summary":    "デコードサマリー",
		"Generated":         "生成日時",
		"Total Duration":    "合計時間",
		"Settings":          "設定",
		"Results":           "実行結果",
		"Errors":            "エラー",
		"Item":              "項目",
		"Value":             "値",
		"No files decoded.": "デコードしたファイルはありません。",

		// Settings section
		"Backend":                  "バックエンド",
		"Driver":                   "ドライバー",
		"Missing Reference Policy": "欠落参照の扱い",
		"Surface Pool":             "サーフェスプール",
		"Static":                   "固定",
		"Dynamic":                  "動的",
		"Extra Surfaces":           "追加サーフェス",
		"Workers":                  "並列数",
		"CPU count":                "CPU数",
		"None":                     "なし",

		// Results section
		"File":       "ファイル",
		"Codec":      "コーデック",
		"Size":       "サイズ",
		"Decoder":    "デコーダー",
		"Decoded":    "デコード",
		"Dropped":    "ドロップ",
		"Duplicated": "重複",
		"Time":       "時間",
		"Status":     "状態",
		"Total":      "合計",

		"Generated by": "生成:",
	})
}
