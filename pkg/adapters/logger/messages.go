package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Decoding %s (%s, %dx%d)":                           "%s をデコード中 (%s, %dx%d)",
		"Decoded %s: %d frames output, %d dropped in %d ms": "%s のデコード完了: %d フレーム出力, %d フレーム破棄 (%d ms)",
		"Decoded %d of %d files":                            "%d / %d ファイルをデコードしました",
		"Skipping %s: %s":                                   "%s をスキップします: %s",
		"Failed to decode %s: %s":                           "%s のデコードに失敗しました: %s",
		"Failed to read %s: %s":                             "%s の読み込みに失敗しました: %s",
		"Failed to write report for %s: %s":                 "%s のレポート出力に失敗しました: %s",
		"Using %s on %s (%s policy)":                        "%s を %s で使用します (%s ポリシー)",
		"Saved timeline to %s":                              "タイムラインを %s に保存しました",
		"Saved stats to %s":                                 "統計を %s に保存しました",
		"Loading config from %s":                            "%s から設定を読み込み中",
		"Interrupted, shutting down...":                     "中断されました。シャットダウン中...",

		// Session
		"Opened %s session (%s)":                       "%s セッションを開きました (%s)",
		"Closed %s session":                            "%s セッションを閉じました",
		"Created %dx%d context with %d bound surfaces": "%dx%d のコンテキストを作成しました (バインド済みサーフェス %d 個)",
		"Session already has a context, keeping %dx%d": "セッションには既にコンテキストがあります。%dx%d のまま維持します",
		"Failed to query profiles: %s":                 "プロファイルの取得に失敗しました: %s",
		"Failed to destroy config: %s":                 "コンフィグの破棄に失敗しました: %s",
		"Failed to destroy context: %s":                "コンテキストの破棄に失敗しました: %s",

		// Pictures
		"Submitting frame %d to surface %d: %d parameter, %d slice buffers": "フレーム %d をサーフェス %d に送信中: パラメータバッファ %d 個, スライスバッファ %d 個",
		"EndPicture after failed %s also failed: %s":                        "%s の失敗後の EndPicture も失敗しました: %s",
		"Failed to destroy buffer %d: %s":                                   "バッファ %d の破棄に失敗しました: %s",
		"Frame %d freed with %d unsubmitted buffers":                        "フレーム %d は未送信のバッファ %d 個とともに解放されました",
		"Frame %d has %d missing references":                                "フレーム %d に欠落した参照が %d 個あります",
		"Failed to save debug buffer: %s":                                   "デバッグバッファの保存に失敗しました: %s",

		// Negotiation
		"Format changed to %s":                       "フォーマットが %s に変わりました",
		"Negotiated %s output %dx%d":                 "%s 出力 %dx%d でネゴシエートしました",
		"Resolution changed in place to %dx%d":       "解像度をその場で %dx%d に変更しました",
		"Resolution %dx%d exceeds the %dx%d context": "解像度 %dx%d は %dx%d のコンテキストを超えています",
		"Allocated %d surfaces of %dx%d":             "%dx%d のサーフェスを %d 個確保しました",
		"Failed to destroy surface pool: %s":         "サーフェスプールの破棄に失敗しました: %s",

		// Stream
		"Dropped frame %d in %s: %s":                     "フレーム %d を %s で破棄しました: %s",
		"Stream failed at frame %d in %s: %s":            "フレーム %d の %s でストリームが失敗しました: %s",
		"Frame %d has no decoded picture, leaving a gap": "フレーム %d にはデコード済みピクチャがありません。欠番になります",
		"Flushing %d stored pictures":                    "保持中のピクチャ %d 個を破棄します",

		// MP4 source
		"Scaling matrices are not extracted, decoding with flat matrices": "スケーリング行列は抽出されません。フラット行列でデコードします",
		"Explicit weighted prediction tables are not extracted":           "明示的な重み付き予測テーブルは抽出されません",
	})
}
