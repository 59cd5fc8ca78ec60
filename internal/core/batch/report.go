package batch

import "fmt"

// Outcome は1タスクの結末
type Outcome int

const (
	// OutcomeTranslated は翻訳して出力したことを表す
	OutcomeTranslated Outcome = iota
	// OutcomeCopied は翻訳対象外のファイルの原本を出力ツリーへ複製したことを表す
	OutcomeCopied
	// OutcomeSkipped は翻訳対象外のファイルを複製せずに見送ったことを表す（上書きモード）
	OutcomeSkipped
	// OutcomeFailed は翻訳に失敗したことを表す
	// 出力ツリーが入力と別の場所にある場合は原本を複製済み
	OutcomeFailed
)

// String は Outcome の文字列表現を返す
func (o Outcome) String() string {
	switch o {
	case OutcomeTranslated:
		return "translated"
	case OutcomeCopied:
		return "copied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TaskResult は1ファイル分の処理結果
type TaskResult struct {
	// RelPath は入力ルートからの相対パス
	RelPath string
	// Outcome は処理の結末
	Outcome Outcome
	// OutputPath は出力先の絶対パス（出力が生成された場合のみ）
	OutputPath string
	// Err は失敗時のエラー
	Err error
}

// Report は一括翻訳全体の結果
// すべてのタスクの結果を入力順に保持する
type Report struct {
	Results []TaskResult
}

// Count は指定した結末のタスク数を返す
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Failed は1件でも失敗があったかどうかを返す
func (r *Report) Failed() bool {
	return r.Count(OutcomeFailed) > 0
}

// Summary は人間向けの要約行を返す
func (r *Report) Summary() string {
	return fmt.Sprintf("files: %d translated, %d copied, %d skipped, %d failed (total %d)",
		r.Count(OutcomeTranslated),
		r.Count(OutcomeCopied),
		r.Count(OutcomeSkipped),
		r.Count(OutcomeFailed),
		len(r.Results),
	)
}
