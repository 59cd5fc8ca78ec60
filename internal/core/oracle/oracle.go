package oracle

import "context"

// Request は翻訳オラクルへの1回の呼び出しを表す
type Request struct {
	// Text は翻訳対象のテキスト
	Text string
	// SourceLang は原文の言語コード（"auto" で自動判定）
	SourceLang string
	// TargetLang は訳文の言語コード
	TargetLang string
	// Style は文体の指定（"formal" / "casual" など）
	Style string
	// Slang はスラングの訳出を許可するかどうか
	Slang bool
}

// Result は翻訳オラクルからの応答
type Result struct {
	// Translated は訳文
	Translated string
	// Reading は非ラテン文字原文に対するラテン文字の読み（表示専用）
	Reading string
	// Alternatives は別訳の候補
	Alternatives []string
	// Correction は原文の誤りに対する訂正提案
	Correction string
	// Model は実際に使用されたモデル名
	Model string
}

// Oracle は外部の翻訳サービスを呼び出す
// エラーはそのまま呼び出し元へ伝搬する（リトライしない）
type Oracle interface {
	Translate(ctx context.Context, req Request) (*Result, error)
}

// Options は1ジョブ分の翻訳設定
type Options struct {
	SourceLang string
	TargetLang string
	Style      string
	Slang      bool
}

// NewRequest は Options からテキストに対するリクエストを組み立てる
func NewRequest(text string, opts Options) Request {
	return Request{
		Text:       text,
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
		Style:      opts.Style,
		Slang:      opts.Slang,
	}
}
