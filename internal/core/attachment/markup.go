package attachment

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jinford/honyaku/internal/core/oracle"
)

// MarkupHandler はコメントを持つマークアップ（HTML / XML / YAML）を翻訳する
// WithComments が偽のときは本文全体を1単位として扱い、
// 真のときはコメント区間のみを翻訳単位とし、それ以外のバイトを
// 一切変更せずに出力へ書き戻す
type MarkupHandler struct {
	WithComments bool
}

// NewMarkupHandler は新しい MarkupHandler を作成する
func NewMarkupHandler(withComments bool) *MarkupHandler {
	return &MarkupHandler{WithComments: withComments}
}

// span は原文バイト列中の翻訳対象区間
type span struct {
	start int
	end   int
	text  string
}

// Translate は Handler インターフェースの実装
func (h *MarkupHandler) Translate(ctx context.Context, job *Job, o oracle.Oracle) (*Result, error) {
	return translateUnits(ctx, &markupExtractor{
		withComments: h.WithComments,
		hashComments: job.MIME == MimeYAML,
	}, job, o)
}

// markupExtractor は MIME で決まるコメント規則を UnitHandler に適合させる
type markupExtractor struct {
	withComments bool
	// hashComments が真のとき `#` 行コメントも翻訳対象に含める（YAML のみ）
	hashComments bool
}

// Extract は翻訳単位を切り出す
func (e *markupExtractor) Extract(src []byte) (*Extraction, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%w: markup input is not valid UTF-8", ErrUnreadableInput)
	}
	body := string(src)

	if !e.withComments {
		return &Extraction{
			Units: []Unit{{Text: body}},
			Reconstruct: func(translated []string) ([]byte, error) {
				if len(translated) != 1 {
					return nil, fmt.Errorf("expected 1 translated unit, got %d", len(translated))
				}
				return []byte(translated[0]), nil
			},
		}, nil
	}

	spans := commentSpans(body, e.hashComments)
	units := make([]Unit, len(spans))
	for i, s := range spans {
		units[i] = Unit{Text: s.text}
	}
	return &Extraction{
		Units: units,
		Reconstruct: func(translated []string) ([]byte, error) {
			if len(translated) != len(spans) {
				return nil, fmt.Errorf("expected %d translated units, got %d", len(spans), len(translated))
			}
			var out strings.Builder
			out.Grow(len(body))
			prev := 0
			for i, s := range spans {
				out.WriteString(body[prev:s.start])
				out.WriteString(translated[i])
				prev = s.end
			}
			out.WriteString(body[prev:])
			return []byte(out.String()), nil
		},
	}, nil
}

// commentSpans はコメント本文の区間を先頭から順に列挙する
// `<!-- -->` 形式は常に対象とし、`#` 行コメントは hash が真のときのみ対象とする
func commentSpans(body string, hash bool) []span {
	var spans []span
	i := 0
	for i < len(body) {
		if strings.HasPrefix(body[i:], "<!--") {
			start := i + len("<!--")
			rel := strings.Index(body[start:], "-->")
			if rel < 0 {
				break
			}
			end := start + rel
			if text := strings.TrimSpace(body[start:end]); text != "" {
				s, e := trimSpanSpace(body, start, end)
				spans = append(spans, span{start: s, end: e, text: text})
			}
			i = end + len("-->")
			continue
		}
		if hash && body[i] == '#' && isHashComment(body, i) {
			start := i + 1
			end := start
			for end < len(body) && body[end] != '\n' {
				end++
			}
			if text := strings.TrimSpace(body[start:end]); text != "" {
				s, e := trimSpanSpace(body, start, end)
				spans = append(spans, span{start: s, end: e, text: text})
			}
			i = end
			continue
		}
		i++
	}
	return spans
}

// isHashComment は `#` が行コメントの開始かどうかを判定する
// 行頭、または直前が空白の場合のみコメントとみなす
func isHashComment(body string, i int) bool {
	if i == 0 {
		return true
	}
	prev := body[i-1]
	return prev == ' ' || prev == '\t' || prev == '\n' || prev == '\r'
}

// trimSpanSpace は区間の前後の空白を除いた開始・終了位置を返す
func trimSpanSpace(body string, start, end int) (int, int) {
	for start < end && (body[start] == ' ' || body[start] == '\t') {
		start++
	}
	for end > start && (body[end-1] == ' ' || body[end-1] == '\t') {
		end--
	}
	return start, end
}

var _ Handler = (*MarkupHandler)(nil)
var _ UnitHandler = (*markupExtractor)(nil)
