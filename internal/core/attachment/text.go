package attachment

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jinford/honyaku/internal/core/oracle"
)

// TextHandler はプレーンテキストを本文まるごと1単位として翻訳する
// Markdown や JSON のような構造化テキストもこの経路で処理する
type TextHandler struct {
	// Force が真のとき、UTF-8 として不正な入力を損失ありで読み込む
	Force bool
}

// NewTextHandler は新しい TextHandler を作成する
func NewTextHandler(force bool) *TextHandler {
	return &TextHandler{Force: force}
}

// Extract は本文全体を1単位として返す
func (h *TextHandler) Extract(src []byte) (*Extraction, error) {
	text, err := h.decode(src)
	if err != nil {
		return nil, err
	}
	return &Extraction{
		Units: []Unit{{Text: text}},
		Reconstruct: func(translated []string) ([]byte, error) {
			if len(translated) != 1 {
				return nil, fmt.Errorf("expected 1 translated unit, got %d", len(translated))
			}
			return []byte(translated[0]), nil
		},
	}, nil
}

// Translate は Handler インターフェースの実装
func (h *TextHandler) Translate(ctx context.Context, job *Job, o oracle.Oracle) (*Result, error) {
	return translateUnits(ctx, h, job, o)
}

// decode は入力を UTF-8 テキストとして読み込む
func (h *TextHandler) decode(src []byte) (string, error) {
	if utf8.Valid(src) {
		return string(src), nil
	}
	if h.Force {
		// 不正なシーケンスは置換文字に落として続行する
		return string([]rune(string(src))), nil
	}
	return "", fmt.Errorf("%w: input is not valid UTF-8", ErrUnreadableInput)
}

var _ Handler = (*TextHandler)(nil)
var _ UnitHandler = (*TextHandler)(nil)
