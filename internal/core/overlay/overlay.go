// Package overlay は OCR で抽出したテキスト領域を翻訳し、
// 番号マーカーとフッター凡例を元画像へ合成するレンダラーを提供する
package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/jinford/honyaku/internal/core/oracle"
)

// ErrRender はオーバーレイ合成段階の失敗を表す
var ErrRender = errors.New("render failed")

// DefaultMinConfidence は OCR 領域を採用する確信度の既定の下限
const DefaultMinConfidence = 0.5

// Region は画像座標系のバウンディングボックス（ピクセル）
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Line は OCR が抽出した1領域
type Line struct {
	Text       string  `json:"text"`
	Region     Region  `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// TextExtractor は外部の OCR エンジン
type TextExtractor interface {
	ExtractLines(ctx context.Context, image []byte) ([]Line, error)
}

// Annotation は合成時の注釈1件
// 同一パス内で translated が等しい注釈は必ず同じ Index を共有し、
// Index は訳文の初出順に 1 から割り当てられる
type Annotation struct {
	Index      int      `json:"index"`
	Original   string   `json:"original"`
	Reading    string   `json:"reading,omitempty"`
	Translated string   `json:"translated"`
	Regions    []Region `json:"regions"`
}

// Request は1枚の画像に対するレンダリング要求
type Request struct {
	// Image は入力画像のバイト列
	Image []byte
	// MIME は入出力画像の MIME（出力は入力と同一フォーマット）
	MIME string
	// Options は翻訳設定
	Options oracle.Options
	// AllowEmpty が真のとき、テキストが見つからない画像は原本をそのまま返す
	AllowEmpty bool
	// Debug が真のとき、合成せずに中間状態の JSON のみを返す
	Debug bool
	// Memo をまたいで共有する翻訳キャッシュ（PDF の複数ページなど）。nil 可
	Memo *oracle.Memo
}

// Result はレンダリング結果
type Result struct {
	Bytes       []byte
	MIME        string
	Annotations []Annotation
	DebugJSON   []byte
	Model       string
}

// Renderer は画像・PDF ハンドラが共有するオーバーレイレンダラー
// 状態遷移は 抽出 → 翻訳 → 重複排除 → 合成 → 書き出し の一方向で、
// どの段階の失敗もジョブ全体の失敗となり中間状態は破棄される
type Renderer struct {
	extractor     TextExtractor
	style         Style
	minConfidence float64
	force         bool
	logger        *slog.Logger
}

// RendererConfig は Renderer の設定
type RendererConfig struct {
	Extractor TextExtractor
	Style     Style
	// MinConfidence 未満の OCR 領域は捨てる（Force 指定時を除く）
	MinConfidence float64
	// Force が真のとき確信度による間引きを行わない
	Force  bool
	Logger *slog.Logger
}

// NewRenderer は新しい Renderer を作成する
func NewRenderer(cfg RendererConfig) *Renderer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minConfidence := cfg.MinConfidence
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Renderer{
		extractor:     cfg.Extractor,
		style:         cfg.Style,
		minConfidence: minConfidence,
		force:         cfg.Force,
		logger:        logger,
	}
}

// Render は1枚の画像を翻訳済みオーバーレイ付き画像へ変換する
func (r *Renderer) Render(ctx context.Context, req Request, o oracle.Oracle) (*Result, error) {
	lines, err := r.extractor.ExtractLines(ctx, req.Image)
	if err != nil {
		return nil, fmt.Errorf("ocr extraction failed: %w", err)
	}

	lines = r.filterLines(lines)
	if len(lines) == 0 {
		if req.AllowEmpty {
			return &Result{Bytes: req.Image, MIME: req.MIME}, nil
		}
		return nil, fmt.Errorf("no text found in image")
	}

	// 読み順（上から下、左から右）で処理する
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Region.Y != lines[j].Region.Y {
			return lines[i].Region.Y < lines[j].Region.Y
		}
		return lines[i].Region.X < lines[j].Region.X
	})

	memo := req.Memo
	if memo == nil {
		memo = oracle.NewMemo(o)
	}

	annotations, err := r.annotate(ctx, lines, req.Options, memo)
	if err != nil {
		return nil, err
	}
	if len(annotations) == 0 {
		if req.AllowEmpty {
			return &Result{Bytes: req.Image, MIME: req.MIME, Model: memo.Model()}, nil
		}
		return nil, fmt.Errorf("no translatable text found in image")
	}

	if req.Debug {
		state := struct {
			Lines       []Line       `json:"lines"`
			Annotations []Annotation `json:"annotations"`
		}{Lines: lines, Annotations: annotations}
		debugJSON, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal debug state: %w", err)
		}
		return &Result{MIME: req.MIME, Annotations: annotations, DebugJSON: debugJSON, Model: memo.Model()}, nil
	}

	out, err := r.composite(req.Image, req.MIME, annotations)
	if err != nil {
		return nil, err
	}
	return &Result{Bytes: out, MIME: req.MIME, Annotations: annotations, Model: memo.Model()}, nil
}

// filterLines は確信度の下限と注釈に値しない行を間引く
func (r *Renderer) filterLines(lines []Line) []Line {
	kept := lines[:0]
	for _, line := range lines {
		if !r.force && line.Confidence < r.minConfidence {
			r.logger.Debug("低確信度の OCR 領域を除外", "text", line.Text, "confidence", line.Confidence)
			continue
		}
		cleaned := collapseWhitespace(line.Text)
		if shouldSkipAnnotation(cleaned) {
			continue
		}
		line.Text = cleaned
		kept = append(kept, line)
	}
	return kept
}

// annotate は各領域を翻訳し、訳文の同一性で番号を割り当てる
// 異なる原文が同じ訳文になれば1つの番号に畳み込まれ、
// 同じ原文が異なる訳文になれば別の番号を得る
func (r *Renderer) annotate(ctx context.Context, lines []Line, opts oracle.Options, memo *oracle.Memo) ([]Annotation, error) {
	indexByTranslated := make(map[string]int)
	var annotations []Annotation

	for _, line := range lines {
		result, err := memo.Translate(ctx, oracle.NewRequest(line.Text, opts))
		if err != nil {
			return nil, err
		}
		translated := strings.TrimSpace(result.Translated)
		if translated == "" {
			continue
		}

		if idx, ok := indexByTranslated[translated]; ok {
			a := &annotations[idx-1]
			a.Regions = append(a.Regions, line.Region)
			continue
		}
		idx := len(indexByTranslated) + 1
		indexByTranslated[translated] = idx
		annotations = append(annotations, Annotation{
			Index:      idx,
			Original:   line.Text,
			Reading:    result.Reading,
			Translated: translated,
			Regions:    []Region{line.Region},
		})
	}
	return annotations, nil
}

// FooterLine は凡例1行の表示文字列を組み立てる
// 読みが空の場合は括弧ごと省略する
func FooterLine(a Annotation) string {
	if a.Reading != "" {
		return fmt.Sprintf("(%d) %s (%s) : %s", a.Index, a.Original, a.Reading, a.Translated)
	}
	return fmt.Sprintf("(%d) %s: %s", a.Index, a.Original, a.Translated)
}

// collapseWhitespace は連続する空白を1つに畳む
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// shouldSkipAnnotation は数値のみ・1文字のみなど注釈に値しない行を判定する
func shouldSkipAnnotation(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if len([]rune(trimmed)) <= 1 {
		return true
	}
	numericOnly := true
	for _, r := range trimmed {
		if !unicode.IsDigit(r) && !unicode.IsPunct(r) && !unicode.IsSpace(r) && r != '%' {
			numericOnly = false
			break
		}
	}
	return numericOnly
}
