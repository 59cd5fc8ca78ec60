// Package ocr は Tesseract CLI を使用したテキスト領域抽出を提供する
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jinford/honyaku/internal/core/overlay"
)

const (
	// DefaultLanguages は Tesseract に渡す既定の言語セット
	DefaultLanguages = "jpn+eng"

	// tsvColumnCount は Tesseract TSV 出力の列数
	tsvColumnCount = 12

	// wordLevel は TSV の単語行を示すレベル値
	wordLevel = 5
)

// ErrTesseractNotFound は tesseract コマンドが見つからない場合のエラー
var ErrTesseractNotFound = errors.New("tesseract command not found: please install tesseract-ocr")

// Tesseract は tesseract コマンドを子プロセスとして呼び出す TextExtractor 実装
type Tesseract struct {
	languages string
	// binary はテストで差し替えるためのコマンド名
	binary string
}

// NewTesseract は新しい Tesseract を作成する
// languages が空の場合は既定の言語セットを使用する
func NewTesseract(languages string) *Tesseract {
	if languages == "" {
		languages = DefaultLanguages
	}
	return &Tesseract{languages: languages, binary: "tesseract"}
}

// ExtractLines は overlay.TextExtractor インターフェースの実装
// 画像を標準入力で渡し、TSV 出力の単語を行単位にまとめて返す
func (t *Tesseract) ExtractLines(ctx context.Context, image []byte) ([]overlay.Line, error) {
	if _, err := exec.LookPath(t.binary); err != nil {
		return nil, ErrTesseractNotFound
	}

	cmd := exec.CommandContext(ctx, t.binary, "stdin", "stdout", "tsv", "-l", t.languages)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseTSV(stdout.String())
}

// tsvWord は TSV の単語1行分
type tsvWord struct {
	blockNum int
	parNum   int
	lineNum  int
	left     int
	top      int
	width    int
	height   int
	conf     float64
	text     string
}

// parseTSV は Tesseract の TSV 出力を行単位の overlay.Line に変換する
// 同じ (block, par, line) に属する単語を1行にまとめ、信頼度は単語の平均とする
func parseTSV(out string) ([]overlay.Line, error) {
	type lineKey struct{ block, par, line int }

	var order []lineKey
	grouped := make(map[lineKey][]tsvWord)

	for i, row := range strings.Split(out, "\n") {
		if i == 0 || strings.TrimSpace(row) == "" {
			// ヘッダ行と空行をスキップ
			continue
		}
		cols := strings.Split(row, "\t")
		if len(cols) < tsvColumnCount {
			continue
		}

		level, err := strconv.Atoi(cols[0])
		if err != nil || level != wordLevel {
			continue
		}

		word, ok := parseWord(cols)
		if !ok {
			continue
		}

		key := lineKey{block: word.blockNum, par: word.parNum, line: word.lineNum}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], word)
	}

	lines := make([]overlay.Line, 0, len(order))
	for _, key := range order {
		words := grouped[key]

		var texts []string
		var confSum float64
		region := overlay.Region{X: words[0].left, Y: words[0].top, W: words[0].width, H: words[0].height}
		for i, w := range words {
			texts = append(texts, w.text)
			confSum += w.conf
			if i > 0 {
				region = unionRegion(region, overlay.Region{X: w.left, Y: w.top, W: w.width, H: w.height})
			}
		}

		lines = append(lines, overlay.Line{
			Text:       strings.Join(texts, " "),
			Region:     region,
			Confidence: confSum / float64(len(words)) / 100,
		})
	}
	return lines, nil
}

// parseWord は TSV の1行を tsvWord に変換する
// 信頼度 -1（非テキスト領域）や空テキストの行は対象外
func parseWord(cols []string) (tsvWord, bool) {
	text := strings.TrimSpace(cols[11])
	if text == "" {
		return tsvWord{}, false
	}

	conf, err := strconv.ParseFloat(cols[10], 64)
	if err != nil || conf < 0 {
		return tsvWord{}, false
	}

	ints := make([]int, 7)
	for i, col := range []string{cols[2], cols[3], cols[4], cols[6], cols[7], cols[8], cols[9]} {
		v, err := strconv.Atoi(col)
		if err != nil {
			return tsvWord{}, false
		}
		ints[i] = v
	}

	return tsvWord{
		blockNum: ints[0],
		parNum:   ints[1],
		lineNum:  ints[2],
		left:     ints[3],
		top:      ints[4],
		width:    ints[5],
		height:   ints[6],
		conf:     conf,
		text:     text,
	}, true
}

// unionRegion は2つの矩形を内包する最小の矩形を返す
func unionRegion(a, b overlay.Region) overlay.Region {
	x1 := min(a.X, b.X)
	y1 := min(a.Y, b.Y)
	x2 := max(a.X+a.W, b.X+b.W)
	y2 := max(a.Y+a.H, b.Y+b.H)
	return overlay.Region{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// インターフェース実装の確認
var _ overlay.TextExtractor = (*Tesseract)(nil)
