package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = `level	page_num	block_num	par_num	line_num	word_num	left	top	width	height	conf	text
1	1	0	0	0	0	0	0	640	480	-1
2	1	1	0	0	0	10	10	200	30	-1
3	1	1	1	0	0	10	10	200	30	-1
4	1	1	1	1	0	10	10	200	14	-1
5	1	1	1	1	1	10	10	60	14	96.5	Hello
5	1	1	1	1	2	80	10	70	14	91.2	World
4	1	1	1	2	0	10	40	100	14	-1
5	1	1	1	2	1	10	40	100	14	33.0	noisy
5	1	2	1	1	1	10	100	80	16	88.0	Second
`

func TestParseTSV(t *testing.T) {
	lines, err := parseTSV(sampleTSV)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	// 同じ行の単語は1行にまとまり、領域は外接矩形になる
	first := lines[0]
	assert.Equal(t, "Hello World", first.Text)
	assert.Equal(t, 10, first.Region.X)
	assert.Equal(t, 10, first.Region.Y)
	assert.Equal(t, 140, first.Region.W)
	assert.Equal(t, 14, first.Region.H)
	// 信頼度は単語の平均を 0..1 に正規化
	assert.InDelta(t, 0.9385, first.Confidence, 0.0001)

	assert.Equal(t, "noisy", lines[1].Text)
	assert.InDelta(t, 0.33, lines[1].Confidence, 0.0001)

	// 別ブロックの同じ line_num は別の行になる
	assert.Equal(t, "Second", lines[2].Text)
}

func TestParseTSV_SkipsNonWordRows(t *testing.T) {
	lines, err := parseTSV("level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestParseTSV_SkipsNegativeConfidence(t *testing.T) {
	tsv := "header\n5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t-1\tghost\n"
	lines, err := parseTSV(tsv)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestNewTesseract_DefaultLanguages(t *testing.T) {
	tess := NewTesseract("")
	assert.Equal(t, DefaultLanguages, tess.languages)
}
