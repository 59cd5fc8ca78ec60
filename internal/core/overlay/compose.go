package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Style はオーバーレイの描画設定
type Style struct {
	// TextColor / StrokeColor / FillColor は "#rrggbb" 形式
	TextColor   string
	StrokeColor string
	FillColor   string
	// FontSize はマーカー・フッターの文字サイズ（pt）。0 で既定値
	FontSize float64
	// FontPath は TTF フォントへのパス。空なら内蔵フォントを使う
	FontPath string
}

const (
	defaultFontSize  = 14.0
	footerPadding    = 10
	markerPadding    = 3
	defaultTextColor = "#222222"
	defaultStroke    = "#e53935"
	defaultFill      = "#fff59d"
)

// composite はフッター分だけキャンバスを下へ延長し、
// 各領域へ番号マーカーを、末尾に凡例を描画して元のフォーマットで再符号化する
func (r *Renderer) composite(src []byte, mime string, annotations []Annotation) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrRender, err)
	}

	face, err := loadFace(r.style.FontPath, r.style.fontSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer face.Close()

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	lineHeight := face.Metrics().Height.Ceil()
	footerLines := wrapFooterLines(annotations, face, width-footerPadding*2)
	footerHeight := len(footerLines)*lineHeight + footerPadding*2

	canvas := image.NewRGBA(image.Rect(0, 0, width, height+footerHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, bounds.Sub(bounds.Min), img, bounds.Min, draw.Src)

	textColor := parseHexColor(r.style.TextColor, parseHexColor(defaultTextColor, color.RGBA{A: 0xff}))
	strokeColor := parseHexColor(r.style.StrokeColor, color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff})
	fillColor := parseHexColor(r.style.FillColor, color.RGBA{R: 0xff, G: 0xf5, B: 0x9d, A: 0xff})

	// 領域の枠とマーカー
	for _, a := range annotations {
		label := fmt.Sprintf("(%d)", a.Index)
		for _, region := range a.Regions {
			strokeRect(canvas, region, strokeColor, width, height)
			drawMarker(canvas, region, label, face, textColor, fillColor, width, height)
		}
	}

	// フッター凡例
	y := height + footerPadding + face.Metrics().Ascent.Ceil()
	for _, line := range footerLines {
		drawString(canvas, footerPadding, y, line, face, textColor)
		y += lineHeight
	}

	return encodeImage(canvas, mime)
}

// fontSize は設定値または既定のフォントサイズを返す
func (s Style) fontSize() float64 {
	if s.FontSize > 0 {
		return s.FontSize
	}
	return defaultFontSize
}

// loadFace は TTF を読み込んでフォントフェイスを作る。パスが空なら内蔵の Go フォント
func loadFace(path string, size float64) (font.Face, error) {
	data := goregular.TTF
	if path != "" {
		loaded, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read overlay font %s: %w", path, err)
		}
		data = loaded
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse overlay font: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("failed to build overlay font face: %w", err)
	}
	return face, nil
}

// wrapFooterLines は凡例各行を画面幅に収まるよう折り返す
func wrapFooterLines(annotations []Annotation, face font.Face, maxWidth int) []string {
	var out []string
	for _, a := range annotations {
		out = append(out, wrapString(FooterLine(a), face, maxWidth)...)
	}
	return out
}

// wrapString は表示幅を測りながら貪欲に折り返す
func wrapString(s string, face font.Face, maxWidth int) []string {
	if maxWidth <= 0 || font.MeasureString(face, s).Ceil() <= maxWidth {
		return []string{s}
	}
	var lines []string
	var current strings.Builder
	for _, r := range s {
		candidate := current.String() + string(r)
		if current.Len() > 0 && font.MeasureString(face, candidate).Ceil() > maxWidth {
			lines = append(lines, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// strokeRect は領域の外枠を2px で描く
func strokeRect(dst *image.RGBA, region Region, c color.RGBA, maxW, maxH int) {
	rect := clampRect(region, maxW, maxH)
	uniform := image.NewUniform(c)
	const thickness = 2
	// 上下
	draw.Draw(dst, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thickness), uniform, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(rect.Min.X, rect.Max.Y-thickness, rect.Max.X, rect.Max.Y), uniform, image.Point{}, draw.Src)
	// 左右
	draw.Draw(dst, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thickness, rect.Max.Y), uniform, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(rect.Max.X-thickness, rect.Min.Y, rect.Max.X, rect.Max.Y), uniform, image.Point{}, draw.Src)
}

// drawMarker は領域の左上に番号ラベルを塗り地付きで描く
func drawMarker(dst *image.RGBA, region Region, label string, face font.Face, textColor, fillColor color.RGBA, maxW, maxH int) {
	rect := clampRect(region, maxW, maxH)
	labelW := font.MeasureString(face, label).Ceil() + markerPadding*2
	labelH := face.Metrics().Height.Ceil() + markerPadding*2

	box := image.Rect(rect.Min.X, rect.Min.Y-labelH, rect.Min.X+labelW, rect.Min.Y)
	if box.Min.Y < 0 {
		box = box.Add(image.Point{Y: labelH})
	}
	if box.Max.X > maxW {
		box = box.Add(image.Point{X: maxW - box.Max.X})
	}
	draw.Draw(dst, box, image.NewUniform(fillColor), image.Point{}, draw.Src)
	drawString(dst, box.Min.X+markerPadding, box.Min.Y+markerPadding+face.Metrics().Ascent.Ceil(), label, face, textColor)
}

// drawString は (x, y) をベースラインとして文字列を描画する
func drawString(dst *image.RGBA, x, y int, s string, face font.Face, c color.RGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// clampRect は領域を画像境界内へ収める
func clampRect(region Region, maxW, maxH int) image.Rectangle {
	rect := image.Rect(region.X, region.Y, region.X+region.W, region.Y+region.H)
	return rect.Intersect(image.Rect(0, 0, maxW, maxH))
}

// parseHexColor は "#rrggbb" を解析する。解析できなければ fallback を返す
func parseHexColor(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// CanEncode は mime の形式で合成結果を書き戻せるかどうかを返す
// WebP は復号器しか存在しないため入力と同じ形式を保てない
func CanEncode(mime string) bool {
	switch mime {
	case "image/png", "image/jpeg", "image/gif", "image/tiff", "image/bmp":
		return true
	default:
		return false
	}
}

// encodeImage は MIME に対応するフォーマットで再符号化する
// 入力と同じコンテナ形式を保つため、符号化できない形式はエラーとする
func encodeImage(img image.Image, mime string) ([]byte, error) {
	var format imaging.Format
	switch mime {
	case "image/png":
		format = imaging.PNG
	case "image/jpeg":
		format = imaging.JPEG
	case "image/gif":
		format = imaging.GIF
	case "image/tiff":
		format = imaging.TIFF
	case "image/bmp":
		format = imaging.BMP
	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrRender, mime)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, fmt.Errorf("%w: failed to encode %s: %v", ErrRender, mime, err)
	}
	return buf.Bytes(), nil
}
