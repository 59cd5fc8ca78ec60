// Package pdfrender は MuPDF (go-fitz) を使用した PDF のラスタ化を提供する
package pdfrender

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/jinford/honyaku/internal/core/attachment"
)

// Rasterizer は PDF をページ単位の PNG 画像に変換する
type Rasterizer struct{}

// NewRasterizer は新しい Rasterizer を作成する
func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

// RenderPages は attachment.PageRenderer インターフェースの実装
func (r *Rasterizer) RenderPages(ctx context.Context, pdf []byte, dpi int) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	pages := make([][]byte, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		pages = append(pages, buf.Bytes())
	}
	return pages, nil
}

// インターフェース実装の確認
var _ attachment.PageRenderer = (*Rasterizer)(nil)
