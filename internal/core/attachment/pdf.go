package attachment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"

	"github.com/jinford/honyaku/internal/core/oracle"
	"github.com/jinford/honyaku/internal/core/overlay"
)

const (
	// defaultRenderDPI は PDF ページをラスタ化する際の解像度
	defaultRenderDPI = 200
)

// PageRenderer は PDF の各ページをラスタ画像へ変換する
type PageRenderer interface {
	// RenderPages は各ページを PNG 画像として返す
	RenderPages(ctx context.Context, pdf []byte, dpi int) ([][]byte, error)
}

// PDFHandler は PDF をページ単位でラスタ化し、各ページにオーバーレイを
// 適用したうえで新しい PDF に再構成する
type PDFHandler struct {
	pages    PageRenderer
	renderer *overlay.Renderer
	dpi      int
	// Debug が真のとき再構成を行わず全ページの中間状態を JSON で出力する
	Debug bool
}

// NewPDFHandler は新しい PDFHandler を作成する
// dpi が 0 以下の場合はデフォルト値を使用する
func NewPDFHandler(pages PageRenderer, renderer *overlay.Renderer, dpi int, debug bool) *PDFHandler {
	if dpi <= 0 {
		dpi = defaultRenderDPI
	}
	return &PDFHandler{pages: pages, renderer: renderer, dpi: dpi, Debug: debug}
}

// Translate は Handler インターフェースの実装
// 翻訳メモはページ間で共有されるため、同一テキストの再翻訳は発生しない
// 注釈番号は Render の仕様によりページごとに 1 から振り直される
func (h *PDFHandler) Translate(ctx context.Context, job *Job, o oracle.Oracle) (*Result, error) {
	pages, err := h.pages.RenderPages(ctx, job.Data, h.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize pdf: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	memo := oracle.NewMemo(o)

	var (
		rendered  [][]byte
		debugDocs []json.RawMessage
		model     string
	)
	for i, page := range pages {
		res, err := h.renderer.Render(ctx, overlay.Request{
			Image:      page,
			MIME:       MimePNG,
			Options:    job.Options,
			AllowEmpty: true,
			Debug:      h.Debug,
			Memo:       memo,
		}, o)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		if res.Model != "" {
			model = res.Model
		}
		if h.Debug {
			doc := res.DebugJSON
			if len(doc) == 0 {
				doc = []byte("null")
			}
			debugDocs = append(debugDocs, json.RawMessage(doc))
			continue
		}
		rendered = append(rendered, res.Bytes)
	}

	if h.Debug {
		data, err := json.MarshalIndent(debugDocs, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal debug output: %w", err)
		}
		return &Result{Bytes: data, MIME: MimeJSON, Model: model}, nil
	}

	out, err := h.assemble(rendered)
	if err != nil {
		return nil, err
	}
	return &Result{Bytes: out, MIME: MimePDF, Model: model}, nil
}

// assemble はレンダリング済みのページ画像から PDF を組み立てる
// ページサイズはピクセル寸法を DPI でポイントに換算して決定する
func (h *PDFHandler) assemble(pages [][]byte) ([]byte, error) {
	doc := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt"})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	for i, page := range pages {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(page))
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d image: %w", i+1, err)
		}
		w := float64(cfg.Width) * 72 / float64(h.dpi)
		ht := float64(cfg.Height) * 72 / float64(h.dpi)

		orientation := "P"
		if w > ht {
			orientation = "L"
		}
		doc.AddPageFormat(orientation, gofpdf.SizeType{Wd: w, Ht: ht})

		name := fmt.Sprintf("page-%d", i+1)
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(page))
		doc.ImageOptions(name, 0, 0, w, ht, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var _ Handler = (*PDFHandler)(nil)
