package attachment

import (
	"context"
	"fmt"

	"github.com/jinford/honyaku/internal/core/oracle"
	"github.com/jinford/honyaku/internal/core/overlay"
)

// ImageHandler はラスタ画像をオーバーレイレンダラーへ委譲する
type ImageHandler struct {
	renderer *overlay.Renderer
	// Debug が真のとき合成を行わず中間状態の JSON を出力する
	Debug bool
}

// NewImageHandler は新しい ImageHandler を作成する
func NewImageHandler(renderer *overlay.Renderer, debug bool) *ImageHandler {
	return &ImageHandler{renderer: renderer, Debug: debug}
}

// Translate は Handler インターフェースの実装
// 出力画像のフォーマットは入力と同一になる
// 同一形式で書き戻せない形式（WebP）は未対応として扱う
func (h *ImageHandler) Translate(ctx context.Context, job *Job, o oracle.Oracle) (*Result, error) {
	if !h.Debug && !overlay.CanEncode(job.MIME) {
		return nil, fmt.Errorf("%w: cannot re-encode %s", ErrUnsupportedKind, job.MIME)
	}
	res, err := h.renderer.Render(ctx, overlay.Request{
		Image:   job.Data,
		MIME:    job.MIME,
		Options: job.Options,
		Debug:   h.Debug,
	}, o)
	if err != nil {
		return nil, err
	}
	if h.Debug {
		return &Result{Bytes: res.DebugJSON, MIME: MimeJSON, Model: res.Model}, nil
	}
	return &Result{Bytes: res.Bytes, MIME: res.MIME, Model: res.Model}, nil
}

var _ Handler = (*ImageHandler)(nil)
