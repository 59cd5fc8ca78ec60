package attachment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jinford/honyaku/internal/core/oracle"
	"github.com/jinford/honyaku/internal/core/overlay"
)

func TestImageHandler_WebpCannotBeReencoded(t *testing.T) {
	// WebP は復号できても同一形式で書き戻せないため、
	// 失敗ではなく未対応種別としてスキップ経路に乗せる
	h := NewImageHandler(overlay.NewRenderer(overlay.RendererConfig{}), false)
	job := NewJob("photo.webp", []byte("RIFF\x00\x00\x00\x00WEBP"), Resolved{Kind: KindImage, MIME: MimeWebP}, oracle.Options{})

	_, err := h.Translate(context.Background(), job, &stubOracle{})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Contains(t, err.Error(), MimeWebP)
}

func TestCanEncodeCoversImageMimes(t *testing.T) {
	assert.True(t, overlay.CanEncode(MimePNG))
	assert.True(t, overlay.CanEncode(MimeJPEG))
	assert.False(t, overlay.CanEncode(MimeWebP))
}
