package attachment

import (
	"errors"

	"github.com/jinford/honyaku/internal/core/overlay"
)

var (
	// ErrUnreadableInput は入力を開けない・読み取れない場合のエラー
	ErrUnreadableInput = errors.New("unreadable input")

	// ErrAmbiguousMime は MIME 判定が確信を持てなかった場合のエラー
	ErrAmbiguousMime = errors.New("ambiguous mime type")

	// ErrUnsupportedKind は認識はできるが処理対象外の種別を表す
	// ディレクトリ処理では失敗ではなくスキップとして扱う
	ErrUnsupportedKind = errors.New("unsupported attachment kind")

	// ErrRender はオーバーレイ合成・再構築段階の失敗
	ErrRender = overlay.ErrRender
)
