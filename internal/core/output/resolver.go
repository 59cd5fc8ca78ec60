// Package output は翻訳結果の出力先パスを決定する
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinford/honyaku/internal/core/attachment"
)

const (
	// DefaultSuffix は出力ファイル／ディレクトリ名に付与する既定の接尾辞
	DefaultSuffix = "_translated"
)

// ErrConflictingOptions は明示的な出力先と上書きモードが同時に指定された場合のエラー
var ErrConflictingOptions = errors.New("output path and overwrite mode are mutually exclusive")

// Resolver は出力先の決定規則を保持する
// 優先順位は 明示的な出力先 > 上書き > 接尾辞付きの隣接パス
type Resolver struct {
	out       string
	overwrite bool
	suffix    string
}

// NewResolver は新しい Resolver を作成する
// out と overwrite を同時に指定した場合は ErrConflictingOptions を返す
func NewResolver(out string, overwrite bool, suffix string) (*Resolver, error) {
	if out != "" && overwrite {
		return nil, ErrConflictingOptions
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &Resolver{out: out, overwrite: overwrite, suffix: suffix}, nil
}

// Overwrite は上書きモードかどうかを返す
func (r *Resolver) Overwrite() bool {
	return r.overwrite
}

// ResolveFile は単一ファイル入力の出力先を返す
// 出力の MIME が入力と異なる場合（デバッグ JSON 出力など）は拡張子を差し替える
func (r *Resolver) ResolveFile(src string, srcMIME, outMIME string) (string, error) {
	ext := filepath.Ext(src)
	if outMIME != "" && outMIME != srcMIME {
		if e := ExtensionForMime(outMIME); e != "" {
			ext = e
		}
	}

	if r.out != "" {
		// 既存ディレクトリを指している場合はその中に既定の名前で置く
		if info, err := os.Stat(r.out); err == nil && info.IsDir() {
			return filepath.Join(r.out, siblingName(filepath.Base(src), r.suffix, ext)), nil
		}
		return r.out, nil
	}

	if r.overwrite {
		if ext == filepath.Ext(src) {
			return src, nil
		}
		// 上書きでも拡張子が変わる場合は同じ場所に新しい拡張子で置く
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		return filepath.Join(filepath.Dir(src), base+ext), nil
	}

	return filepath.Join(filepath.Dir(src), siblingName(filepath.Base(src), r.suffix, ext)), nil
}

// ResolveDir はディレクトリ入力の出力ルートを返す
// 上書きモードでは入力ディレクトリ自身が出力ルートとなる
func (r *Resolver) ResolveDir(src string) (string, error) {
	if r.out != "" {
		return r.out, nil
	}
	if r.overwrite {
		return src, nil
	}
	dir := filepath.Dir(src)
	name := filepath.Base(filepath.Clean(src))
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("cannot derive output directory for %q", src)
	}
	return filepath.Join(dir, name+r.suffix), nil
}

// siblingName は <名前><接尾辞><拡張子> の形式の出力ファイル名を組み立てる
func siblingName(base, suffix, ext string) string {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + suffix + ext
}

// ExtensionForMime は出力 MIME に対応する拡張子を返す
// 未知の MIME の場合は空文字を返し、呼び出し側で入力の拡張子を維持する
func ExtensionForMime(mime string) string {
	switch mime {
	case attachment.MimeJSON:
		return ".json"
	case attachment.MimePDF:
		return ".pdf"
	case attachment.MimeText:
		return ".txt"
	case attachment.MimePNG:
		return ".png"
	case attachment.MimeJPEG:
		return ".jpg"
	case attachment.MimeGIF:
		return ".gif"
	case attachment.MimeBMP:
		return ".bmp"
	case attachment.MimeTIFF:
		return ".tiff"
	case attachment.MimeMP3:
		return ".mp3"
	case attachment.MimeWAV:
		return ".wav"
	case attachment.MimeFLAC:
		return ".flac"
	case attachment.MimeOGG:
		return ".ogg"
	case attachment.MimeM4A:
		return ".m4a"
	default:
		return ""
	}
}
