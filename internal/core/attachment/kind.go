package attachment

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Kind は添付の種別（閉じたタグ付き列挙）
// 種別ごとのディスパッチは Registry 内の単一の switch で行う
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindMarkup
	KindOffice
	KindImage
	KindPDF
	KindAudio
)

// String は Kind のログ表示用の名前を返す
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMarkup:
		return "markup"
	case KindOffice:
		return "office"
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// MIME 定数
const (
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeHTML     = "text/html"
	MimeXML      = "application/xml"
	MimeYAML     = "text/yaml"
	MimeJSON     = "application/json"
	MimePDF      = "application/pdf"
	MimeDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePptx     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimeXlsx     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimePNG      = "image/png"
	MimeJPEG     = "image/jpeg"
	MimeGIF      = "image/gif"
	MimeWebP     = "image/webp"
	MimeBMP      = "image/bmp"
	MimeTIFF     = "image/tiff"
	MimeMP3      = "audio/mpeg"
	MimeWAV      = "audio/wav"
	MimeFLAC     = "audio/flac"
	MimeOGG      = "audio/ogg"
	MimeM4A      = "audio/mp4"
)

// HintAuto は明示ヒントなし（推定に任せる）を表すヒント値
const HintAuto = "auto"

// Resolved は MIME 解決の結果
type Resolved struct {
	Kind Kind
	MIME string
}

// ResolveKind は入力の種別を決定する。純粋な分類であり副作用を持たない
// 解決順序: 明示ヒント（"auto" 以外）> 拡張子 > 内容スニッフィング
// 判定できない場合は ErrAmbiguousMime を返し、force 指定時のみ
// テキストとして扱うフォールバックを行う
func ResolveKind(hint, name string, data []byte, force bool) (Resolved, error) {
	if h := strings.TrimSpace(strings.ToLower(hint)); h != "" && h != HintAuto {
		mime, ok := mimeFromHint(h)
		if !ok {
			return Resolved{}, fmt.Errorf("%w: unsupported hint %q", ErrAmbiguousMime, hint)
		}
		return Resolved{Kind: kindFromMime(mime), MIME: mime}, nil
	}

	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")); ext != "" {
		if mime, ok := mimeFromExtension(ext); ok {
			return Resolved{Kind: kindFromMime(mime), MIME: mime}, nil
		}
	}

	if mime, ok := sniffMime(data); ok {
		return Resolved{Kind: kindFromMime(mime), MIME: mime}, nil
	}

	if force {
		return Resolved{Kind: KindText, MIME: MimeText}, nil
	}
	return Resolved{}, fmt.Errorf("%w: no confident match for %q", ErrAmbiguousMime, name)
}

// mimeFromHint は明示ヒント（短縮名または完全な MIME）を正規化する
func mimeFromHint(hint string) (string, bool) {
	if mime, ok := mimeFromExtension(hint); ok {
		return mime, true
	}
	switch hint {
	case "text":
		return MimeText, true
	case "markdown":
		return MimeMarkdown, true
	case MimeText, MimeMarkdown, MimeHTML, MimeXML, MimeYAML, MimeJSON,
		MimePDF, MimeDocx, MimePptx, MimeXlsx:
		return hint, true
	case "application/x-yaml", "application/yaml", "text/x-yaml":
		return MimeYAML, true
	case "text/xml":
		return MimeXML, true
	}
	if strings.HasPrefix(hint, "image/") || strings.HasPrefix(hint, "audio/") {
		return hint, true
	}
	return "", false
}

// mimeFromExtension は拡張子を MIME へ対応付ける
func mimeFromExtension(ext string) (string, bool) {
	switch ext {
	case "txt":
		return MimeText, true
	case "md", "markdown":
		return MimeMarkdown, true
	case "html", "htm":
		return MimeHTML, true
	case "xml":
		return MimeXML, true
	case "yaml", "yml":
		return MimeYAML, true
	case "json":
		return MimeJSON, true
	case "pdf":
		return MimePDF, true
	case "docx":
		return MimeDocx, true
	case "pptx":
		return MimePptx, true
	case "xlsx":
		return MimeXlsx, true
	case "png":
		return MimePNG, true
	case "jpg", "jpeg":
		return MimeJPEG, true
	case "gif":
		return MimeGIF, true
	case "webp":
		return MimeWebP, true
	case "bmp":
		return MimeBMP, true
	case "tif", "tiff":
		return MimeTIFF, true
	case "mp3":
		return MimeMP3, true
	case "wav":
		return MimeWAV, true
	case "flac":
		return MimeFLAC, true
	case "ogg":
		return MimeOGG, true
	case "m4a":
		return MimeM4A, true
	}
	return "", false
}

// kindFromMime は MIME を処理ハンドラの種別へ対応付ける
func kindFromMime(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	}
	switch mime {
	case MimeText, MimeMarkdown, MimeJSON:
		return KindText
	case MimeHTML, MimeXML, MimeYAML:
		return KindMarkup
	case MimeDocx, MimePptx, MimeXlsx:
		return KindOffice
	case MimePDF:
		return KindPDF
	}
	return KindUnknown
}

// sniffMime は先頭バイトのマジックナンバーで MIME を推定する
func sniffMime(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return MimePNG, true
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return MimeJPEG, true
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return MimeGIF, true
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return MimeWebP, true
	case bytes.HasPrefix(data, []byte("BM")) && len(data) > 14:
		return MimeBMP, true
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		return MimeTIFF, true
	case bytes.HasPrefix(data, []byte("%PDF")):
		return MimePDF, true
	case bytes.HasPrefix(data, []byte("ID3")) || bytes.HasPrefix(data, []byte("\xff\xfb")) || bytes.HasPrefix(data, []byte("\xff\xf3")):
		return MimeMP3, true
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return MimeWAV, true
	case bytes.HasPrefix(data, []byte("fLaC")):
		return MimeFLAC, true
	case bytes.HasPrefix(data, []byte("OggS")):
		return MimeOGG, true
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return sniffOfficeZip(data)
	}
	// マジックナンバーに一致しない場合、NUL を含まない正当な UTF-8 は
	// プレーンテキストとみなす（拡張子のない標準入力を想定）
	if len(data) > 0 && utf8.Valid(data) && !bytes.ContainsRune(data, 0) {
		return MimeText, true
	}
	return "", false
}

// sniffOfficeZip は zip コンテナ内のエントリ名で Office 種別を特定する
// zip ヘッダ全体を展開せず、エントリ名のバイト列の出現で判定する
func sniffOfficeZip(data []byte) (string, bool) {
	switch {
	case bytes.Contains(data, []byte("word/")):
		return MimeDocx, true
	case bytes.Contains(data, []byte("ppt/")):
		return MimePptx, true
	case bytes.Contains(data, []byte("xl/")):
		return MimeXlsx, true
	}
	return "", false
}
