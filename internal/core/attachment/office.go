package attachment

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jinford/honyaku/internal/core/oracle"
)

// OfficeHandler は Office パッケージ（docx / pptx / xlsx）を翻訳する
// コンテナを XML パートの zip として扱い、対象パートのテキストノード
// だけを書き換え、それ以外のエントリはバイト単位でそのまま再梱包する
type OfficeHandler struct{}

// NewOfficeHandler は新しい OfficeHandler を作成する
func NewOfficeHandler() *OfficeHandler {
	return &OfficeHandler{}
}

// Translate は Handler インターフェースの実装
func (h *OfficeHandler) Translate(ctx context.Context, job *Job, o oracle.Oracle) (*Result, error) {
	return translateUnits(ctx, &officeExtractor{mime: job.MIME}, job, o)
}

// officeExtractor は MIME で決まる抽出規則を UnitHandler に適合させる
type officeExtractor struct {
	mime string
}

// partSpans は1つの zip エントリに含まれる翻訳対象区間
type partSpans struct {
	name  string
	spans []xmlSpan
}

// Extract は対象 XML パートのテキストノードを翻訳単位として列挙する
func (e *officeExtractor) Extract(src []byte) (*Extraction, error) {
	rule, err := officeRule(e.mime)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrUnreadableInput, err)
	}

	var units []Unit
	var parts []partSpans
	contents := make(map[string][]byte)

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !rule.target(entry.Name) {
			continue
		}
		data, err := readZipEntry(entry)
		if err != nil {
			return nil, err
		}
		spans, err := xmlTextSpans(data, rule.match)
		if err != nil {
			// XML を解析できないパートは致命的エラーとする
			// ディレクトリ処理ではタスク単位のコピー退避に落ちる
			return nil, fmt.Errorf("failed to parse office part %s: %w", entry.Name, err)
		}
		if len(spans) == 0 {
			continue
		}
		contents[entry.Name] = data
		parts = append(parts, partSpans{name: entry.Name, spans: spans})
		for _, s := range spans {
			units = append(units, Unit{Text: s.core})
		}
	}

	return &Extraction{
		Units: units,
		Reconstruct: func(translated []string) ([]byte, error) {
			if len(translated) != len(units) {
				return nil, fmt.Errorf("expected %d translated units, got %d", len(units), len(translated))
			}

			// パートごとに訳文を差し戻した新しい内容を作る
			rewritten := make(map[string][]byte, len(parts))
			offset := 0
			for _, part := range parts {
				n := len(part.spans)
				out := spliceXMLSpans(contents[part.name], part.spans, translated[offset:offset+n])
				rewritten[part.name] = out
				offset += n
			}

			var buf bytes.Buffer
			zw := zip.NewWriter(&buf)
			for _, entry := range zr.File {
				if entry.FileInfo().IsDir() {
					if _, err := zw.Create(entry.Name); err != nil {
						return nil, fmt.Errorf("failed to write zip directory: %w", err)
					}
					continue
				}
				if data, ok := rewritten[entry.Name]; ok {
					w, err := zw.CreateHeader(&zip.FileHeader{Name: entry.Name, Method: entry.Method})
					if err != nil {
						return nil, fmt.Errorf("failed to write zip entry: %w", err)
					}
					if _, err := w.Write(data); err != nil {
						return nil, fmt.Errorf("failed to write zip content: %w", err)
					}
					continue
				}
				// 無関係なエントリは圧縮済みバイト列ごと引き写す
				rc, err := entry.OpenRaw()
				if err != nil {
					return nil, fmt.Errorf("failed to open zip entry: %w", err)
				}
				fh := entry.FileHeader
				w, err := zw.CreateRaw(&fh)
				if err != nil {
					return nil, fmt.Errorf("failed to write zip entry: %w", err)
				}
				if _, err := io.Copy(w, rc); err != nil {
					return nil, fmt.Errorf("failed to copy zip content: %w", err)
				}
			}
			if err := zw.Close(); err != nil {
				return nil, fmt.Errorf("failed to finalize zip output: %w", err)
			}
			return buf.Bytes(), nil
		},
	}, nil
}

// extractRule は Office 種別ごとの対象パートとタグの規則
type extractRule struct {
	target func(name string) bool
	match  func(stack []string) bool
}

// officeRule は MIME に対応する抽出規則を返す
func officeRule(mime string) (*extractRule, error) {
	switch mime {
	case MimeDocx:
		return &extractRule{
			target: partMatcher("word/"),
			match:  topElementIs("w:t"),
		}, nil
	case MimePptx:
		return &extractRule{
			target: partMatcher("ppt/"),
			match:  topElementIs("a:t"),
		}, nil
	case MimeXlsx:
		// xlsx は共有文字列（si）かインライン文字列（is）配下の t のみ
		return &extractRule{
			target: partMatcher("xl/"),
			match: func(stack []string) bool {
				if len(stack) == 0 || stack[len(stack)-1] != "t" {
					return false
				}
				for _, name := range stack[:len(stack)-1] {
					if name == "si" || name == "is" {
						return true
					}
				}
				return false
			},
		}, nil
	}
	return nil, fmt.Errorf("%w: %s is not an office mime", ErrUnsupportedKind, mime)
}

func partMatcher(prefix string) func(string) bool {
	return func(name string) bool {
		return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".xml")
	}
}

func topElementIs(tag string) func([]string) bool {
	return func(stack []string) bool {
		return len(stack) > 0 && stack[len(stack)-1] == tag
	}
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open zip entry %s: %w", entry.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip entry %s: %w", entry.Name, err)
	}
	return data, nil
}

// xmlSpan は XML バイト列中の1テキストノード
// start/end はエスケープ済み原文バイト列上の範囲、core は空白を除いた本文
type xmlSpan struct {
	start    int
	end      int
	leading  string
	core     string
	trailing string
}

// xmlTextSpans は match が真となる要素スタック位置のテキストノード範囲を集める
// デコーダはトークナイザとしてのみ使い、出力は原文バイト列の切り貼りで
// 組み立てるため、対象外のバイトは一切変化しない
func xmlTextSpans(src []byte, match func(stack []string) bool) ([]xmlSpan, error) {
	d := xml.NewDecoder(bytes.NewReader(src))
	var stack []string
	var spans []xmlSpan
	prev := d.InputOffset()
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		cur := d.InputOffset()
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, rawElementName(t.Name))
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if match(stack) {
				text := string(t)
				core := strings.TrimSpace(text)
				if core != "" && !numericLike(core) {
					lead := text[:len(text)-len(strings.TrimLeft(text, " \t\r\n"))]
					trail := text[len(strings.TrimRight(text, " \t\r\n")):]
					spans = append(spans, xmlSpan{
						start:    int(prev),
						end:      int(cur),
						leading:  lead,
						core:     core,
						trailing: trail,
					})
				}
			}
		}
		prev = cur
	}
	return spans, nil
}

// spliceXMLSpans は訳文を原文バイト列の該当範囲へ差し戻す
func spliceXMLSpans(src []byte, spans []xmlSpan, translated []string) []byte {
	var out bytes.Buffer
	out.Grow(len(src))
	prev := 0
	for i, s := range spans {
		out.Write(src[prev:s.start])
		out.WriteString(s.leading)
		out.WriteString(escapeXMLText(translated[i]))
		out.WriteString(s.trailing)
		prev = s.end
	}
	out.Write(src[prev:])
	return out.Bytes()
}

var xmlTextEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeXMLText(text string) string {
	return xmlTextEscaper.Replace(text)
}

// rawElementName は名前空間プレフィックスを展開せずに要素名を返す
func rawElementName(name xml.Name) string {
	if name.Space != "" {
		return name.Space + ":" + name.Local
	}
	return name.Local
}

// numericLike は数値・記号のみで翻訳の必要がないテキストかを判定する
func numericLike(text string) bool {
	hasDigit := false
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.' || r == ',' || r == '-' || r == '+' || r == '%' || r == ' ' || r == ':' || r == '/':
		default:
			return false
		}
	}
	return hasDigit
}

var _ Handler = (*OfficeHandler)(nil)
