package attachment

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/honyaku/internal/core/oracle"
)

// buildZip はテスト用の zip コンテナを組み立てる
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// readZip は zip コンテナの全エントリを読み出す
func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string)
	for _, entry := range zr.File {
		rc, err := entry.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[entry.Name] = string(content)
	}
	return out
}

const docxDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> World </w:t></w:r></w:p>
<w:p><w:r><w:t>42</w:t></w:r></w:p></w:body>
</w:document>`

func TestOfficeHandler_Docx(t *testing.T) {
	contentTypes := `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`
	src := buildZip(t, map[string]string{
		"[Content_Types].xml": contentTypes,
		"word/document.xml":   docxDocument,
		"word/styles.xml":     `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`,
	})

	o := &stubOracle{translations: map[string]string{
		"Hello": "こんにちは",
		"World": "世界",
	}}
	job := NewJob("doc.docx", src, Resolved{Kind: KindOffice, MIME: MimeDocx}, oracle.Options{TargetLang: "ja"})

	result, err := NewOfficeHandler().Translate(context.Background(), job, o)
	require.NoError(t, err)
	assert.Equal(t, MimeDocx, result.MIME)

	out := readZip(t, result.Bytes)

	doc := out["word/document.xml"]
	assert.Contains(t, doc, "<w:t>こんにちは</w:t>")
	// 前後の空白は原文のまま保持される
	assert.Contains(t, doc, `<w:t xml:space="preserve"> 世界 </w:t>`)
	// 数値のみのノードは翻訳対象外
	assert.Contains(t, doc, "<w:t>42</w:t>")
	// 対象パート以外のバイトは一切変化しない
	assert.Equal(t, contentTypes, out["[Content_Types].xml"])
}

func TestOfficeHandler_DocxEscapesSpecialChars(t *testing.T) {
	src := buildZip(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="x"><w:t>Price</w:t></w:document>`,
	})

	o := &stubOracle{translations: map[string]string{"Price": `5 < 10 & "cheap"`}}
	job := NewJob("doc.docx", src, Resolved{Kind: KindOffice, MIME: MimeDocx}, oracle.Options{})

	result, err := NewOfficeHandler().Translate(context.Background(), job, o)
	require.NoError(t, err)

	out := readZip(t, result.Bytes)
	assert.Contains(t, out["word/document.xml"], `<w:t>5 &lt; 10 &amp; "cheap"</w:t>`)
}

func TestOfficeHandler_Xlsx(t *testing.T) {
	shared := `<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><si><t>Total</t></si><si><t>123</t></si></sst>`
	sheet := `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData><row><c t="s"><v>0</v></c></row></sheetData></worksheet>`
	src := buildZip(t, map[string]string{
		"xl/sharedStrings.xml": shared,
		"xl/worksheets/s1.xml": sheet,
		"xl/workbook.xml":      `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"/>`,
	})

	o := &stubOracle{translations: map[string]string{"Total": "合計"}}
	job := NewJob("book.xlsx", src, Resolved{Kind: KindOffice, MIME: MimeXlsx}, oracle.Options{})

	result, err := NewOfficeHandler().Translate(context.Background(), job, o)
	require.NoError(t, err)

	out := readZip(t, result.Bytes)
	assert.Contains(t, out["xl/sharedStrings.xml"], "<si><t>合計</t></si>")
	// si 配下でも数値のみの文字列は対象外
	assert.Contains(t, out["xl/sharedStrings.xml"], "<si><t>123</t></si>")
	// セル参照（v 要素）は si 配下ではないため変化しない
	assert.Equal(t, sheet, out["xl/worksheets/s1.xml"])
}

func TestOfficeHandler_CorruptZip(t *testing.T) {
	job := NewJob("doc.docx", []byte("this is not a zip"), Resolved{Kind: KindOffice, MIME: MimeDocx}, oracle.Options{})

	_, err := NewOfficeHandler().Translate(context.Background(), job, &stubOracle{})
	assert.ErrorIs(t, err, ErrUnreadableInput)
}

func TestOfficeHandler_BrokenXMLPartIsFatal(t *testing.T) {
	src := buildZip(t, map[string]string{
		"word/document.xml": `<w:document><w:t>a & b</w:t></w:document>`,
	})
	job := NewJob("doc.docx", src, Resolved{Kind: KindOffice, MIME: MimeDocx}, oracle.Options{})

	_, err := NewOfficeHandler().Translate(context.Background(), job, &stubOracle{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml")
}
