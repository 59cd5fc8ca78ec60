package attachment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKind_Extension(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantKind Kind
		wantMime string
	}{
		{name: "テキスト", fileName: "memo.txt", wantKind: KindText, wantMime: MimeText},
		{name: "Markdown", fileName: "README.md", wantKind: KindText, wantMime: MimeMarkdown},
		{name: "JSON", fileName: "data.json", wantKind: KindText, wantMime: MimeJSON},
		{name: "HTML", fileName: "index.html", wantKind: KindMarkup, wantMime: MimeHTML},
		{name: "YAML", fileName: "config.yml", wantKind: KindMarkup, wantMime: MimeYAML},
		{name: "Word文書", fileName: "report.docx", wantKind: KindOffice, wantMime: MimeDocx},
		{name: "PNG画像", fileName: "photo.png", wantKind: KindImage, wantMime: MimePNG},
		{name: "PDF", fileName: "manual.pdf", wantKind: KindPDF, wantMime: MimePDF},
		{name: "MP3音声", fileName: "voice.mp3", wantKind: KindAudio, wantMime: MimeMP3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := ResolveKind(HintAuto, tt.fileName, nil, false)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, resolved.Kind)
			assert.Equal(t, tt.wantMime, resolved.MIME)
		})
	}
}

func TestResolveKind_Sniff(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantKind Kind
		wantMime string
	}{
		{name: "PNGマジックナンバー", data: []byte("\x89PNG\r\n\x1a\n____"), wantKind: KindImage, wantMime: MimePNG},
		{name: "JPEGマジックナンバー", data: []byte("\xff\xd8\xff\xe0____"), wantKind: KindImage, wantMime: MimeJPEG},
		{name: "PDFヘッダ", data: []byte("%PDF-1.7 ..."), wantKind: KindPDF, wantMime: MimePDF},
		{name: "docxはzipエントリ名で判定", data: []byte("PK\x03\x04....word/document.xml"), wantKind: KindOffice, wantMime: MimeDocx},
		{name: "xlsxはzipエントリ名で判定", data: []byte("PK\x03\x04....xl/workbook.xml"), wantKind: KindOffice, wantMime: MimeXlsx},
		{name: "ID3タグ付きMP3", data: []byte("ID3\x04\x00____"), wantKind: KindAudio, wantMime: MimeMP3},
		{name: "NULを含まないUTF-8はテキスト", data: []byte("拡張子のない入力"), wantKind: KindText, wantMime: MimeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := ResolveKind(HintAuto, "", tt.data, false)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, resolved.Kind)
			assert.Equal(t, tt.wantMime, resolved.MIME)
		})
	}
}

func TestResolveKind_HintOverridesExtension(t *testing.T) {
	// 明示ヒントは拡張子より優先される
	resolved, err := ResolveKind("html", "page.txt", nil, false)
	require.NoError(t, err)
	assert.Equal(t, KindMarkup, resolved.Kind)
	assert.Equal(t, MimeHTML, resolved.MIME)
}

func TestResolveKind_Ambiguous(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03}

	_, err := ResolveKind(HintAuto, "mystery.bin", data, false)
	assert.ErrorIs(t, err, ErrAmbiguousMime)

	// force 指定時はテキストへフォールバックする
	resolved, err := ResolveKind(HintAuto, "mystery.bin", data, true)
	require.NoError(t, err)
	assert.Equal(t, KindText, resolved.Kind)
	assert.Equal(t, MimeText, resolved.MIME)
}

func TestResolveKind_UnknownHint(t *testing.T) {
	_, err := ResolveKind("video/mp4", "clip.bin", nil, false)
	assert.Error(t, err)
}
