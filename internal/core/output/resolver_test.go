package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/honyaku/internal/core/attachment"
)

func TestNewResolver_ConflictingOptions(t *testing.T) {
	_, err := NewResolver("/tmp/out.txt", true, "")
	assert.ErrorIs(t, err, ErrConflictingOptions)
}

func TestResolveFile_DefaultSibling(t *testing.T) {
	r, err := NewResolver("", false, "")
	require.NoError(t, err)

	got, err := r.ResolveFile("/data/docs/report.txt", attachment.MimeText, attachment.MimeText)
	require.NoError(t, err)
	assert.Equal(t, "/data/docs/report_translated.txt", got)
}

func TestResolveFile_CustomSuffix(t *testing.T) {
	r, err := NewResolver("", false, "_ja")
	require.NoError(t, err)

	got, err := r.ResolveFile("/data/memo.md", attachment.MimeMarkdown, attachment.MimeMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "/data/memo_ja.md", got)
}

func TestResolveFile_ExplicitOut(t *testing.T) {
	r, err := NewResolver("/tmp/custom.txt", false, "")
	require.NoError(t, err)

	got, err := r.ResolveFile("/data/report.txt", attachment.MimeText, attachment.MimeText)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.txt", got)
}

func TestResolveFile_ExplicitOutDirectory(t *testing.T) {
	dir := t.TempDir()
	r, err := NewResolver(dir, false, "")
	require.NoError(t, err)

	got, err := r.ResolveFile("/data/report.txt", attachment.MimeText, attachment.MimeText)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_translated.txt"), got)
}

func TestResolveFile_Overwrite(t *testing.T) {
	r, err := NewResolver("", true, "")
	require.NoError(t, err)
	assert.True(t, r.Overwrite())

	got, err := r.ResolveFile("/data/report.txt", attachment.MimeText, attachment.MimeText)
	require.NoError(t, err)
	assert.Equal(t, "/data/report.txt", got)
}

func TestResolveFile_MimeChangeSwapsExtension(t *testing.T) {
	r, err := NewResolver("", false, "")
	require.NoError(t, err)

	// デバッグJSON出力のように出力MIMEが変わる場合は拡張子を差し替える
	got, err := r.ResolveFile("/data/photo.png", attachment.MimePNG, attachment.MimeJSON)
	require.NoError(t, err)
	assert.Equal(t, "/data/photo_translated.json", got)
}

func TestResolveDir(t *testing.T) {
	r, err := NewResolver("", false, "")
	require.NoError(t, err)

	got, err := r.ResolveDir("/data/docs")
	require.NoError(t, err)
	assert.Equal(t, "/data/docs_translated", got)

	overwrite, err := NewResolver("", true, "")
	require.NoError(t, err)
	got, err = overwrite.ResolveDir("/data/docs")
	require.NoError(t, err)
	assert.Equal(t, "/data/docs", got)

	explicit, err := NewResolver("/out", false, "")
	require.NoError(t, err)
	got, err = explicit.ResolveDir("/data/docs")
	require.NoError(t, err)
	assert.Equal(t, "/out", got)
}

func TestExtensionForMime_Unknown(t *testing.T) {
	assert.Equal(t, "", ExtensionForMime("application/x-unknown"))
}

func TestResolveFile_OverwriteWithMimeChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.png")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	r, err := NewResolver("", true, "")
	require.NoError(t, err)

	got, err := r.ResolveFile(src, attachment.MimePNG, attachment.MimeJSON)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "page.json"), got)
}
