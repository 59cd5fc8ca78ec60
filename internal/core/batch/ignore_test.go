package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Patterns(t *testing.T) {
	matcher := NewMatcher([]string{"*.tmp", "!keep.tmp", "build/"})

	assert.True(t, matcher.ShouldIgnore("scratch.tmp"))
	assert.True(t, matcher.ShouldIgnore("nested/scratch.tmp"))
	// 否定パターンは後勝ち
	assert.False(t, matcher.ShouldIgnore("keep.tmp"))
	assert.True(t, matcher.ShouldIgnore("build/out.bin"))
	assert.False(t, matcher.ShouldIgnore("src/main.go"))
}

func TestMatcher_Empty(t *testing.T) {
	matcher := NewMatcher(nil)
	assert.False(t, matcher.ShouldIgnore("anything.txt"))
}

func TestLoadMatcher(t *testing.T) {
	dir := t.TempDir()
	content := "# コメント行は無視\n*.log\n\nsecret/\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte(content), 0o644))

	matcher, err := LoadMatcher(dir, []string{"*.bak"})
	require.NoError(t, err)

	assert.True(t, matcher.ShouldIgnore("app.log"))
	assert.True(t, matcher.ShouldIgnore("secret/key.pem"))
	// CLI 追加パターンも合成される
	assert.True(t, matcher.ShouldIgnore("old.bak"))
	assert.False(t, matcher.ShouldIgnore("main.txt"))
}

func TestLoadMatcher_MissingFile(t *testing.T) {
	matcher, err := LoadMatcher(t.TempDir(), nil)
	require.NoError(t, err)
	assert.False(t, matcher.ShouldIgnore("anything"))
}
