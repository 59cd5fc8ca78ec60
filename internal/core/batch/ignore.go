// Package batch はディレクトリ単位の一括翻訳を統括する
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

const (
	// IgnoreFileName は入力ディレクトリ直下に置く除外パターンファイル名
	IgnoreFileName = ".honyakuignore"
)

// Matcher は gitignore 形式のパターンでパスの除外判定を行う
// 除外されたエントリにはタスクが生成されない（スキップではなく不可視になる）
type Matcher struct {
	patterns *gitignore.GitIgnore
}

// NewMatcher はパターン列から新しい Matcher を作成する
// 後続のパターンが先行のパターンを上書きする（否定パターン対応）
func NewMatcher(patterns []string) *Matcher {
	var matcher *gitignore.GitIgnore
	if len(patterns) > 0 {
		matcher = gitignore.CompileIgnoreLines(patterns...)
	}
	return &Matcher{patterns: matcher}
}

// LoadMatcher は root 直下の除外パターンファイルと追加パターンを合成した Matcher を作成する
// パターンファイルが存在しない場合は追加パターンのみを使用する
func LoadMatcher(root string, extra []string) (*Matcher, error) {
	var patterns []string

	path := filepath.Join(root, IgnoreFileName)
	if _, err := os.Stat(path); err == nil {
		loaded, err := readIgnoreFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
		}
		patterns = append(patterns, loaded...)
	}

	patterns = append(patterns, extra...)
	return NewMatcher(patterns), nil
}

// ShouldIgnore はパスが除外対象かどうかを判定する
// path には入力ルートからの相対パスを渡す
func (m *Matcher) ShouldIgnore(path string) bool {
	if m.patterns == nil {
		return false
	}
	return m.patterns.MatchesPath(path)
}

// readIgnoreFile は除外パターンファイルを読み込んでパターンのスライスを返す
func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		// 空行とコメント行をスキップ
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}
