package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// DefaultHistoryLimit は履歴に保持する既定の最大件数
	DefaultHistoryLimit = 100

	// excerptMaxRunes は履歴に記録する原文抜粋の最大文字数
	excerptMaxRunes = 80
)

// HistoryRecord は1回の翻訳の記録
type HistoryRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	Excerpt    string    `json:"excerpt"`
	Model      string    `json:"model"`
	MIME       string    `json:"mime,omitempty"`
}

// History は翻訳履歴をファイルに追記保存する
// 上限を超えた場合は古い記録から順に破棄される
type History struct {
	path  string
	limit int
	mu    sync.Mutex
	now   func() time.Time
}

// NewHistory は新しい History を作成する
// limit が 0 以下の場合は既定の上限を使用する
func NewHistory(path string, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		path:  path,
		limit: limit,
		now:   time.Now,
	}
}

// Record は翻訳1件を履歴へ追記する
func (h *History) Record(rec HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = h.now()
	}
	rec.Excerpt = truncateExcerpt(rec.Excerpt)

	records, err := h.load()
	if err != nil {
		return err
	}
	records = append(records, rec)
	if len(records) > h.limit {
		records = records[len(records)-h.limit:]
	}
	return h.save(records)
}

// List は履歴を古い順に返す
func (h *History) List() ([]HistoryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

// Clear は履歴を全件削除する
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (h *History) load() ([]HistoryRecord, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	var records []HistoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return records, nil
}

func (h *History) save(records []HistoryRecord) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// truncateExcerpt は抜粋を最大文字数に丸める
func truncateExcerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptMaxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:excerptMaxRunes]) + "..."
}
