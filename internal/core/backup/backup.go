// Package backup は上書き前のスナップショット保存と期限切れスナップショットの削除を行う
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// metaFileName はバックアップストアの台帳ファイル名
	metaFileName = "meta.json"

	// DefaultTTLDays はスナップショットの既定の保持日数
	DefaultTTLDays = 30
)

// ErrBackup はバックアップストアの操作失敗を表す
var ErrBackup = errors.New("backup failed")

// Record は1件のスナップショットのメタデータ
type Record struct {
	ID        string    `json:"id"`
	Src       string    `json:"src"`
	Backup    string    `json:"backup"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager はバックアップストアを管理する
// ストアへの書き込みは単一プロセス内で mutex により直列化される
type Manager struct {
	dir     string
	ttlDays int
	mu      sync.Mutex
	now     func() time.Time
}

// NewManager は新しい Manager を作成する
// ttlDays が 0 以下の場合は既定の保持日数を使用する
func NewManager(dir string, ttlDays int) *Manager {
	if ttlDays <= 0 {
		ttlDays = DefaultTTLDays
	}
	return &Manager{
		dir:     dir,
		ttlDays: ttlDays,
		now:     time.Now,
	}
}

// Backup は上書き対象のファイルの現在のバイト列をストアへ複製する
// 同時に期限切れスナップショットの削除も行う（専用のスケジューラは持たない）
func (m *Manager) Backup(src string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackup, err)
	}

	records, err := m.loadMeta()
	if err != nil {
		return nil, err
	}
	records = m.pruneExpired(records)

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackup, err)
	}

	now := m.now()
	rec := &Record{
		ID:        uuid.New().String(),
		Src:       src,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, m.ttlDays),
	}
	rec.Backup = filepath.Join(m.dir, rec.ID+"_"+sanitizeName(filepath.Base(src)))

	if err := os.WriteFile(rec.Backup, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackup, err)
	}

	records = append(records, *rec)
	if err := m.saveMeta(records); err != nil {
		return nil, err
	}
	return rec, nil
}

// Prune は期限切れのスナップショットを削除する
func (m *Manager) Prune() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.loadMeta()
	if err != nil {
		return err
	}
	remaining := m.pruneExpired(records)
	if len(remaining) == len(records) {
		return nil
	}
	return m.saveMeta(remaining)
}

// Records はストア内の全スナップショットのメタデータを返す
func (m *Manager) Records() ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadMeta()
}

// pruneExpired は期限切れのスナップショットファイルを削除し、残った台帳を返す
func (m *Manager) pruneExpired(records []Record) []Record {
	now := m.now()
	remaining := make([]Record, 0, len(records))
	for _, rec := range records {
		if now.After(rec.ExpiresAt) {
			// 削除失敗は無視する（次回のバックアップで再試行される）
			os.Remove(rec.Backup)
			continue
		}
		remaining = append(remaining, rec)
	}
	return remaining
}

func (m *Manager) loadMeta() ([]Record, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, metaFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBackup, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackup, err)
	}
	return records, nil
}

func (m *Manager) saveMeta(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackup, err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, metaFileName), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrBackup, err)
	}
	return nil
}

// sanitizeName はバックアップファイル名に使えない文字をアンダースコアへ置換する
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
