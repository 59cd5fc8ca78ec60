// Package metadata はモデル一覧キャッシュと翻訳履歴を永続化する
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// modelCacheTTL はモデル一覧キャッシュの有効期間
	modelCacheTTL = 24 * time.Hour
)

// ModelFetcher はプロバイダからモデル一覧を取得する
type ModelFetcher interface {
	FetchModels(ctx context.Context) ([]string, error)
}

// modelCacheFile はディスク上のキャッシュ表現
type modelCacheFile struct {
	FetchedAt time.Time `json:"fetched_at"`
	Models    []string  `json:"models"`
}

// ModelCache はプロバイダ別のモデル一覧をファイルにキャッシュする
type ModelCache struct {
	dir     string
	fetcher ModelFetcher
	mu      sync.Mutex
	now     func() time.Time
}

// NewModelCache は新しい ModelCache を作成する
func NewModelCache(dir string, fetcher ModelFetcher) *ModelCache {
	return &ModelCache{
		dir:     dir,
		fetcher: fetcher,
		now:     time.Now,
	}
}

// GetOrRefresh はキャッシュが有効ならそれを、期限切れまたは force 指定時は
// 取得し直した一覧を返す。取得結果はアトミックにキャッシュへ反映される
func (c *ModelCache) GetOrRefresh(ctx context.Context, provider string, force bool) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, fmt.Sprintf("models_%s.json", provider))
	if !force {
		if cached, ok := c.load(path); ok {
			return cached.Models, nil
		}
	}

	models, err := c.fetcher.FetchModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model list: %w", err)
	}

	if err := c.save(path, modelCacheFile{FetchedAt: c.now(), Models: models}); err != nil {
		return nil, err
	}
	return models, nil
}

// load はキャッシュファイルを読み、有効期限内であれば内容を返す
func (c *ModelCache) load(path string) (*modelCacheFile, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var cached modelCacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	if c.now().Sub(cached.FetchedAt) >= modelCacheTTL {
		return nil, false
	}
	return &cached, true
}

// save はキャッシュを一時ファイル経由でアトミックに書き込む
func (c *ModelCache) save(path string, cached modelCacheFile) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model cache: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace model cache: %w", err)
	}
	return nil
}
