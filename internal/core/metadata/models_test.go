package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher は固定のモデル一覧を返すテスト用フェッチャ
type stubFetcher struct {
	models []string
	calls  int
	err    error
}

func (s *stubFetcher) FetchModels(ctx context.Context) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.models, nil
}

func TestModelCache_CachesWithinTTL(t *testing.T) {
	fetcher := &stubFetcher{models: []string{"gpt-4o", "gpt-4o-mini"}}
	cache := NewModelCache(t.TempDir(), fetcher)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	models, err := cache.GetOrRefresh(context.Background(), "openai", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)
	assert.Equal(t, 1, fetcher.calls)

	// 23時間59分後: キャッシュが使われる
	cache.now = func() time.Time { return now.Add(23*time.Hour + 59*time.Minute) }
	models, err = cache.GetOrRefresh(context.Background(), "openai", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)
	assert.Equal(t, 1, fetcher.calls)

	// 24時間1分後: 再取得される
	cache.now = func() time.Time { return now.Add(24*time.Hour + time.Minute) }
	_, err = cache.GetOrRefresh(context.Background(), "openai", false)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestModelCache_ForceRefresh(t *testing.T) {
	fetcher := &stubFetcher{models: []string{"gpt-4o"}}
	cache := NewModelCache(t.TempDir(), fetcher)

	_, err := cache.GetOrRefresh(context.Background(), "openai", false)
	require.NoError(t, err)
	_, err = cache.GetOrRefresh(context.Background(), "openai", true)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestModelCache_ProvidersAreIndependent(t *testing.T) {
	fetcher := &stubFetcher{models: []string{"m"}}
	cache := NewModelCache(t.TempDir(), fetcher)

	_, err := cache.GetOrRefresh(context.Background(), "openai", false)
	require.NoError(t, err)
	_, err = cache.GetOrRefresh(context.Background(), "other", false)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestModelCache_FetchError(t *testing.T) {
	cause := errors.New("network down")
	cache := NewModelCache(t.TempDir(), &stubFetcher{err: cause})

	_, err := cache.GetOrRefresh(context.Background(), "openai", false)
	assert.ErrorIs(t, err, cause)
}
