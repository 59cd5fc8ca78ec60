package oracle

import (
	"context"
	"sync"
)

// Memo は1回の処理パス内で同一テキストの再翻訳を避けるキャッシュ
// 画像の複数領域やOfficeファイルの複数パートが同じ文言を含むケースで
// オラクル呼び出しを1回に抑える
type Memo struct {
	oracle Oracle

	mu      sync.Mutex
	results map[string]*Result
	model   string
}

// NewMemo は新しい Memo を作成する
func NewMemo(o Oracle) *Memo {
	return &Memo{
		oracle:  o,
		results: make(map[string]*Result),
	}
}

// Translate はキャッシュを介して翻訳を実行する
// 同一の Text に対する2回目以降の呼び出しはオラクルへ到達しない
func (m *Memo) Translate(ctx context.Context, req Request) (*Result, error) {
	m.mu.Lock()
	if cached, ok := m.results[req.Text]; ok {
		m.mu.Unlock()
		return cached, nil
	}
	m.mu.Unlock()

	result, err := m.oracle.Translate(ctx, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.results[req.Text] = result
	if m.model == "" {
		m.model = result.Model
	}
	m.mu.Unlock()

	return result, nil
}

// Model は最初の応答で使用されたモデル名を返す
func (m *Memo) Model() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

var _ Oracle = (*Memo)(nil)
