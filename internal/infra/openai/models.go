package openai

import (
	"context"
	"fmt"
	"sort"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ModelLister は OpenAI API からモデル一覧を取得する
type ModelLister struct {
	client openai.Client
}

// NewModelLister はAPIキーを指定して ModelLister を作成する
func NewModelLister(apiKey string) (*ModelLister, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	return &ModelLister{client: openai.NewClient(option.WithAPIKey(apiKey))}, nil
}

// FetchModels は利用可能なモデル ID の一覧をソート済みで返す
func (m *ModelLister) FetchModels(ctx context.Context) ([]string, error) {
	page, err := m.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var models []string
	for page != nil {
		for _, model := range page.Data {
			models = append(models, model.ID)
		}
		page, err = page.GetNextPage()
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
	}

	sort.Strings(models)
	return models, nil
}
