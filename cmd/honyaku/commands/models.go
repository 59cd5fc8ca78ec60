package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/jinford/honyaku/internal/core/metadata"
	"github.com/jinford/honyaku/internal/infra/openai"
	"github.com/jinford/honyaku/pkg/config"
)

// ModelsListAction は利用可能なモデル一覧を表示する
// 一覧は24時間キャッシュされ、--refresh で強制的に再取得できる
func ModelsListAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	lister, err := openai.NewModelLister(cfg.OpenAI.APIKey)
	if err != nil {
		return err
	}

	cache := metadata.NewModelCache(filepath.Join(cfg.DataDir, "cache"), lister)
	models, err := cache.GetOrRefresh(ctx, "openai", cmd.Bool("refresh"))
	if err != nil {
		return err
	}

	for _, model := range models {
		marker := "  "
		if model == cfg.OpenAI.Model {
			marker = "* "
		}
		fmt.Println(marker + model)
	}
	return nil
}
