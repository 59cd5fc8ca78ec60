package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/jinford/honyaku/internal/core/backup"
	"github.com/jinford/honyaku/internal/core/metadata"
	"github.com/jinford/honyaku/pkg/config"
)

// HistoryListAction は翻訳履歴を表示する
func HistoryListAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	history := metadata.NewHistory(filepath.Join(cfg.DataDir, historyFileName), cfg.HistoryLimit)
	records, err := history.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("履歴はありません")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %s -> %s  [%s]  %s\n",
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.SourceLang,
			rec.TargetLang,
			rec.Model,
			rec.Excerpt,
		)
	}
	return nil
}

// HistoryClearAction は翻訳履歴を全件削除する
func HistoryClearAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	history := metadata.NewHistory(filepath.Join(cfg.DataDir, historyFileName), cfg.HistoryLimit)
	if err := history.Clear(); err != nil {
		return err
	}
	fmt.Println("履歴を削除しました")
	return nil
}

// BackupListAction はバックアップストアの内容を表示する
func BackupListAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	manager := backup.NewManager(filepath.Join(cfg.DataDir, backupDirName), cfg.BackupTTLDays)
	records, err := manager.Records()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("バックアップはありません")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %s  (expires %s)\n",
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.Src,
			rec.ExpiresAt.Format("2006-01-02"),
		)
	}
	return nil
}

// BackupPruneAction は期限切れのバックアップを削除する
func BackupPruneAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	manager := backup.NewManager(filepath.Join(cfg.DataDir, backupDirName), cfg.BackupTTLDays)
	if err := manager.Prune(); err != nil {
		return err
	}
	fmt.Println("期限切れのバックアップを削除しました")
	return nil
}
