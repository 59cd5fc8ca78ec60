package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/jinford/honyaku/internal/core/attachment"
	"github.com/jinford/honyaku/internal/core/backup"
	"github.com/jinford/honyaku/internal/core/metadata"
	"github.com/jinford/honyaku/internal/core/oracle"
	"github.com/jinford/honyaku/internal/core/overlay"
	"github.com/jinford/honyaku/internal/infra/ocr"
	"github.com/jinford/honyaku/internal/infra/openai"
	"github.com/jinford/honyaku/internal/infra/pdfrender"
	"github.com/jinford/honyaku/internal/platform/logger"
	"github.com/jinford/honyaku/pkg/config"
)

const (
	// historyFileName は履歴ファイル名
	historyFileName = "history.json"

	// backupDirName はバックアップストアのディレクトリ名
	backupDirName = "backups"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config     *config.Config
	Logger     *slog.Logger
	Translator *openai.Translator
	Registry   *attachment.Registry
	Backups    *backup.Manager
	History    *metadata.History
}

// NewAppContext は設定を読み込み、翻訳パイプラインを組み立てて AppContext を作成する
// debug が真のとき、画像・PDF のハンドラは合成の代わりに中間状態の JSON を出力する
func NewAppContext(cmd *cli.Command, debug bool) (*AppContext, error) {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.DefaultConfig())

	translator, err := openai.NewTranslator(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if err != nil {
		return nil, err
	}

	audio, err := openai.NewAudioClient(cfg.OpenAI.APIKey)
	if err != nil {
		return nil, err
	}

	force := cmd.Bool("force")
	renderer := overlay.NewRenderer(overlay.RendererConfig{
		Extractor: ocr.NewTesseract(cfg.OCR.Languages),
		Style: overlay.Style{
			TextColor:   cfg.Overlay.TextColor,
			StrokeColor: cfg.Overlay.StrokeColor,
			FillColor:   cfg.Overlay.FillColor,
			FontSize:    cfg.Overlay.FontSize,
			FontPath:    cfg.Overlay.FontPath,
		},
		MinConfidence: cfg.Overlay.MinConfidence,
		Force:         force,
		Logger:        appLogger,
	})

	registry := attachment.NewRegistry(attachment.RegistryConfig{
		Text:   attachment.NewTextHandler(force),
		Markup: attachment.NewMarkupHandler(cmd.Bool("with-comments")),
		Office: attachment.NewOfficeHandler(),
		Image:  attachment.NewImageHandler(renderer, debug),
		PDF:    attachment.NewPDFHandler(pdfrender.NewRasterizer(), renderer, cfg.Translate.RenderDPI, debug),
		Audio:  attachment.NewAudioHandler(audio, audio),
		Logger: appLogger,
	})

	return &AppContext{
		Config:     cfg,
		Logger:     appLogger,
		Translator: translator,
		Registry:   registry,
		Backups:    backup.NewManager(filepath.Join(cfg.DataDir, backupDirName), cfg.BackupTTLDays),
		History:    metadata.NewHistory(filepath.Join(cfg.DataDir, historyFileName), cfg.HistoryLimit),
	}, nil
}

// Options はコマンドのフラグと設定から翻訳オプションを組み立てる
func (ac *AppContext) Options(cmd *cli.Command) oracle.Options {
	source := cmd.String("source")
	if source == "" {
		source = ac.Config.Translate.SourceLang
	}
	target := cmd.String("target")
	if target == "" {
		target = ac.Config.Translate.TargetLang
	}
	return oracle.Options{
		SourceLang: source,
		TargetLang: target,
		Style:      cmd.String("style"),
		Slang:      cmd.Bool("slang"),
	}
}

// Suffix はフラグと設定から出力接尾辞を決める
func (ac *AppContext) Suffix(cmd *cli.Command) string {
	if suffix := cmd.String("suffix"); suffix != "" {
		return suffix
	}
	return ac.Config.Translate.Suffix
}
