// Package translate は単一入力（ファイル・ストリーム・直接テキスト）の翻訳を駆動する
package translate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jinford/honyaku/internal/core/attachment"
	"github.com/jinford/honyaku/internal/core/backup"
	"github.com/jinford/honyaku/internal/core/metadata"
	"github.com/jinford/honyaku/internal/core/oracle"
	"github.com/jinford/honyaku/internal/core/output"
)

// Config はサービスの入力解釈の設定
type Config struct {
	// MimeHint は入力種別の明示指定（通常は自動判定）
	MimeHint string
	// Force が真のとき、判定不能な入力をプレーンテキストとして処理する
	Force bool
}

// Service は1件の翻訳を最初から最後まで実行する
// 一括翻訳と異なり、途中のどの段階の失敗も全体の失敗となる
type Service struct {
	registry *attachment.Registry
	resolver *output.Resolver
	backups  *backup.Manager
	history  *metadata.History
	config   *Config
	logger   *slog.Logger
}

// NewService は新しい Service を作成する
func NewService(
	registry *attachment.Registry,
	resolver *output.Resolver,
	backups *backup.Manager,
	history *metadata.History,
	config *Config,
	logger *slog.Logger,
) *Service {
	if config == nil {
		config = &Config{MimeHint: attachment.HintAuto}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		resolver: resolver,
		backups:  backups,
		history:  history,
		config:   config,
		logger:   logger,
	}
}

// FileResult はファイル翻訳の結果
type FileResult struct {
	OutputPath string
	MIME       string
	Model      string
}

// TranslateFile は1ファイルを翻訳して出力先へ書き込む
// 出力先に既存ファイルがある場合は書き込み前にバックアップを取る
func (s *Service) TranslateFile(ctx context.Context, path string, opts oracle.Options, or oracle.Oracle) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", attachment.ErrUnreadableInput, err)
	}

	resolved, err := attachment.ResolveKind(s.config.MimeHint, path, data, s.config.Force)
	if err != nil {
		return nil, err
	}

	job := attachment.NewJob(filepath.Base(path), data, resolved, opts)
	result, err := s.registry.Translate(ctx, job, or)
	if err != nil {
		return nil, err
	}

	outPath, err := s.resolver.ResolveFile(path, resolved.MIME, result.MIME)
	if err != nil {
		return nil, err
	}

	if s.backups != nil {
		if _, err := os.Stat(outPath); err == nil {
			if _, err := s.backups.Backup(outPath); err != nil {
				return nil, err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, result.Bytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}

	s.recordHistory(opts, string(data), result.Model, resolved.MIME)
	s.logger.Info("ファイルを翻訳", "input", path, "output", outPath, "mime", result.MIME)

	return &FileResult{OutputPath: outPath, MIME: result.MIME, Model: result.Model}, nil
}

// TranslateStream は標準入力などのストリームを翻訳して w へ書き出す
// 入力種別はバイト列の内容から判定する
func (s *Service) TranslateStream(ctx context.Context, r io.Reader, w io.Writer, opts oracle.Options, or oracle.Oracle) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: %v", attachment.ErrUnreadableInput, err)
	}

	resolved, err := attachment.ResolveKind(s.config.MimeHint, "", data, s.config.Force)
	if err != nil {
		return err
	}

	job := attachment.NewJob("stdin", data, resolved, opts)
	result, err := s.registry.Translate(ctx, job, or)
	if err != nil {
		return err
	}

	if _, err := w.Write(result.Bytes); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	s.recordHistory(opts, string(data), result.Model, resolved.MIME)
	return nil
}

// TranslateText はテキスト1件を翻訳し、訳文・読み・別案を含む結果を返す
func (s *Service) TranslateText(ctx context.Context, text string, opts oracle.Options, or oracle.Oracle) (*oracle.Result, error) {
	result, err := or.Translate(ctx, oracle.NewRequest(text, opts))
	if err != nil {
		return nil, err
	}

	s.recordHistory(opts, text, result.Model, attachment.MimeText)
	return result, nil
}

// recordHistory は翻訳1件を履歴へ記録する
// 履歴の書き込み失敗は翻訳自体の失敗にはしない
func (s *Service) recordHistory(opts oracle.Options, source, model, mime string) {
	if s.history == nil {
		return
	}
	err := s.history.Record(metadata.HistoryRecord{
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
		Excerpt:    source,
		Model:      model,
		MIME:       mime,
	})
	if err != nil {
		s.logger.Warn("履歴の記録に失敗", "error", err)
	}
}
