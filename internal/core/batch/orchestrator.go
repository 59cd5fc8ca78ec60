package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jinford/honyaku/internal/core/attachment"
	"github.com/jinford/honyaku/internal/core/backup"
	"github.com/jinford/honyaku/internal/core/oracle"
	"github.com/jinford/honyaku/internal/core/output"
)

const (
	// DefaultWorkerCount はデフォルトの翻訳ワーカー数（I/O バウンド）
	DefaultWorkerCount = 3
)

// Config はオーケストレータの設定
type Config struct {
	// WorkerCount は並行して処理するファイル数
	WorkerCount int
	// Strict が真のとき、未対応種別のスキップを失敗として扱う
	Strict bool
	// MimeHint は全ファイル共通の MIME ヒント（通常は自動判定）
	MimeHint string
	// Force が真のとき、判定不能な入力をプレーンテキストとして処理する
	Force bool
}

// DefaultConfig はデフォルトのオーケストレータ設定を返す
func DefaultConfig() *Config {
	return &Config{
		WorkerCount: DefaultWorkerCount,
		MimeHint:    attachment.HintAuto,
	}
}

// task は1ファイル分の翻訳タスク
type task struct {
	RelPath string
	SrcPath string
}

// Orchestrator はディレクトリ配下のファイルを並行して翻訳する
// 1ファイルの失敗は他のファイルへ波及しない
type Orchestrator struct {
	registry *attachment.Registry
	resolver *output.Resolver
	backups  *backup.Manager
	matcher  *Matcher
	config   *Config
	logger   *slog.Logger
}

// NewOrchestrator は新しい Orchestrator を作成する
func NewOrchestrator(
	registry *attachment.Registry,
	resolver *output.Resolver,
	backups *backup.Manager,
	matcher *Matcher,
	config *Config,
	logger *slog.Logger,
) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultWorkerCount
	}
	if matcher == nil {
		matcher = NewMatcher(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: registry,
		resolver: resolver,
		backups:  backups,
		matcher:  matcher,
		config:   config,
		logger:   logger,
	}
}

// Run は srcDir 配下の全ファイルを翻訳し、結果のレポートを返す
// 出力ツリーは入力の相対パス構造をそのまま再現する
func (o *Orchestrator) Run(ctx context.Context, srcDir string, opts oracle.Options, or oracle.Oracle) (*Report, error) {
	outRoot, err := o.resolver.ResolveDir(srcDir)
	if err != nil {
		return nil, err
	}

	tasks, err := o.collectTasks(srcDir)
	if err != nil {
		return nil, err
	}

	taskChan := make(chan task, len(tasks))
	resultChan := make(chan TaskResult, len(tasks))

	go func() {
		defer close(taskChan)
		for _, t := range tasks {
			select {
			case taskChan <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(o.config.WorkerCount)
	for i := 0; i < o.config.WorkerCount; i++ {
		go func() {
			defer wg.Done()
			for t := range taskChan {
				resultChan <- o.processTask(ctx, t, outRoot, opts, or)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	report := &Report{}
	for result := range resultChan {
		if result.Err != nil {
			o.logger.Warn("ファイルの翻訳に失敗",
				"path", result.RelPath,
				"error", result.Err,
			)
		}
		report.Results = append(report.Results, result)
	}

	// 並行処理で順序が乱れるため、入力順（相対パス順）に揃える
	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].RelPath < report.Results[j].RelPath
	})

	o.logger.Info("一括翻訳が完了", "summary", report.Summary())
	return report, nil
}

// collectTasks は srcDir を走査して除外対象を除いたタスク一覧を返す
func (o *Orchestrator) collectTasks(srcDir string) ([]task, error) {
	var tasks []task
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if o.matcher.ShouldIgnore(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Base(path) == IgnoreFileName {
			return nil
		}
		if o.matcher.ShouldIgnore(rel) {
			return nil
		}
		tasks = append(tasks, task{RelPath: rel, SrcPath: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	return tasks, nil
}

// processTask は1ファイルを翻訳して出力へ書き込む
// 翻訳しなかったファイルの扱い（複製・スキップ）は copyThrough が決める
func (o *Orchestrator) processTask(ctx context.Context, t task, outRoot string, opts oracle.Options, or oracle.Oracle) TaskResult {
	data, err := os.ReadFile(t.SrcPath)
	if err != nil {
		return TaskResult{RelPath: t.RelPath, Outcome: OutcomeFailed, Err: fmt.Errorf("failed to read file: %w", err)}
	}

	resolved, err := attachment.ResolveKind(o.config.MimeHint, t.SrcPath, data, o.config.Force)
	if err != nil {
		return o.copyThrough(t, outRoot, data, false, err)
	}

	job := attachment.NewJob(filepath.Base(t.SrcPath), data, resolved, opts)
	result, err := o.registry.Translate(ctx, job, or)
	if err != nil {
		if errors.Is(err, attachment.ErrUnsupportedKind) {
			return o.copyThrough(t, outRoot, data, false, err)
		}
		return o.copyThrough(t, outRoot, data, true, err)
	}

	outPath := filepath.Join(outRoot, t.RelPath)
	if result.MIME != resolved.MIME {
		outPath = replaceExt(outPath, result.MIME)
	}
	if err := o.write(outPath, result.Bytes); err != nil {
		return TaskResult{RelPath: t.RelPath, Outcome: OutcomeFailed, Err: err}
	}
	return TaskResult{RelPath: t.RelPath, Outcome: OutcomeTranslated, OutputPath: outPath}
}

// copyThrough は翻訳しなかったファイルの後始末を行う
// 出力ツリーが入力と別の場所にある場合のみ原本をそのまま複製する
// 上書きモードでは原本がその場に残るため、複製もバックアップも行わない
// 複製自体に失敗した場合は結末を失敗へ格上げする
func (o *Orchestrator) copyThrough(t task, outRoot string, data []byte, failed bool, cause error) TaskResult {
	outPath := filepath.Join(outRoot, t.RelPath)
	inPlace := filepath.Clean(outPath) == filepath.Clean(t.SrcPath)

	outcome := OutcomeSkipped
	switch {
	case failed:
		outcome = OutcomeFailed
	case o.config.Strict:
		// 厳格モードではスキップも失敗として数える
		outcome = OutcomeFailed
	case !inPlace:
		outcome = OutcomeCopied
	}

	res := TaskResult{RelPath: t.RelPath, Outcome: outcome}
	if outcome == OutcomeFailed {
		res.Err = cause
	}
	if inPlace {
		return res
	}
	if err := o.write(outPath, data); err != nil {
		return TaskResult{RelPath: t.RelPath, Outcome: OutcomeFailed, Err: errors.Join(cause, err)}
	}
	res.OutputPath = outPath
	return res
}

// write は出力先ディレクトリを作成してからファイルを書き込む
// 既存ファイルを上書きする場合は事前にバックアップを取る
func (o *Orchestrator) write(path string, data []byte) error {
	if o.backups != nil {
		if _, err := os.Stat(path); err == nil {
			if _, err := o.backups.Backup(path); err != nil {
				return err
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// replaceExt は出力 MIME に合わせて拡張子を差し替える
func replaceExt(path, mime string) string {
	ext := output.ExtensionForMime(mime)
	if ext == "" {
		return path
	}
	base := path[:len(path)-len(filepath.Ext(path))]
	return base + ext
}
