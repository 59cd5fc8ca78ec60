package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jinford/honyaku/internal/core/batch"
	"github.com/jinford/honyaku/internal/core/output"
	"github.com/jinford/honyaku/internal/core/translate"
)

// TextAction はコマンドライン引数のテキストを翻訳して表示する
func TextAction(ctx context.Context, cmd *cli.Command) error {
	text := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("翻訳するテキストを指定してください")
	}

	ac, err := NewAppContext(cmd, false)
	if err != nil {
		return err
	}

	service := translate.NewService(ac.Registry, nil, nil, ac.History, nil, ac.Logger)
	result, err := service.TranslateText(ctx, text, ac.Options(cmd), ac.Translator)
	if err != nil {
		return err
	}

	fmt.Println(result.Translated)
	if result.Reading != "" {
		fmt.Printf("読み: %s\n", result.Reading)
	}
	for _, alt := range result.Alternatives {
		fmt.Printf("別案: %s\n", alt)
	}
	if result.Correction != "" {
		fmt.Printf("修正: %s\n", result.Correction)
	}
	return nil
}

// FileAction はファイルまたはディレクトリを翻訳する
// パスに "-" を指定した場合は標準入力を翻訳して標準出力へ書き出す
func FileAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("翻訳するファイルまたはディレクトリを指定してください")
	}

	ac, err := NewAppContext(cmd, cmd.Bool("debug"))
	if err != nil {
		return err
	}

	resolver, err := output.NewResolver(cmd.String("out"), cmd.Bool("overwrite"), ac.Suffix(cmd))
	if err != nil {
		return err
	}

	svcConfig := &translate.Config{
		MimeHint: cmd.String("mime"),
		Force:    cmd.Bool("force"),
	}

	if path == "-" {
		service := translate.NewService(ac.Registry, resolver, nil, ac.History, svcConfig, ac.Logger)
		return service.TranslateStream(ctx, os.Stdin, os.Stdout, ac.Options(cmd), ac.Translator)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("入力にアクセスできません: %w", err)
	}

	if info.IsDir() {
		return runBatch(ctx, cmd, ac, resolver, path)
	}

	service := translate.NewService(ac.Registry, resolver, ac.Backups, ac.History, svcConfig, ac.Logger)
	result, err := service.TranslateFile(ctx, path, ac.Options(cmd), ac.Translator)
	if err != nil {
		return err
	}
	fmt.Println(result.OutputPath)
	return nil
}

// runBatch はディレクトリ配下の一括翻訳を実行する
// 1件でも失敗があった場合はエラー終了する
func runBatch(ctx context.Context, cmd *cli.Command, ac *AppContext, resolver *output.Resolver, dir string) error {
	matcher, err := batch.LoadMatcher(dir, cmd.StringSlice("ignore"))
	if err != nil {
		return err
	}

	workers := cmd.Int("workers")
	if workers <= 0 {
		workers = ac.Config.Translate.WorkerCount
	}

	orchestrator := batch.NewOrchestrator(ac.Registry, resolver, ac.Backups, matcher, &batch.Config{
		WorkerCount: workers,
		Strict:      cmd.Bool("strict"),
		MimeHint:    cmd.String("mime"),
		Force:       cmd.Bool("force"),
	}, ac.Logger)

	report, err := orchestrator.Run(ctx, dir, ac.Options(cmd), ac.Translator)
	if err != nil {
		return err
	}

	for _, res := range report.Results {
		line := fmt.Sprintf("%-10s %s", res.Outcome, res.RelPath)
		if res.Err != nil {
			line += fmt.Sprintf(" (%v)", res.Err)
		}
		fmt.Println(line)
	}
	fmt.Println(report.Summary())

	if report.Failed() {
		return fmt.Errorf("一部のファイルの翻訳に失敗しました")
	}
	return nil
}
