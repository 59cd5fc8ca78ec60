package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/honyaku/internal/core/attachment"
	"github.com/jinford/honyaku/internal/core/backup"
	"github.com/jinford/honyaku/internal/core/oracle"
	"github.com/jinford/honyaku/internal/core/output"
)

// stubOracle はテスト用の決定的な翻訳オラクル
type stubOracle struct{}

func (s *stubOracle) Translate(ctx context.Context, req oracle.Request) (*oracle.Result, error) {
	return &oracle.Result{Translated: "訳:" + req.Text, Model: "stub-model"}, nil
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newTestOrchestrator(matcher *Matcher, cfg *Config, outDir string) (*Orchestrator, error) {
	registry := attachment.NewRegistry(attachment.RegistryConfig{
		Text: attachment.NewTextHandler(false),
	})
	resolver, err := output.NewResolver(outDir, false, "")
	if err != nil {
		return nil, err
	}
	return NewOrchestrator(registry, resolver, nil, matcher, cfg, nil), nil
}

func TestOrchestrator_FailureIsolation(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	corrupt := []byte{0xff, 0xfe, 0x00, 0x41}
	writeFile(t, filepath.Join(srcDir, "a.txt"), []byte("hello"))
	writeFile(t, filepath.Join(srcDir, "b.txt"), corrupt)
	writeFile(t, filepath.Join(srcDir, "sub", "c.txt"), []byte("world"))

	o, err := newTestOrchestrator(nil, nil, outDir)
	require.NoError(t, err)

	report, err := o.Run(context.Background(), srcDir, oracle.Options{TargetLang: "ja"}, &stubOracle{})
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, 2, report.Count(OutcomeTranslated))
	assert.Equal(t, 1, report.Count(OutcomeFailed))
	assert.True(t, report.Failed())
	assert.Equal(t, "files: 2 translated, 0 copied, 0 skipped, 1 failed (total 3)", report.Summary())

	// 成功したファイルは翻訳され、階層が保持される
	a, err := os.ReadFile(filepath.Join(outDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "訳:hello", string(a))

	c, err := os.ReadFile(filepath.Join(outDir, "sub", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "訳:world", string(c))

	// 失敗したファイルは原本がバイト単位でそのまま複製される
	b, err := os.ReadFile(filepath.Join(outDir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, corrupt, b)
}

func TestOrchestrator_UnsupportedFilesAreCopied(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	unknown := []byte{0x00, 0x01, 0x02}
	writeFile(t, filepath.Join(srcDir, "mystery.bin"), unknown)
	writeFile(t, filepath.Join(srcDir, "a.txt"), []byte("hello"))

	o, err := newTestOrchestrator(nil, nil, outDir)
	require.NoError(t, err)

	report, err := o.Run(context.Background(), srcDir, oracle.Options{}, &stubOracle{})
	require.NoError(t, err)

	// 出力ツリーが別にある場合、翻訳対象外のファイルは複製として数える
	assert.Equal(t, 1, report.Count(OutcomeTranslated))
	assert.Equal(t, 1, report.Count(OutcomeCopied))
	assert.Zero(t, report.Count(OutcomeSkipped))
	assert.False(t, report.Failed())
	assert.Equal(t, "files: 1 translated, 1 copied, 0 skipped, 0 failed (total 2)", report.Summary())

	copied, err := os.ReadFile(filepath.Join(outDir, "mystery.bin"))
	require.NoError(t, err)
	assert.Equal(t, unknown, copied)
}

func TestOrchestrator_OverwriteModeSkipsWithoutCopy(t *testing.T) {
	srcDir := t.TempDir()
	backupDir := t.TempDir()

	unknown := []byte{0x00, 0x01, 0x02}
	writeFile(t, filepath.Join(srcDir, "mystery.bin"), unknown)
	writeFile(t, filepath.Join(srcDir, "a.txt"), []byte("hello"))

	registry := attachment.NewRegistry(attachment.RegistryConfig{
		Text: attachment.NewTextHandler(false),
	})
	resolver, err := output.NewResolver("", true, "")
	require.NoError(t, err)
	backups := backup.NewManager(backupDir, 30)

	o := NewOrchestrator(registry, resolver, backups, nil, nil, nil)
	report, err := o.Run(context.Background(), srcDir, oracle.Options{}, &stubOracle{})
	require.NoError(t, err)

	// 翻訳対象外のファイルはその場に残り、複製もバックアップも発生しない
	assert.Equal(t, 1, report.Count(OutcomeTranslated))
	assert.Equal(t, 1, report.Count(OutcomeSkipped))
	assert.Zero(t, report.Count(OutcomeCopied))

	untouched, err := os.ReadFile(filepath.Join(srcDir, "mystery.bin"))
	require.NoError(t, err)
	assert.Equal(t, unknown, untouched)

	translated, err := os.ReadFile(filepath.Join(srcDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "訳:hello", string(translated))

	// バックアップは上書きされた a.txt の1件のみ
	records, err := backups.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, filepath.Join(srcDir, "a.txt"), records[0].Src)

	for _, res := range report.Results {
		if res.Outcome == OutcomeSkipped {
			assert.Empty(t, res.OutputPath)
		}
	}
}

func TestOrchestrator_StrictModeCountsSkipsAsFailures(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "mystery.bin"), []byte{0x00, 0x01})

	o, err := newTestOrchestrator(nil, &Config{Strict: true, MimeHint: attachment.HintAuto}, outDir)
	require.NoError(t, err)

	report, err := o.Run(context.Background(), srcDir, oracle.Options{}, &stubOracle{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(OutcomeFailed))
	assert.True(t, report.Failed())
}

func TestOrchestrator_IgnoredEntriesCreateNoTasks(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	writeFile(t, filepath.Join(srcDir, "a.txt"), []byte("keep"))
	writeFile(t, filepath.Join(srcDir, "scratch.tmp"), []byte("drop"))
	writeFile(t, filepath.Join(srcDir, "build", "out.txt"), []byte("drop"))

	matcher := NewMatcher([]string{"*.tmp", "build/"})
	o, err := newTestOrchestrator(matcher, nil, outDir)
	require.NoError(t, err)

	report, err := o.Run(context.Background(), srcDir, oracle.Options{}, &stubOracle{})
	require.NoError(t, err)

	// 除外されたエントリはレポートにも出力にも現れない
	require.Len(t, report.Results, 1)
	assert.Equal(t, "a.txt", report.Results[0].RelPath)

	_, err = os.Stat(filepath.Join(outDir, "scratch.tmp"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(outDir, "build"))
	assert.True(t, os.IsNotExist(err))
}

func TestOrchestrator_IgnoreFileItselfIsNotTranslated(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	writeFile(t, filepath.Join(srcDir, IgnoreFileName), []byte("*.tmp\n"))
	writeFile(t, filepath.Join(srcDir, "a.txt"), []byte("hello"))

	matcher, err := LoadMatcher(srcDir, nil)
	require.NoError(t, err)

	o, err := newTestOrchestrator(matcher, nil, outDir)
	require.NoError(t, err)

	report, err := o.Run(context.Background(), srcDir, oracle.Options{}, &stubOracle{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "a.txt", report.Results[0].RelPath)
}

func TestOrchestrator_SiblingOutputDirectory(t *testing.T) {
	base := t.TempDir()
	srcDir := filepath.Join(base, "docs")
	writeFile(t, filepath.Join(srcDir, "a.txt"), []byte("hello"))

	registry := attachment.NewRegistry(attachment.RegistryConfig{
		Text: attachment.NewTextHandler(false),
	})
	resolver, err := output.NewResolver("", false, "_translated")
	require.NoError(t, err)

	o := NewOrchestrator(registry, resolver, nil, nil, nil, nil)
	report, err := o.Run(context.Background(), srcDir, oracle.Options{}, &stubOracle{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	out, err := os.ReadFile(filepath.Join(base, "docs_translated", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "訳:hello", string(out))
}
