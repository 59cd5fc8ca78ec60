package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/honyaku/cmd/honyaku/commands"
)

// translateFlags は text / file コマンド共通の翻訳フラグ
func translateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "env",
			Usage: "環境変数ファイルパス",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "原文の言語コード（省略時は自動判定）",
		},
		&cli.StringFlag{
			Name:  "target",
			Usage: "訳文の言語コード",
		},
		&cli.StringFlag{
			Name:  "style",
			Usage: "訳文のスタイル (casual/formal)",
		},
		&cli.BoolFlag{
			Name:  "slang",
			Usage: "スラング・慣用句を保持して翻訳",
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "honyaku",
		Usage: "テキスト・ファイル・ディレクトリを翻訳するCLIツール",
		Commands: []*cli.Command{
			{
				Name:      "text",
				Usage:     "テキストを翻訳して表示",
				ArgsUsage: "<text>",
				Flags:     translateFlags(),
				Action:    commands.TextAction,
			},
			{
				Name:      "file",
				Usage:     "ファイルまたはディレクトリを翻訳（\"-\" で標準入力）",
				ArgsUsage: "<path>",
				Flags: append(translateFlags(),
					&cli.StringFlag{
						Name:  "out",
						Usage: "出力先パス（--overwrite とは併用不可）",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "元のファイルを上書き（バックアップを取得）",
					},
					&cli.StringFlag{
						Name:  "suffix",
						Usage: "出力ファイル名に付与する接尾辞",
					},
					&cli.StringFlag{
						Name:  "mime",
						Usage: "入力のMIMEタイプを明示指定",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "種別を判定できない入力をプレーンテキストとして処理",
					},
					&cli.BoolFlag{
						Name:  "with-comments",
						Usage: "マークアップはコメントのみを翻訳",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "未対応の種別のスキップを失敗として扱う",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "一括翻訳の並行ファイル数",
					},
					&cli.StringSliceFlag{
						Name:  "ignore",
						Usage: "除外パターン（gitignore 形式、複数指定可）",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "画像・PDFの合成を行わず中間状態のJSONを出力",
					},
				),
				Action: commands.FileAction,
			},
			{
				Name:  "models",
				Usage: "モデル管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "利用可能なモデル一覧を表示",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.BoolFlag{
								Name:  "refresh",
								Usage: "キャッシュを無視して再取得",
							},
						},
						Action: commands.ModelsListAction,
					},
				},
			},
			{
				Name:  "history",
				Usage: "翻訳履歴管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "翻訳履歴を表示",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
						},
						Action: commands.HistoryListAction,
					},
					{
						Name:  "clear",
						Usage: "翻訳履歴を全件削除",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
						},
						Action: commands.HistoryClearAction,
					},
				},
			},
			{
				Name:  "backup",
				Usage: "バックアップ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "バックアップ一覧を表示",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
						},
						Action: commands.BackupListAction,
					},
					{
						Name:  "prune",
						Usage: "期限切れのバックアップを削除",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
						},
						Action: commands.BackupPruneAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
