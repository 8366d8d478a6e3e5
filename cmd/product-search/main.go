package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/product-search/cmd/product-search/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "product-search",
		Usage:   "商品カタログのセマンティック検索（PostgreSQL + pgvector）",
		Version: commands.Version,
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "全商品の Embedding を生成して書き戻す",
				Flags: []cli.Flag{
					envFlag(),
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "ページごとの進捗を標準エラーに出力",
					},
				},
				Action: commands.IndexAction,
			},
			{
				Name:      "query",
				Usage:     "テキストに最も近い商品を表示",
				ArgsUsage: `"<text>"`,
				Flags: []cli.Flag{
					envFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "表示件数（省略時は QUERY_LIMIT）",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "JSON形式で出力",
					},
				},
				Action: commands.QueryAction,
			},
			{
				Name:  "product",
				Usage: "商品の確認コマンド",
				Commands: []*cli.Command{
					{
						Name:  "show",
						Usage: "商品の合成テキストと Embedding の有無を表示",
						Flags: []cli.Flag{
							envFlag(),
							&cli.Int64Flag{
								Name:     "id",
								Usage:    "商品ID",
								Required: true,
							},
						},
						Action: commands.ProductShowAction,
					},
				},
			},
			{
				Name:  "migrate",
				Usage: "vector 拡張・embedding 列・HNSW インデックスを作成",
				Flags: []cli.Flag{
					envFlag(),
					&cli.BoolFlag{
						Name:  "with-catalog",
						Usage: "商品カタログのテーブルが無ければ作成（開発用）",
					},
				},
				Action: commands.MigrateAction,
			},
			{
				Name:  "server",
				Usage: "HTTPサーバコマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "検索APIサーバを起動",
						Flags: []cli.Flag{
							envFlag(),
							&cli.IntFlag{
								Name:  "port",
								Usage: "待ち受けポート（省略時は SERVER_PORT）",
							},
						},
						Action: commands.ServerStartAction,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "標準入出力で MCP サーバを起動（search_products ツール）",
				Flags:  []cli.Flag{envFlag()},
				Action: commands.MCPAction,
			},
		},
	}
}
