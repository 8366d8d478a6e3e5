package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jinford/product-search/internal/interface/mcp"
)

// MCPAction は標準入出力で MCP サーバを起動するコマンドのアクション
func MCPAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	// 標準出力は MCP プロトコルが使うため、ログは標準エラーへ出力する
	appCtx, err := NewAppContext(ctx, envFile, withEncoder(), withLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	server, err := mcp.NewServer(appCtx.Container.SearchService, Version, mcp.WithServerLogger(appCtx.Logger()))
	if err != nil {
		return fmt.Errorf("MCPサーバの初期化に失敗: %w", err)
	}
	return server.Serve(ctx)
}
