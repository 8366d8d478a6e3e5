package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/product-search/internal/interface/api"
)

// ServerStartAction はHTTPサーバを起動するコマンドのアクション
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile, withEncoder())
	if err != nil {
		return err
	}
	defer appCtx.Close()

	port := appCtx.Config.Server.Port
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	handler := api.NewHandler(appCtx.Container.SearchService, api.WithHandlerLogger(appCtx.Logger()))
	return api.Serve(ctx, fmt.Sprintf(":%d", port), handler.Routes(), appCtx.Logger())
}
