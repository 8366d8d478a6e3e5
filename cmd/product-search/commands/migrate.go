package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/product-search/internal/infra/postgres"
)

// MigrateAction は embedding 列と検索用インデックスを作成するコマンドのアクション
func MigrateAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	withCatalog := cmd.Bool("with-catalog")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	opts := postgres.MigrateOptions{
		Dimension:     appCtx.Config.OpenAI.EmbeddingDimension,
		CreateCatalog: withCatalog,
	}
	if err := appCtx.Container.Migrator.Migrate(ctx, opts); err != nil {
		return fmt.Errorf("マイグレーションに失敗: %w", err)
	}

	fmt.Printf("Migrated: embedding vector(%d)\n", opts.Dimension)
	return nil
}
