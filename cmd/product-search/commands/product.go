package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jinford/product-search/internal/core/catalog"
)

// ProductShowAction は商品の合成テキストと Embedding の有無を表示するコマンドのアクション
func ProductShowAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	id := cmd.Int64("id")

	appCtx, err := NewAppContext(ctx, envFile, withLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	products := appCtx.Container.Products
	product, err := products.GetProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("商品の取得に失敗: %w", err)
	}
	embedding, err := products.GetEmbedding(ctx, id)
	if err != nil {
		return fmt.Errorf("Embeddingの取得に失敗: %w", err)
	}

	printProduct(os.Stdout, product, len(embedding))
	return nil
}

func printProduct(w io.Writer, p *catalog.Product, dimension int) {
	fmt.Fprintf(w, "ID:        %d\n", p.ID)
	fmt.Fprintf(w, "Name:      %s\n", catalog.DisplayName(*p))
	fmt.Fprintf(w, "Text:      %s\n", catalog.ComposeText(*p))
	if dimension == 0 {
		fmt.Fprintln(w, "Embedding: (none)")
		return
	}
	fmt.Fprintf(w, "Embedding: %d dimensions\n", dimension)
}
