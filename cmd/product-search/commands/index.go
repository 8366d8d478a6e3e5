package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jinford/product-search/internal/core/indexing"
	"github.com/jinford/product-search/internal/platform/container"
)

// IndexAction は全商品の Embedding を生成して書き戻すコマンドのアクション
func IndexAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	opts := []AppContextOption{withEncoder()}
	if cmd.Bool("progress") {
		opts = append(opts, withContainerOptions(container.WithContainerIndexProgress(progressPrinter(os.Stderr))))
	}

	appCtx, err := NewAppContext(ctx, envFile, opts...)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	result, err := appCtx.Container.IndexService.Run(ctx)
	if err != nil {
		appCtx.Logger().Error("インデックス化に失敗しました", "error", err)
		return fmt.Errorf("インデックス化に失敗: %w", err)
	}

	printIndexResult(os.Stdout, result)
	return nil
}

// progressPrinter はページごとの進捗を1行ずつ出力する
func progressPrinter(w io.Writer) indexing.ProgressFunc {
	return func(p indexing.Progress) {
		fmt.Fprintf(w, "offset=%d chunk=%d processed=%d\n", p.Offset, p.PageSize, p.Processed)
	}
}

func printIndexResult(w io.Writer, result *indexing.IndexResult) {
	fmt.Fprintf(w, "Run ID:     %s\n", result.RunID)
	fmt.Fprintf(w, "Pages:      %d\n", result.Pages)
	fmt.Fprintf(w, "Processed:  %d\n", result.Processed)
	if result.StoppedAtCeiling {
		fmt.Fprintf(w, "Discarded:  %d (ceiling reached)\n", result.Discarded)
	}
	fmt.Fprintf(w, "Duration:   %s\n", result.Duration.Round(time.Millisecond))
}
