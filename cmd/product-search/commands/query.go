package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/product-search/internal/core/catalog"
	"github.com/jinford/product-search/internal/core/search"
)

// errQueryUsage はクエリ引数の数が不正な場合のエラー
var errQueryUsage = fmt.Errorf(`%w: usage: product-search query "<text>"`, catalog.ErrMissingQuery)

// QueryAction はテキストに最も近い商品を表示するコマンドのアクション
func QueryAction(ctx context.Context, cmd *cli.Command) error {
	query, err := queryArg(cmd.Args().Slice())
	if err != nil {
		return err
	}
	envFile := cmd.String("env")
	limit := cmd.Int("limit")
	asJSON := cmd.Bool("json")

	appCtx, err := NewAppContext(ctx, envFile, withEncoder(), withLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	results, err := appCtx.Container.SearchService.Nearest(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("検索に失敗: %w", err)
	}

	if asJSON {
		return writeNearestJSON(os.Stdout, results)
	}
	renderNearestTable(os.Stdout, results)
	return nil
}

// queryArg は位置引数がちょうど1つであることを確認して返す
func queryArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", errQueryUsage
	}
	return args[0], nil
}

func renderNearestTable(w io.Writer, results []search.NearestProduct) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No embedded products found. Run \"product-search index\" first.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "ID", "Name", "Distance")
	for i, r := range results {
		table.Append(
			strconv.Itoa(i+1),
			strconv.FormatInt(r.ID, 10),
			r.DisplayName,
			strconv.FormatFloat(r.Distance, 'f', 4, 64),
		)
	}
	table.Render()
}

func writeNearestJSON(w io.Writer, results []search.NearestProduct) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("JSONの書き出しに失敗: %w", err)
	}
	return nil
}
