package indexing

import (
	"context"

	"github.com/jinford/product-search/internal/core/catalog"
)

// Repository はインデックス化に必要なデータアクセスを表すインターフェース
type Repository interface {
	// ListProductsAfter は afterID より大きいIDの商品を ID 昇順で最大 limit 件取得する
	// サブカテゴリ（とそのカテゴリ）および仕入先を含めて返す
	ListProductsAfter(ctx context.Context, afterID int64, limit int) ([]catalog.Product, error)

	// UpdateEmbeddings は ids[i] の商品に vectors[i] を1ステートメントで書き込む
	UpdateEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error
}

// Locker はインデクサの多重起動を防ぐロックを提供する
type Locker interface {
	// TryLock はロックを取得する。取得済みの場合は catalog.ErrIndexerLocked を返す
	TryLock(ctx context.Context, key string) (release func(context.Context) error, err error)
}
