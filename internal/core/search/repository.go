package search

import "context"

// Repository は検索関連のデータアクセスを表すインターフェース
type Repository interface {
	// NearestProducts は Embedding を持つ商品を queryVector との距離の昇順で最大 limit 件返す
	NearestProducts(ctx context.Context, queryVector []float32, limit int) ([]NearestProduct, error)

	// SearchProducts は NearestProducts と同じ順序で、表示用の商品情報を含めて返す
	SearchProducts(ctx context.Context, queryVector []float32, limit int) ([]SearchHit, error)

	// KeywordSearch は表示名・商品名・ブランドの部分一致で商品を返す
	KeywordSearch(ctx context.Context, keyword string, limit int) ([]SearchHit, error)

	// CountEmbedded は Embedding を持つ商品数を返す
	CountEmbedded(ctx context.Context) (int64, error)
}
