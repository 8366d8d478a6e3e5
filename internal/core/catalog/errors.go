package catalog

import "errors"

var (
	// ErrMissingQuery は検索クエリが空の場合のエラー
	ErrMissingQuery = errors.New("query is required")

	// ErrProvider はEmbedding生成に失敗した場合のエラー
	ErrProvider = errors.New("embedding provider failure")

	// ErrStore はデータベース操作に失敗した場合のエラー
	ErrStore = errors.New("store failure")

	// ErrIndexerLocked は別のインデクサが実行中の場合のエラー
	ErrIndexerLocked = errors.New("another indexer run holds the lock")

	// ErrProductNotFound は指定IDの商品が存在しない場合のエラー
	ErrProductNotFound = errors.New("product not found")

	// ErrVectorCountMismatch は入力テキスト数と返却ベクトル数が一致しない場合のエラー
	ErrVectorCountMismatch = errors.New("embedding count does not match input count")
)
