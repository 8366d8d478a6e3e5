package indexing

import (
	"context"

	"github.com/jinford/product-search/internal/core/catalog"
)

// Encoder はテキストをベクトル表現に変換するインターフェース
type Encoder interface {
	// Encode は texts と同じ順序・件数のベクトルを返す
	Encode(ctx context.Context, texts []string, opts catalog.EncodeOptions) ([][]float32, error)

	// ModelName はモデル名を返す
	ModelName() string

	// Dimension はEmbeddingベクトルの次元数を返す
	Dimension() int
}
