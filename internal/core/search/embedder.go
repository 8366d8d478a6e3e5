package search

import (
	"context"

	"github.com/jinford/product-search/internal/core/catalog"
)

// Encoder はテキストのEmbedding生成インターフェース
type Encoder interface {
	Encode(ctx context.Context, texts []string, opts catalog.EncodeOptions) ([][]float32, error)
}
