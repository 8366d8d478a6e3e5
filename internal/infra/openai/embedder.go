package openai

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jinford/product-search/internal/core/catalog"
	"github.com/jinford/product-search/internal/core/indexing"
	"github.com/jinford/product-search/internal/core/search"
)

// Embedder は OpenAI 互換の Embeddings API を使用してテキストをベクトルに変換する
type Embedder struct {
	client    openai.Client
	model     string
	dimension int
	batchSize int
	limiter   *TokenLimiter
}

const (
	// DefaultEmbeddingModel はモデル未指定時のデフォルトモデル
	DefaultEmbeddingModel = "text-embedding-3-small"
	// DefaultEmbeddingDimension は "Product".embedding 列のデフォルト次元
	DefaultEmbeddingDimension = 384
	// DefaultBatchSize は1リクエストあたりのデフォルトテキスト数
	DefaultBatchSize = 64
	// MaxBatchSize は OpenAI API が受け付ける1リクエストあたりの最大テキスト数
	MaxBatchSize = 100
)

type embedderOptions struct {
	model      string
	dimension  int
	batchSize  int
	baseURL    string
	maxRetries *int
	limiter    *TokenLimiter
}

// EmbedderOption は Embedder のオプション設定
type EmbedderOption func(*embedderOptions)

// WithEmbeddingModel はモデル名を上書きする
func WithEmbeddingModel(model string) EmbedderOption {
	return func(o *embedderOptions) {
		o.model = model
	}
}

// WithEmbeddingDimension はベクトル次元を上書きする
func WithEmbeddingDimension(dimension int) EmbedderOption {
	return func(o *embedderOptions) {
		o.dimension = dimension
	}
}

// WithBatchSize はデフォルトのバッチサイズを上書きする
func WithBatchSize(size int) EmbedderOption {
	return func(o *embedderOptions) {
		o.batchSize = size
	}
}

// WithBaseURL は API のベースURLを上書きする（OpenAI 互換サーバ向け）
func WithBaseURL(url string) EmbedderOption {
	return func(o *embedderOptions) {
		o.baseURL = url
	}
}

// WithMaxRetries は SDK のリトライ回数を上書きする
func WithMaxRetries(retries int) EmbedderOption {
	return func(o *embedderOptions) {
		o.maxRetries = &retries
	}
}

// WithTokenLimiter は入力テキストをトークン上限で切り詰める
func WithTokenLimiter(limiter *TokenLimiter) EmbedderOption {
	return func(o *embedderOptions) {
		o.limiter = limiter
	}
}

// NewEmbedder は新しい Embedder を作成する
func NewEmbedder(apiKey string, opts ...EmbedderOption) *Embedder {
	options := embedderOptions{
		model:     DefaultEmbeddingModel,
		dimension: DefaultEmbeddingDimension,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(&options)
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if options.baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(options.baseURL))
	}
	if options.maxRetries != nil {
		requestOpts = append(requestOpts, option.WithMaxRetries(*options.maxRetries))
	}

	return &Embedder{
		client:    openai.NewClient(requestOpts...),
		model:     options.model,
		dimension: options.dimension,
		batchSize: clampBatchSize(options.batchSize, DefaultBatchSize),
		limiter:   options.limiter,
	}
}

// Encode は texts をバッチに分割して Embedding を生成し、入力と同じ順序で返す
func (e *Embedder) Encode(ctx context.Context, texts []string, opts catalog.EncodeOptions) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	batchSize := clampBatchSize(opts.BatchSize, e.batchSize)
	embeddings := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		embeddings = append(embeddings, batch...)
	}

	if opts.Normalize {
		for _, vector := range embeddings {
			normalize(vector)
		}
	}

	return embeddings, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := texts
	if e.limiter != nil {
		inputs = make([]string, len(texts))
		for i, text := range texts {
			inputs[i] = e.limiter.Truncate(text)
		}
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
	}

	if len(inputs) == 1 {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(inputs[0]),
		}
	} else {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: inputs,
		}
	}

	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("%w: requested %d, received %d", catalog.ErrVectorCountMismatch, len(inputs), len(resp.Data))
	}

	// レスポンスの順序は保証されないため index で並べ替える
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	embeddings := make([][]float32, 0, len(data))
	for _, d := range data {
		if e.dimension > 0 && len(d.Embedding) != e.dimension {
			return nil, fmt.Errorf("unexpected embedding dimension: want %d, got %d", e.dimension, len(d.Embedding))
		}
		vector := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vector[i] = float32(v)
		}
		embeddings = append(embeddings, vector)
	}

	return embeddings, nil
}

// ModelName はモデル名を返す
func (e *Embedder) ModelName() string {
	return e.model
}

// Dimension はベクトル次元数を返す
func (e *Embedder) Dimension() int {
	return e.dimension
}

// BatchSize はデフォルトのバッチサイズを返す
func (e *Embedder) BatchSize() int {
	return e.batchSize
}

// normalize はベクトルを L2 ノルムで単位長に正規化する（ゼロベクトルはそのまま）
func normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i, v := range vector {
		vector[i] = float32(float64(v) / norm)
	}
}

func clampBatchSize(size, fallback int) int {
	if size <= 0 {
		size = fallback
	}
	if size > MaxBatchSize {
		return MaxBatchSize
	}
	return size
}

// インターフェース実装の確認
var (
	_ indexing.Encoder = (*Embedder)(nil)
	_ search.Encoder   = (*Embedder)(nil)
)
