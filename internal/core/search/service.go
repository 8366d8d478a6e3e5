package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jinford/product-search/internal/core/catalog"
)

const (
	// DefaultNearestLimit は最近傍検索のデフォルト件数
	DefaultNearestLimit = 20
	// DefaultSearchLimit は検索APIのデフォルト件数
	DefaultSearchLimit = 10
	// MaxLimit は1回の検索で返す最大件数
	MaxLimit = 100
)

// SearchService は商品検索のビジネスロジックを提供する
type SearchService struct {
	repo              Repository
	encoder           Encoder
	nearestLimit      int
	fallbackThreshold float64
	providerTimeout   time.Duration
	storeTimeout      time.Duration
	logger            *slog.Logger
}

type searchServiceOptions struct {
	nearestLimit      int
	fallbackThreshold float64
	providerTimeout   time.Duration
	storeTimeout      time.Duration
	logger            *slog.Logger
}

// SearchServiceOption は SearchService のオプション設定
type SearchServiceOption func(*searchServiceOptions)

// WithSearchLogger は SearchService にロガーを設定する
func WithSearchLogger(logger *slog.Logger) SearchServiceOption {
	return func(o *searchServiceOptions) {
		o.logger = logger
	}
}

// WithNearestLimit は最近傍検索のデフォルト件数を上書きする
func WithNearestLimit(limit int) SearchServiceOption {
	return func(o *searchServiceOptions) {
		o.nearestLimit = limit
	}
}

// WithFallbackThreshold はキーワード検索へフォールバックする距離の閾値を設定する（0で無効）
func WithFallbackThreshold(threshold float64) SearchServiceOption {
	return func(o *searchServiceOptions) {
		o.fallbackThreshold = threshold
	}
}

// WithSearchTimeouts は Encoder / Repository 呼び出しのタイムアウトを設定する
func WithSearchTimeouts(provider, store time.Duration) SearchServiceOption {
	return func(o *searchServiceOptions) {
		o.providerTimeout = provider
		o.storeTimeout = store
	}
}

// NewSearchService は新しい SearchService を作成する
func NewSearchService(repo Repository, encoder Encoder, opts ...SearchServiceOption) *SearchService {
	options := searchServiceOptions{
		nearestLimit: DefaultNearestLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.nearestLimit <= 0 {
		options.nearestLimit = DefaultNearestLimit
	}

	return &SearchService{
		repo:              repo,
		encoder:           encoder,
		nearestLimit:      options.nearestLimit,
		fallbackThreshold: options.fallbackThreshold,
		providerTimeout:   options.providerTimeout,
		storeTimeout:      options.storeTimeout,
		logger:            options.logger,
	}
}

// Nearest はクエリに最も近い商品を距離の昇順で返す
//
// limit が0以下の場合はデフォルト件数（20件）を使用する。
// Embedding を持つ商品が存在しない場合は空スライスを返す。
func (s *SearchService) Nearest(ctx context.Context, query string, limit int) ([]NearestProduct, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	queryVector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	results, err := s.repo.NearestProducts(storeCtx, queryVector, clampLimit(limit, s.nearestLimit))
	if err != nil {
		return nil, fmt.Errorf("nearest search failed: %w: %w", catalog.ErrStore, err)
	}
	if results == nil {
		results = []NearestProduct{}
	}

	s.logger.Debug("最近傍検索を実行しました", "query", query, "results", len(results))
	return results, nil
}

// SearchParams は検索パラメータを表す
type SearchParams struct {
	Query string
	Limit int
}

// Search はベクトル検索を実行し、距離が閾値以上の場合はキーワード検索にフォールバックする
func (s *SearchService) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	query, err := normalizeQuery(params.Query)
	if err != nil {
		return nil, err
	}
	limit := clampLimit(params.Limit, DefaultSearchLimit)

	queryVector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	hits, err := s.repo.SearchProducts(storeCtx, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w: %w", catalog.ErrStore, err)
	}

	result := &SearchResult{Query: query, MatchType: MatchTypeVector, Hits: hits}
	if !s.shouldFallback(hits) {
		return ensureHits(result), nil
	}

	s.logger.Info("ベクトル検索の結果が不十分なため、キーワード検索にフォールバックします", "query", query)
	keywordHits, err := s.repo.KeywordSearch(storeCtx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w: %w", catalog.ErrStore, err)
	}
	// キーワード検索が0件でも距離の遠いベクトル結果には戻さない
	result.MatchType = MatchTypeKeyword
	result.Hits = keywordHits

	return ensureHits(result), nil
}

// EmbeddedCount は Embedding を持つ商品数を返す
func (s *SearchService) EmbeddedCount(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	count, err := s.repo.CountEmbedded(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count embedded products: %w: %w", catalog.ErrStore, err)
	}
	return count, nil
}

func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.providerTimeout)
	defer cancel()

	vectors, err := s.encoder.Encode(ctx, []string{query}, catalog.EncodeOptions{Normalize: true})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w: %w", catalog.ErrProvider, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: %w (texts=1, vectors=%d)", catalog.ErrProvider, catalog.ErrVectorCountMismatch, len(vectors))
	}
	return vectors[0], nil
}

func (s *SearchService) shouldFallback(hits []SearchHit) bool {
	if s.fallbackThreshold <= 0 {
		return false
	}
	if len(hits) == 0 || hits[0].Distance == nil {
		return true
	}
	return *hits[0].Distance >= s.fallbackThreshold
}

func normalizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", catalog.ErrMissingQuery
	}
	return query, nil
}

func clampLimit(limit, defaultLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func ensureHits(result *SearchResult) *SearchResult {
	if result.Hits == nil {
		result.Hits = []SearchHit{}
	}
	return result
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
