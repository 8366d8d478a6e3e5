package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/product-search/internal/core/indexing"
	"github.com/jinford/product-search/internal/core/search"
	"github.com/jinford/product-search/internal/infra/openai"
	"github.com/jinford/product-search/internal/infra/postgres"
	"github.com/jinford/product-search/internal/platform/config"
	"github.com/jinford/product-search/internal/platform/database"
)

// Encoder はインデクサと検索の両方で使う Embedding 生成器
type Encoder interface {
	indexing.Encoder
	search.Encoder
}

// ServiceContainer はアプリケーションの依存関係を保持する
type ServiceContainer struct {
	IndexService  *indexing.IndexService
	SearchService *search.SearchService
	Products      *postgres.ProductRepository
	Migrator      *postgres.Migrator

	logger   *slog.Logger
	database *database.Database
}

type containerOptions struct {
	logger   *slog.Logger
	encoder  Encoder
	progress indexing.ProgressFunc
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerEncoder はカスタム Encoder を注入する
func WithContainerEncoder(encoder Encoder) ContainerOption {
	return func(opts *containerOptions) {
		opts.encoder = encoder
	}
}

// WithContainerIndexProgress はインデクサの進捗コールバックを設定する
func WithContainerIndexProgress(fn indexing.ProgressFunc) ContainerOption {
	return func(opts *containerOptions) {
		opts.progress = fn
	}
}

// NewContainer は設定からコンテナを生成する。
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	db, err := database.New(ctx, ConnectionParams(cfg))
	if err != nil {
		return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}

	c, err := NewContainerWithDB(cfg, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// ConnectionParams は設定からデータベース接続パラメータを組み立てる
func ConnectionParams(cfg *config.Config) database.ConnectionParams {
	return database.ConnectionParams{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}
}

// NewContainerWithDB は既存の Database を受け取りコンテナを生成する。
func NewContainerWithDB(cfg *config.Config, db *database.Database, opts ...ContainerOption) (*ServiceContainer, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// Encoder (OpenAI)
	encoder := options.encoder
	if encoder == nil {
		var err error
		encoder, err = NewEmbedder(cfg)
		if err != nil {
			return nil, err
		}
	}

	// Repository (PostgreSQL)
	products := postgres.NewProductRepository(db.Pool)

	indexService := indexing.NewIndexService(
		products,
		encoder,
		indexing.WithIndexConfig(encoderIndexConfig(cfg, encoder)),
		indexing.WithIndexLocker(postgres.NewAdvisoryLocker(db.Pool)),
		indexing.WithIndexProgress(options.progress),
		indexing.WithIndexLogger(options.logger),
	)

	searchService := search.NewSearchService(
		products,
		encoder,
		search.WithNearestLimit(cfg.Search.Limit),
		search.WithFallbackThreshold(cfg.Search.FallbackThreshold),
		search.WithSearchTimeouts(cfg.OpenAI.Timeout, cfg.Database.Timeout),
		search.WithSearchLogger(options.logger),
	)

	return &ServiceContainer{
		IndexService:  indexService,
		SearchService: searchService,
		Products:      products,
		Migrator:      postgres.NewMigrator(db.Pool, options.logger),
		logger:        options.logger,
		database:      db,
	}, nil
}

// NewEmbedder は設定から OpenAI Embedder を生成する
func NewEmbedder(cfg *config.Config) (*openai.Embedder, error) {
	limiter, err := openai.NewTokenLimiter(cfg.OpenAI.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("TokenLimiter 初期化に失敗しました: %w", err)
	}

	return openai.NewEmbedder(
		cfg.OpenAI.APIKey,
		openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
		openai.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
		openai.WithBatchSize(cfg.Index.BatchSize),
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithTokenLimiter(limiter),
	), nil
}

// IndexConfig は設定からインデクサの設定を組み立てる
func IndexConfig(cfg *config.Config) indexing.Config {
	return indexing.Config{
		PageSize:            cfg.Index.PageSize,
		BatchSize:           cfg.Index.BatchSize,
		Ceiling:             cfg.Index.Ceiling,
		ProcessBoundaryPage: cfg.Index.ProcessBoundaryPage,
		ProviderTimeout:     cfg.OpenAI.Timeout,
		StoreTimeout:        cfg.Database.Timeout,
	}
}

// encoderIndexConfig は Encoder が実際に使うバッチサイズでインデクサ設定を補正する
func encoderIndexConfig(cfg *config.Config, encoder Encoder) indexing.Config {
	indexCfg := IndexConfig(cfg)
	if sized, ok := encoder.(interface{ BatchSize() int }); ok {
		indexCfg.BatchSize = sized.BatchSize()
	}
	return indexCfg
}

// Close は内部リソースを解放する。
func (c *ServiceContainer) Close() {
	if c != nil && c.database != nil {
		c.database.Close()
	}
}

// Logger はロガーを返す。
func (c *ServiceContainer) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

