package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/product-search/internal/core/catalog"
)

const (
	// DefaultPageSize は1回の取得で読み込む商品数
	DefaultPageSize = 1000
	// DefaultBatchSize は1回のEmbedding API呼び出しで送るテキスト数
	DefaultBatchSize = 64
	// DefaultCeiling は1回の実行で処理する商品数の上限
	DefaultCeiling = 200000
	// LockKey はインデクサのアドバイザリロックに使用するキー
	LockKey = "product-search:embedding-indexer"
)

// Config はインデックス化処理の設定
type Config struct {
	// PageSize は1ページあたりの取得件数
	PageSize int
	// BatchSize は Encoder に渡すバッチサイズ
	BatchSize int
	// Ceiling は処理件数の上限（0以下で無制限）。offset が Ceiling に達した時点で停止する
	Ceiling int
	// ProcessBoundaryPage が false の場合、上限に達したページは書き込まずに破棄する
	ProcessBoundaryPage bool
	// ProviderTimeout は Encoder 呼び出し1回あたりのタイムアウト（0で無効）
	ProviderTimeout time.Duration
	// StoreTimeout は Repository 呼び出し1回あたりのタイムアウト（0で無効）
	StoreTimeout time.Duration
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		PageSize:  DefaultPageSize,
		BatchSize: DefaultBatchSize,
		Ceiling:   DefaultCeiling,
	}
}

// Progress はページ処理ごとの進捗を表す
type Progress struct {
	RunID     uuid.UUID
	Offset    int
	PageSize  int
	Processed int
}

// ProgressFunc は進捗通知のコールバック
type ProgressFunc func(Progress)

// IndexResult はインデックス化処理の結果を表す
type IndexResult struct {
	RunID            uuid.UUID
	Fetches          int // 空ページを含む取得回数
	Pages            int // 書き込みまで完了したページ数
	Processed        int // Embedding を書き込んだ商品数
	Discarded        int // 上限到達により破棄した商品数
	StoppedAtCeiling bool
	Duration         time.Duration
}

// IndexService は商品 Embedding のインデックス化ユースケースを提供する
type IndexService struct {
	repo     Repository
	encoder  Encoder
	locker   Locker
	config   Config
	progress ProgressFunc
	logger   *slog.Logger
}

type indexServiceOptions struct {
	config   Config
	locker   Locker
	progress ProgressFunc
	logger   *slog.Logger
}

// IndexServiceOption は IndexService のオプション設定
type IndexServiceOption func(*indexServiceOptions)

// WithIndexConfig は処理設定を上書きする
func WithIndexConfig(cfg Config) IndexServiceOption {
	return func(o *indexServiceOptions) {
		o.config = cfg
	}
}

// WithIndexLocker は多重起動防止用のロックを設定する
func WithIndexLocker(locker Locker) IndexServiceOption {
	return func(o *indexServiceOptions) {
		o.locker = locker
	}
}

// WithIndexProgress は進捗通知のコールバックを設定する
func WithIndexProgress(fn ProgressFunc) IndexServiceOption {
	return func(o *indexServiceOptions) {
		o.progress = fn
	}
}

// WithIndexLogger は IndexService にロガーを設定する
func WithIndexLogger(logger *slog.Logger) IndexServiceOption {
	return func(o *indexServiceOptions) {
		o.logger = logger
	}
}

// NewIndexService は新しい IndexService を作成する
func NewIndexService(repo Repository, encoder Encoder, opts ...IndexServiceOption) *IndexService {
	options := indexServiceOptions{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.config.PageSize <= 0 {
		options.config.PageSize = DefaultPageSize
	}
	if options.config.BatchSize <= 0 {
		options.config.BatchSize = DefaultBatchSize
	}

	return &IndexService{
		repo:     repo,
		encoder:  encoder,
		locker:   options.locker,
		config:   options.config,
		progress: options.progress,
		logger:   options.logger,
	}
}

// Config は有効な設定を返す
func (s *IndexService) Config() Config {
	return s.config
}

// Run は全商品をページ単位で走査し、Embedding を生成して書き戻す
//
// ページは ID のキーセットで取得するため、実行中に行が追加・削除されても
// 既存の行を読み飛ばしたり重複して処理したりしない。
// 失敗時はリトライせずにエラーを返す（再実行時は先頭から上書きする）。
func (s *IndexService) Run(ctx context.Context) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{RunID: uuid.New()}
	logger := s.logger.With("run_id", result.RunID.String())

	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, LockKey)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire indexer lock: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("インデクサロックの解放に失敗しました", "error", err)
			}
		}()
	}

	logger.Info("Embedding インデックス化を開始",
		"model", s.encoder.ModelName(),
		"dimension", s.encoder.Dimension(),
		"page_size", s.config.PageSize,
		"batch_size", s.config.BatchSize,
		"ceiling", s.config.Ceiling,
	)

	// ID は負値や0もあり得るため、最小値から走査する
	var (
		offset int
		lastID int64 = math.MinInt64
	)
	for {
		page, err := s.fetchPage(ctx, lastID)
		result.Fetches++
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		ids := make([]int64, len(page))
		texts := make([]string, len(page))
		for i, product := range page {
			ids[i] = product.ID
			texts[i] = catalog.ComposeText(product)
		}
		lastID = ids[len(ids)-1]
		offset += s.config.PageSize

		reachedCeiling := s.config.Ceiling > 0 && offset >= s.config.Ceiling
		if reachedCeiling && !s.config.ProcessBoundaryPage {
			result.Discarded = len(page)
			result.StoppedAtCeiling = true
			logger.Warn("処理上限に達したため、取得済みページを破棄して終了します",
				"offset", offset,
				"ceiling", s.config.Ceiling,
				"discarded", len(page),
			)
			break
		}

		vectors, err := s.encode(ctx, texts)
		if err != nil {
			return nil, err
		}

		if err := s.write(ctx, ids, vectors); err != nil {
			return nil, err
		}

		result.Pages++
		result.Processed += len(page)
		logger.Info("ページを処理しました", "offset", offset, "chunk", len(page))
		if s.progress != nil {
			s.progress(Progress{
				RunID:     result.RunID,
				Offset:    offset,
				PageSize:  len(page),
				Processed: result.Processed,
			})
		}

		if reachedCeiling {
			result.StoppedAtCeiling = true
			logger.Warn("処理上限に達したため終了します", "offset", offset, "ceiling", s.config.Ceiling)
			break
		}
	}

	result.Duration = time.Since(start)
	logger.Info("Embedding インデックス化が完了",
		"pages", result.Pages,
		"processed", result.Processed,
		"discarded", result.Discarded,
		"duration", result.Duration,
	)

	return result, nil
}

func (s *IndexService) fetchPage(ctx context.Context, afterID int64) ([]catalog.Product, error) {
	ctx, cancel := withTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	page, err := s.repo.ListProductsAfter(ctx, afterID, s.config.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products after id %d: %w: %w", afterID, catalog.ErrStore, err)
	}
	return page, nil
}

func (s *IndexService) encode(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := withTimeout(ctx, s.config.ProviderTimeout)
	defer cancel()

	vectors, err := s.encoder.Encode(ctx, texts, catalog.EncodeOptions{
		Normalize: true,
		BatchSize: s.config.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode page: %w: %w", catalog.ErrProvider, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: %w (texts=%d, vectors=%d)",
			catalog.ErrProvider, catalog.ErrVectorCountMismatch, len(texts), len(vectors))
	}
	return vectors, nil
}

func (s *IndexService) write(ctx context.Context, ids []int64, vectors [][]float32) error {
	ctx, cancel := withTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	if err := s.repo.UpdateEmbeddings(ctx, ids, vectors); err != nil {
		return fmt.Errorf("failed to write embeddings: %w: %w", catalog.ErrStore, err)
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
