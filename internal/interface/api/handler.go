package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jinford/product-search/internal/core/catalog"
	"github.com/jinford/product-search/internal/core/search"
)

// Searcher は HTTP API が利用する検索機能
type Searcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
	EmbeddedCount(ctx context.Context) (int64, error)
}

// Handler は商品検索の HTTP エンドポイントを提供する
type Handler struct {
	searcher Searcher
	logger   *slog.Logger
}

// HandlerOption は Handler のオプション設定
type HandlerOption func(*Handler)

// WithHandlerLogger は Handler にロガーを設定する
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler は新しい Handler を作成する
func NewHandler(searcher Searcher, opts ...HandlerOption) *Handler {
	h := &Handler{searcher: searcher, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Routes はルーティング済みの gin.Engine を返す
func (h *Handler) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	r.HandleMethodNotAllowed = true
	_ = r.SetTrustedProxies(nil)

	r.GET("/api/search", h.Search)
	r.GET("/healthz", h.Health)
	return r
}

type searchResponse struct {
	Success   bool               `json:"success"`
	Query     string             `json:"query"`
	MatchType search.MatchType   `json:"matchType"`
	Results   []search.SearchHit `json:"results"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type healthResponse struct {
	Status           string `json:"status"`
	EmbeddedProducts int64  `json:"embeddedProducts"`
}

// Search は GET /api/search?q=...&limit=... を処理する
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")

	var limit int
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: `Query parameter "limit" must be a positive integer`})
			return
		}
		limit = n
	}

	result, err := h.searcher.Search(c.Request.Context(), search.SearchParams{Query: query, Limit: limit})
	if err != nil {
		if errors.Is(err, catalog.ErrMissingQuery) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: `Query parameter "q" is required`})
			return
		}
		h.logger.Error("検索に失敗しました", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Search failed", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, searchResponse{
		Success:   true,
		Query:     result.Query,
		MatchType: result.MatchType,
		Results:   result.Hits,
	})
}

// Health は GET /healthz を処理する
func (h *Handler) Health(c *gin.Context) {
	count, err := h.searcher.EmbeddedCount(c.Request.Context())
	if err != nil {
		h.logger.Warn("ヘルスチェックに失敗しました", "error", err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, healthResponse{Status: "ok", EmbeddedProducts: count})
}

// requestLogger はリクエストごとに slog でアクセスログを出力する
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		h.logger.Debug("HTTPリクエスト",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}
