package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jinford/product-search/internal/core/catalog"
	"github.com/jinford/product-search/internal/core/search"
)

// Searcher は MCP ツールが利用する検索機能
type Searcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
}

// Server は商品検索を MCP ツールとして公開する
type Server struct {
	mcp      *gomcp.Server
	searcher Searcher
	logger   *slog.Logger
}

// ServerOption は Server のオプション設定
type ServerOption func(*Server)

// WithServerLogger は Server にロガーを設定する
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer は search_products ツールを登録した MCP サーバを作成する
func NewServer(searcher Searcher, version string, opts ...ServerOption) (*Server, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}

	s := &Server{
		mcp: gomcp.NewServer(
			&gomcp.Implementation{
				Name:    "product-search",
				Version: version,
			},
			nil,
		),
		searcher: searcher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.registerTools()
	return s, nil
}

// Serve は標準入出力で MCP サーバを起動する
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "search_products",
		Description: "Search the product catalog by meaning. Returns the closest products ordered by vector distance (smaller is closer).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Free-text description of the product to find"},
				"limit": {"type": "number", "description": "Maximum number of results (default 10, max 100)"}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchProducts)
}

type searchProductsArgs struct {
	Query string  `json:"query"`
	Limit float64 `json:"limit"`
}

func (s *Server) handleSearchProducts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args searchProductsArgs
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError("invalid arguments: %v", err), nil
		}
	}
	if strings.TrimSpace(args.Query) == "" {
		return toolError("query is required"), nil
	}

	result, err := s.searcher.Search(ctx, search.SearchParams{Query: args.Query, Limit: int(args.Limit)})
	if err != nil {
		if errors.Is(err, catalog.ErrMissingQuery) {
			return toolError("query is required"), nil
		}
		s.logger.Error("search_products に失敗しました", "query", args.Query, "error", err)
		return toolError("search failed: %v", err), nil
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return toolError("failed to encode results: %v", err), nil
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: string(payload)}},
	}, nil
}

func toolError(format string, args ...any) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
