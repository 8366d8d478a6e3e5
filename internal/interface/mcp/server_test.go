package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/product-search/internal/core/search"
)

type stubSearcher struct {
	lastParams search.SearchParams
	result     *search.SearchResult
	err        error
}

func (s *stubSearcher) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestServer(t *testing.T, searcher Searcher) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server, err := NewServer(searcher, "test", WithServerLogger(logger))
	require.NoError(t, err)
	return server
}

func callSearch(t *testing.T, s *Server, args any) *gomcp.CallToolResult {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	require.NoError(t, err)

	result, err := s.handleSearchProducts(context.Background(), &gomcp.CallToolRequest{
		Params: &gomcp.CallToolParamsRaw{
			Name:      "search_products",
			Arguments: argsJSON,
		},
	})
	require.NoError(t, err)
	return result
}

func textContent(t *testing.T, result *gomcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*gomcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestNewServer_RequiresSearcher(t *testing.T) {
	_, err := NewServer(nil, "test")
	assert.Error(t, err)
}

func TestSearchProducts_ReturnsJSON(t *testing.T) {
	distance := 0.1
	searcher := &stubSearcher{result: &search.SearchResult{
		Query:     "valve",
		MatchType: search.MatchTypeVector,
		Hits:      []search.SearchHit{{ID: 3, Name: "Valve", DisplayName: "Ball Valve", Distance: &distance}},
	}}
	server := newTestServer(t, searcher)

	result := callSearch(t, server, map[string]any{"query": "valve", "limit": 3})
	assert.False(t, result.IsError)
	assert.Equal(t, "valve", searcher.lastParams.Query)
	assert.Equal(t, 3, searcher.lastParams.Limit)

	var decoded search.SearchResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &decoded))
	require.Len(t, decoded.Hits, 1)
	assert.Equal(t, "Ball Valve", decoded.Hits[0].DisplayName)
}

func TestSearchProducts_RequiresQuery(t *testing.T) {
	searcher := &stubSearcher{}
	server := newTestServer(t, searcher)

	result := callSearch(t, server, map[string]any{"query": "  "})
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "query is required")
	assert.Empty(t, searcher.lastParams.Query)
}

func TestSearchProducts_ReportsFailures(t *testing.T) {
	server := newTestServer(t, &stubSearcher{err: errors.New("provider timeout")})

	result := callSearch(t, server, map[string]any{"query": "pump"})
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "provider timeout")
}
