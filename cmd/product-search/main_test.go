package main

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/product-search/internal/core/catalog"
)

func TestApp_QueryRequiresExactlyOneArgument(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing", []string{"product-search", "query"}},
		{"too many", []string{"product-search", "query", "hex", "bolt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Writer = io.Discard
			app.ErrWriter = io.Discard

			err := app.Run(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "usage: product-search query")
			assert.ErrorIs(t, err, catalog.ErrMissingQuery)
		})
	}
}

func TestApp_CommandTree(t *testing.T) {
	app := newApp()

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"index", "query", "product", "migrate", "server", "mcp"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}
