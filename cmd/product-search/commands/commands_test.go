package commands

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/product-search/internal/core/catalog"
	"github.com/jinford/product-search/internal/core/indexing"
	"github.com/jinford/product-search/internal/core/search"
)

func TestQueryArg(t *testing.T) {
	q, err := queryArg([]string{"stainless hex bolt"})
	require.NoError(t, err)
	assert.Equal(t, "stainless hex bolt", q)

	_, err = queryArg(nil)
	require.ErrorIs(t, err, errQueryUsage)
	require.ErrorIs(t, err, catalog.ErrMissingQuery)

	_, err = queryArg([]string{"a", "b"})
	require.ErrorIs(t, err, errQueryUsage)
}

func TestRenderNearestTable(t *testing.T) {
	var buf bytes.Buffer
	renderNearestTable(&buf, []search.NearestProduct{
		{ID: 4, DisplayName: "Hex Bolt", Distance: 0},
		{ID: 9, DisplayName: "Stainless Steel Nut", Distance: 0.41237},
	})

	out := buf.String()
	assert.Contains(t, out, "Hex Bolt")
	assert.Contains(t, out, "Stainless Steel Nut")
	assert.Contains(t, out, "0.0000")
	assert.Contains(t, out, "0.4124")
}

func TestRenderNearestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderNearestTable(&buf, nil)
	assert.Contains(t, buf.String(), "No embedded products found")
}

func TestWriteNearestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeNearestJSON(&buf, []search.NearestProduct{{ID: 1, DisplayName: "Bolt", Distance: 0.25}}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Bolt", decoded[0]["displayName"])
	assert.Equal(t, 0.25, decoded[0]["distance"])
}

func TestPrintIndexResult(t *testing.T) {
	var buf bytes.Buffer
	printIndexResult(&buf, &indexing.IndexResult{
		RunID:            uuid.MustParse("7f1c2a9e-5b1e-4d3c-9a5e-2c4b6d8e0f11"),
		Pages:            2,
		Processed:        2000,
		Discarded:        1000,
		StoppedAtCeiling: true,
		Duration:         1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "7f1c2a9e-5b1e-4d3c-9a5e-2c4b6d8e0f11")
	assert.Contains(t, out, "Processed:  2000")
	assert.Contains(t, out, "Discarded:  1000 (ceiling reached)")
	assert.Contains(t, out, "1.5s")
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	progressPrinter(&buf)(indexing.Progress{Offset: 2000, PageSize: 1000, Processed: 2000})
	assert.Equal(t, "offset=2000 chunk=1000 processed=2000\n", buf.String())
}

func TestPrintProduct(t *testing.T) {
	price := 12.5
	p := &catalog.Product{ID: 5, Name: "Bolt", Price: &price}

	var buf bytes.Buffer
	printProduct(&buf, p, 0)
	assert.Contains(t, buf.String(), "Text:      product_name:Bolt, product_price:12.5")
	assert.Contains(t, buf.String(), "Embedding: (none)")

	buf.Reset()
	printProduct(&buf, p, 384)
	assert.Contains(t, buf.String(), "Embedding: 384 dimensions")
}
