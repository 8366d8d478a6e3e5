package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/product-search/internal/core/catalog"
	"github.com/jinford/product-search/internal/platform/config"
)

type stubEncoder struct{}

func (stubEncoder) Encode(ctx context.Context, texts []string, opts catalog.EncodeOptions) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}
func (stubEncoder) ModelName() string { return "stub" }
func (stubEncoder) Dimension() int    { return 3 }

type sizedEncoder struct {
	stubEncoder
	batchSize int
}

func (e sizedEncoder) BatchSize() int { return e.batchSize }

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Host: "db", Port: 5432, User: "u", Password: "p", DBName: "products", SSLMode: "disable",
			Timeout: 5 * time.Second,
		},
		OpenAI: config.OpenAIConfig{
			APIKey: "sk-test", EmbeddingModel: "text-embedding-3-small", EmbeddingDimension: 384,
			MaxTokens: 8191, Timeout: 20 * time.Second,
		},
		Index: config.IndexConfig{PageSize: 500, BatchSize: 32, Ceiling: 0, ProcessBoundaryPage: true},
	}
}

func TestIndexConfig(t *testing.T) {
	cfg := IndexConfig(testConfig())

	assert.Equal(t, 500, cfg.PageSize)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, 0, cfg.Ceiling)
	assert.True(t, cfg.ProcessBoundaryPage)
	assert.Equal(t, 20*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
}

func TestEncoderIndexConfig_UsesEncoderBatchSize(t *testing.T) {
	cfg := testConfig()
	cfg.Index.BatchSize = 500

	assert.Equal(t, 500, encoderIndexConfig(cfg, stubEncoder{}).BatchSize)
	assert.Equal(t, 100, encoderIndexConfig(cfg, sizedEncoder{batchSize: 100}).BatchSize)
	assert.Equal(t, 500, encoderIndexConfig(cfg, sizedEncoder{batchSize: 100}).PageSize)
}

func TestNewEmbedder_ClampsBatchSize(t *testing.T) {
	cfg := testConfig()
	cfg.Index.BatchSize = 500

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	assert.Equal(t, 100, encoderIndexConfig(cfg, embedder).BatchSize)
}

func TestConnectionParams(t *testing.T) {
	cfg := testConfig()
	params := ConnectionParams(cfg)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=products sslmode=disable", params.ConnString())

	cfg.Database.URL = "postgres://elsewhere/products"
	assert.Equal(t, "postgres://elsewhere/products", ConnectionParams(cfg).ConnString())
}

func TestNewEmbedder(t *testing.T) {
	embedder, err := NewEmbedder(testConfig())
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	require.NotNil(t, embedder)
	assert.Equal(t, 384, embedder.Dimension())
	assert.Equal(t, 32, embedder.BatchSize())
}
