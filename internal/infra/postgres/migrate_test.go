package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMigration_EmbeddingDimension(t *testing.T) {
	sql, err := renderMigration("migrations/embedding.sql", MigrateOptions{Dimension: 384})
	require.NoError(t, err)

	assert.Contains(t, sql, "CREATE EXTENSION IF NOT EXISTS vector")
	assert.Contains(t, sql, "embedding vector(384)")
	assert.Contains(t, sql, "vector_cosine_ops")
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id int);\n\n  ALTER TABLE a ADD b text ;\n")
	assert.Equal(t, []string{"CREATE TABLE a (id int)", "ALTER TABLE a ADD b text"}, stmts)

	assert.Empty(t, splitStatements(" ;\n; "))
}

func TestCatalogMigrationIsEmbedded(t *testing.T) {
	raw, err := migrationFS.ReadFile("migrations/catalog.sql")
	require.NoError(t, err)

	stmts := splitStatements(string(raw))
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[3], `CREATE TABLE IF NOT EXISTS "Product"`)
}

func TestGenerateLockID_Deterministic(t *testing.T) {
	a := GenerateLockID("product-search:embedding-indexer")
	b := GenerateLockID("product-search:embedding-indexer")
	c := GenerateLockID("product-search:migrate")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, GenerateLockID("ab", "c"), GenerateLockID("a", "bc"))
}
