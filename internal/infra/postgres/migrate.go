package postgres

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/jackc/pgx/v5"

	"github.com/jinford/product-search/internal/platform/database"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrDimensionMismatch は既存の embedding 列の次元が設定と異なる場合のエラー
var ErrDimensionMismatch = errors.New("embedding column dimension mismatch")

// MigrateOptions はマイグレーションのオプション
type MigrateOptions struct {
	// Dimension は embedding 列の次元数
	Dimension int
	// CreateCatalog が true の場合、商品カタログのテーブルが無ければ作成する
	CreateCatalog bool
}

// Migrator は embedding 列と検索用インデックスを適用する
type Migrator struct {
	db     database.TxBeginner
	logger *slog.Logger
}

// NewMigrator は新しい Migrator を作成する
func NewMigrator(db database.TxBeginner, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, logger: logger}
}

// Migrate はスキーマを適用する。何度実行しても同じ結果になる
func (m *Migrator) Migrate(ctx context.Context, opts MigrateOptions) error {
	if opts.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive: %d", opts.Dimension)
	}

	embeddingSQL, err := renderMigration("migrations/embedding.sql", opts)
	if err != nil {
		return err
	}

	_, err = database.Transact(ctx, m.db, func(tx pgx.Tx) (struct{}, error) {
		if err := AcquireXact(ctx, tx, GenerateLockID("product-search:migrate")); err != nil {
			return struct{}{}, err
		}

		if opts.CreateCatalog {
			catalogSQL, err := migrationFS.ReadFile("migrations/catalog.sql")
			if err != nil {
				return struct{}{}, fmt.Errorf("failed to read catalog schema: %w", err)
			}
			if err := execStatements(ctx, tx, string(catalogSQL)); err != nil {
				return struct{}{}, fmt.Errorf("failed to create catalog tables: %w", err)
			}
			m.logger.Info("カタログテーブルを確認しました")
		}

		if err := checkDimension(ctx, tx, opts.Dimension); err != nil {
			return struct{}{}, err
		}

		if err := execStatements(ctx, tx, embeddingSQL); err != nil {
			return struct{}{}, fmt.Errorf("failed to apply embedding migration: %w", err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("マイグレーションを適用しました", "dimension", opts.Dimension)
	return nil
}

func renderMigration(name string, data any) (string, error) {
	raw, err := migrationFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read migration %s: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse migration %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render migration %s: %w", name, err)
	}
	return buf.String(), nil
}

// checkDimension は既存の embedding 列の次元が dimension と一致するか確認する
// pgvector は vector(n) の n を atttypmod に格納する
func checkDimension(ctx context.Context, tx pgx.Tx, dimension int) error {
	var typmod int32
	err := tx.QueryRow(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		WHERE a.attrelid = to_regclass('"Product"')
		  AND a.attname = 'embedding'
		  AND NOT a.attisdropped`).Scan(&typmod)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect embedding column: %w", err)
	}
	if typmod > 0 && int(typmod) != dimension {
		return fmt.Errorf("%w: column has %d, configured %d", ErrDimensionMismatch, typmod, dimension)
	}
	return nil
}

func execStatements(ctx context.Context, tx pgx.Tx, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// splitStatements はセミコロン区切りのスクリプトを文に分割する
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
