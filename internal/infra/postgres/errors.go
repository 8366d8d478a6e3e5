package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeUndefinedColumn = "42703"
	pgErrCodeUndefinedObject = "42704"
)

// ErrSchemaNotMigrated は embedding 列または vector 型が存在しない場合のエラー
var ErrSchemaNotMigrated = errors.New(`embedding column is missing; run "product-search migrate" first`)

// IsUndefinedColumn は PostgreSQL の undefined_column(42703) かどうかを判定する
func IsUndefinedColumn(err error) bool {
	return hasCode(err, pgErrCodeUndefinedColumn)
}

// IsUndefinedObject は PostgreSQL の undefined_object(42704) かどうかを判定する
func IsUndefinedObject(err error) bool {
	return hasCode(err, pgErrCodeUndefinedObject)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// withHint はスキーマ未適用が原因のエラーに対処方法を付与する
func withHint(err error) error {
	if IsUndefinedColumn(err) || IsUndefinedObject(err) {
		return fmt.Errorf("%w: %w", ErrSchemaNotMigrated, err)
	}
	return err
}
