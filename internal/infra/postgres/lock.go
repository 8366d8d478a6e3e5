package postgres

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinford/product-search/internal/core/catalog"
	"github.com/jinford/product-search/internal/core/indexing"
)

// AdvisoryLocker は PostgreSQL のセッションスコープのアドバイザリロックを管理する
//
// ロックは専用の接続に紐づくため、解放するまで接続をプールへ返さない。
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

// NewAdvisoryLocker は新しい AdvisoryLocker を作成する
func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

var _ indexing.Locker = (*AdvisoryLocker)(nil)

// GenerateLockID は文字列からロックIDを生成する
func GenerateLockID(parts ...string) int64 {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
	}
	hash := h.Sum(nil)

	// ハッシュの最初の8バイトをint64として使用
	var id int64
	for i := range 8 {
		id = (id << 8) | int64(hash[i])
	}

	return id
}

// TryLock はロックの取得を試みる。他のセッションが保持している場合は catalog.ErrIndexerLocked を返す
func (l *AdvisoryLocker) TryLock(ctx context.Context, key string) (func(context.Context) error, error) {
	lockID := GenerateLockID(key)

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for advisory lock: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, fmt.Errorf("%w: %s", catalog.ErrIndexerLocked, key)
	}

	release := func(ctx context.Context) error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", lockID); err != nil {
			return fmt.Errorf("failed to release advisory lock: %w", err)
		}
		return nil
	}

	return release, nil
}

// AcquireXact はトランザクションスコープのアドバイザリロックを取得する
// ロックはトランザクション終了時に自動的に解放される
func AcquireXact(ctx context.Context, tx pgx.Tx, lockID int64) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockID); err != nil {
		return fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	return nil
}
