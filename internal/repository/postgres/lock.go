package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AdvisoryLock is a session-level pg_try_advisory_lock held on one pooled
// connection for as long as the caller keeps it.
type AdvisoryLock struct {
	db     *DB
	key    int64
	logger *zap.Logger
}

func NewAdvisoryLock(db *DB, key int64, logger *zap.Logger) *AdvisoryLock {
	return &AdvisoryLock{db: db, key: key, logger: logger}
}

// TryLock does not block. When ok is false release is a no-op.
func (l *AdvisoryLock) TryLock(ctx context.Context) (release func(), ok bool, err error) {
	conn, err := l.db.Pool.Acquire(ctx)
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire conn: %w", err)
	}

	qctx, cancel := l.db.withTimeout(ctx)
	defer cancel()
	if err := conn.QueryRow(qctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&ok); err != nil {
		conn.Release()
		return func() {}, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return func() {}, false, nil
	}

	return func() {
		uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(uctx, `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
			l.logger.Warn("advisory unlock failed", zap.Int64("key", l.key), zap.Error(err))
			// the session still holds the lock; drop the connection instead of returning it
			_ = conn.Conn().Close(uctx)
		}
		conn.Release()
	}, true, nil
}
