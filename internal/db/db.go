package db

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var ErrRetryLimit = errors.New("transaction retry limit exceeded")

// RetryPolicy bounds how often a serializable transaction is re-run after a
// serialization failure or deadlock.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 5, Base: 20 * time.Millisecond}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

type SQLXTxRunner struct {
	db     *sqlx.DB
	policy RetryPolicy
	log    *zap.Logger
}

func NewTxRunner(db *sqlx.DB, log *zap.Logger) SQLXTxRunner {
	if log == nil {
		log = zap.NewNop()
	}
	return SQLXTxRunner{db: db, policy: DefaultRetryPolicy, log: log}
}

func (r SQLXTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return run(ctx, r.db, r.policy, r.log, fn)
}

// Connect opens the postgres pool backing the record store. The pool is
// small: every request reads or rewrites whole sheets, one at a time.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// WithTx runs fn in a serializable transaction under DefaultRetryPolicy.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	return run(ctx, db, DefaultRetryPolicy, zap.NewNop(), fn)
}

func run(ctx context.Context, db *sqlx.DB, policy RetryPolicy, log *zap.Logger, fn func(*sqlx.Tx) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = once(ctx, db, fn)
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		log.Warn("retrying serializable transaction", zap.Int("attempt", attempt), zap.Error(lastErr))
		if err := wait(ctx, policy.Base, attempt); err != nil {
			return err
		}
	}
	return errors.Join(ErrRetryLimit, lastErr)
}

func once(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Retryable reports serialization failures (40001) and deadlocks (40P01).
func Retryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func wait(ctx context.Context, base time.Duration, attempt int) error {
	delay := time.Duration(attempt*attempt) * base
	if base > 0 {
		delay += time.Duration(rand.Int63n(int64(base)/2 + 1))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
