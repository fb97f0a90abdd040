package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	customError "github.com/tandafin/lending-engine/pkg/errors"
)

// Postgres error codes that mean the transaction lost a race and the caller
// should retry: serialization_failure, deadlock_detected, lock_not_available.
var retryablePgCodes = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

type txRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) TxRunner {
	return &txRunner{db: db}
}

// WithinTx opens one transaction, runs fn, and commits. Any error rolls
// everything back so no partial effect survives; concurrency conflicts are
// translated to TRANSACTION_ABORTED.
func (r *txRunner) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if isRetryable(err) {
			return customError.WrapTransactionAborted(err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if isRetryable(err) {
			return customError.WrapTransactionAborted(err)
		}
		return customError.WrapDatabaseError(err)
	}

	return nil
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return retryablePgCodes[string(pqErr.Code)]
	}
	return false
}

// Updates that match zero rows report it the same way empty reads do, so
// the service layer maps both to NOT_FOUND.
var errNoRows = sql.ErrNoRows

// IsNoRows reports whether err is the sql "no rows" sentinel, possibly
// wrapped.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
