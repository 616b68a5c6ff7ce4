/**
 * @description
 * This file classifies persistence errors into transient (safe for the caller
 * to retry) and terminal. Transient covers lock contention, serialization
 * failures, statement timeouts, and the unique-index race two concurrent adds
 * of the same account can produce.
 */
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTransient wraps persistence failures the caller may safely retry.
var ErrTransient = errors.New("transient storage error")

// transient pg error codes: serialization_failure, deadlock_detected,
// lock_not_available, query_canceled (statement timeout), unique_violation
// (concurrent insert race on the per-user account identity index).
var transientPgCodes = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
	"57014": true,
	"23505": true,
}

// classify passes nil and domain errors through untouched and wraps
// everything retryable in ErrTransient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientPgCodes[pgErr.Code]
	}
	return pgconn.Timeout(err)
}

// IsTransient reports whether err came from a retryable storage failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
