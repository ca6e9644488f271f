// Package store defines the persistence boundary for committed transactions.
// Two implementations exist: sqlite for single-machine deployments and
// bigquery for cloud ones. The rest of the service only sees this interface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mukisa/dukabook/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Store persists committed ledger transactions for one business.
type Store interface {
	// Insert writes a validated transaction. The caller owns validation;
	// implementations may assume tx.Validate() passed.
	Insert(ctx context.Context, tx *domain.Transaction) error

	// ListByUser returns all of a user's transactions, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error)

	// ListByUserAndRange returns a user's transactions with
	// from <= date < to, newest first.
	ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error)

	Close() error
}
