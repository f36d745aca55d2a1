package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrTxConflict is returned once the bounded retry on serialization
	// failures is exhausted. Distinct from ErrInsufficientStock: the
	// request may succeed if resubmitted.
	ErrTxConflict = errors.New("transaction conflict")
)

const txRetries = 3

// Store is the single gateway to the database. All multi-step mutations go
// through Transaction so that an order, its items, the stock updates and the
// ledger entries commit or roll back as one unit.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn against a transaction-bound Store. Any error from fn
// rolls everything back. Serialization and deadlock failures are retried a
// bounded number of times before surfacing as ErrTxConflict.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&Store{db: tx})
		})
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return errors.Join(ErrTxConflict, err)
}

// isRetryable reports whether the failure came from concurrent transactions
// colliding rather than from the request itself. Covers Postgres
// serialization_failure and deadlock_detected plus sqlite's busy errors
// seen under the test driver.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "database table is locked")
}
