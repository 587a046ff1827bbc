// Package store is the data-access layer of the race access core. Every
// operation is bounded by the store timeout and every failure is classified
// into a domain.Kind before it leaves the package.
package store

import (
	"context" // Timeouts and cancellation
	"time"    // Timeout durations

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // ON CONFLICT clause
)

// DefaultTimeout bounds a store call when none is configured
const DefaultTimeout = 3 * time.Second

// Store wraps a GORM connection, or a transaction when created by Tx
type Store struct {
	db      *gorm.DB      // Connection or transaction
	timeout time.Duration // Bound applied to every call
	inTx    bool          // Set on the store handed to a Tx callback
}

// New creates a store on db with the given per-call timeout
func New(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout // Never leave calls unbounded
	}
	return &Store{db: db, timeout: timeout}
}

// DB exposes the underlying connection for migrations and tests
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Tx runs fn inside a single database transaction. fn receives a store bound
// to the transaction; returning an error rolls everything back.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s) // Already inside a transaction, join it
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout) // The whole unit shares one bound
	defer cancel()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, timeout: s.timeout, inTx: true})
	})
	return classify("store.tx", err)
}

// conn returns a context-bound handle and its cancel func
func (s *Store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if s.inTx {
		return s.db.WithContext(ctx), func() {} // Transaction already carries the bound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// InsertIfAbsent inserts row unless a row with the same unique key exists.
// It reports whether this call inserted it; exactly one of any number of
// concurrent callers for the same key gets true.
func (s *Store) InsertIfAbsent(ctx context.Context, row any) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row) // Any unique violation is a no-op
	if res.Error != nil {
		return false, classify("store.insert_if_absent", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Create inserts row unconditionally
func (s *Store) Create(ctx context.Context, row any) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	return classify("store.create", db.Create(row).Error)
}
