package store

import (
	"context" // Deadline errors
	"errors"  // Error inspection

	"github.com/go-sql-driver/mysql" // MySQL error numbers
	"gorm.io/gorm"                   // GORM sentinel errors

	"race_access/internal/domain" // Error taxonomy
)

// MySQL server error numbers treated as contention
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classify maps a storage error onto the domain taxonomy
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		return err // Already classified, e.g. returned from inside a Tx callback
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Wrap(domain.KindNotFound, op, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout) {
		return domain.Wrap(domain.KindConflict, op, err) // Safe to retry the whole unit
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.Error{Kind: domain.KindTransient, Op: op, Msg: "timeout", Err: err}
	}
	return domain.Wrap(domain.KindTransient, op, err)
}
