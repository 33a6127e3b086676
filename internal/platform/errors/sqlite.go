package errors

// SQLite-specific helpers for mapping driver errors to project ErrorCode
// and retry semantics. The embedded store serializes writers, so BUSY and
// LOCKED show up under healthy contention and are retryable by design

import (
	"context"
	stderrs "errors"
	"strings"

	sqlite "modernc.org/sqlite"
)

// Primary result codes we care about (low byte of the extended code)
const (
	sqliteBusy       = 5  // SQLITE_BUSY
	sqliteLocked     = 6  // SQLITE_LOCKED
	sqliteConstraint = 19 // SQLITE_CONSTRAINT
)

// Extended constraint codes
const (
	sqliteConstraintCheck      = 275  // SQLITE_CONSTRAINT_CHECK
	sqliteConstraintForeignKey = 787  // SQLITE_CONSTRAINT_FOREIGNKEY
	sqliteConstraintNotNull    = 1299 // SQLITE_CONSTRAINT_NOTNULL
	sqliteConstraintPrimaryKey = 1555 // SQLITE_CONSTRAINT_PRIMARYKEY
	sqliteConstraintUnique     = 2067 // SQLITE_CONSTRAINT_UNIQUE
)

// ExtractSQLiteError returns (*sqlite.Error, true) when the root cause is a driver error
func ExtractSQLiteError(err error) (*sqlite.Error, bool) {
	var se *sqlite.Error
	if stderrs.As(Root(err), &se) {
		return se, true
	}
	return nil, false
}

// IsResultCode reports whether the error carries the given primary result code
func IsResultCode(err error, code int) bool {
	se, ok := ExtractSQLiteError(err)
	return ok && se.Code()&0xff == code
}

// IsBusy reports whether the error is a busy/locked contention error
func IsBusy(err error) bool {
	return IsResultCode(err, sqliteBusy) || IsResultCode(err, sqliteLocked)
}

// IsDuplicateKey reports whether the error is a unique or primary key violation
func IsDuplicateKey(err error) bool {
	se, ok := ExtractSQLiteError(err)
	if !ok {
		return false
	}
	return se.Code() == sqliteConstraintUnique || se.Code() == sqliteConstraintPrimaryKey
}

// DBErrorCode maps a driver error to an ErrorCode with an ok flag
// !ok means err wasn't a driver error; caller may fall back to generic handling
func DBErrorCode(err error) (ErrorCode, bool) {
	se, ok := ExtractSQLiteError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch se.Code() {
	case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
		return ErrorCodeConflict, true
	case sqliteConstraintNotNull, sqliteConstraintCheck:
		return ErrorCodeValidation, true
	case sqliteConstraintForeignKey:
		return ErrorCodeValidation, true
	}
	switch se.Code() & 0xff {
	case sqliteBusy, sqliteLocked:
		// Retryable contention on the single writer
		return ErrorCodeDB, true
	case sqliteConstraint:
		return ErrorCodeValidation, true
	}
	return ErrorCodeDB, true
}

// FromStore wraps a storage error with a mapped ErrorCode and message.
// If err is nil, returns nil
func FromStore(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// IsRetryable reports whether a storage error represents a transient
// condition worth retrying. Local cancellations are never retryable;
// the caller owns higher-level retry decisions
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsBusy(err) {
		return true
	}
	// Fallback: text emitted by the driver when the structured code is lost
	s := strings.ToLower(Root(err).Error())
	switch {
	case strings.Contains(s, "database is locked"),
		strings.Contains(s, "database table is locked"),
		strings.Contains(s, "busy"):
		return true
	default:
		return false
	}
}
