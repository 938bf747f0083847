package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}

// UniqueViolationOn narrows IsUniqueViolation to a constraint naming the given column.
func UniqueViolationOn(err error, column string) bool {
	return IsUniqueViolation(err) && strings.Contains(err.Error(), column)
}

// IsForeignKeyViolation reports whether err comes from a FOREIGN KEY constraint.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
		// RESTRICT actions surface as SQLITE_CONSTRAINT_TRIGGER.
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "FOREIGN KEY")
	}
	return false
}

// IsCheckViolation reports whether err comes from a CHECK constraint, including one tripped by an ON DELETE SET NULL action.
func IsCheckViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23514"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_CHECK {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "CHECK")
	}
	return false
}

// IsBusy reports lock-wait exhaustion. Callers may retry the whole operation.
func IsBusy(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "40001", "40P01":
			return true
		}
		return false
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		primary := liteErr.Code() & 0xff
		return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
	}
	return false
}
