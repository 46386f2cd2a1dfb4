package database

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	apperrors "github.com/kbukum/podscribe/errors"
)

// IsBusyError reports whether err is a SQLite lock contention error that
// may succeed on retry.
func IsBusyError(err error) bool {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked
	}
	return false
}

// IsConstraintError reports whether err is a SQLite constraint violation.
func IsConstraintError(err error) bool {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrConstraint
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFoundError checks if the error is a GORM record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// FromDatabase converts a database error to an AppError.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	if IsNotFoundError(err) {
		return apperrors.NotFound(resource, "")
	}

	if IsConstraintError(err) {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("A %s with these details already exists.", resource)).
			WithStatus(http.StatusConflict).
			WithCause(err)
	}

	if IsBusyError(err) {
		return apperrors.New(apperrors.ErrCodeDatabaseError, "Database is busy. Please try again.").
			WithStatus(http.StatusServiceUnavailable).
			WithCause(err)
	}

	return apperrors.DatabaseError(err)
}
