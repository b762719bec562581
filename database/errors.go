package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/standin/errors"
)

// isConnectionError reports database errors that a retry might resolve.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused",
		"broken pipe",
		"database is locked",
		"driver: bad connection",
		"sql: database is closed",
		"unable to open database",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// FromDatabase converts a database error into an AppError.
func FromDatabase(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(resource, id)
	case isUniqueViolation(err):
		return apperrors.Conflict(resource + " already exists").WithCause(err)
	case isConnectionError(err):
		return apperrors.Unavailable("database").WithCause(err)
	}
	return apperrors.Internal(err)
}
