package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicate reports whether the error is a unique constraint violation.
// GORM's TranslateError covers both the Postgres and sqlite drivers; the
// message check catches raw SQL paths the translator does not see.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsNotFound reports whether the error means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
