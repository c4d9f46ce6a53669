package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsUniqueViolation reports whether the provided error is a primary-key or
// unique-constraint violation from either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// postgres
	if strings.Contains(msg, "duplicate key value") {
		return true
	}
	// sqlite
	return strings.Contains(msg, "UNIQUE constraint failed")
}
