package postgres

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isUniqueViolation matches the translated gorm error first and falls back
// to message inspection for drivers that bypass TranslateError (raw Exec
// paths inside transactions).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
