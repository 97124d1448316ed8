package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	usernamePattern    = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)
	displayNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 _.-]{1,50}$`)
)

func NormalizeUsername(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func ValidateUsername(v string) error {
	if !usernamePattern.MatchString(NormalizeUsername(v)) {
		return fmt.Errorf("%w: username must be 3-30 chars of a-z, 0-9, underscore or dot", ErrInvalidInput)
	}
	return nil
}

func ValidateDisplayName(v string) error {
	trimmed := strings.TrimSpace(v)
	if !displayNamePattern.MatchString(trimmed) {
		return fmt.Errorf("%w: display_name must be 1-50 chars and contain only letters, numbers, spaces, dots, hyphens, underscores", ErrInvalidInput)
	}
	return nil
}

func ValidateBio(v string) error {
	if len(v) > 500 {
		return fmt.Errorf("%w: bio must be <= 500 chars", ErrInvalidInput)
	}
	return nil
}
