package domain

import (
	"fmt"
	"regexp"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidateUserID accepts 1-64 characters of letters, digits, '_', '.' and '-',
// starting with a letter or digit. IDs double as storage keys and file names.
func ValidateUserID(id string) error {
	if id == "" {
		return ErrUserIDRequired
	}
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return nil
}
