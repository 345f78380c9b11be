package domain

import "errors"

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrStateCorruption  = errors.New("persisted state is corrupt")
	ErrEmptyText        = errors.New("text is empty")
	ErrUserIDRequired   = errors.New("user id is required")
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrUnknownPeriod    = errors.New("unknown statistics period")
)
