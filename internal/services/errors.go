package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrPersistence     = errors.New("persistence failure")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyJoined   = errors.New("already registered for this event")
	ErrNotParticipant  = errors.New("not registered for this event")
	ErrEventFull       = errors.New("event is at capacity")
	ErrEmailTaken      = errors.New("email already registered")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}

// storeErr classifies a store error: missing records become ErrNotFound,
// everything else is a retryable ErrPersistence.
func storeErr(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", what, ErrPersistence, err)
}
