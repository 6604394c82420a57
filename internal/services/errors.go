// Package services holds the business logic of the mailbox: account signup
// and login, the user directory, and message operations. Every call takes the
// acting user's id explicitly.
package services

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is; the wrapped message is safe to show
// to API clients.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")

	// ErrInvalidCredentials is returned by Login for unknown users and bad passwords alike.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)

	// ErrNotParticipant is returned when the caller may not act on a message.
	ErrNotParticipant = fmt.Errorf("%w: not allowed to access this message", ErrUnauthorized)
)

// isDomainError reports whether err is one of the expected, client-caused outcomes.
func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation)
}
