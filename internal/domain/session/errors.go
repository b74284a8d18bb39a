package session

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInputMissing = errors.New("credential missing")
	ErrPersistence  = errors.New("persistence error")
	ErrForbidden    = errors.New("forbidden")

	// ErrInvalidIdentity is returned when asked to sign for an identity
	// that verification would reject.
	ErrInvalidIdentity = errors.New("invalid identity")
)

// Persistence marks err as a store failure while keeping the cause reachable.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
