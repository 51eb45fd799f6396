// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinels across repo/service layers.
var (
	// ErrInvalidInput indicates a missing/blank required field or a confirmation mismatch.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists indicates a unique constraint violation (username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound indicates the requested account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication. Unknown user and wrong password both map here.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrRateLimited indicates temporary login lock after repeated failures.
	ErrRateLimited = errors.New("too many failed attempts")

	// ErrIndexOutOfRange indicates a record index outside the stored list.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrDecrypt indicates a record could not be decrypted. The cause is deliberately not exposed.
	ErrDecrypt = errors.New("decryption failed")

	// ErrPersistence indicates the underlying storage could not be read or written.
	ErrPersistence = errors.New("persistence failure")

	// ErrNotAuthenticated indicates a record operation without a logged-in session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// LockedOutError reports an active lockout and how long it still lasts.
type LockedOutError struct {
	Remaining time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("%s: try again in %d seconds", ErrRateLimited, e.Seconds())
}

// Unwrap makes errors.Is(err, ErrRateLimited) hold.
func (e *LockedOutError) Unwrap() error { return ErrRateLimited }

// Seconds returns the remaining lockout rounded up to whole seconds.
func (e *LockedOutError) Seconds() int {
	if e.Remaining <= 0 {
		return 0
	}
	s := e.Remaining / time.Second
	if e.Remaining%time.Second != 0 {
		s++
	}
	return int(s)
}

// Persistence wraps a storage error so that errors.Is(err, ErrPersistence) holds
// while keeping the cause available for logs.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
