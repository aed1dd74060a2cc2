// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package auth

import (
	"errors"
	"fmt"

	"github.com/campuslink/campuslink/internal/store"
)

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is returned for any bad identifier/password
// combination. The message never says which part was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrStoreUnavailable is returned when the account store cannot be
// reached at all, as opposed to a degraded read returning empty. It is
// the store sentinel so errors.Is matches across package boundaries.
var ErrStoreUnavailable = store.ErrUnavailable

// AccountLockedError is returned when authentication is attempted
// against a locked account. The lock check runs before password
// verification, so the caller learns the lock state; that leak is an
// accepted tradeoff.
type AccountLockedError struct {
	RetryAfterMinutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %d minutes", e.RetryAfterMinutes)
}

// DuplicateFieldError is returned when a unique constraint on email or
// username is violated during registration.
type DuplicateFieldError struct {
	Field string // "email" or "username"
}

func (e *DuplicateFieldError) Error() string {
	switch e.Field {
	case "email":
		return "Email already exists"
	case "username":
		return "Username already exists"
	default:
		return fmt.Sprintf("%s already exists", e.Field)
	}
}

// ValidationError reports a rejected input field. The request is refused
// without side effects.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
