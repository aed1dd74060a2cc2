// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/campuslink/campuslink/internal/observability"
)

// Authenticator provides login and credential management operations.
type Authenticator struct {
	accounts AccountRepository
	hasher   PasswordHasher
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(accounts AccountRepository, hasher PasswordHasher) *Authenticator {
	return &Authenticator{
		accounts: accounts,
		hasher:   hasher,
	}
}

// Login authenticates an account by email or username.
//
// The lockout check runs before password verification: a locked account
// is told it is locked even when the submitted password is wrong. Every
// other failure path returns ErrInvalidCredentials so the caller cannot
// distinguish an unknown identifier from a bad password.
func (s *Authenticator) Login(ctx context.Context, identifier, password string) (*SanitizedAccount, error) {
	account, err := s.accounts.FindByIdentifier(ctx, NormalizeIdentifier(identifier))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			observability.RecordLoginAttempt("failure")
			return nil, ErrInvalidCredentials
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find account by identifier").
			Wrap(err)
	}

	if !account.IsActive {
		observability.RecordLoginAttempt("failure")
		return nil, ErrInvalidCredentials
	}

	if account.IsLocked() {
		observability.RecordLoginAttempt("locked")
		return nil, &AccountLockedError{
			RetryAfterMinutes: RetryAfterMinutes(*account.LockUntil, time.Now()),
		}
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		account.RecordFailure()
		if account.IsLocked() {
			observability.RecordLockout()
		}
		// Best effort: the failure still counts as a failure even if the
		// counter cannot be persisted.
		_, _ = s.accounts.Update(ctx, account)
		observability.RecordLoginAttempt("failure")
		return nil, ErrInvalidCredentials
	}

	account.RecordSuccess()
	// Ignore errors - login should succeed even if the reset cannot be
	// persisted.
	_, _ = s.accounts.Update(ctx, account)

	observability.RecordLoginAttempt("success")
	return account.Sanitize(), nil
}

// GetAccount returns the sanitized account for an ID.
func (s *Authenticator) GetAccount(ctx context.Context, id ulid.ULID) (*SanitizedAccount, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("AUTH_GET_ACCOUNT_FAILED").
			With("operation", "find account by id").
			With("account_id", id.String()).
			Wrap(err)
	}
	return account.Sanitize(), nil
}

// ChangePassword verifies the current password and replaces it with a
// hash of the new one. The new password passes the same validation as
// registration.
func (s *Authenticator) ChangePassword(ctx context.Context, id ulid.ULID, currentPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "find account by id").
			With("account_id", id.String()).
			Wrap(err)
	}

	if !s.hasher.Verify(currentPassword, account.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	if _, err := s.accounts.UpdatePassword(ctx, id, hash); err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "persist new password").
			With("account_id", id.String()).
			Wrap(err)
	}
	return nil
}

// UpdateProfile replaces the profile and preferences of an account.
func (s *Authenticator) UpdateProfile(ctx context.Context, id ulid.ULID, profile Profile, prefs Preferences) (*SanitizedAccount, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("AUTH_UPDATE_PROFILE_FAILED").
			With("operation", "find account by id").
			With("account_id", id.String()).
			Wrap(err)
	}

	account.Profile = profile
	account.Preferences = prefs
	account.UpdatedAt = time.Now()

	if _, err := s.accounts.Update(ctx, account); err != nil {
		return nil, oops.Code("AUTH_UPDATE_PROFILE_FAILED").
			With("operation", "persist profile").
			With("account_id", id.String()).
			Wrap(err)
	}
	return account.Sanitize(), nil
}

// Deactivate soft-deletes an account. The row survives with its
// identity fields rewritten so the email and username become reusable.
func (s *Authenticator) Deactivate(ctx context.Context, id ulid.ULID) error {
	if _, err := s.accounts.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return oops.Code("AUTH_DEACTIVATE_FAILED").
			With("operation", "soft delete account").
			With("account_id", id.String()).
			Wrap(err)
	}
	return nil
}
