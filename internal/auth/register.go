// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/oops"
)

// RegistrationInput carries the signup form fields.
type RegistrationInput struct {
	Name            string
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
	University      string
	Major           string
	Year            int
}

// RegistrationResult reports a completed registration. AutoLogin is
// false when the account was created but could not be authenticated
// immediately afterwards; the registration itself still succeeded.
type RegistrationResult struct {
	Account   *SanitizedAccount
	AutoLogin bool
	Degraded  bool
}

// Registrar creates accounts.
type Registrar struct {
	accounts AccountRepository
	hasher   PasswordHasher
	authn    *Authenticator
}

// NewRegistrar creates a new Registrar. The Authenticator is used for
// the post-registration auto-login.
func NewRegistrar(accounts AccountRepository, hasher PasswordHasher, authn *Authenticator) *Registrar {
	return &Registrar{
		accounts: accounts,
		hasher:   hasher,
		authn:    authn,
	}
}

// Register validates the input, creates the account, and attempts to
// log the new account in. Duplicate email or username surfaces as a
// DuplicateFieldError naming the offending field. An auto-login
// failure does not fail the registration.
func (s *Registrar) Register(ctx context.Context, input RegistrationInput) (*RegistrationResult, error) {
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(input.Name, input.Email, input.Username, hash)
	if err != nil {
		return nil, err
	}
	account.Profile.University = strings.TrimSpace(input.University)
	account.Profile.Major = strings.TrimSpace(input.Major)
	account.Profile.Year = input.Year

	ack, err := s.accounts.Create(ctx, account)
	if err != nil {
		var dup *DuplicateFieldError
		if errors.As(err, &dup) {
			return nil, dup
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			With("username", account.Username).
			Wrap(err)
	}

	result := &RegistrationResult{
		Account:  account.Sanitize(),
		Degraded: ack.Degraded,
	}

	// Best effort: when the store is degraded the fresh account is not
	// readable yet, so the login misses. Registration still succeeds.
	if sanitized, loginErr := s.authn.Login(ctx, account.Email, input.Password); loginErr == nil {
		result.Account = sanitized
		result.AutoLogin = true
	}

	return result, nil
}

func validateRegistration(input RegistrationInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return &ValidationError{Field: "name", Message: "Name is required"}
	}
	if err := ValidateEmail(NormalizeIdentifier(input.Email)); err != nil {
		return err
	}
	if NormalizeIdentifier(input.Username) == "" {
		return &ValidationError{Field: "username", Message: "Username is required"}
	}
	if err := ValidatePassword(input.Password); err != nil {
		return err
	}
	if input.Password != input.ConfirmPassword {
		return &ValidationError{Field: "confirmPassword", Message: "Passwords do not match"}
	}
	return nil
}
