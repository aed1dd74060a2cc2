// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/campuslink/campuslink/internal/store"
)

// Role is the account role.
type Role string

// Account roles. New accounts default to RoleStudent.
const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// emailRegex matches a simple local@domain.tld shape. Full RFC 5322
// validation is deliberately out of scope.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Profile holds free-form personal details shown on the account page.
type Profile struct {
	Bio         string            `json:"bio,omitempty"`
	University  string            `json:"university,omitempty"`
	Major       string            `json:"major,omitempty"`
	Year        int               `json:"year,omitempty"`
	AvatarURL   string            `json:"avatar_url,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
}

// Preferences contains account-specific settings.
type Preferences struct {
	EmailNotifications bool   `json:"email_notifications,omitempty"`
	Theme              string `json:"theme,omitempty"`
}

// Account represents a registered user account.
type Account struct {
	ID            ulid.ULID
	Name          string
	Email         string
	Username      string
	PasswordHash  string
	Role          Role
	IsActive      bool
	LoginAttempts int
	LockUntil     *time.Time
	LastLogin     *time.Time
	Profile       Profile
	Preferences   Preferences
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAccount creates a validated Account with normalized identity fields.
// Email and username are lowercased; the role defaults to student and the
// account starts active with a zero failure count.
func NewAccount(name, email, username, passwordHash string) (*Account, error) {
	name = strings.TrimSpace(name)
	email = NormalizeIdentifier(email)
	username = NormalizeIdentifier(username)

	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "Name is required"}
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, &ValidationError{Field: "username", Message: "Username is required"}
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Name:         name,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         RoleStudent,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeIdentifier lowercases and trims an email or username.
func NormalizeIdentifier(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ValidateEmail checks the simple local@domain.tld shape.
func ValidateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if !emailRegex.MatchString(email) {
		return &ValidationError{Field: "email", Message: "Email is invalid"}
	}
	return nil
}

// ValidatePassword checks the minimum length rule.
func ValidatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Message: "Password is required"}
	}
	if len(password) < MinPasswordLength {
		return &ValidationError{
			Field:   "password",
			Message: "Password must be at least 6 characters",
		}
	}
	return nil
}

// IsLocked returns true if the account is currently locked out.
func (a *Account) IsLocked() bool {
	return IsLockedOut(a.LockUntil)
}

// RecordFailure increments the failure counter. At the lockout threshold
// the account is locked and the counter resets to zero so the next
// window starts fresh after the lock expires.
func (a *Account) RecordFailure() {
	a.LoginAttempts++
	if a.LoginAttempts >= LockoutThreshold {
		a.LockUntil = ComputeLockoutTime(a.LoginAttempts)
		a.LoginAttempts = 0
	}
	a.UpdatedAt = time.Now()
}

// RecordSuccess resets the failure counter, clears any lock, and stamps
// the last login time.
func (a *Account) RecordSuccess() {
	now := time.Now()
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.LastLogin = &now
	a.UpdatedAt = now
}

// SanitizedAccount is the Account projection carried in sessions and
// returned by authentication operations. It never includes the
// password hash.
type SanitizedAccount struct {
	ID          ulid.ULID   `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Username    string      `json:"username"`
	Role        Role        `json:"role"`
	Profile     Profile     `json:"profile"`
	Preferences Preferences `json:"preferences"`
	LastLogin   *time.Time  `json:"last_login,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Sanitize returns the credential-free projection of the account.
func (a *Account) Sanitize() *SanitizedAccount {
	return &SanitizedAccount{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Username:    a.Username,
		Role:        a.Role,
		Profile:     a.Profile,
		Preferences: a.Preferences,
		LastLogin:   a.LastLogin,
		CreatedAt:   a.CreatedAt,
	}
}

// AccountRepository manages account persistence. Implementations backed
// by an unavailable store degrade instead of failing: reads report
// ErrNotFound and writes return synthetic acknowledgments.
type AccountRepository interface {
	// Create stores a new account. The returned acknowledgment carries
	// the inserted identifier; in degraded mode it is a non-durable
	// placeholder.
	Create(ctx context.Context, account *Account) (store.Ack, error)

	// FindByIdentifier retrieves an active account whose email or
	// username equals the identifier, case-insensitively.
	FindByIdentifier(ctx context.Context, identifier string) (*Account, error)

	// FindByID retrieves an account by ID.
	FindByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// Update persists all mutable account fields.
	Update(ctx context.Context, account *Account) (store.Ack, error)

	// UpdatePassword updates only the password hash.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) (store.Ack, error)

	// SoftDelete deactivates the account and rewrites its email and
	// username with a deletion marker so the originals can be reused.
	SoftDelete(ctx context.Context, id ulid.ULID) (store.Ack, error)

	// Count returns the number of active accounts.
	Count(ctx context.Context) (int64, error)
}
