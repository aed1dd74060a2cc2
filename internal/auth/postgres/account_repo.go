// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

// Package postgres implements the auth repositories on PostgreSQL.
//
// Repositories are constructed around a store.Handle and degrade with
// it: against an unavailable handle reads report auth.ErrNotFound and
// writes return synthetic acknowledgments instead of errors.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/observability"
	"github.com/campuslink/campuslink/internal/store"
)

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	handle *store.Handle
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(handle *store.Handle) *AccountRepository {
	return &AccountRepository{handle: handle}
}

// degraded records a skipped operation against an unavailable store.
func (r *AccountRepository) degraded(operation string) {
	observability.RecordDegradedOperation(operation)
	r.handle.Logger().Warn("store unavailable, operation degraded",
		"operation", operation)
}

// Create stores a new account. Unique violations on email or username
// map to auth.DuplicateFieldError.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) (store.Ack, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("create_account")
		return store.DegradedAck(), nil
	}

	profileJSON, prefsJSON, err := marshalAccountJSON(account)
	if err != nil {
		return store.Ack{}, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "marshal profile").
			Wrap(err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO accounts (
			id, name, email, username, password_hash, role, is_active,
			login_attempts, lock_until, last_login, profile, preferences,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		account.ID.String(),
		account.Name,
		account.Email,
		account.Username,
		account.PasswordHash,
		string(account.Role),
		account.IsActive,
		account.LoginAttempts,
		account.LockUntil,
		account.LastLogin,
		profileJSON,
		prefsJSON,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if dup := duplicateField(err); dup != nil {
			return store.Ack{}, dup
		}
		return store.Ack{}, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Wrap(err)
	}
	return store.AckFor(account.ID.String()), nil
}

// FindByIdentifier retrieves an account by email or username. The
// identifier is matched case-insensitively against both columns.
func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*auth.Account, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("find_account")
		return nil, auth.ErrNotFound
	}

	row := pool.QueryRow(ctx, `
		SELECT id, name, email, username, password_hash, role, is_active,
		       login_attempts, lock_until, last_login, profile, preferences,
		       created_at, updated_at
		FROM accounts
		WHERE (LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($1))
		  AND is_active = TRUE
	`, identifier)

	account, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("identifier", identifier).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_FIND_FAILED").
			With("operation", "find account by identifier").
			With("identifier", identifier).
			Wrap(err)
	}
	return account, nil
}

// FindByID retrieves an account by ID.
func (r *AccountRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("find_account")
		return nil, auth.ErrNotFound
	}

	row := pool.QueryRow(ctx, `
		SELECT id, name, email, username, password_hash, role, is_active,
		       login_attempts, lock_until, last_login, profile, preferences,
		       created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, id.String())

	account, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_FIND_FAILED").
			With("operation", "find account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// Update updates an existing account.
func (r *AccountRepository) Update(ctx context.Context, account *auth.Account) (store.Ack, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("update_account")
		return store.DegradedAck(), nil
	}

	profileJSON, prefsJSON, err := marshalAccountJSON(account)
	if err != nil {
		return store.Ack{}, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "marshal profile").
			Wrap(err)
	}

	result, err := pool.Exec(ctx, `
		UPDATE accounts SET
			name = $2,
			email = $3,
			username = $4,
			password_hash = $5,
			role = $6,
			is_active = $7,
			login_attempts = $8,
			lock_until = $9,
			last_login = $10,
			profile = $11,
			preferences = $12,
			updated_at = $13
		WHERE id = $1
	`,
		account.ID.String(),
		account.Name,
		account.Email,
		account.Username,
		account.PasswordHash,
		string(account.Role),
		account.IsActive,
		account.LoginAttempts,
		account.LockUntil,
		account.LastLogin,
		profileJSON,
		prefsJSON,
		account.UpdatedAt,
	)
	if err != nil {
		if dup := duplicateField(err); dup != nil {
			return store.Ack{}, dup
		}
		return store.Ack{}, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return store.Ack{}, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", account.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return store.AckFor(account.ID.String()), nil
}

// UpdatePassword updates only the password hash for an account.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) (store.Ack, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("update_password")
		return store.DegradedAck(), nil
	}

	result, err := pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, time.Now())
	if err != nil {
		return store.Ack{}, oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return store.Ack{}, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return store.AckFor(id.String()), nil
}

// SoftDelete deactivates an account and rewrites its identity columns
// so the email and username become reusable under the unique indexes.
func (r *AccountRepository) SoftDelete(ctx context.Context, id ulid.ULID) (store.Ack, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("soft_delete_account")
		return store.DegradedAck(), nil
	}

	marker := fmt.Sprintf(".deleted.%d", time.Now().Unix())
	result, err := pool.Exec(ctx, `
		UPDATE accounts SET
			is_active = FALSE,
			email = email || $2,
			username = username || $2,
			updated_at = $3
		WHERE id = $1 AND is_active = TRUE
	`, id.String(), marker, time.Now())
	if err != nil {
		return store.Ack{}, oops.Code("ACCOUNT_SOFT_DELETE_FAILED").
			With("operation", "soft delete account").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return store.Ack{}, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return store.AckFor(id.String()), nil
}

// Count returns the number of active accounts. A degraded store counts
// as empty.
func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("count_accounts")
		return 0, nil
	}

	var count int64
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM accounts WHERE is_active = TRUE
	`).Scan(&count)
	if err != nil {
		return 0, oops.Code("ACCOUNT_COUNT_FAILED").
			With("operation", "count accounts").
			Wrap(err)
	}
	return count, nil
}

// marshalAccountJSON serializes the JSONB columns of an account.
func marshalAccountJSON(account *auth.Account) (profile, prefs []byte, err error) {
	profile, err = json.Marshal(account.Profile)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // Callers wrap with context-specific info
	}
	prefs, err = json.Marshal(account.Preferences)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // Callers wrap with context-specific info
	}
	return profile, prefs, nil
}

// duplicateField maps a unique violation to the offending field, or
// returns nil for any other error.
func duplicateField(err error) *auth.DuplicateFieldError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case "accounts_email_key":
		return &auth.DuplicateFieldError{Field: "email"}
	case "accounts_username_key":
		return &auth.DuplicateFieldError{Field: "username"}
	default:
		return &auth.DuplicateFieldError{Field: pgErr.ConstraintName}
	}
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *AccountRepository) scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr         string
		name          string
		email         string
		username      string
		passwordHash  string
		role          string
		isActive      bool
		loginAttempts int
		lockUntil     *time.Time
		lastLogin     *time.Time
		profileJSON   []byte
		prefsJSON     []byte
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(
		&idStr,
		&name,
		&email,
		&username,
		&passwordHash,
		&role,
		&isActive,
		&loginAttempts,
		&lockUntil,
		&lastLogin,
		&profileJSON,
		&prefsJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	var profile auth.Profile
	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &profile); err != nil {
			return nil, oops.Code("ACCOUNT_INVALID_PROFILE").
				With("operation", "unmarshal profile").
				Wrap(err)
		}
	}

	var preferences auth.Preferences
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &preferences); err != nil {
			return nil, oops.Code("ACCOUNT_INVALID_PREFERENCES").
				With("operation", "unmarshal preferences").
				Wrap(err)
		}
	}

	return &auth.Account{
		ID:            id,
		Name:          name,
		Email:         email,
		Username:      username,
		PasswordHash:  passwordHash,
		Role:          auth.Role(role),
		IsActive:      isActive,
		LoginAttempts: loginAttempts,
		LockUntil:     lockUntil,
		LastLogin:     lastLogin,
		Profile:       profile,
		Preferences:   preferences,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
