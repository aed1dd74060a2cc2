// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/auth/mocks"
	"github.com/campuslink/campuslink/internal/store"
	"github.com/campuslink/campuslink/pkg/errutil"
)

func testAccount(t *testing.T, hash string) *auth.Account {
	t.Helper()
	account, err := auth.NewAccount("Dana Ortiz", "dana@example.edu", "dana", hash)
	require.NoError(t, err)
	return account
}

func TestAuthenticator_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login returns sanitized account", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		account.LoginAttempts = 3

		accounts.On("FindByIdentifier", ctx, "dana@example.edu").Return(account, nil)
		hasher.On("Verify", "password123", "digest").Return(true)
		accounts.On("Update", ctx, mock.AnythingOfType("*auth.Account")).Return(store.Ack{Acknowledged: true}, nil)

		sanitized, err := svc.Login(ctx, "dana@example.edu", "password123")
		require.NoError(t, err)
		require.NotNil(t, sanitized)
		assert.Equal(t, account.ID, sanitized.ID)
		assert.Equal(t, "dana", sanitized.Username)

		assert.Zero(t, account.LoginAttempts, "success resets the failure counter")
		require.NotNil(t, account.LastLogin)
	})

	t.Run("identifier is normalized before lookup", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		accounts.On("FindByIdentifier", ctx, "dana@example.edu").Return(account, nil)
		hasher.On("Verify", "password123", "digest").Return(true)
		accounts.On("Update", ctx, mock.AnythingOfType("*auth.Account")).Return(store.Ack{Acknowledged: true}, nil)

		_, err := svc.Login(ctx, "  Dana@Example.EDU ", "password123")
		require.NoError(t, err)
	})

	t.Run("unknown identifier yields invalid credentials", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		accounts.On("FindByIdentifier", ctx, "ghost@example.edu").Return(nil, auth.ErrNotFound)

		sanitized, err := svc.Login(ctx, "ghost@example.edu", "password123")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		assert.Nil(t, sanitized)
	})

	t.Run("wrong password increments the failure counter", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		account.LoginAttempts = 2

		accounts.On("FindByIdentifier", ctx, "dana@example.edu").Return(account, nil)
		hasher.On("Verify", "wrong", "digest").Return(false)
		accounts.On("Update", ctx, mock.AnythingOfType("*auth.Account")).Return(store.Ack{Acknowledged: true}, nil)

		_, err := svc.Login(ctx, "dana@example.edu", "wrong")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		assert.Equal(t, 3, account.LoginAttempts)
		assert.Nil(t, account.LockUntil)
	})

	t.Run("fifth failure locks the account and resets the counter", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		account.LoginAttempts = auth.LockoutThreshold - 1

		accounts.On("FindByIdentifier", ctx, "dana@example.edu").Return(account, nil)
		hasher.On("Verify", "wrong", "digest").Return(false)
		accounts.On("Update", ctx, mock.AnythingOfType("*auth.Account")).Return(store.Ack{Acknowledged: true}, nil)

		_, err := svc.Login(ctx, "dana@example.edu", "wrong")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		require.NotNil(t, account.LockUntil)
		assert.Zero(t, account.LoginAttempts)
	})

	t.Run("locked account is reported before password verification", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		lockUntil := time.Now().Add(14*time.Minute + 30*time.Second)
		account.LockUntil = &lockUntil

		accounts.On("FindByIdentifier", ctx, "dana@example.edu").Return(account, nil)
		// No Verify expectation: the hasher must not run for a locked account.

		sanitized, err := svc.Login(ctx, "dana@example.edu", "password123")
		require.Error(t, err)
		assert.Nil(t, sanitized)

		var locked *auth.AccountLockedError
		require.ErrorAs(t, err, &locked)
		assert.Equal(t, 15, locked.RetryAfterMinutes, "remaining time rounds up")
	})

	t.Run("expired lock allows login", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		lockUntil := time.Now().Add(-time.Minute)
		account.LockUntil = &lockUntil

		accounts.On("FindByIdentifier", ctx, "dana@example.edu").Return(account, nil)
		hasher.On("Verify", "password123", "digest").Return(true)
		accounts.On("Update", ctx, mock.AnythingOfType("*auth.Account")).Return(store.Ack{Acknowledged: true}, nil)

		sanitized, err := svc.Login(ctx, "dana@example.edu", "password123")
		require.NoError(t, err)
		require.NotNil(t, sanitized)
		assert.Nil(t, account.LockUntil)
	})

	t.Run("deactivated account yields invalid credentials", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		account.IsActive = false

		accounts.On("FindByIdentifier", ctx, "dana@example.edu").Return(account, nil)

		_, err := svc.Login(ctx, "dana@example.edu", "password123")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		accounts.On("FindByIdentifier", ctx, "dana@example.edu").
			Return(nil, errors.New("connection refused"))

		_, err := svc.Login(ctx, "dana@example.edu", "password123")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_LOGIN_FAILED")
	})

	t.Run("login succeeds even when the counter reset cannot be persisted", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		accounts.On("FindByIdentifier", ctx, "dana@example.edu").Return(account, nil)
		hasher.On("Verify", "password123", "digest").Return(true)
		accounts.On("Update", ctx, mock.AnythingOfType("*auth.Account")).
			Return(store.Ack{}, errors.New("write timeout"))

		sanitized, err := svc.Login(ctx, "dana@example.edu", "password123")
		require.NoError(t, err)
		assert.NotNil(t, sanitized)
	})
}

func TestAuthenticator_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the hash after verifying the current password", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "old-digest")

		accounts.On("FindByID", ctx, account.ID).Return(account, nil)
		hasher.On("Verify", "old-password", "old-digest").Return(true)
		hasher.On("Hash", "new-password").Return("new-digest", nil)
		accounts.On("UpdatePassword", ctx, account.ID, "new-digest").
			Return(store.Ack{Acknowledged: true}, nil)

		err := svc.ChangePassword(ctx, account.ID, "old-password", "new-password")
		require.NoError(t, err)
	})

	t.Run("wrong current password is rejected", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "old-digest")

		accounts.On("FindByID", ctx, account.ID).Return(account, nil)
		hasher.On("Verify", "wrong", "old-digest").Return(false)

		err := svc.ChangePassword(ctx, account.ID, "wrong", "new-password")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("new password must pass validation", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		err := svc.ChangePassword(ctx, ulid.Make(), "old-password", "short")
		require.Error(t, err)

		var vErr *auth.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "password", vErr.Field)
	})

	t.Run("unknown account", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		id := ulid.Make()
		accounts.On("FindByID", ctx, id).Return(nil, auth.ErrNotFound)

		err := svc.ChangePassword(ctx, id, "old-password", "new-password")
		require.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestAuthenticator_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("persists profile and preferences", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		accounts.On("FindByID", ctx, account.ID).Return(account, nil)
		accounts.On("Update", ctx, account).Return(store.Ack{Acknowledged: true}, nil)

		profile := auth.Profile{Bio: "CS sophomore", University: "State", Major: "CS", Year: 2}
		prefs := auth.Preferences{EmailNotifications: true, Theme: "dark"}

		sanitized, err := svc.UpdateProfile(ctx, account.ID, profile, prefs)
		require.NoError(t, err)
		assert.Equal(t, profile, sanitized.Profile)
		assert.Equal(t, prefs, sanitized.Preferences)
	})

	t.Run("update failure is wrapped", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := auth.NewAuthenticator(accounts, hasher)

		account := testAccount(t, "digest")
		accounts.On("FindByID", ctx, account.ID).Return(account, nil)
		accounts.On("Update", ctx, account).Return(store.Ack{}, errors.New("write timeout"))

		_, err := svc.UpdateProfile(ctx, account.ID, auth.Profile{}, auth.Preferences{})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_UPDATE_PROFILE_FAILED")
	})
}
