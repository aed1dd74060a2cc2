// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package auth_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink/internal/auth"
)

func TestNewAccount(t *testing.T) {
	t.Run("normalizes identity fields", func(t *testing.T) {
		account, err := auth.NewAccount("  Dana Ortiz  ", "Dana.Ortiz@Example.EDU", "  DanaO ", "digest")
		require.NoError(t, err)

		assert.Equal(t, "Dana Ortiz", account.Name)
		assert.Equal(t, "dana.ortiz@example.edu", account.Email)
		assert.Equal(t, "danao", account.Username)
		assert.Equal(t, auth.RoleStudent, account.Role)
		assert.True(t, account.IsActive)
		assert.Zero(t, account.LoginAttempts)
		assert.Nil(t, account.LockUntil)
		assert.False(t, account.ID.IsZero())
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name      string
			accName   string
			email     string
			username  string
			wantField string
		}{
			{"missing name", "", "a@b.edu", "user", "name"},
			{"missing email", "Dana", "", "user", "email"},
			{"malformed email", "Dana", "not-an-email", "user", "email"},
			{"email without tld", "Dana", "a@b", "user", "email"},
			{"missing username", "Dana", "a@b.edu", "", "username"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				account, err := auth.NewAccount(tt.accName, tt.email, tt.username, "digest")
				require.Error(t, err)
				assert.Nil(t, account)

				var vErr *auth.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantField, vErr.Field)
			})
		}
	})
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "secret1", ""},
		{"exactly minimum length", "sixsix", ""},
		{"too short", "five5", "Password must be at least 6 characters"},
		{"empty", "", "Password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestAccount_RecordFailure(t *testing.T) {
	t.Run("increments below threshold", func(t *testing.T) {
		account := &auth.Account{}

		for i := 1; i < auth.LockoutThreshold; i++ {
			account.RecordFailure()
			assert.Equal(t, i, account.LoginAttempts)
			assert.Nil(t, account.LockUntil)
		}
	})

	t.Run("locks at threshold and resets the counter", func(t *testing.T) {
		account := &auth.Account{LoginAttempts: auth.LockoutThreshold - 1}

		account.RecordFailure()

		require.NotNil(t, account.LockUntil)
		assert.True(t, account.IsLocked())
		assert.Zero(t, account.LoginAttempts, "counter resets so the next window starts fresh")
	})
}

func TestAccount_RecordSuccess(t *testing.T) {
	lockUntil := time.Now().Add(-time.Minute)
	account := &auth.Account{
		LoginAttempts: 3,
		LockUntil:     &lockUntil,
	}

	account.RecordSuccess()

	assert.Zero(t, account.LoginAttempts)
	assert.Nil(t, account.LockUntil)
	require.NotNil(t, account.LastLogin)
	assert.WithinDuration(t, time.Now(), *account.LastLogin, 2*time.Second)
}

func TestAccount_Sanitize(t *testing.T) {
	account, err := auth.NewAccount("Dana", "dana@example.edu", "dana", "digest")
	require.NoError(t, err)

	sanitized := account.Sanitize()
	assert.Equal(t, account.ID, sanitized.ID)
	assert.Equal(t, account.Email, sanitized.Email)

	// The JSON projection must never leak credential or lockout state.
	raw, err := json.Marshal(sanitized)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "digest")
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "lock")
}
