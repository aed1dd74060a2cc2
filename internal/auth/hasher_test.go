// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/pkg/errutil"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := auth.NewBcryptHasher()

	t.Run("produces bcrypt digest at standard cost", func(t *testing.T) {
		digest, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(digest, "$2"), "expected bcrypt digest, got %q", digest)

		cost, err := bcrypt.Cost([]byte(digest))
		require.NoError(t, err)
		assert.Equal(t, auth.BcryptCost, cost)
	})

	t.Run("salts are unique per hash", func(t *testing.T) {
		first, err := hasher.Hash("password123")
		require.NoError(t, err)
		second, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		digest, err := hasher.Hash("")
		require.Error(t, err)
		assert.Empty(t, digest)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})
}

func TestBcryptHasher_Verify(t *testing.T) {
	hasher := auth.NewBcryptHasher()
	digest, err := hasher.Hash("correct-horse")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		digest   string
		want     bool
	}{
		{"matching password", "correct-horse", digest, true},
		{"wrong password", "battery-staple", digest, false},
		{"empty password", "", digest, false},
		{"malformed digest", "correct-horse", "not-a-digest", false},
		{"empty digest", "correct-horse", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasher.Verify(tt.password, tt.digest))
		})
	}
}
