// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink/internal/auth"
)

func TestIsLockedOut(t *testing.T) {
	future := time.Now().Add(10 * time.Minute)
	past := time.Now().Add(-10 * time.Minute)

	tests := []struct {
		name      string
		lockUntil *time.Time
		want      bool
	}{
		{"nil lock", nil, false},
		{"future lock", &future, true},
		{"expired lock", &past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.IsLockedOut(tt.lockUntil))
		})
	}
}

func TestComputeLockoutTime(t *testing.T) {
	t.Run("below threshold returns nil", func(t *testing.T) {
		for failures := 0; failures < auth.LockoutThreshold; failures++ {
			assert.Nil(t, auth.ComputeLockoutTime(failures), "failures=%d", failures)
		}
	})

	t.Run("at threshold locks for the full duration", func(t *testing.T) {
		before := time.Now()
		lockUntil := auth.ComputeLockoutTime(auth.LockoutThreshold)
		require.NotNil(t, lockUntil)

		expected := before.Add(auth.LockoutDuration)
		assert.WithinDuration(t, expected, *lockUntil, 2*time.Second)
	})
}

func TestRetryAfterMinutes(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		remaining time.Duration
		want      int
	}{
		{"full lock", 15 * time.Minute, 15},
		{"partial minute rounds up", 14*time.Minute + time.Second, 15},
		{"exact minute", 3 * time.Minute, 3},
		{"under a minute rounds to one", 30 * time.Second, 1},
		{"expired lock", -time.Minute, 0},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.RetryAfterMinutes(now.Add(tt.remaining), now))
		})
	}
}
