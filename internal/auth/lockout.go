// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package auth

import (
	"time"
)

// Lockout configuration.
const (
	// LockoutThreshold is the number of consecutive failures that
	// triggers a lockout.
	LockoutThreshold = 5

	// LockoutDuration is the time an account stays locked after the
	// threshold is reached.
	LockoutDuration = 15 * time.Minute
)

// IsLockedOut returns true if the lock timestamp is set and in the future.
func IsLockedOut(lockUntil *time.Time) bool {
	return lockUntil != nil && lockUntil.After(time.Now())
}

// ComputeLockoutTime returns the lock expiry for the given failure count,
// or nil below the threshold. The returned time is strictly in the future.
func ComputeLockoutTime(failures int) *time.Time {
	if failures < LockoutThreshold {
		return nil
	}
	lockout := time.Now().Add(LockoutDuration)
	return &lockout
}

// RetryAfterMinutes returns the remaining lock time rounded up to whole
// minutes, for the user-facing "retry in N minutes" message.
func RetryAfterMinutes(lockUntil, now time.Time) int {
	remaining := lockUntil.Sub(now)
	if remaining <= 0 {
		return 0
	}
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	return minutes
}
