// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

// Package auth provides account and authentication primitives for CampusLink.
//
// # Domain Types
//
// Account is created through NewAccount, which validates and normalizes
// identity fields. Direct struct initialization bypasses validation and
// may create invalid state. Repository implementations receive
// pre-validated accounts from the constructor.
//
// # Services
//
// Service types coordinate domain operations:
//   - Authenticator - credential verification, lockout enforcement,
//     password change, profile update
//   - Registrar - account registration with auto-login
//
// Services are created with New* constructors that validate dependencies.
//
// # Lockout
//
// Five consecutive failed logins lock an account for fifteen minutes.
// The lock check runs before password verification, so a locked account
// rejects even a correct password until the lock expires. The failure
// counter uses a read-modify-write update; concurrent failures may
// undercount, which is accepted for the single-instance deployment
// target.
package auth
