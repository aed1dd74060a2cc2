// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

// Package session provides server-side web sessions.
//
// Sessions live in memory behind the Store interface; the browser only
// ever holds an opaque signed identifier. Expiry is sliding: each
// successful lookup pushes the deadline out by the full TTL.
package session

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/campuslink/campuslink/internal/auth"
)

// TTL is the sliding session lifetime.
const TTL = 24 * time.Hour

// ErrNoSession is returned when a session id does not resolve.
var ErrNoSession = oops.Code("SESSION_NOT_FOUND").Errorf("no such session")

// Session is a server-side session snapshot. Account is nil for
// anonymous sessions.
type Session struct {
	ID        string
	Account   *auth.SanitizedAccount
	ReturnTo  string
	Flash     map[string]string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Authenticated reports whether the session carries an account.
func (s *Session) Authenticated() bool {
	return s.Account != nil
}

// newID returns a fresh session identifier.
func newID() string {
	return ulid.Make().String()
}

// Store manages session lifecycles. All methods are safe for
// concurrent use. Get returns a snapshot; mutations go through the
// keyed methods so locking stays inside the store.
type Store interface {
	// Create starts a new session, anonymous when account is nil.
	Create(account *auth.SanitizedAccount) *Session

	// Get resolves a live session by id and extends its deadline.
	Get(id string) (*Session, bool)

	// Renew retires the old session and issues a fresh id carrying the
	// account, preserving any pending flash and return target.
	Renew(id string, account *auth.SanitizedAccount) *Session

	// Destroy removes a session. Unknown ids are ignored.
	Destroy(id string)

	// SetFlash stores a one-shot message on the session.
	SetFlash(id, key, value string)

	// ConsumeFlash returns and clears a flash message.
	ConsumeFlash(id, key string) (string, bool)

	// SetReturnTo records the path to resume after login.
	SetReturnTo(id, target string)

	// ConsumeReturnTo returns and clears the recorded path.
	ConsumeReturnTo(id string) (string, bool)

	// Count returns the number of live sessions.
	Count() int
}
