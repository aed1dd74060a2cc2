// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package session

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/campuslink/campuslink/internal/auth"
)

// sweepInterval is how often the janitor scans for expired sessions.
const sweepInterval = 10 * time.Minute

// record is the mutable server-side state behind a session id.
type record struct {
	account   *auth.SanitizedAccount
	returnTo  string
	flash     map[string]string
	createdAt time.Time
	expiresAt time.Time
}

// MemoryStore is an in-process session store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*record
	logger   *slog.Logger
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		sessions: make(map[string]*record),
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts a new session, anonymous when account is nil.
func (s *MemoryStore) Create(account *auth.SanitizedAccount) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(account, "", nil)
}

func (s *MemoryStore) createLocked(account *auth.SanitizedAccount, returnTo string, flash map[string]string) *Session {
	id := newID()
	now := s.now()
	rec := &record{
		account:   account,
		returnTo:  returnTo,
		flash:     flash,
		createdAt: now,
		expiresAt: now.Add(TTL),
	}
	if rec.flash == nil {
		rec.flash = make(map[string]string)
	}
	s.sessions[id] = rec
	return snapshot(id, rec)
}

// Get resolves a live session and slides its expiry forward.
func (s *MemoryStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.liveLocked(id)
	if !ok {
		return nil, false
	}
	rec.expiresAt = s.now().Add(TTL)
	return snapshot(id, rec), true
}

// Renew retires the old session and issues a fresh id for the account.
// Pending flash messages and the return target carry over.
func (s *MemoryStore) Renew(id string, account *auth.SanitizedAccount) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var returnTo string
	var flash map[string]string
	if rec, ok := s.liveLocked(id); ok {
		returnTo = rec.returnTo
		flash = rec.flash
	}
	delete(s.sessions, id)
	return s.createLocked(account, returnTo, flash)
}

// Destroy removes a session. Unknown ids are ignored.
func (s *MemoryStore) Destroy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// SetFlash stores a one-shot message on the session.
func (s *MemoryStore) SetFlash(id, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.liveLocked(id); ok {
		rec.flash[key] = value
	}
}

// ConsumeFlash returns and clears a flash message.
func (s *MemoryStore) ConsumeFlash(id, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.liveLocked(id)
	if !ok {
		return "", false
	}
	value, ok := rec.flash[key]
	if ok {
		delete(rec.flash, key)
	}
	return value, ok
}

// SetReturnTo records the path to resume after login.
func (s *MemoryStore) SetReturnTo(id, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.liveLocked(id); ok {
		rec.returnTo = target
	}
}

// ConsumeReturnTo returns and clears the recorded path.
func (s *MemoryStore) ConsumeReturnTo(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.liveLocked(id)
	if !ok || rec.returnTo == "" {
		return "", false
	}
	target := rec.returnTo
	rec.returnTo = ""
	return target, true
}

// Count returns the number of live sessions.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	now := s.now()
	for _, rec := range s.sessions {
		if rec.expiresAt.After(now) {
			count++
		}
	}
	return count
}

// Sweep runs the expiry janitor until the context is cancelled.
func (s *MemoryStore) Sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.sweepOnce(); removed > 0 {
				s.logger.Debug("swept expired sessions", "removed", removed)
			}
		}
	}
}

func (s *MemoryStore) sweepOnce() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for id, rec := range s.sessions {
		if !rec.expiresAt.After(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// liveLocked returns the record for id if it has not expired. Expired
// records are removed eagerly so reads never resurrect them.
func (s *MemoryStore) liveLocked(id string) (*record, bool) {
	rec, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !rec.expiresAt.After(s.now()) {
		delete(s.sessions, id)
		return nil, false
	}
	return rec, true
}

func snapshot(id string, rec *record) *Session {
	return &Session{
		ID:        id,
		Account:   rec.account,
		ReturnTo:  rec.returnTo,
		Flash:     maps.Clone(rec.flash),
		CreatedAt: rec.createdAt,
		ExpiresAt: rec.expiresAt,
	}
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)
