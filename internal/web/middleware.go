// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/campuslink/campuslink/internal/session"
)

// sessionKey is the fiber locals key holding the resolved session.
const sessionKey = "campuslink.session"

// ensureSession resolves the session cookie, creating an anonymous
// session when the cookie is missing, invalid, or expired.
func (s *Server) ensureSession(c *fiber.Ctx) error {
	if value := c.Cookies(s.opts.CookieName); value != "" {
		if id, err := s.opts.Codec.Decode(value); err == nil {
			if sess, ok := s.opts.Sessions.Get(id); ok {
				// Get slides the server-side expiry; re-issue the
				// cookie so the browser's copy slides with it.
				s.setSessionCookie(c, sess)
				c.Locals(sessionKey, sess)
				return c.Next()
			}
		}
	}

	sess := s.opts.Sessions.Create(nil)
	s.setSessionCookie(c, sess)
	c.Locals(sessionKey, sess)
	return c.Next()
}

// requireAuth rejects anonymous API requests with a JSON 401.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	sess := s.currentSession(c)
	if sess != nil && sess.Authenticated() {
		return c.Next()
	}
	return fail(c, fiber.StatusUnauthorized, "Authentication required")
}

// requirePage guards the account pages. Anonymous visitors are bounced
// to the login page with the original URL parked for the post-login
// redirect.
func (s *Server) requirePage(c *fiber.Ctx) error {
	sess := s.currentSession(c)
	if sess != nil && sess.Authenticated() {
		return c.Next()
	}
	if sess != nil {
		// fiber strings alias the request buffer; copy before the
		// session outlives the request.
		s.opts.Sessions.SetReturnTo(sess.ID, utils.CopyString(c.OriginalURL()))
		s.opts.Sessions.SetFlash(sess.ID, flashError, "Please log in to continue")
	}
	return c.Redirect("/auth/login", fiber.StatusFound)
}

// currentSession returns the session placed by ensureSession.
func (s *Server) currentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionKey).(*session.Session)
	return sess
}

func (s *Server) setSessionCookie(c *fiber.Ctx, sess *session.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.opts.Codec.Encode(sess.ID),
		Expires:  time.Now().Add(session.TTL),
		HTTPOnly: true,
		Secure:   s.production(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})
}
