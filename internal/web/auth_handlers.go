// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/session"
)

type registerRequest struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Username        string `json:"username" form:"username"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	University      string `json:"university" form:"university"`
	Major           string `json:"major" form:"major"`
	Year            int    `json:"year" form:"year"`
}

type loginRequest struct {
	Identifier string `json:"emailOrUsername" form:"emailOrUsername"`
	Password   string `json:"password" form:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" form:"currentPassword"`
	NewPassword     string `json:"newPassword" form:"newPassword"`
}

type profileRequest struct {
	Profile     auth.Profile     `json:"profile" form:"profile"`
	Preferences auth.Preferences `json:"preferences" form:"preferences"`
}

// loginSession rotates the session id for the freshly authenticated
// account and refreshes the cookie and request locals.
func (s *Server) loginSession(c *fiber.Ctx, account *auth.SanitizedAccount) *session.Session {
	sess := s.currentSession(c)
	sess = s.opts.Sessions.Renew(sess.ID, account)
	s.setSessionCookie(c, sess)
	c.Locals(sessionKey, sess)
	return sess
}

// handleRegister creates an account and redirects into the app.
// Registration succeeds even when the subsequent auto-login does not;
// the visitor then lands on the login page instead.
func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return s.redirectWithFlash(c, flashError, "Invalid form submission", "/auth/register")
	}

	result, err := s.opts.Registrar.Register(c.Context(), auth.RegistrationInput{
		Name:            req.Name,
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		University:      req.University,
		Major:           req.Major,
		Year:            req.Year,
	})
	if err != nil {
		// Park the non-secret fields so the form can be refilled.
		if sess := s.currentSession(c); sess != nil {
			if formData, marshalErr := json.Marshal(fiber.Map{
				"name":       req.Name,
				"email":      req.Email,
				"username":   req.Username,
				"university": req.University,
				"major":      req.Major,
				"year":       req.Year,
			}); marshalErr == nil {
				s.opts.Sessions.SetFlash(sess.ID, flashFormData, string(formData))
			}
		}
		return s.redirectWithFlash(c, flashError, s.authFlashMessage(err), "/auth/register")
	}

	if !result.AutoLogin {
		return s.redirectWithFlash(c, flashSuccess,
			"Account created, please log in", "/auth/login")
	}

	sess := s.loginSession(c, result.Account)
	if result.Degraded {
		s.opts.Sessions.SetFlash(sess.ID, flashNotice,
			"Your account was created in degraded mode; recent changes may not be saved yet.")
	}
	return s.redirectWithFlash(c, flashSuccess, "Welcome to CampusLink!", "/")
}

// handleLogin authenticates, rotates the session id, and redirects to
// the parked URL or the front page.
func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return s.redirectWithFlash(c, flashError, "Invalid form submission", "/auth/login")
	}

	account, err := s.opts.Auth.Login(c.Context(), req.Identifier, req.Password)
	if err != nil {
		return s.redirectWithFlash(c, flashError, s.authFlashMessage(err), "/auth/login")
	}

	sess := s.loginSession(c, account)

	target := "/"
	if parked, found := s.opts.Sessions.ConsumeReturnTo(sess.ID); found {
		target = parked
	}
	return c.Redirect(target, fiber.StatusFound)
}

// handleLogout destroys the session and returns to the front page.
func (s *Server) handleLogout(c *fiber.Ctx) error {
	if sess := s.currentSession(c); sess != nil {
		s.opts.Sessions.Destroy(sess.ID)
	}
	s.clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}

// handleProfile returns the logged-in account plus any pending flash
// messages. Page rendering happens client-side; the body carries the
// data a template would consume.
func (s *Server) handleProfile(c *fiber.Ctx) error {
	sess := s.currentSession(c)

	data := fiber.Map{"account": sess.Account}
	for _, kind := range []string{flashError, flashSuccess, flashNotice, flashFormData} {
		if value, found := s.opts.Sessions.ConsumeFlash(sess.ID, kind); found {
			data[kind] = value
		}
	}
	return ok(c, fiber.StatusOK, data)
}

// handleUpdateProfile replaces the profile and preferences.
func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return s.redirectWithFlash(c, flashError, "Invalid form submission", "/auth/profile")
	}

	sess := s.currentSession(c)
	account, err := s.opts.Auth.UpdateProfile(c.Context(), sess.Account.ID, req.Profile, req.Preferences)
	if err != nil {
		return s.redirectWithFlash(c, flashError, s.authFlashMessage(err), "/auth/profile")
	}

	// Refresh the session copy so the profile page reflects the change.
	s.loginSession(c, account)
	return s.redirectWithFlash(c, flashSuccess, "Profile updated", "/auth/profile")
}

// handleChangePassword verifies the current password and sets a new one.
func (s *Server) handleChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return s.redirectWithFlash(c, flashError, "Invalid form submission", "/auth/profile")
	}

	sess := s.currentSession(c)
	if err := s.opts.Auth.ChangePassword(c.Context(), sess.Account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return s.redirectWithFlash(c, flashError, s.authFlashMessage(err), "/auth/profile")
	}
	return s.redirectWithFlash(c, flashSuccess, "Password changed", "/auth/profile")
}
