// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/posts"
	"github.com/campuslink/campuslink/pkg/errutil"
)

// Flash kinds used by the account flow.
const (
	flashError    = "error"
	flashSuccess  = "success"
	flashNotice   = "notice"
	flashFormData = "formData"
)

// ok writes the success envelope.
func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// fail writes the error envelope.
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// respondError maps a domain error onto the wire. The taxonomy is
// fixed: validation 400, bad credentials 401 with a uniform message,
// lockout 423 with the retry hint, duplicates 409, ownership 403,
// missing 404. Anything else is a 500; in production the body says
// nothing about the cause.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var vAuthErr *auth.ValidationError
	if errors.As(err, &vAuthErr) {
		return failField(c, fiber.StatusBadRequest, vAuthErr.Message, vAuthErr.Field)
	}
	var vPostErr *posts.ValidationError
	if errors.As(err, &vPostErr) {
		return failField(c, fiber.StatusBadRequest, vPostErr.Message, vPostErr.Field)
	}

	if errors.Is(err, auth.ErrInvalidCredentials) {
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	var locked *auth.AccountLockedError
	if errors.As(err, &locked) {
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"success":             false,
			"error":               locked.Error(),
			"retry_after_minutes": locked.RetryAfterMinutes,
		})
	}

	var dup *auth.DuplicateFieldError
	if errors.As(err, &dup) {
		return failField(c, fiber.StatusConflict, dup.Error(), dup.Field)
	}

	if errors.Is(err, posts.ErrForbidden) {
		return fail(c, fiber.StatusForbidden, "You can only modify your own posts")
	}
	if errors.Is(err, auth.ErrStoreUnavailable) {
		return fail(c, fiber.StatusServiceUnavailable, "Service unavailable")
	}
	if errors.Is(err, auth.ErrNotFound) || errors.Is(err, posts.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Not found")
	}

	errutil.LogError(s.opts.Logger, "request failed", err)
	if s.production() {
		return fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return fail(c, fiber.StatusInternalServerError, err.Error())
}

// authFlashMessage converts a login/registration error into the
// message flashed back to the form. The taxonomy mirrors respondError;
// unexpected errors are logged in full and masked in production.
func (s *Server) authFlashMessage(err error) string {
	var vErr *auth.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return "Invalid credentials"
	}
	var locked *auth.AccountLockedError
	if errors.As(err, &locked) {
		return locked.Error()
	}
	var dup *auth.DuplicateFieldError
	if errors.As(err, &dup) {
		return dup.Error()
	}
	if errors.Is(err, auth.ErrNotFound) {
		return "Not found"
	}
	if errors.Is(err, auth.ErrStoreUnavailable) {
		return "Service unavailable"
	}

	errutil.LogError(s.opts.Logger, "request failed", err)
	if s.production() {
		return "Something went wrong"
	}
	return err.Error()
}

// redirectWithFlash stores a one-shot message and bounces the browser.
func (s *Server) redirectWithFlash(c *fiber.Ctx, kind, message, target string) error {
	if sess := s.currentSession(c); sess != nil {
		s.opts.Sessions.SetFlash(sess.ID, kind, message)
	}
	return c.Redirect(target, fiber.StatusFound)
}

func failField(c *fiber.Ctx, status int, message, field string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"field":   field,
	})
}
