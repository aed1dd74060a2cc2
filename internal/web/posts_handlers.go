// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package web

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/campuslink/internal/posts"
)

type postRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

func parsePostID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleListPosts returns the published feed, optionally filtered by
// ?category=.
func (s *Server) handleListPosts(c *fiber.Ctx) error {
	feed, err := s.opts.Posts.List(c.Context(), c.Query("category"))
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"posts": feed, "count": len(feed)})
}

// handlePostsByCategory returns the published feed for one category.
func (s *Server) handlePostsByCategory(c *fiber.Ctx) error {
	feed, err := s.opts.Posts.List(c.Context(), c.Params("category"))
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"posts": feed, "count": len(feed)})
}

// handleSearchPosts returns published posts matching ?q=.
func (s *Server) handleSearchPosts(c *fiber.Ctx) error {
	found, err := s.opts.Posts.Search(c.Context(), c.Query("q"))
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"posts": found, "count": len(found)})
}

// handlePostStats summarizes the published feed.
func (s *Server) handlePostStats(c *fiber.Ctx) error {
	stats, err := s.opts.Posts.Stats(c.Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, fiber.StatusOK, stats)
}

// handleGetPost returns a single published post.
func (s *Server) handleGetPost(c *fiber.Ctx) error {
	id, valid := parsePostID(c)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid post id")
	}

	post, err := s.opts.Posts.Get(c.Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, fiber.StatusOK, post)
}

// handleCreatePost stores a new post by the logged-in account.
func (s *Server) handleCreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	sess := s.currentSession(c)
	post, ack, err := s.opts.Posts.Create(c.Context(), sess.Account, posts.Draft{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return ok(c, fiber.StatusCreated, fiber.Map{
		"post":     post,
		"degraded": ack.Degraded,
	})
}

// handleUpdatePost edits a post owned by the logged-in account.
func (s *Server) handleUpdatePost(c *fiber.Ctx) error {
	id, valid := parsePostID(c)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid post id")
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	sess := s.currentSession(c)
	post, err := s.opts.Posts.Update(c.Context(), id, sess.Account, posts.Draft{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, fiber.StatusOK, post)
}

// handleDeletePost soft-deletes a post owned by the logged-in account.
func (s *Server) handleDeletePost(c *fiber.Ctx) error {
	id, valid := parsePostID(c)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid post id")
	}

	sess := s.currentSession(c)
	if err := s.opts.Posts.Delete(c.Context(), id, sess.Account); err != nil {
		return s.respondError(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// handleLikePost increments a post's like counter.
func (s *Server) handleLikePost(c *fiber.Ctx) error {
	id, valid := parsePostID(c)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid post id")
	}

	likes, err := s.opts.Posts.Like(c.Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"likes": likes})
}
