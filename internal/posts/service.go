// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package posts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/store"
)

// ErrForbidden is returned when an account edits a post it does not own.
var ErrForbidden = errors.New("not the post author")

// Service provides feed operations over a Repository.
type Service struct {
	repo Repository
}

// NewService creates a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates the draft and stores a new published post by the
// given account. The returned acknowledgment reports the assigned id,
// or a placeholder when the store is degraded.
func (s *Service) Create(ctx context.Context, author *auth.SanitizedAccount, draft Draft) (*Post, store.Ack, error) {
	if err := draft.Validate(); err != nil {
		return nil, store.Ack{}, err
	}

	now := time.Now()
	post := &Post{
		Title:       draft.Title,
		Content:     draft.Content,
		Author:      author.Username,
		Category:    draft.Category,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ack, err := s.repo.Create(ctx, post)
	if err != nil {
		return nil, store.Ack{}, oops.Code("POST_CREATE_FAILED").
			With("operation", "create post").
			With("author", author.Username).
			Wrap(err)
	}
	return post, ack, nil
}

// Get returns a published post.
func (s *Service) Get(ctx context.Context, id int64) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("POST_GET_FAILED").
			With("operation", "get post").
			With("id", id).
			Wrap(err)
	}
	return post, nil
}

// List returns the published feed, newest first. An optional category
// narrows the result.
func (s *Service) List(ctx context.Context, category string) ([]*Post, error) {
	var (
		result []*Post
		err    error
	)
	if category = strings.ToLower(strings.TrimSpace(category)); category != "" {
		result, err = s.repo.ListByCategory(ctx, category)
	} else {
		result, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").
			With("operation", "list posts").
			With("category", category).
			Wrap(err)
	}
	return result, nil
}

// Search returns published posts matching the query. A blank query is
// the full feed.
func (s *Service) Search(ctx context.Context, query string) ([]*Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, "")
	}

	result, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, oops.Code("POST_SEARCH_FAILED").
			With("operation", "search posts").
			With("query", query).
			Wrap(err)
	}
	return result, nil
}

// Update replaces the draft fields of a post. Only the author or an
// admin may edit.
func (s *Service) Update(ctx context.Context, id int64, actor *auth.SanitizedAccount, draft Draft) (*Post, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("POST_UPDATE_FAILED").
			With("operation", "get post").
			With("id", id).
			Wrap(err)
	}
	if !canModify(post, actor) {
		return nil, ErrForbidden
	}

	post.Title = draft.Title
	post.Content = draft.Content
	post.Category = draft.Category
	post.UpdatedAt = time.Now()

	if _, err := s.repo.Update(ctx, post); err != nil {
		return nil, oops.Code("POST_UPDATE_FAILED").
			With("operation", "update post").
			With("id", id).
			Wrap(err)
	}
	return post, nil
}

// Delete unpublishes a post. Only the author or an admin may delete.
// The row survives so the sequential ids keep climbing past it.
func (s *Service) Delete(ctx context.Context, id int64, actor *auth.SanitizedAccount) error {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return oops.Code("POST_DELETE_FAILED").
			With("operation", "get post").
			With("id", id).
			Wrap(err)
	}
	if !canModify(post, actor) {
		return ErrForbidden
	}

	if _, err := s.repo.SoftDelete(ctx, id); err != nil {
		return oops.Code("POST_DELETE_FAILED").
			With("operation", "soft delete post").
			With("id", id).
			Wrap(err)
	}
	return nil
}

// Like increments the like counter and returns the new count.
func (s *Service) Like(ctx context.Context, id int64) (int, error) {
	likes, err := s.repo.Like(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, oops.Code("POST_LIKE_FAILED").
			With("operation", "like post").
			With("id", id).
			Wrap(err)
	}
	return likes, nil
}

// Stats summarizes the published feed.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, oops.Code("POST_STATS_FAILED").
			With("operation", "feed stats").
			Wrap(err)
	}
	return stats, nil
}

func canModify(post *Post, actor *auth.SanitizedAccount) bool {
	return actor != nil && (post.Author == actor.Username || actor.Role == auth.RoleAdmin)
}
