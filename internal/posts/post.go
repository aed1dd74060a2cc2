// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

// Package posts implements the campus feed: create, browse, search,
// like, and soft-delete posts.
package posts

import (
	"context"
	"strings"
	"time"

	"github.com/campuslink/campuslink/internal/store"
)

// DefaultCategory is applied when a post is created without one.
const DefaultCategory = "general"

// MaxTitleLength bounds post titles.
const MaxTitleLength = 200

// Post is a feed entry. Identifiers are sequential: each new post takes
// the current maximum id plus one. Deletion is soft: the row stays but
// IsPublished flips to false and the post vanishes from every listing.
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Category    string    `json:"category"`
	Likes       int       `json:"likes"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Draft carries the user-supplied fields of a new or updated post.
type Draft struct {
	Title    string
	Content  string
	Category string
}

// Validate checks the draft and normalizes its category.
func (d *Draft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	d.Category = strings.ToLower(strings.TrimSpace(d.Category))

	if d.Title == "" {
		return &ValidationError{Field: "title", Message: "Title is required"}
	}
	if len(d.Title) > MaxTitleLength {
		return &ValidationError{Field: "title", Message: "Title is too long"}
	}
	if d.Content == "" {
		return &ValidationError{Field: "content", Message: "Content is required"}
	}
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	return nil
}

// Stats summarizes the published feed.
type Stats struct {
	TotalPosts int64            `json:"total_posts"`
	TotalLikes int64            `json:"total_likes"`
	ByCategory map[string]int64 `json:"by_category"`
}

// Repository manages post persistence. Implementations backed by an
// unavailable store degrade: reads come back empty and writes return
// synthetic acknowledgments.
type Repository interface {
	// Create stores a new post and assigns the next sequential id.
	// The assigned id is reported through the acknowledgment; degraded
	// acknowledgments carry a placeholder instead.
	Create(ctx context.Context, post *Post) (store.Ack, error)

	// GetByID returns a published post.
	GetByID(ctx context.Context, id int64) (*Post, error)

	// List returns published posts, newest first.
	List(ctx context.Context) ([]*Post, error)

	// ListByCategory returns published posts in a category, newest first.
	ListByCategory(ctx context.Context, category string) ([]*Post, error)

	// Search returns published posts whose title or content matches the
	// query, case-insensitively, newest first.
	Search(ctx context.Context, query string) ([]*Post, error)

	// Update replaces the draft fields of a published post.
	Update(ctx context.Context, post *Post) (store.Ack, error)

	// SoftDelete unpublishes a post.
	SoftDelete(ctx context.Context, id int64) (store.Ack, error)

	// Like increments the like counter and returns the new count.
	Like(ctx context.Context, id int64) (int, error)

	// Stats summarizes the published feed.
	Stats(ctx context.Context) (*Stats, error)
}
