// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

// Package postgres implements the posts repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/campuslink/campuslink/internal/observability"
	"github.com/campuslink/campuslink/internal/posts"
	"github.com/campuslink/campuslink/internal/store"
)

// PostRepository implements posts.Repository using PostgreSQL.
type PostRepository struct {
	handle *store.Handle
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(handle *store.Handle) *PostRepository {
	return &PostRepository{handle: handle}
}

func (r *PostRepository) degraded(operation string) {
	observability.RecordDegradedOperation(operation)
	r.handle.Logger().Warn("store unavailable, operation degraded",
		"operation", operation)
}

// Create stores a new post under the next sequential id. The id
// assignment and insert run as one statement so concurrent creates
// cannot claim the same id.
func (r *PostRepository) Create(ctx context.Context, post *posts.Post) (store.Ack, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("create_post")
		return store.DegradedAck(), nil
	}

	row := pool.QueryRow(ctx, `
		INSERT INTO posts (id, title, content, author, category, likes, is_published, created_at, updated_at)
		SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, $4, 0, TRUE, $5, $6
		FROM posts
		RETURNING id
	`,
		post.Title,
		post.Content,
		post.Author,
		post.Category,
		post.CreatedAt,
		post.UpdatedAt,
	)

	if err := row.Scan(&post.ID); err != nil {
		return store.Ack{}, oops.Code("POST_CREATE_FAILED").
			With("operation", "insert post").
			With("author", post.Author).
			Wrap(err)
	}
	return store.AckFor(strconv.FormatInt(post.ID, 10)), nil
}

// GetByID returns a published post.
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*posts.Post, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("get_post")
		return nil, posts.ErrNotFound
	}

	row := pool.QueryRow(ctx, `
		SELECT id, title, content, author, category, likes, is_published, created_at, updated_at
		FROM posts
		WHERE id = $1 AND is_published = TRUE
	`, id)

	post, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("POST_GET_FAILED").
			With("operation", "get post by id").
			With("id", id).
			Wrap(err)
	}
	return post, nil
}

// List returns published posts, newest first.
func (r *PostRepository) List(ctx context.Context) ([]*posts.Post, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("list_posts")
		return []*posts.Post{}, nil
	}

	rows, err := pool.Query(ctx, `
		SELECT id, title, content, author, category, likes, is_published, created_at, updated_at
		FROM posts
		WHERE is_published = TRUE
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").
			With("operation", "list posts").
			Wrap(err)
	}
	return collectPosts(rows)
}

// ListByCategory returns published posts in a category, newest first.
func (r *PostRepository) ListByCategory(ctx context.Context, category string) ([]*posts.Post, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("list_posts")
		return []*posts.Post{}, nil
	}

	rows, err := pool.Query(ctx, `
		SELECT id, title, content, author, category, likes, is_published, created_at, updated_at
		FROM posts
		WHERE is_published = TRUE AND category = $1
		ORDER BY created_at DESC, id DESC
	`, category)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").
			With("operation", "list posts by category").
			With("category", category).
			Wrap(err)
	}
	return collectPosts(rows)
}

// Search returns published posts matching the query in title or
// content, case-insensitively, newest first.
func (r *PostRepository) Search(ctx context.Context, query string) ([]*posts.Post, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("search_posts")
		return []*posts.Post{}, nil
	}

	rows, err := pool.Query(ctx, `
		SELECT id, title, content, author, category, likes, is_published, created_at, updated_at
		FROM posts
		WHERE is_published = TRUE AND (title ILIKE '%' || $1 || '%' OR content ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC, id DESC
	`, query)
	if err != nil {
		return nil, oops.Code("POST_SEARCH_FAILED").
			With("operation", "search posts").
			With("query", query).
			Wrap(err)
	}
	return collectPosts(rows)
}

// Update replaces the draft fields of a published post.
func (r *PostRepository) Update(ctx context.Context, post *posts.Post) (store.Ack, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("update_post")
		return store.DegradedAck(), nil
	}

	result, err := pool.Exec(ctx, `
		UPDATE posts SET title = $2, content = $3, category = $4, updated_at = $5
		WHERE id = $1 AND is_published = TRUE
	`, post.ID, post.Title, post.Content, post.Category, post.UpdatedAt)
	if err != nil {
		return store.Ack{}, oops.Code("POST_UPDATE_FAILED").
			With("operation", "update post").
			With("id", post.ID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return store.Ack{}, posts.ErrNotFound
	}
	return store.AckFor(strconv.FormatInt(post.ID, 10)), nil
}

// SoftDelete unpublishes a post. The row survives so the id sequence
// keeps climbing past it.
func (r *PostRepository) SoftDelete(ctx context.Context, id int64) (store.Ack, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("delete_post")
		return store.DegradedAck(), nil
	}

	result, err := pool.Exec(ctx, `
		UPDATE posts SET is_published = FALSE, updated_at = $2
		WHERE id = $1 AND is_published = TRUE
	`, id, time.Now())
	if err != nil {
		return store.Ack{}, oops.Code("POST_DELETE_FAILED").
			With("operation", "soft delete post").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return store.Ack{}, posts.ErrNotFound
	}
	return store.AckFor(strconv.FormatInt(id, 10)), nil
}

// Like increments the like counter and returns the new count.
func (r *PostRepository) Like(ctx context.Context, id int64) (int, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("like_post")
		return 0, nil
	}

	var likes int
	err := pool.QueryRow(ctx, `
		UPDATE posts SET likes = likes + 1, updated_at = $2
		WHERE id = $1 AND is_published = TRUE
		RETURNING likes
	`, id, time.Now()).Scan(&likes)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, posts.ErrNotFound
	}
	if err != nil {
		return 0, oops.Code("POST_LIKE_FAILED").
			With("operation", "like post").
			With("id", id).
			Wrap(err)
	}
	return likes, nil
}

// Stats summarizes the published feed.
func (r *PostRepository) Stats(ctx context.Context) (*posts.Stats, error) {
	pool, ok := r.handle.Pool()
	if !ok {
		r.degraded("feed_stats")
		return &posts.Stats{ByCategory: map[string]int64{}}, nil
	}

	stats := &posts.Stats{ByCategory: map[string]int64{}}

	err := pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(likes), 0)
		FROM posts
		WHERE is_published = TRUE
	`).Scan(&stats.TotalPosts, &stats.TotalLikes)
	if err != nil {
		return nil, oops.Code("POST_STATS_FAILED").
			With("operation", "feed totals").
			Wrap(err)
	}

	rows, err := pool.Query(ctx, `
		SELECT category, COUNT(*)
		FROM posts
		WHERE is_published = TRUE
		GROUP BY category
	`)
	if err != nil {
		return nil, oops.Code("POST_STATS_FAILED").
			With("operation", "category counts").
			Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return nil, oops.Code("POST_STATS_FAILED").
				With("operation", "scan category count").
				Wrap(err)
		}
		stats.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POST_STATS_FAILED").
			With("operation", "iterate category counts").
			Wrap(err)
	}
	return stats, nil
}

// scanPost scans a single row into a Post.
// Callers are responsible for handling pgx.ErrNoRows.
func scanPost(row pgx.Row) (*posts.Post, error) {
	var post posts.Post
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.Author,
		&post.Category,
		&post.Likes,
		&post.IsPublished,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("POST_SCAN_FAILED").
			With("operation", "scan post").
			Wrap(err)
	}
	return &post, nil
}

func collectPosts(rows pgx.Rows) ([]*posts.Post, error) {
	defer rows.Close()

	result := []*posts.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POST_SCAN_FAILED").
			With("operation", "iterate posts").
			Wrap(err)
	}
	return result, nil
}

// Compile-time interface check.
var _ posts.Repository = (*PostRepository)(nil)
