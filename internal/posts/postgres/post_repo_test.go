// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink/internal/posts"
	"github.com/campuslink/campuslink/internal/posts/postgres"
	"github.com/campuslink/campuslink/internal/store"
)

var postColumns = []string{
	"id", "title", "content", "author", "category", "likes", "is_published",
	"created_at", "updated_at",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockRepo(t *testing.T) (*postgres.PostRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	handle := store.Connected(mock, testLogger())
	return postgres.NewPostRepository(handle), mock
}

func postRow(id int64) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(postColumns).AddRow(
		id, "Study group", "Thursdays in the library", "dana", "general",
		3, true, now, now,
	)
}

func TestPostRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns the next sequential id", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		post := &posts.Post{Title: "Study group", Content: "Thursdays", Author: "dana", Category: "general"}

		mock.ExpectQuery("INSERT INTO posts").
			WithArgs(post.Title, post.Content, post.Author, post.Category,
				pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(8)))

		ack, err := repo.Create(ctx, post)
		require.NoError(t, err)

		assert.Equal(t, int64(8), post.ID)
		assert.Equal(t, "8", ack.InsertedID)
		assert.False(t, ack.Degraded)
	})

	t.Run("degraded store acknowledges with a placeholder", func(t *testing.T) {
		repo := postgres.NewPostRepository(store.Unavailable(testLogger()))

		post := &posts.Post{Title: "Study group", Content: "Thursdays", Author: "dana"}
		ack, err := repo.Create(ctx, post)
		require.NoError(t, err)

		assert.True(t, ack.Degraded)
		assert.NotEmpty(t, ack.InsertedID)
		assert.Zero(t, post.ID)
	})
}

func TestPostRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a published post", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT (.+) FROM posts").
			WithArgs(int64(8)).
			WillReturnRows(postRow(8))

		post, err := repo.GetByID(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, int64(8), post.ID)
		assert.Equal(t, "dana", post.Author)
	})

	t.Run("unpublished or missing post", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT (.+) FROM posts").
			WithArgs(int64(404)).
			WillReturnError(pgx.ErrNoRows)

		post, err := repo.GetByID(ctx, 404)
		require.ErrorIs(t, err, posts.ErrNotFound)
		assert.Nil(t, post)
	})

	t.Run("degraded store reads as missing", func(t *testing.T) {
		repo := postgres.NewPostRepository(store.Unavailable(testLogger()))

		_, err := repo.GetByID(ctx, 8)
		require.ErrorIs(t, err, posts.ErrNotFound)
	})
}

func TestPostRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the feed", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		now := time.Now()
		rows := pgxmock.NewRows(postColumns).
			AddRow(int64(2), "Second", "body", "dana", "general", 0, true, now, now).
			AddRow(int64(1), "First", "body", "alex", "events", 5, true, now, now)

		mock.ExpectQuery("SELECT (.+) FROM posts").WillReturnRows(rows)

		feed, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, int64(2), feed[0].ID)
	})

	t.Run("degraded store lists empty", func(t *testing.T) {
		repo := postgres.NewPostRepository(store.Unavailable(testLogger()))

		feed, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, feed)
		assert.Empty(t, feed)
	})
}

func TestPostRepository_Search(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM posts").
		WithArgs("library").
		WillReturnRows(postRow(8))

	found, err := repo.Search(ctx, "library")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(8), found[0].ID)
}

func TestPostRepository_SoftDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("unpublishes the post", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE posts SET is_published").
			WithArgs(int64(8), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ack, err := repo.SoftDelete(ctx, 8)
		require.NoError(t, err)
		assert.True(t, ack.Acknowledged)
	})

	t.Run("already unpublished", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE posts SET is_published").
			WithArgs(int64(8), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		_, err := repo.SoftDelete(ctx, 8)
		require.ErrorIs(t, err, posts.ErrNotFound)
	})
}

func TestPostRepository_Like(t *testing.T) {
	ctx := context.Background()

	t.Run("increments and returns the count", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("UPDATE posts SET likes").
			WithArgs(int64(8), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"likes"}).AddRow(4))

		likes, err := repo.Like(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, 4, likes)
	})

	t.Run("unknown post", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("UPDATE posts SET likes").
			WithArgs(int64(404), pgxmock.AnyArg()).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Like(ctx, 404)
		require.ErrorIs(t, err, posts.ErrNotFound)
	})
}

func TestPostRepository_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("summarizes the feed", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(pgxmock.NewRows([]string{"count", "sum"}).AddRow(int64(10), int64(33)))
		mock.ExpectQuery("SELECT category").
			WillReturnRows(pgxmock.NewRows([]string{"category", "count"}).
				AddRow("general", int64(7)).
				AddRow("events", int64(3)))

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(10), stats.TotalPosts)
		assert.Equal(t, int64(33), stats.TotalLikes)
		assert.Equal(t, int64(7), stats.ByCategory["general"])
	})

	t.Run("degraded store reports an empty summary", func(t *testing.T) {
		repo := postgres.NewPostRepository(store.Unavailable(testLogger()))

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalPosts)
		assert.NotNil(t, stats.ByCategory)
	})
}
