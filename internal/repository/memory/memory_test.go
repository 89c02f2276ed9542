package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/storage"
	"github.com/stretchr/testify/require"
)

// tickingClock advances one minute per call so createdAt is strictly increasing.
func tickingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func seed(t *testing.T, s *Storage, category string, n int) []*model.Post {
	t.Helper()

	var out []*model.Post
	for i := 0; i < n; i++ {
		p, err := s.CreatePost(context.Background(), model.Post{
			Title:    fmt.Sprintf("%s %d", category, i),
			Content:  "body",
			Category: category,
			AuthorID: "author-1",
		})
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestListPosts_PaginatesNewestFirst(t *testing.T) {
	t.Parallel()

	s := New(WithClock(tickingClock()))
	seed(t, s, model.CategoryTech, 5)
	seed(t, s, model.CategoryLife, 2)

	ctx := context.Background()
	var (
		seen   []model.Post
		cursor string
	)
	for {
		page, err := s.ListPosts(ctx, model.ListOptions{Category: model.CategoryTech, Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		if len(page.Items) == 0 {
			break
		}
		seen = append(seen, page.Items...)
		cursor = page.NextCursor
	}

	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		require.True(t, seen[i-1].CreatedAt.After(seen[i].CreatedAt), "strictly descending createdAt")
		require.Equal(t, model.CategoryTech, seen[i].Category)
	}
}

func TestListPosts_AllCategories(t *testing.T) {
	t.Parallel()

	s := New(WithClock(tickingClock()))
	seed(t, s, model.CategoryTech, 2)
	seed(t, s, model.CategoryThoughts, 2)

	page, err := s.ListPosts(context.Background(), model.ListOptions{Category: model.CategoryAll, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
}

func TestListPosts_InvalidCursor(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.ListPosts(context.Background(), model.ListOptions{Limit: 1, Cursor: "garbage!"})
	require.ErrorIs(t, err, storage.ErrInvalidCursor)
}

func TestUpdatePost_KeepsAuthorAndCreatedAt(t *testing.T) {
	t.Parallel()

	s := New(WithClock(tickingClock()))
	created := seed(t, s, model.CategoryTech, 1)[0]

	updated, err := s.UpdatePost(context.Background(), created.ID, model.PostFields{
		Title:    "new title",
		Content:  "new body",
		Category: model.CategoryLife,
		Tags:     []string{"go"},
		ReadTime: 3,
	})
	require.NoError(t, err)
	require.Equal(t, "author-1", updated.AuthorID)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	require.Equal(t, "new title", updated.Title)
	require.Equal(t, []string{"go"}, updated.Tags)
}

func TestPostByID_And_Delete_NotFound(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	_, err := s.PostByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.UpdatePost(ctx, "missing", model.PostFields{})
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, s.DeletePost(ctx, "missing"), storage.ErrNotFound)
}

func TestSaveMessage(t *testing.T) {
	t.Parallel()

	s := New()
	msg, err := s.SaveMessage(context.Background(), model.Message{Name: "n", Email: "a@b.c", Message: "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.False(t, msg.CreatedAt.IsZero())
	require.Len(t, s.Messages(), 1)
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListPosts(ctx, model.ListOptions{Limit: 1})
	require.ErrorIs(t, err, context.Canceled)
}
