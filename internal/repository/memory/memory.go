// Package memory is an in-process storage backend for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/storage"
	"github.com/google/uuid"
)

type Storage struct {
	mu       sync.RWMutex
	posts    map[string]model.Post
	messages []model.Message
	now      func() time.Time
}

type Option func(*Storage)

// WithClock replaces the server clock used to stamp createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

func New(opts ...Option) *Storage {
	s := &Storage{
		posts: make(map[string]model.Post),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ storage.Storage = (*Storage)(nil)

func (s *Storage) ListPosts(ctx context.Context, opts model.ListOptions) (*model.Page, error) {
	const op = "storage.memory.ListPosts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cur *storage.Cursor
	if opts.Cursor != "" {
		c, err := storage.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cur = &c
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}

	s.mu.RLock()
	items := make([]model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if opts.Filtered() && p.Category != opts.Category {
			continue
		}
		if cur != nil && !cur.After(p.CreatedAt, p.ID) {
			continue
		}
		items = append(items, clonePost(p))
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if len(items) > limit {
		items = items[:limit]
	}

	page := &model.Page{Items: items}
	if l := len(items); l > 0 {
		last := items[l-1]
		page.NextCursor = storage.EncodeCursor(last.CreatedAt, last.ID)
	}

	return page, nil
}

func (s *Storage) PostByID(ctx context.Context, id string) (*model.Post, error) {
	const op = "storage.memory.PostByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	post := clonePost(p)
	return &post, nil
}

func (s *Storage) CreatePost(ctx context.Context, post model.Post) (*model.Post, error) {
	const op = "storage.memory.CreatePost"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	post.ID = uuid.NewString()
	post.CreatedAt = now
	post.UpdatedAt = now

	s.mu.Lock()
	s.posts[post.ID] = clonePost(post)
	s.mu.Unlock()

	return &post, nil
}

func (s *Storage) UpdatePost(ctx context.Context, id string, fields model.PostFields) (*model.Post, error) {
	const op = "storage.memory.UpdatePost"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	p.Apply(fields)
	p.UpdatedAt = s.now().UTC()
	s.posts[id] = p

	post := clonePost(p)
	return &post, nil
}

func (s *Storage) DeletePost(ctx context.Context, id string) error {
	const op = "storage.memory.DeletePost"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	delete(s.posts, id)

	return nil
}

func (s *Storage) SaveMessage(ctx context.Context, msg model.Message) (*model.Message, error) {
	const op = "storage.memory.SaveMessage"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	msg.ID = uuid.NewString()
	msg.CreatedAt = s.now().UTC()

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	return &msg, nil
}

// Messages returns a copy of the saved contact messages.
func (s *Storage) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Message(nil), s.messages...)
}

func (s *Storage) Close() {}

func clonePost(p model.Post) model.Post {
	p.Tags = append([]string(nil), p.Tags...)
	return p
}
