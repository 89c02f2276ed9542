// Package storage defines the contract of the remote document store that holds
// posts and contact messages. Backends live under internal/repository.
package storage

import (
	"context"
	"errors"

	"github.com/BloggingApp/feed-service/internal/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnavailable      = errors.New("store unavailable")
	// ErrInvalidCursor is returned for a page cursor this store did not issue.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// PostStorage is implemented by every backend.
type PostStorage interface {
	// ListPosts returns up to opts.Limit posts ordered by createdAt DESC, id DESC,
	// starting after opts.Cursor. NextCursor points at the last returned item.
	ListPosts(ctx context.Context, opts model.ListOptions) (*model.Page, error)
	// PostByID returns ErrNotFound when the document is absent.
	PostByID(ctx context.Context, id string) (*model.Post, error)
	// CreatePost assigns ID, CreatedAt and UpdatedAt.
	CreatePost(ctx context.Context, post model.Post) (*model.Post, error)
	// UpdatePost replaces the mutable fields and re-stamps UpdatedAt.
	// The author snapshot and CreatedAt are never written.
	UpdatePost(ctx context.Context, id string, fields model.PostFields) (*model.Post, error)
	// DeletePost removes the document. ErrNotFound when it is absent.
	DeletePost(ctx context.Context, id string) error
}

type MessageStorage interface {
	SaveMessage(ctx context.Context, msg model.Message) (*model.Message, error)
}

type Storage interface {
	PostStorage
	MessageStorage
	Close()
}
