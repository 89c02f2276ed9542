// Package firestore stores posts and contact messages in Google Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	fieldCategory  = "category"
	fieldCreatedAt = "createdAt"
)

type Storage struct {
	client   *firestore.Client
	posts    string
	messages string
}

var _ storage.Storage = (*Storage)(nil)

// Open creates a client for projectID. Credentials are resolved the usual way
// (GOOGLE_APPLICATION_CREDENTIALS, FIRESTORE_EMULATOR_HOST, metadata server).
func Open(ctx context.Context, projectID, postsCollection, messagesCollection string) (*Storage, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return New(client, postsCollection, messagesCollection), nil
}

func New(client *firestore.Client, postsCollection, messagesCollection string) *Storage {
	return &Storage{
		client:   client,
		posts:    postsCollection,
		messages: messagesCollection,
	}
}

func (s *Storage) Close() {
	_ = s.client.Close()
}

func (s *Storage) ListPosts(ctx context.Context, opts model.ListOptions) (*model.Page, error) {
	const op = "storage.firestore.ListPosts"

	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}

	q := s.client.Collection(s.posts).Query
	if opts.Filtered() {
		q = q.Where(fieldCategory, "==", opts.Category)
	}
	q = q.OrderBy(fieldCreatedAt, firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)

	if opts.Cursor != "" {
		cur, err := storage.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		q = q.StartAfter(cur.CreatedAt, cur.ID)
	}

	snaps, err := q.Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(op, err)
	}

	page := &model.Page{Items: make([]model.Post, 0, len(snaps))}
	for _, snap := range snaps {
		post, err := decodePost(snap)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		page.Items = append(page.Items, *post)
	}

	if l := len(page.Items); l > 0 {
		last := page.Items[l-1]
		page.NextCursor = storage.EncodeCursor(last.CreatedAt, last.ID)
	}

	return page, nil
}

func (s *Storage) PostByID(ctx context.Context, id string) (*model.Post, error) {
	const op = "storage.firestore.PostByID"

	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	snap, err := s.client.Collection(s.posts).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(op, err)
	}

	post, err := decodePost(snap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

func (s *Storage) CreatePost(ctx context.Context, post model.Post) (*model.Post, error) {
	const op = "storage.firestore.CreatePost"

	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}

	ref, _, err := s.client.Collection(s.posts).Add(ctx, map[string]interface{}{
		"title":             post.Title,
		"excerpt":           post.Excerpt,
		"content":           post.Content,
		"category":          post.Category,
		"tags":              tags,
		"authorId":          post.AuthorID,
		"authorEmail":       post.AuthorEmail,
		"authorDisplayName": post.AuthorDisplayName,
		"readTime":          post.ReadTime,
		"createdAt":         firestore.ServerTimestamp,
		"updatedAt":         firestore.ServerTimestamp,
	})
	if err != nil {
		return nil, mapErr(op, err)
	}

	// Read back to pick up the server-assigned timestamps.
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, mapErr(op, err)
	}

	created, err := decodePost(snap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (s *Storage) UpdatePost(ctx context.Context, id string, fields model.PostFields) (*model.Post, error) {
	const op = "storage.firestore.UpdatePost"

	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	tags := fields.Tags
	if tags == nil {
		tags = []string{}
	}

	ref := s.client.Collection(s.posts).Doc(id)
	// Update fails with NotFound when the document is gone.
	if _, err := ref.Update(ctx, []firestore.Update{
		{Path: "title", Value: fields.Title},
		{Path: "excerpt", Value: fields.Excerpt},
		{Path: "content", Value: fields.Content},
		{Path: "category", Value: fields.Category},
		{Path: "tags", Value: tags},
		{Path: "readTime", Value: fields.ReadTime},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}); err != nil {
		return nil, mapErr(op, err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, mapErr(op, err)
	}

	updated, err := decodePost(snap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (s *Storage) DeletePost(ctx context.Context, id string) error {
	const op = "storage.firestore.DeletePost"

	if id == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if _, err := s.client.Collection(s.posts).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return mapErr(op, err)
	}

	return nil
}

func (s *Storage) SaveMessage(ctx context.Context, msg model.Message) (*model.Message, error) {
	const op = "storage.firestore.SaveMessage"

	ref, res, err := s.client.Collection(s.messages).Add(ctx, map[string]interface{}{
		"name":      msg.Name,
		"email":     msg.Email,
		"message":   msg.Message,
		"createdAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return nil, mapErr(op, err)
	}

	msg.ID = ref.ID
	msg.CreatedAt = res.UpdateTime.UTC()

	return &msg, nil
}

func decodePost(snap *firestore.DocumentSnapshot) (*model.Post, error) {
	var post model.Post
	if err := snap.DataTo(&post); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", snap.Ref.ID, err)
	}

	post.ID = snap.Ref.ID
	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()

	return &post, nil
}

// mapErr translates gRPC status codes into the storage sentinels.
func mapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%s: %w: %w", op, storage.ErrPermissionDenied, err)
	case codes.Unavailable, codes.ResourceExhausted:
		return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w: %w", op, context.DeadlineExceeded, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
