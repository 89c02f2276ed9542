package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const postColumns = `id, title, excerpt, content, category, tags, author_id, author_email, author_display_name, read_time, created_at, updated_at`

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		post model.Post
		id   uuid.UUID
	)
	if err := row.Scan(
		&id,
		&post.Title,
		&post.Excerpt,
		&post.Content,
		&post.Category,
		&post.Tags,
		&post.AuthorID,
		&post.AuthorEmail,
		&post.AuthorDisplayName,
		&post.ReadTime,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, err
	}

	post.ID = id.String()
	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()

	return &post, nil
}

func (s *Storage) CreatePost(ctx context.Context, post model.Post) (*model.Post, error) {
	const op = "storage.postgres.CreatePost"

	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}

	created, err := scanPost(s.db.QueryRow(
		ctx,
		`INSERT INTO posts(id, title, excerpt, content, category, tags, author_id, author_email, author_display_name, read_time)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+postColumns,
		uuid.New(),
		post.Title,
		post.Excerpt,
		post.Content,
		post.Category,
		tags,
		post.AuthorID,
		post.AuthorEmail,
		post.AuthorDisplayName,
		post.ReadTime,
	))
	if err != nil {
		return nil, mapErr(op, err)
	}

	return created, nil
}

// PostByID treats a malformed id as a missing document.
func (s *Storage) PostByID(ctx context.Context, id string) (*model.Post, error) {
	const op = "storage.postgres.PostByID"

	postID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	post, err := scanPost(s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, postID))
	if err != nil {
		return nil, mapErr(op, err)
	}

	return post, nil
}

// ListPosts pages with a (created_at, id) keyset so inserts between calls do
// not shift already-seen rows.
func (s *Storage) ListPosts(ctx context.Context, opts model.ListOptions) (*model.Page, error) {
	const op = "storage.postgres.ListPosts"

	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}

	var (
		where []string
		args  []interface{}
	)

	if opts.Filtered() {
		args = append(args, opts.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}

	if opts.Cursor != "" {
		cur, err := storage.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		curID, err := uuid.Parse(cur.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidCursor)
		}

		args = append(args, cur.CreatedAt, curID)
		where = append(where, "(created_at, id) < ($"+strconv.Itoa(len(args)-1)+", $"+strconv.Itoa(len(args))+")")
	}

	query := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += " ORDER BY created_at DESC, id DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	page := &model.Page{Items: []model.Post{}}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		page.Items = append(page.Items, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}

	if l := len(page.Items); l > 0 {
		last := page.Items[l-1]
		page.NextCursor = storage.EncodeCursor(last.CreatedAt, last.ID)
	}

	return page, nil
}

func (s *Storage) UpdatePost(ctx context.Context, id string, fields model.PostFields) (*model.Post, error) {
	const op = "storage.postgres.UpdatePost"

	postID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	tags := fields.Tags
	if tags == nil {
		tags = []string{}
	}

	updated, err := scanPost(s.db.QueryRow(
		ctx,
		`UPDATE posts
		SET title = $1, excerpt = $2, content = $3, category = $4, tags = $5, read_time = $6, updated_at = now()
		WHERE id = $7
		RETURNING `+postColumns,
		fields.Title,
		fields.Excerpt,
		fields.Content,
		fields.Category,
		tags,
		fields.ReadTime,
		postID,
	))
	if err != nil {
		return nil, mapErr(op, err)
	}

	return updated, nil
}

func (s *Storage) DeletePost(ctx context.Context, id string) error {
	const op = "storage.postgres.DeletePost"

	postID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	tag, err := s.db.Exec(ctx, "DELETE FROM posts WHERE id = $1", postID)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
