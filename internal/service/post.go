package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/BloggingApp/feed-service/internal/identity"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/permission"
	"github.com/BloggingApp/feed-service/internal/rabbitmq"
	"github.com/BloggingApp/feed-service/internal/repository"
	"github.com/BloggingApp/feed-service/internal/repository/redisrepo"
	"github.com/BloggingApp/feed-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type postService struct {
	logger     *zap.Logger
	repo       *repository.Repository
	pageSize   int
	admins     permission.AllowList
	timeouts   timeouts
	cacheTTL   time.Duration
	publisher  Publisher
	identities identity.Provider
	hooks      *hooks
}

type timeouts struct {
	fetch    time.Duration
	lookup   time.Duration
	mutation time.Duration
}

func newPostService(logger *zap.Logger, repo *repository.Repository, opts Options, h *hooks) Post {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 6
	}

	return &postService{
		logger:   logger,
		repo:     repo,
		pageSize: pageSize,
		admins:   opts.Admins,
		timeouts: timeouts{
			fetch:    opts.Timeouts.Fetch,
			lookup:   opts.Timeouts.Lookup,
			mutation: opts.Timeouts.Mutation,
		},
		cacheTTL:   opts.CacheTTL,
		publisher:  opts.Publisher,
		identities: opts.Identities,
		hooks:      h,
	}
}

func (s *postService) List(ctx context.Context, opts model.ListOptions) (*model.Page, error) {
	const op = "list posts"

	opts.Category = strings.ToLower(strings.TrimSpace(opts.Category))
	if opts.Filtered() && !model.IsCategory(opts.Category) {
		return nil, &Error{Kind: KindValidation, Op: op, Detail: ErrUnknownCategory.Error(), Err: ErrUnknownCategory}
	}

	limit := opts.Limit
	maxLimit(&limit, s.pageSize)
	// one extra row tells whether another page exists
	opts.Limit = limit + 1

	page, err := guard(ctx, s.timeouts.fetch, func(ctx context.Context) (*model.Page, error) {
		return s.repo.Store.ListPosts(ctx, opts)
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to list posts(category=%q): %s", opts.Category, err.Error())
		return nil, Classify(op, err)
	}

	items := page.Items
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	for i := range items {
		items[i].Normalize()
	}

	var next string
	if len(items) > 0 {
		last := items[len(items)-1]
		next = storage.EncodeCursor(last.CreatedAt, last.ID)
	}

	return &model.Page{
		Items:      items,
		NextCursor: next,
		HasMore:    hasMore,
	}, nil
}

func (s *postService) FindByID(ctx context.Context, id string) (*model.Post, error) {
	const op = "find post"

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validationError(op, "post id is required")
	}

	if s.repo.Redis != nil {
		cached, err := redisrepo.Get[model.Post](s.repo.Redis.Default, ctx, redisrepo.PostKey(id))
		if err == nil && cached != nil {
			cached.ID = id
			return cached, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Sugar().Errorf("failed to get post(%s) from redis: %s", id, err.Error())
		}
	}

	post, err := s.fetch(ctx, id)
	if err != nil {
		return nil, Classify(op, err)
	}

	if s.repo.Redis != nil {
		if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.PostKey(id), post, s.cacheTTL); err != nil {
			s.logger.Sugar().Errorf("failed to set post(%s) in redis: %s", id, err.Error())
		}
	}

	return post, nil
}

// fetch reads the post straight from the store, bypassing the cache.
func (s *postService) fetch(ctx context.Context, id string) (*model.Post, error) {
	post, err := guard(ctx, s.timeouts.lookup, func(ctx context.Context) (*model.Post, error) {
		return s.repo.Store.PostByID(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Sugar().Errorf("failed to get post(%s) from store: %s", id, err.Error())
		}
		return nil, err
	}

	post.Normalize()
	return post, nil
}

func (s *postService) Evaluate(ident *model.Identity, post *model.Post) permission.Level {
	return permission.Evaluate(ident, post, s.admins)
}

func (s *postService) Permission(ctx context.Context, id string, ident *model.Identity) (permission.Level, error) {
	const op = "check permission"

	if ident == nil {
		return permission.None, nil
	}

	post, err := s.fetch(ctx, strings.TrimSpace(id))
	if err != nil {
		return permission.None, Classify(op, err)
	}

	return s.Evaluate(ident, post), nil
}

// authorize runs the checks every mutation starts with.
func (s *postService) authorize(op string, ident *model.Identity) error {
	if s.identities != nil {
		if err := s.identities.Err(); err != nil {
			return newError(op, KindUnavailable, errors.Join(ErrIdentityUnavailable, err))
		}
	}
	if ident == nil || ident.UID == "" {
		return newError(op, KindPermissionDenied, ErrNotSignedIn)
	}
	return nil
}

func (s *postService) Create(ctx context.Context, input dto.PostInput, ident *model.Identity) (*model.Post, error) {
	const op = "create post"

	if err := s.authorize(op, ident); err != nil {
		return nil, err
	}

	fields, err := postFields(op, input)
	if err != nil {
		return nil, err
	}

	post := model.Post{
		AuthorID:          ident.UID,
		AuthorEmail:       ident.Email,
		AuthorDisplayName: ident.AuthorName(),
	}
	post.Apply(fields)

	created, err := guard(ctx, s.timeouts.mutation, func(ctx context.Context) (*model.Post, error) {
		return s.repo.Store.CreatePost(ctx, post)
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) post: %s", ident.UID, err.Error())
		return nil, Classify(op, err)
	}

	s.publish(ctx, rabbitmq.POST_CREATED_QUEUE, dto.MQPostCreatedMsg{
		PostID:    created.ID,
		UserID:    ident.UID,
		PostTitle: created.Title,
		Category:  created.Category,
		CreatedAt: created.CreatedAt,
	})
	s.changed(ctx)

	return created, nil
}

func (s *postService) Update(ctx context.Context, id string, input dto.PostInput, ident *model.Identity, cached permission.Level) (*model.Post, error) {
	const op = "update post"

	if err := s.authorize(op, ident); err != nil {
		return nil, err
	}
	if cached != permission.Unknown && !cached.CanMutate() {
		return nil, newError(op, KindPermissionDenied, ErrForbidden)
	}

	fields, err := postFields(op, input)
	if err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if err := s.checkFresh(ctx, op, id, ident); err != nil {
		return nil, err
	}

	updated, err := guard(ctx, s.timeouts.mutation, func(ctx context.Context) (*model.Post, error) {
		return s.repo.Store.UpdatePost(ctx, id, fields)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.forget(ctx, id)
			s.changed(ctx)
		} else {
			s.logger.Sugar().Errorf("failed to update post(%s) by user(%s): %s", id, ident.UID, err.Error())
		}
		return nil, Classify(op, err)
	}

	s.forget(ctx, id)
	s.changed(ctx)

	return updated, nil
}

func (s *postService) Delete(ctx context.Context, id string, ident *model.Identity, cached permission.Level) error {
	const op = "delete post"

	if err := s.authorize(op, ident); err != nil {
		return err
	}
	if cached != permission.Unknown && !cached.CanMutate() {
		return newError(op, KindPermissionDenied, ErrForbidden)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return validationError(op, "post id is required")
	}
	if err := s.checkFresh(ctx, op, id, ident); err != nil {
		return err
	}

	_, err := guard(ctx, s.timeouts.mutation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Store.DeletePost(ctx, id)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.forget(ctx, id)
			s.changed(ctx)
		} else {
			s.logger.Sugar().Errorf("failed to delete post(%s) by user(%s): %s", id, ident.UID, err.Error())
		}
		return Classify(op, err)
	}

	s.forget(ctx, id)
	s.publish(ctx, rabbitmq.POST_DELETED_QUEUE, dto.MQPostDeletedMsg{
		PostID:    id,
		UserID:    ident.UID,
		DeletedAt: time.Now().UTC(),
	})
	s.changed(ctx)

	return nil
}

// checkFresh re-reads the post and re-evaluates the caller against it. A post
// that is already gone refreshes the feed.
func (s *postService) checkFresh(ctx context.Context, op string, id string, ident *model.Identity) error {
	if id == "" {
		return validationError(op, "post id is required")
	}

	current, err := s.fetch(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.forget(ctx, id)
			s.changed(ctx)
		}
		return Classify(op, err)
	}

	if !s.Evaluate(ident, current).CanMutate() {
		return newError(op, KindPermissionDenied, ErrForbidden)
	}
	return nil
}

func (s *postService) forget(ctx context.Context, id string) {
	if s.repo.Redis == nil {
		return
	}
	if err := s.repo.Redis.Default.Del(context.WithoutCancel(ctx), redisrepo.PostKey(id)).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%s) from redis: %s", id, err.Error())
	}
}

func (s *postService) publish(ctx context.Context, queue string, msg interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(context.WithoutCancel(ctx), queue, msg); err != nil {
		s.logger.Sugar().Errorf("failed to publish message to %s queue: %s", queue, err.Error())
	}
}

func (s *postService) changed(ctx context.Context) {
	s.hooks.run(context.WithoutCancel(ctx))
}
