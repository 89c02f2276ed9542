package service

import (
	"context"
	"sync"
	"time"

	"github.com/BloggingApp/feed-service/internal/config"
	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/BloggingApp/feed-service/internal/identity"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/permission"
	"github.com/BloggingApp/feed-service/internal/repository"
	"go.uber.org/zap"
)

const MAX_LIMIT = 50

func maxLimit(limit *int, fallback int) {
	if *limit <= 0 {
		*limit = fallback
	}
	if *limit > MAX_LIMIT {
		*limit = MAX_LIMIT
	}
}

type Post interface {
	// List returns one feed page, newest first.
	List(ctx context.Context, opts model.ListOptions) (*model.Page, error)
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// Permission re-fetches the post and evaluates the caller's level on it.
	Permission(ctx context.Context, id string, ident *model.Identity) (permission.Level, error)
	// Evaluate computes the level on an already loaded post.
	Evaluate(ident *model.Identity, post *model.Post) permission.Level
	Create(ctx context.Context, input dto.PostInput, ident *model.Identity) (*model.Post, error)
	// Update and Delete take the level the caller last saw. permission.Unknown
	// skips the early rejection; the fresh check always runs.
	Update(ctx context.Context, id string, input dto.PostInput, ident *model.Identity, cached permission.Level) (*model.Post, error)
	Delete(ctx context.Context, id string, ident *model.Identity, cached permission.Level) error
}

type Message interface {
	Send(ctx context.Context, input dto.MessageInput) (*model.Message, error)
}

// Publisher emits post events. *rabbitmq.MQConn implements it.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, v interface{}) error
}

type Options struct {
	PageSize int
	Admins   permission.AllowList
	Timeouts config.TimeoutConfig
	CacheTTL time.Duration
	// Publisher is optional.
	Publisher Publisher
	// Identities is optional. When set, a failed provider disables mutations.
	Identities identity.Provider
}

// OptionsFromConfig maps the loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PageSize: cfg.Feed.PageSize,
		Admins:   permission.NewAllowList(cfg.Admins...),
		Timeouts: cfg.Timeouts,
		CacheTTL: cfg.Redis.TTL,
	}
}

// hooks holds the callbacks run after the feed changed, in registration order.
type hooks struct {
	mu      sync.RWMutex
	nextID  int
	refresh []hook
}

type hook struct {
	id int
	fn func(ctx context.Context)
}

func (h *hooks) add(fn func(ctx context.Context)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.refresh = append(h.refresh, hook{id: id, fn: fn})

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		for i, r := range h.refresh {
			if r.id == id {
				h.refresh = append(h.refresh[:i:i], h.refresh[i+1:]...)
				return
			}
		}
	}
}

func (h *hooks) run(ctx context.Context) {
	h.mu.RLock()
	fns := make([]func(ctx context.Context), 0, len(h.refresh))
	for _, r := range h.refresh {
		fns = append(fns, r.fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx)
	}
}

type Service struct {
	Post
	Message

	hooks *hooks
}

func New(logger *zap.Logger, repo *repository.Repository, opts Options) *Service {
	h := &hooks{}
	return &Service{
		Post:    newPostService(logger, repo, opts, h),
		Message: newMessageService(logger, repo, opts),
		hooks:   h,
	}
}

// OnChange registers fn to run after every successful mutation and after a
// mutation found its post already gone. The returned func unregisters it.
func (s *Service) OnChange(fn func(ctx context.Context)) func() {
	return s.hooks.add(fn)
}
