// Package feed drives a paginated, category-filtered list of post cards.
package feed

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BloggingApp/feed-service/internal/identity"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/permission"
	"github.com/BloggingApp/feed-service/internal/service"
	"go.uber.org/zap"
)

// Source is the part of service.Post the controller needs.
type Source interface {
	List(ctx context.Context, opts model.ListOptions) (*model.Page, error)
	Evaluate(ident *model.Identity, post *model.Post) permission.Level
}

// Card is one rendered post.
type Card struct {
	Post         model.Post
	Permission   permission.Level
	CategoryName string
	// Date is the post's creation date relative to the render time.
	Date string
}

type Renderer interface {
	// Clear removes every card on screen.
	Clear()
	Render(card Card)
	SetLoadMore(visible bool)
}

type Callbacks struct {
	// OnEmpty runs when a reset load found no posts.
	OnEmpty func()
	// OnError receives the classified failure and its user-facing message.
	OnError func(kind service.Kind, message string)
}

type Controller struct {
	logger     *zap.Logger
	source     Source
	renderer   Renderer
	identities identity.Provider
	now        func() time.Time

	loading atomic.Bool
	// pending marks an identity change that arrived while a load was in flight.
	pending atomic.Bool

	mu        sync.Mutex
	cursor    string
	category  string
	rendered  int
	callbacks Callbacks

	unsubscribe func()
}

type Option func(*Controller)

// WithIdentities reloads the first page whenever the signed-in user changes,
// so that card permissions follow the new identity.
func WithIdentities(p identity.Provider) Option {
	return func(c *Controller) {
		c.identities = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func New(logger *zap.Logger, source Source, renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		logger:   logger,
		source:   source,
		renderer: renderer,
		now:      time.Now,
		category: model.CategoryAll,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.identities != nil {
		c.unsubscribe = c.identities.Subscribe(func(*model.Identity) {
			if c.Rendered() > 0 || c.Loading() {
				c.pending.Store(true)
				c.drain(context.Background())
			}
		})
	}

	return c
}

// LoadPage fetches the next page of category and renders it. With reset, or
// when category differs from the one on screen, the cursor and the rendered
// cards are discarded first. A call made while another fetch is in flight is
// dropped and reports false.
func (c *Controller) LoadPage(ctx context.Context, reset bool, category string, cb Callbacks) bool {
	if !c.loading.CompareAndSwap(false, true) {
		return false
	}
	c.load(ctx, reset, category, cb)
	c.loading.Store(false)

	c.drain(context.WithoutCancel(ctx))
	return true
}

// drain runs the reloads requested while another load held the controller.
// Whoever releases the in-flight flag last sees the pending mark.
func (c *Controller) drain(ctx context.Context) {
	for c.pending.Load() {
		if !c.loading.CompareAndSwap(false, true) {
			return
		}
		if !c.pending.CompareAndSwap(true, false) {
			c.loading.Store(false)
			return
		}

		c.mu.Lock()
		category, cb := c.category, c.callbacks
		c.mu.Unlock()

		c.load(ctx, true, category, cb)
		c.loading.Store(false)
	}
}

func (c *Controller) load(ctx context.Context, reset bool, category string, cb Callbacks) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = model.CategoryAll
	}

	c.mu.Lock()
	if category != c.category {
		reset = true
	}
	if reset {
		c.cursor = ""
		c.rendered = 0
		c.renderer.Clear()
	}
	c.category = category
	c.callbacks = cb
	cursor := c.cursor
	c.mu.Unlock()

	page, err := c.source.List(ctx, model.ListOptions{Category: category, Cursor: cursor})
	if err != nil {
		classified := service.Classify("load feed", err)
		c.logger.Sugar().Errorf("failed to load feed page(category=%s): %s", category, err.Error())
		c.renderer.SetLoadMore(false)
		if cb.OnError != nil {
			cb.OnError(classified.Kind, classified.UserMessage())
		}
		return
	}

	if len(page.Items) == 0 {
		c.renderer.SetLoadMore(false)
		if reset && cb.OnEmpty != nil {
			cb.OnEmpty()
		}
		return
	}

	var ident *model.Identity
	if c.identities != nil {
		ident = c.identities.Current()
	}
	now := c.now()

	for i := range page.Items {
		post := page.Items[i]
		c.renderer.Render(Card{
			Post:         post,
			Permission:   c.source.Evaluate(ident, &post),
			CategoryName: model.CategoryName(post.Category),
			Date:         model.RelativeDate(post.CreatedAt, now),
		})
	}

	c.mu.Lock()
	c.cursor = page.NextCursor
	c.rendered += len(page.Items)
	c.mu.Unlock()

	c.renderer.SetLoadMore(page.HasMore)
}

// Reload loads the first page of the current category again with the last
// callbacks. It is the refresher wired to the mutation workflow.
func (c *Controller) Reload(ctx context.Context) bool {
	c.mu.Lock()
	category, cb := c.category, c.callbacks
	c.mu.Unlock()

	return c.LoadPage(ctx, true, category, cb)
}

func (c *Controller) Category() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// Rendered is the number of cards currently on screen.
func (c *Controller) Rendered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rendered
}

func (c *Controller) Loading() bool {
	return c.loading.Load()
}

// Close stops following identity changes.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}
