package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BloggingApp/feed-service/internal/config"
	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/BloggingApp/feed-service/internal/identity"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/internal/permission"
	"github.com/BloggingApp/feed-service/internal/rabbitmq"
	"github.com/BloggingApp/feed-service/internal/repository"
	"github.com/BloggingApp/feed-service/internal/repository/memory"
	"github.com/BloggingApp/feed-service/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingStore records every remote call and can fail or hang on demand.
type countingStore struct {
	*memory.Storage

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	hang  map[string]bool
}

func newCountingStore() *countingStore {
	return &countingStore{
		Storage: memory.New(memory.WithClock(tickingClock())),
		calls:   make(map[string]int),
		fail:    make(map[string]error),
		hang:    make(map[string]bool),
	}
}

func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func (s *countingStore) hit(ctx context.Context, name string) error {
	s.mu.Lock()
	s.calls[name]++
	err, hang := s.fail[name], s.hang[name]
	s.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (s *countingStore) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *countingStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *countingStore) ListPosts(ctx context.Context, opts model.ListOptions) (*model.Page, error) {
	if err := s.hit(ctx, "ListPosts"); err != nil {
		return nil, err
	}
	return s.Storage.ListPosts(ctx, opts)
}

func (s *countingStore) PostByID(ctx context.Context, id string) (*model.Post, error) {
	if err := s.hit(ctx, "PostByID"); err != nil {
		return nil, err
	}
	return s.Storage.PostByID(ctx, id)
}

func (s *countingStore) CreatePost(ctx context.Context, post model.Post) (*model.Post, error) {
	if err := s.hit(ctx, "CreatePost"); err != nil {
		return nil, err
	}
	return s.Storage.CreatePost(ctx, post)
}

func (s *countingStore) UpdatePost(ctx context.Context, id string, fields model.PostFields) (*model.Post, error) {
	if err := s.hit(ctx, "UpdatePost"); err != nil {
		return nil, err
	}
	return s.Storage.UpdatePost(ctx, id, fields)
}

func (s *countingStore) DeletePost(ctx context.Context, id string) error {
	if err := s.hit(ctx, "DeletePost"); err != nil {
		return err
	}
	return s.Storage.DeletePost(ctx, id)
}

func (s *countingStore) SaveMessage(ctx context.Context, msg model.Message) (*model.Message, error) {
	if err := s.hit(ctx, "SaveMessage"); err != nil {
		return nil, err
	}
	return s.Storage.SaveMessage(ctx, msg)
}

type recordingPublisher struct {
	mu     sync.Mutex
	queues []string
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, queue string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queues = append(p.queues, queue)
	return nil
}

func testOptions() Options {
	return Options{
		PageSize: 6,
		Admins:   permission.NewAllowList("admin@example.com"),
		Timeouts: config.TimeoutConfig{
			Fetch:    time.Second,
			Lookup:   time.Second,
			Mutation: time.Second,
			Message:  time.Second,
		},
	}
}

func newTestService(store storage.Storage, opts Options) *Service {
	return New(zap.NewNop(), repository.New(store, nil), opts)
}

var (
	author   = &model.Identity{UID: "author-1", Email: "ann@example.com"}
	stranger = &model.Identity{UID: "stranger", Email: "bob@example.com"}
	admin    = &model.Identity{UID: "admin-1", Email: "Admin@Example.com"}
)

func validInput() dto.PostInput {
	return dto.PostInput{
		Title:   "Hello",
		Excerpt: "First post",
		Content: "Some content",
		Tags:    []string{" go ", "", "go", "this-tag-is-way-too-long-to-keep", "blog"},
	}
}

func TestCreate_ValidationMakesNoRemoteCall(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	svc := newTestService(store, testOptions())

	input := validInput()
	input.Title = "   "
	_, err := svc.Create(context.Background(), input, author)
	require.Equal(t, KindValidation, KindOf(err))
	require.Equal(t, "title is required", UserMessage(err))

	input = validInput()
	input.Category = "sports"
	_, err = svc.Create(context.Background(), input, author)
	require.Equal(t, KindValidation, KindOf(err))

	require.Zero(t, store.total())
}

func TestCreate_RequiresSignIn(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	svc := newTestService(store, testOptions())

	_, err := svc.Create(context.Background(), validInput(), nil)
	require.Equal(t, KindPermissionDenied, KindOf(err))
	require.ErrorIs(t, err, ErrNotSignedIn)
	require.Zero(t, store.total())
}

func TestCreate_RoundTrip(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	pub := &recordingPublisher{}
	opts := testOptions()
	opts.Publisher = pub
	svc := newTestService(store, opts)

	refreshed := 0
	svc.OnChange(func(context.Context) { refreshed++ })

	created, err := svc.Create(context.Background(), validInput(), author)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "author-1", created.AuthorID)
	require.Equal(t, "ann", created.AuthorDisplayName)
	require.Equal(t, model.CategoryLife, created.Category)
	require.Equal(t, []string{"go", "blog"}, created.Tags)
	require.Equal(t, 1, created.ReadTime)
	require.Equal(t, 1, refreshed)
	require.Equal(t, []string{rabbitmq.POST_CREATED_QUEUE}, pub.queues)

	page, err := svc.List(context.Background(), model.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, created.ID, page.Items[0].ID)

	got, err := svc.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Hello", got.Title)
}

func TestCreate_ExplicitReadTimeWins(t *testing.T) {
	t.Parallel()

	svc := newTestService(newCountingStore(), testOptions())

	input := validInput()
	input.ReadTime = 12
	created, err := svc.Create(context.Background(), input, author)
	require.NoError(t, err)
	require.Equal(t, 12, created.ReadTime)
}

func TestEstimateReadTime(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1, EstimateReadTime(""))
	require.Equal(t, 1, EstimateReadTime(string(make([]rune, 200))))
	require.Equal(t, 2, EstimateReadTime(string(make([]rune, 201))))
}

func TestUpdate_CachedNoneRejectsWithoutRemoteCall(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	svc := newTestService(store, testOptions())

	_, err := svc.Update(context.Background(), "any", validInput(), stranger, permission.None)
	require.Equal(t, KindPermissionDenied, KindOf(err))

	err = svc.Delete(context.Background(), "any", stranger, permission.None)
	require.Equal(t, KindPermissionDenied, KindOf(err))

	require.Zero(t, store.total())
}

func TestUpdate_FreshCheckDeniesStranger(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	svc := newTestService(store, testOptions())

	created, err := svc.Create(context.Background(), validInput(), author)
	require.NoError(t, err)

	// a stale level claiming authorship does not bypass the fresh check
	input := validInput()
	input.Title = "Hijacked"
	_, err = svc.Update(context.Background(), created.ID, input, stranger, permission.Author)
	require.Equal(t, KindPermissionDenied, KindOf(err))
	require.Zero(t, store.count("UpdatePost"))

	err = svc.Delete(context.Background(), created.ID, stranger, permission.Unknown)
	require.Equal(t, KindPermissionDenied, KindOf(err))
	require.Zero(t, store.count("DeletePost"))

	got, err := svc.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Hello", got.Title)
}

func TestUpdate_AuthorAndAdmin(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	svc := newTestService(store, testOptions())

	created, err := svc.Create(context.Background(), validInput(), author)
	require.NoError(t, err)

	input := validInput()
	input.Title = "Edited"
	input.Category = model.CategoryTech
	updated, err := svc.Update(context.Background(), created.ID, input, author, permission.Author)
	require.NoError(t, err)
	require.Equal(t, "Edited", updated.Title)
	require.Equal(t, model.CategoryTech, updated.Category)

	input.Title = "Moderated"
	updated, err = svc.Update(context.Background(), created.ID, input, admin, permission.Unknown)
	require.NoError(t, err)
	require.Equal(t, "Moderated", updated.Title)
	require.Equal(t, "author-1", updated.AuthorID, "author snapshot survives an admin edit")
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestDelete_NotFoundRefreshesFeed(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	svc := newTestService(store, testOptions())

	refreshed := 0
	svc.OnChange(func(context.Context) { refreshed++ })

	err := svc.Delete(context.Background(), "missing", author, permission.Author)
	require.Equal(t, KindNotFound, KindOf(err))
	require.Equal(t, KindMessage(KindNotFound), UserMessage(err))
	require.Equal(t, 1, refreshed)
	require.Zero(t, store.count("DeletePost"))
}

func TestDelete_RemovesAndPublishes(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	pub := &recordingPublisher{}
	opts := testOptions()
	opts.Publisher = pub
	svc := newTestService(store, opts)

	created, err := svc.Create(context.Background(), validInput(), author)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID, author, permission.Author))
	require.Equal(t, []string{rabbitmq.POST_CREATED_QUEUE, rabbitmq.POST_DELETED_QUEUE}, pub.queues)

	_, err = svc.FindByID(context.Background(), created.ID)
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestMutation_Timeout(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	store.hang["CreatePost"] = true
	opts := testOptions()
	opts.Timeouts.Mutation = 20 * time.Millisecond
	svc := newTestService(store, opts)

	start := time.Now()
	_, err := svc.Create(context.Background(), validInput(), author)
	require.Equal(t, KindTimeout, KindOf(err))
	require.Less(t, time.Since(start), time.Second)
}

func TestMutation_IdentityFailureDisablesWrites(t *testing.T) {
	t.Parallel()

	session := identity.NewSession()
	session.Fail(errors.New("config missing"))

	store := newCountingStore()
	opts := testOptions()
	opts.Identities = session
	svc := newTestService(store, opts)

	_, err := svc.Create(context.Background(), validInput(), author)
	require.Equal(t, KindUnavailable, KindOf(err))
	require.Zero(t, store.total())
}

func TestMutation_StoreErrorsAreClassified(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		err  error
		kind Kind
	}{
		"denied":      {fmt.Errorf("write: %w", storage.ErrPermissionDenied), KindPermissionDenied},
		"unavailable": {fmt.Errorf("write: %w", storage.ErrUnavailable), KindUnavailable},
		"other":       {errors.New("boom"), KindUnknown},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := newCountingStore()
			store.fail["CreatePost"] = tc.err
			svc := newTestService(store, testOptions())

			_, err := svc.Create(context.Background(), validInput(), author)
			require.Equal(t, tc.kind, KindOf(err))
			require.Equal(t, KindMessage(tc.kind), UserMessage(err))
		})
	}
}

func seedPosts(t *testing.T, svc *Service, category string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		input := validInput()
		input.Title = fmt.Sprintf("%s %d", category, i)
		input.Category = category
		_, err := svc.Create(context.Background(), input, author)
		require.NoError(t, err)
	}
}

func TestList_FullPageWithoutMore(t *testing.T) {
	t.Parallel()

	svc := newTestService(newCountingStore(), testOptions())
	seedPosts(t, svc, model.CategoryTech, 6)

	page, err := svc.List(context.Background(), model.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 6)
	require.False(t, page.HasMore)

	// the cursor still points at the last card, so continuing yields nothing
	rest, err := svc.List(context.Background(), model.ListOptions{Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Empty(t, rest.Items)
	require.False(t, rest.HasMore)
}

func TestList_SecondPage(t *testing.T) {
	t.Parallel()

	svc := newTestService(newCountingStore(), testOptions())
	seedPosts(t, svc, model.CategoryTech, 7)

	first, err := svc.List(context.Background(), model.ListOptions{})
	require.NoError(t, err)
	require.Len(t, first.Items, 6)
	require.True(t, first.HasMore)
	require.Equal(t, "tech 6", first.Items[0].Title)

	second, err := svc.List(context.Background(), model.ListOptions{Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.False(t, second.HasMore)
	require.Equal(t, "tech 0", second.Items[0].Title)
}

func TestList_CategoryFilter(t *testing.T) {
	t.Parallel()

	svc := newTestService(newCountingStore(), testOptions())
	seedPosts(t, svc, model.CategoryTech, 2)
	seedPosts(t, svc, model.CategoryThoughts, 3)

	page, err := svc.List(context.Background(), model.ListOptions{Category: "Thoughts"})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	for _, p := range page.Items {
		require.Equal(t, model.CategoryThoughts, p.Category)
	}

	page, err = svc.List(context.Background(), model.ListOptions{Category: model.CategoryAll})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)

	_, err = svc.List(context.Background(), model.ListOptions{Category: "sports"})
	require.Equal(t, KindValidation, KindOf(err))

	_, err = svc.List(context.Background(), model.ListOptions{Cursor: "%%%"})
	require.Equal(t, KindValidation, KindOf(err))
}

func TestPermission(t *testing.T) {
	t.Parallel()

	svc := newTestService(newCountingStore(), testOptions())
	created, err := svc.Create(context.Background(), validInput(), author)
	require.NoError(t, err)

	for ident, want := range map[*model.Identity]permission.Level{
		author:   permission.Author,
		stranger: permission.None,
		admin:    permission.Admin,
	} {
		got, err := svc.Permission(context.Background(), created.ID, ident)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	level, err := svc.Permission(context.Background(), created.ID, nil)
	require.NoError(t, err)
	require.Equal(t, permission.None, level)
}

func TestMessage_Send(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	svc := newTestService(store, testOptions())

	_, err := svc.Send(context.Background(), dto.MessageInput{Name: "Ann", Email: "not-an-email", Message: "hi"})
	require.Equal(t, KindValidation, KindOf(err))
	require.Equal(t, "email must be a valid email address", UserMessage(err))
	require.Zero(t, store.total())

	msg, err := svc.Send(context.Background(), dto.MessageInput{Name: " Ann ", Email: "ann@example.com", Message: "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.Equal(t, "Ann", msg.Name)
	require.Len(t, store.Messages(), 1)
}

func TestGuard_ReturnsAtDeadlineEvenIfCallIgnoresContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	_, err := guard(context.Background(), 10*time.Millisecond, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, KindTimeout, KindOf(err))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	require.Nil(t, Classify("op", nil))
	require.Equal(t, Kind(""), KindOf(nil))
	require.Equal(t, KindNotFound, KindOf(fmt.Errorf("x: %w", storage.ErrNotFound)))
	require.Equal(t, KindValidation, KindOf(storage.ErrInvalidCursor))
	require.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))

	wrapped := fmt.Errorf("outer: %w", newError("inner", KindUnavailable, nil))
	require.Equal(t, KindUnavailable, KindOf(wrapped))
	require.Equal(t, KindMessage(KindUnknown), KindMessage(Kind("bogus")))
}

func TestOnChange_Cancel(t *testing.T) {
	svc := newTestService(newCountingStore(), testOptions())

	var calls []string
	cancel := svc.OnChange(func(context.Context) { calls = append(calls, "first") })
	svc.OnChange(func(context.Context) { calls = append(calls, "second") })

	_, err := svc.Create(context.Background(), validInput(), author)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, calls)

	cancel()
	cancel()
	_, err = svc.Create(context.Background(), validInput(), author)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "second"}, calls)
}
