// Package identity holds the current signed-in user and notifies subscribers
// when it changes.
package identity

import (
	"errors"
	"sync"

	"github.com/BloggingApp/feed-service/internal/model"
)

var ErrProviderFailed = errors.New("identity provider failed to initialize")

// Provider is the read side of the identity cell.
type Provider interface {
	// Current returns a snapshot of the signed-in user, nil when signed out.
	Current() *model.Identity
	// Subscribe registers fn for every subsequent change and returns a cancel func.
	Subscribe(fn func(*model.Identity)) (cancel func())
	// Err is non-nil once initialization failed. Mutations stay disabled after that.
	Err() error
}

type subscriber struct {
	id int
	fn func(*model.Identity)
}

// Session is the single writer of the current identity. Subscribers must not
// change the session from inside their callback.
type Session struct {
	// notify serializes a change with its fan-out, so subscribers see changes
	// in the order they were stored.
	notify sync.Mutex

	mu      sync.RWMutex
	current *model.Identity
	err     error
	nextID  int
	subs    []subscriber
}

var _ Provider = (*Session)(nil)

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Current() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.err
}

func (s *Session) Subscribe(fn func(*model.Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) SignIn(identity model.Identity) {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.fanOut(&identity)
}

func (s *Session) SignOut() {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.fanOut(nil)
}

// Fail records an initialization failure and signs the session out.
func (s *Session) Fail(err error) {
	if err == nil {
		err = ErrProviderFailed
	}

	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	s.fanOut(nil)
}

// fanOut stores the identity and calls subscribers in subscription order,
// outside mu so they may read Current. Callers hold notify.
func (s *Session) fanOut(identity *model.Identity) {
	s.mu.Lock()
	s.current = identity
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		var snapshot *model.Identity
		if identity != nil {
			cp := *identity
			snapshot = &cp
		}
		sub.fn(snapshot)
	}
}
