package identity

import (
	"errors"
	"sync"
	"testing"

	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestSession_NotifiesInOrder(t *testing.T) {
	t.Parallel()

	s := NewSession()
	var got []string
	s.Subscribe(func(id *model.Identity) {
		if id == nil {
			got = append(got, "a:nil")
			return
		}
		got = append(got, "a:"+id.UID)
	})
	cancel := s.Subscribe(func(id *model.Identity) {
		got = append(got, "b")
		require.Equal(t, id, s.Current(), "subscribers observe the published value")
	})

	s.SignIn(model.Identity{UID: "u1"})
	cancel()
	s.SignOut()

	require.Equal(t, []string{"a:u1", "b", "a:nil"}, got)
	require.Nil(t, s.Current())
}

func TestSession_CurrentIsSnapshot(t *testing.T) {
	t.Parallel()

	s := NewSession()
	s.SignIn(model.Identity{UID: "u1", Email: "a@example.com"})

	cur := s.Current()
	cur.UID = "changed"
	require.Equal(t, "u1", s.Current().UID)
}

func TestSession_Fail(t *testing.T) {
	t.Parallel()

	s := NewSession()
	s.SignIn(model.Identity{UID: "u1"})
	require.NoError(t, s.Err())

	s.Fail(errors.New("boom"))
	require.Error(t, s.Err())
	require.Nil(t, s.Current())

	s2 := NewSession()
	s2.Fail(nil)
	require.ErrorIs(t, s2.Err(), ErrProviderFailed)
}

func TestVerifier(t *testing.T) {
	t.Parallel()

	token, err := utils.SignJWT(jwt.MapClaims{"sub": "uid-1", "email": "a@example.com", "name": "Ann"}, []byte("s3cret"))
	require.NoError(t, err)

	id, err := NewVerifier("s3cret").Verify(token)
	require.NoError(t, err)
	require.Equal(t, &model.Identity{UID: "uid-1", Email: "a@example.com", DisplayName: "Ann"}, id)

	_, err = NewVerifier("wrong").Verify(token)
	require.Error(t, err)

	noSub, err := utils.SignJWT(jwt.MapClaims{"email": "a@example.com"}, []byte("s3cret"))
	require.NoError(t, err)
	_, err = NewVerifier("s3cret").Verify(noSub)
	require.ErrorIs(t, err, ErrMissingSubject)
}

func TestFromClaims_PrefersUID(t *testing.T) {
	t.Parallel()

	id, err := FromClaims(jwt.MapClaims{"uid": "firebase-uid", "sub": "other"})
	require.NoError(t, err)
	require.Equal(t, "firebase-uid", id.UID)
}

func TestSession_ConcurrentChangesNotifyInStoreOrder(t *testing.T) {
	t.Parallel()

	s := NewSession()
	var last string
	s.Subscribe(func(id *model.Identity) {
		if id == nil {
			last = ""
			return
		}
		last = id.UID
	})

	for i := 0; i < 200; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SignIn(model.Identity{UID: "a"})
		}()
		go func() {
			defer wg.Done()
			s.SignIn(model.Identity{UID: "b"})
		}()
		wg.Wait()

		require.Equal(t, s.Current().UID, last)
	}
}
