package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-storefront/internal/broadcast"
	"github.com/iliyamo/movie-storefront/internal/model"
	"github.com/iliyamo/movie-storefront/internal/storage"
)

type authFunc func(ctx context.Context, u, p string) (model.LoginResult, error)

func (f authFunc) Login(ctx context.Context, u, p string) (model.LoginResult, error) { return f(ctx, u, p) }

func accepting(status string) authFunc {
	return func(context.Context, string, string) (model.LoginResult, error) {
		return model.LoginResult{Status: status}, nil
	}
}

func newStore(t *testing.T) (*Store, *storage.Memory, *broadcast.Bus) {
	t.Helper()
	kv := storage.NewMemory(0)
	bus := broadcast.New()
	s := NewStore(kv, bus)
	s.now = func() time.Time { return time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC) }
	return s, kv, bus
}

func TestLogin_SuccessStoresIdentityAndSignals(t *testing.T) {
	ctx := context.Background()
	s, kv, bus := newStore(t)
	var signals []broadcast.Signal
	bus.Subscribe(broadcast.TopicAuth, "", broadcast.ObserverFunc(func(_ context.Context, sig broadcast.Signal) {
		signals = append(signals, sig)
	}))

	id, err := s.Login(ctx, "s1", accepting("success"), "anyone", "anything")
	require.NoError(t, err)
	assert.True(t, id.LoggedIn)
	assert.Equal(t, "anyone", id.Username())

	token, ok, _ := kv.Get(ctx, storage.Key("s1", TokenKey))
	require.True(t, ok)
	assert.Equal(t, "authenticated", token)
	user, _, _ := kv.Get(ctx, storage.Key("s1", UserKey))
	assert.JSONEq(t, `{"username":"anyone","loginTime":"2024-03-09T18:30:00.000Z"}`, user)

	require.Len(t, signals, 1)
	assert.Equal(t, "s1", signals[0].Session)

	loaded, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, id, loaded)
}

func TestLogin_KeepsReturnedToken(t *testing.T) {
	s, kv, _ := newStore(t)
	auth := authFunc(func(context.Context, string, string) (model.LoginResult, error) {
		return model.LoginResult{Status: "success", Token: "abc123"}, nil
	})
	_, err := s.Login(context.Background(), "s1", auth, "u", "p")
	require.NoError(t, err)
	token, _, _ := kv.Get(context.Background(), storage.Key("s1", TokenKey))
	assert.Equal(t, "abc123", token)
}

func TestLogin_Rejections(t *testing.T) {
	ctx := context.Background()
	s, kv, bus := newStore(t)
	var signals int
	bus.Subscribe(broadcast.TopicAuth, "", broadcast.ObserverFunc(func(context.Context, broadcast.Signal) { signals++ }))

	_, err := s.Login(ctx, "s1", accepting("success"), "  ", "pw")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = s.Login(ctx, "s1", accepting("success"), "u", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = s.Login(ctx, "s1", accepting("fail"), "u", "p")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	withMsg := authFunc(func(context.Context, string, string) (model.LoginResult, error) {
		return model.LoginResult{Status: "fail", Message: "incorrect password"}, nil
	})
	_, err = s.Login(ctx, "s1", withMsg, "u", "p")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "incorrect password")

	boom := errors.New("dial tcp: refused")
	_, err = s.Login(ctx, "s1", authFunc(func(context.Context, string, string) (model.LoginResult, error) {
		return model.LoginResult{}, boom
	}), "u", "p")
	assert.ErrorIs(t, err, boom)

	assert.Zero(t, signals)
	_, ok, _ := kv.Get(ctx, storage.Key("s1", TokenKey))
	assert.False(t, ok)
}

func TestLogout_ClearsAndSignals(t *testing.T) {
	ctx := context.Background()
	s, _, bus := newStore(t)
	_, err := s.Login(ctx, "s1", accepting("success"), "u", "p")
	require.NoError(t, err)

	var signals int
	bus.Subscribe(broadcast.TopicAuth, "s1", broadcast.ObserverFunc(func(context.Context, broadcast.Signal) { signals++ }))
	require.NoError(t, s.Logout(ctx, "s1"))
	assert.Equal(t, 1, signals)

	id, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, id.LoggedIn)
	assert.Nil(t, id.User)
}

func TestLoad_UnreadableUserIsAbsent(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newStore(t)
	require.NoError(t, kv.Set(ctx, storage.Key("s1", TokenKey), "authenticated"))
	require.NoError(t, kv.Set(ctx, storage.Key("s1", UserKey), "{oops"))

	id, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, id.LoggedIn)
	assert.Nil(t, id.User)
	assert.Empty(t, id.Username())
}

func TestRedirect(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)

	path, err := s.TakeRedirect(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, DefaultRedirect, path)

	require.NoError(t, s.SetRedirect(ctx, "s1", "/shopping-cart"))
	require.NoError(t, s.SetRedirect(ctx, "s1", "/login"))
	require.NoError(t, s.SetRedirect(ctx, "s1", "https://evil.example"))

	path, err = s.TakeRedirect(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "/shopping-cart", path)

	path, err = s.TakeRedirect(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, DefaultRedirect, path, "redirect is consumed")
}

func TestWatcher_ResyncsOnLocalAndRelayedSignals(t *testing.T) {
	ctx := context.Background()
	s, _, bus := newStore(t)

	tabA := NewWatcher(s, "s1")
	tabB := NewWatcher(s, "s1")
	var changes int
	tabB.OnChange(func(Identity) { changes++ })
	tabA.Attach(ctx, bus)
	tabB.Attach(ctx, bus)
	defer tabA.Detach()
	defer tabB.Detach()
	assert.False(t, tabB.Identity().LoggedIn)

	_, err := s.Login(ctx, "s1", accepting("success"), "ripley", "p")
	require.NoError(t, err)
	assert.True(t, tabA.Identity().LoggedIn)
	assert.Equal(t, "ripley", tabB.Identity().Username())

	// another instance logged the session out; its signal arrives via Deliver
	require.NoError(t, s.kv.Delete(ctx, storage.Key("s1", TokenKey), storage.Key("s1", UserKey)))
	bus.Deliver(ctx, broadcast.Signal{Topic: broadcast.TopicAuth, Session: "s1", Origin: "other"})
	assert.False(t, tabB.Identity().LoggedIn)
	assert.Equal(t, 3, changes)

	other := NewWatcher(s, "s2")
	other.Attach(ctx, bus)
	defer other.Detach()
	assert.False(t, other.Identity().LoggedIn)
}
