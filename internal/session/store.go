// Package session holds the signed-in identity of each browser session and
// propagates login and logout to every open view.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/movie-storefront/internal/broadcast"
	"github.com/iliyamo/movie-storefront/internal/logger"
	"github.com/iliyamo/movie-storefront/internal/model"
	"github.com/iliyamo/movie-storefront/internal/storage"
)

// Durable storage keys.
const (
	TokenKey    = "auth_token"
	UserKey     = "currentUser"
	RedirectKey = "redirectPath"
)

// DefaultRedirect is where a login lands when no page was recorded.
const DefaultRedirect = "/movies"

// authenticatedFlag is stored when the API reports success without a token.
const authenticatedFlag = "authenticated"

// isoMillis is the layout of UserData.LoginTime.
const isoMillis = "2006-01-02T15:04:05.000Z"

var (
	ErrMissingCredentials = errors.New("please enter both username and password")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Authenticator verifies credentials.  *gateway.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (model.LoginResult, error)
}

// Identity is what views know about the visitor.
type Identity struct {
	LoggedIn bool
	User     *model.UserData
}

// Username is the display name, or "" when signed out.
func (i Identity) Username() string {
	if i.User == nil {
		return ""
	}
	return i.User.Username
}

// Store reads and writes identity in durable storage.
type Store struct {
	kv  storage.KV
	bus *broadcast.Bus
	now func() time.Time
}

func NewStore(kv storage.KV, bus *broadcast.Bus) *Store {
	return &Store{kv: kv, bus: bus, now: time.Now}
}

// Load returns the session's identity.  An unreadable user record is
// treated as absent.
func (s *Store) Load(ctx context.Context, session string) (Identity, error) {
	token, _, err := s.kv.Get(ctx, storage.Key(session, TokenKey))
	if err != nil {
		return Identity{}, fmt.Errorf("load auth token: %w", err)
	}
	raw, ok, err := s.kv.Get(ctx, storage.Key(session, UserKey))
	if err != nil {
		return Identity{}, fmt.Errorf("load current user: %w", err)
	}

	id := Identity{LoggedIn: token != ""}
	if ok && raw != "" {
		var u model.UserData
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			logger.From(ctx).Warn("could not parse current user", "session", session, "err", err)
		} else {
			id.User = &u
		}
	}
	return id, nil
}

// Login checks the credentials with the API.  On a "success" status the
// session is marked authenticated, the user record is stored and an auth
// signal is published.
func (s *Store) Login(ctx context.Context, session string, auth Authenticator, username, password string) (Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Identity{}, ErrMissingCredentials
	}

	res, err := auth.Login(ctx, username, password)
	if err != nil {
		return Identity{}, err
	}
	if !res.Succeeded() {
		if res.Message != "" {
			return Identity{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, res.Message)
		}
		return Identity{}, ErrInvalidCredentials
	}

	token := res.Token
	if token == "" {
		token = authenticatedFlag
	}
	user := model.UserData{Username: username, LoginTime: s.now().UTC().Format(isoMillis)}
	raw, err := json.Marshal(user)
	if err != nil {
		return Identity{}, err
	}
	if err := s.kv.Set(ctx, storage.Key(session, UserKey), string(raw)); err != nil {
		return Identity{}, fmt.Errorf("store current user: %w", err)
	}
	if err := s.kv.Set(ctx, storage.Key(session, TokenKey), token); err != nil {
		return Identity{}, fmt.Errorf("store auth token: %w", err)
	}

	logger.From(ctx).Info("user logged in", "session", session, "username", username)
	s.publish(ctx, session)
	return Identity{LoggedIn: true, User: &user}, nil
}

// Logout clears the identity and publishes an auth signal.
func (s *Store) Logout(ctx context.Context, session string) error {
	if err := s.kv.Delete(ctx, storage.Key(session, TokenKey), storage.Key(session, UserKey)); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	s.publish(ctx, session)
	return nil
}

// SetRedirect records path as the page to return to after login.  The
// login page itself is never recorded.
func (s *Store) SetRedirect(ctx context.Context, session, path string) error {
	if path == "" || path == "/login" || !strings.HasPrefix(path, "/") {
		return nil
	}
	return s.kv.Set(ctx, storage.Key(session, RedirectKey), path)
}

// TakeRedirect returns and clears the recorded page, defaulting to
// DefaultRedirect.
func (s *Store) TakeRedirect(ctx context.Context, session string) (string, error) {
	key := storage.Key(session, RedirectKey)
	path, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return DefaultRedirect, err
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		return DefaultRedirect, err
	}
	if !ok || path == "" {
		return DefaultRedirect, nil
	}
	return path, nil
}

func (s *Store) publish(ctx context.Context, session string) {
	if s.bus != nil {
		s.bus.Publish(ctx, broadcast.Signal{Topic: broadcast.TopicAuth, Session: session})
	}
}
