// Package session owns the signed-in state shared by every view: the bearer
// token and the user profile it belongs to. The state is persisted through a
// storage.Storage so it survives restarts, and it changes only through Login
// and Logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sudharshan41/apartmentrentalportal/internal/api"
	"github.com/sudharshan41/apartmentrentalportal/internal/model"
	"github.com/sudharshan41/apartmentrentalportal/internal/storage"
)

// Storage keys. They match the names the web portals used in local storage.
const (
	TokenKey = "access_token"
	UserKey  = "user"
)

var ErrNoSession = errors.New("session: not signed in")

type Session struct {
	Token string     `json:"-"`
	User  model.User `json:"user"`
}

// TokenClaims are the registered claims of the backend's access token plus
// the flask-jwt "type" claim.
type TokenClaims struct {
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Claims decodes the token payload without checking the signature. It is for
// display only; the backend remains the sole judge of whether a token is
// valid or expired.
func (s Session) Claims() (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return nil, fmt.Errorf("decode token claims: %w", err)
	}
	return claims, nil
}

// Authenticator exchanges credentials for a token. *api.AuthClient satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
}

// Listener receives the new state after every change. ok is false when
// signed out.
type Listener func(current Session, ok bool)

type subscriber struct {
	id int
	fn Listener
}

type Store struct {
	storage storage.Storage
	auth    Authenticator

	mu          sync.Mutex
	current     *Session
	subscribers []subscriber
	nextID      int
}

// Open rehydrates the session from st. A token without a user (or a user
// entry that does not decode) is treated as no session and both entries are
// removed so the pair is always present or absent together.
func Open(ctx context.Context, st storage.Storage, auth Authenticator) (*Store, error) {
	s := &Store{storage: st, auth: auth}

	token, tokenErr := st.Get(ctx, TokenKey)
	if tokenErr != nil && !errors.Is(tokenErr, storage.ErrNotFound) {
		return nil, fmt.Errorf("load session token: %w", tokenErr)
	}
	blob, userErr := st.Get(ctx, UserKey)
	if userErr != nil && !errors.Is(userErr, storage.ErrNotFound) {
		return nil, fmt.Errorf("load session user: %w", userErr)
	}

	if tokenErr != nil && userErr != nil {
		return s, nil
	}

	var user model.User
	if tokenErr == nil && userErr == nil && token != "" && json.Unmarshal([]byte(blob), &user) == nil && user.Validate() == nil {
		s.current = &Session{Token: token, User: user}
		return s, nil
	}

	if err := st.Delete(ctx, TokenKey, UserKey); err != nil {
		return nil, fmt.Errorf("clear incomplete session: %w", err)
	}
	return s, nil
}

// Login authenticates and persists the token and user in one storage write.
// Backend errors are returned unchanged. If persisting fails nothing is kept
// in memory and subscribers are not notified.
func (s *Store) Login(ctx context.Context, email, password string) (Session, error) {
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}

	blob, err := json.Marshal(resp.User)
	if err != nil {
		return Session{}, fmt.Errorf("encode session user: %w", err)
	}
	if err := s.storage.Set(ctx, map[string]string{
		TokenKey: resp.AccessToken,
		UserKey:  string(blob),
	}); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}

	next := Session{Token: resp.AccessToken, User: resp.User}
	s.mu.Lock()
	s.current = &next
	subs := s.snapshot()
	s.mu.Unlock()

	notify(subs, next, true)
	return next, nil
}

// Logout removes both entries and clears the in-memory session. It is safe
// to call when already signed out; subscribers are notified either way. The
// in-memory session is cleared even when storage fails, and the storage error
// is returned.
func (s *Store) Logout(ctx context.Context) error {
	err := s.storage.Delete(ctx, TokenKey, UserKey)

	s.mu.Lock()
	s.current = nil
	subs := s.snapshot()
	s.mu.Unlock()

	notify(subs, Session{}, false)
	if err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}
	return nil
}

func (s *Store) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// IsAuthenticated checks token presence only.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Token satisfies transport.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Claims decodes the current token without verifying it.
func (s *Store) Claims() (*TokenClaims, error) {
	current, ok := s.Current()
	if !ok {
		return nil, ErrNoSession
	}
	return current.Claims()
}

// Role returns the signed-in user's role, or "" when signed out.
func (s *Store) Role() string {
	current, ok := s.Current()
	if !ok {
		return ""
	}
	return current.User.Role
}

// Subscribe registers fn for change notifications. Listeners run
// synchronously, in subscription order, on the goroutine that changed the
// session.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subscribers {
				if sub.id == id {
					s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Close drops every subscriber. The storage belongs to the caller.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = nil
}

func (s *Store) snapshot() []subscriber {
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	return subs
}

func notify(subs []subscriber, current Session, ok bool) {
	for _, sub := range subs {
		sub.fn(current, ok)
	}
}
