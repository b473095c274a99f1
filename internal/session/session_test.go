package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sudharshan41/apartmentrentalportal/internal/api"
	"github.com/sudharshan41/apartmentrentalportal/internal/model"
	"github.com/sudharshan41/apartmentrentalportal/internal/storage"
)

type fakeAuth struct {
	loginFn func(ctx context.Context, email, password string) (api.LoginResponse, error)
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (api.LoginResponse, error) {
	return f.loginFn(ctx, email, password)
}

func acceptAll(user model.User) *fakeAuth {
	return &fakeAuth{loginFn: func(ctx context.Context, email, password string) (api.LoginResponse, error) {
		return api.LoginResponse{AccessToken: "tok-" + email, User: user}, nil
	}}
}

type failingStorage struct {
	*storage.Memory
	setErr    error
	deleteErr error
}

func (f *failingStorage) Set(ctx context.Context, entries map[string]string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Memory.Set(ctx, entries)
}

func (f *failingStorage) Delete(ctx context.Context, keys ...string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Memory.Delete(ctx, keys...)
}

var admin = model.User{ID: 1, Email: "admin@rental.com", FullName: "Admin User", Role: model.RoleAdmin}

func TestLoginPersistsBothEntries(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	store, err := Open(ctx, mem, acceptAll(admin))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	got, err := store.Login(ctx, admin.Email, "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.Token != "tok-admin@rental.com" {
		t.Fatalf("unexpected token %q", got.Token)
	}
	if !store.IsAuthenticated() || store.Role() != model.RoleAdmin {
		t.Fatalf("expected authenticated admin")
	}

	token, err := mem.Get(ctx, TokenKey)
	if err != nil || token != got.Token {
		t.Fatalf("expected persisted token, got %q, %v", token, err)
	}
	blob, err := mem.Get(ctx, UserKey)
	if err != nil {
		t.Fatalf("expected persisted user: %v", err)
	}
	var user model.User
	if err := json.Unmarshal([]byte(blob), &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user != admin {
		t.Fatalf("expected %+v, got %+v", admin, user)
	}
}

func TestLoginFailureLeavesNoState(t *testing.T) {
	ctx := context.Background()
	backendErr := &api.Error{Op: "login", Status: 401, Message: "Invalid email or password"}
	mem := storage.NewMemory()
	store, err := Open(ctx, mem, &fakeAuth{loginFn: func(ctx context.Context, email, password string) (api.LoginResponse, error) {
		return api.LoginResponse{}, backendErr
	}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	calls := 0
	store.Subscribe(func(Session, bool) { calls++ })

	_, err = store.Login(ctx, "a@b.c", "nope")
	if err != backendErr {
		t.Fatalf("expected backend error unchanged, got %v", err)
	}
	if store.IsAuthenticated() || mem.Len() != 0 || calls != 0 {
		t.Fatalf("expected no state change, authenticated=%v entries=%d calls=%d", store.IsAuthenticated(), mem.Len(), calls)
	}
}

func TestLoginStorageFailureLeavesNoState(t *testing.T) {
	ctx := context.Background()
	st := &failingStorage{Memory: storage.NewMemory(), setErr: errors.New("disk full")}
	store, err := Open(ctx, st, acceptAll(admin))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	calls := 0
	store.Subscribe(func(Session, bool) { calls++ })

	if _, err := store.Login(ctx, admin.Email, "admin123"); err == nil {
		t.Fatalf("expected persist error")
	}
	if _, ok := store.Current(); ok {
		t.Fatalf("expected no in-memory session")
	}
	if st.Len() != 0 || calls != 0 {
		t.Fatalf("expected nothing persisted or notified, entries=%d calls=%d", st.Len(), calls)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	store, _ := Open(ctx, mem, acceptAll(admin))
	if _, err := store.Login(ctx, admin.Email, "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	var states []bool
	store.Subscribe(func(_ Session, ok bool) { states = append(states, ok) })

	for i := 0; i < 2; i++ {
		if err := store.Logout(ctx); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
	}
	if store.IsAuthenticated() || mem.Len() != 0 {
		t.Fatalf("expected signed out with empty storage")
	}
	if len(states) != 2 || states[0] || states[1] {
		t.Fatalf("expected two signed-out notifications, got %v", states)
	}
}

func TestLogoutStorageFailureStillClearsMemory(t *testing.T) {
	ctx := context.Background()
	st := &failingStorage{Memory: storage.NewMemory()}
	store, _ := Open(ctx, st, acceptAll(admin))
	if _, err := store.Login(ctx, admin.Email, "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	st.deleteErr = errors.New("read-only")

	if err := store.Logout(ctx); err == nil {
		t.Fatalf("expected storage error from logout")
	}
	if store.IsAuthenticated() {
		t.Fatalf("expected in-memory session cleared")
	}
}

func TestOpenRehydrates(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	first, _ := Open(ctx, mem, acceptAll(admin))
	if _, err := first.Login(ctx, admin.Email, "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := Open(ctx, mem, acceptAll(admin))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	current, ok := second.Current()
	if !ok {
		t.Fatalf("expected rehydrated session")
	}
	if current.User != admin || current.Token != first.Token() {
		t.Fatalf("unexpected rehydrated session %+v", current)
	}
}

func TestOpenClearsHalfSession(t *testing.T) {
	cases := []struct {
		name    string
		entries map[string]string
	}{
		{"token only", map[string]string{TokenKey: "tok"}},
		{"user only", map[string]string{UserKey: `{"id":1,"email":"a@b.c","role":"admin"}`}},
		{"bad user", map[string]string{TokenKey: "tok", UserKey: "{not json"}},
		{"user without role", map[string]string{TokenKey: "tok", UserKey: `{"id":1,"email":"a@b.c"}`}},
		{"empty token", map[string]string{TokenKey: "", UserKey: `{"id":1,"email":"a@b.c","role":"admin"}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			mem := storage.NewMemory()
			if err := mem.Set(ctx, tc.entries); err != nil {
				t.Fatalf("seed: %v", err)
			}
			store, err := Open(ctx, mem, acceptAll(admin))
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if store.IsAuthenticated() {
				t.Fatalf("expected no session")
			}
			if mem.Len() != 0 {
				t.Fatalf("expected both entries cleared, %d left", mem.Len())
			}
		})
	}
}

func TestSubscribersNotifiedInOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := Open(ctx, storage.NewMemory(), acceptAll(admin))

	var order []string
	store.Subscribe(func(Session, bool) { order = append(order, "a") })
	unsubscribe := store.Subscribe(func(Session, bool) { order = append(order, "b") })
	store.Subscribe(func(Session, bool) { order = append(order, "c") })

	if _, err := store.Login(ctx, admin.Email, "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	unsubscribe()
	unsubscribe()
	if err := store.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	want := []string{"a", "b", "c", "a", "c"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}

	store.Close()
	if _, err := store.Login(ctx, admin.Email, "admin123"); err != nil {
		t.Fatalf("login after close: %v", err)
	}
	if len(order) != len(want) {
		t.Fatalf("expected no notifications after close")
	}
}

func TestClaims(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := Session{Token: signed}.Claims()
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if claims.Subject != "1" || claims.Type != "access" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(expires) {
		t.Fatalf("expected expiry %v, got %v", expires, claims.ExpiresAt.Time)
	}

	if _, err := (Session{Token: "not-a-jwt"}).Claims(); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestStoreClaimsWithoutSession(t *testing.T) {
	store, err := Open(context.Background(), storage.NewMemory(), acceptAll(admin))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Claims(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
