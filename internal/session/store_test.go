package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/k2nservice/console/internal/domain/models"
)

type fakeAuth struct {
	resp  *models.LoginResponse
	err   error
	calls int
}

func (f *fakeAuth) Login(context.Context, string, string) (*models.LoginResponse, error) {
	f.calls++
	return f.resp, f.err
}

// failingKV refuses writes.
type failingKV struct{ *MemoryKV }

func (failingKV) Set(context.Context, string, string) error { return errors.New("disk full") }

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		ExpiresAt: jwtlib.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestNewStoreIsLoading(t *testing.T) {
	s := NewStore(NewMemoryKV(), &fakeAuth{}, nil, nil)
	state := s.State()
	if !state.Loading || state.Authenticated() {
		t.Fatalf("state = %+v", state)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	user := `{"id":"1","email":"a@b.com","name":"A"}`

	tests := []struct {
		name     string
		entries  map[string]string
		wantUser bool
	}{
		{"nothing persisted", nil, false},
		{"token only", map[string]string{KeyToken: "t1"}, false},
		{"user only", map[string]string{KeyUser: user}, false},
		{"both", map[string]string{KeyToken: "t1", KeyUser: user}, true},
		{"unreadable user", map[string]string{KeyToken: "t1", KeyUser: "{"}, false},
		{"expired jwt", map[string]string{KeyToken: signedToken(t, time.Now().Add(-time.Hour)), KeyUser: user}, false},
		{"valid jwt", map[string]string{KeyToken: signedToken(t, time.Now().Add(time.Hour)), KeyUser: user}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			for k, v := range tt.entries {
				_ = kv.Set(ctx, k, v)
			}
			auth := &fakeAuth{}
			s := NewStore(kv, auth, nil, nil)

			if err := s.Restore(ctx); err != nil {
				t.Fatalf("Restore: %v", err)
			}
			state := s.State()
			if state.Loading {
				t.Fatal("loading flag still set")
			}
			if state.Authenticated() != tt.wantUser {
				t.Fatalf("authenticated = %v, want %v", state.Authenticated(), tt.wantUser)
			}
			if auth.calls != 0 {
				t.Fatal("restore called the network")
			}
		})
	}
}

func TestRestoreDropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	_ = kv.Set(ctx, KeyToken, signedToken(t, time.Now().Add(-time.Minute)))
	_ = kv.Set(ctx, KeyUser, `{"id":"1"}`)

	if err := NewStore(kv, &fakeAuth{}, nil, nil).Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := kv.Get(ctx, KeyToken); ok {
		t.Fatal("expired token still persisted")
	}
}

func TestLoginPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	bus := EventBus.New()
	auth := &fakeAuth{resp: &models.LoginResponse{Token: "t1", User: models.User{ID: "1", Email: "a@b.com", Name: "A"}}}
	s := NewStore(kv, auth, bus, nil)
	_ = s.Restore(ctx)

	var published models.User
	if err := bus.Subscribe(TopicLogin, func(u models.User) { published = u }); err != nil {
		t.Fatal(err)
	}

	if err := s.Login(ctx, "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	state := s.State()
	if !state.Authenticated() || state.User.ID != "1" || s.Token() != "t1" {
		t.Fatalf("state = %+v", state)
	}
	if token, ok, _ := kv.Get(ctx, KeyToken); !ok || token != "t1" {
		t.Fatalf("persisted token = %q, %v", token, ok)
	}
	raw, ok, _ := kv.Get(ctx, KeyUser)
	if !ok {
		t.Fatal("identity not persisted")
	}
	if u, err := models.DecodeUser(raw); err != nil || u.Email != "a@b.com" {
		t.Fatalf("persisted identity = %+v, %v", u, err)
	}
	if published.ID != "1" {
		t.Fatalf("published = %+v", published)
	}
}

func TestLoginFailureLeavesSessionLoggedOut(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryKV(), &fakeAuth{err: errors.New("Identifiants invalides")}, nil, nil)
	_ = s.Restore(ctx)

	if err := s.Login(ctx, "a@b.com", "bad"); err == nil {
		t.Fatal("expected error")
	}
	state := s.State()
	if state.Loading || state.Authenticated() {
		t.Fatalf("state = %+v", state)
	}
}

func TestLoginPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{resp: &models.LoginResponse{Token: "t1", User: models.User{ID: "1"}}}
	s := NewStore(failingKV{NewMemoryKV()}, auth, nil, nil)
	_ = s.Restore(ctx)

	if err := s.Login(ctx, "a@b.com", "x"); err == nil {
		t.Fatal("expected persistence error")
	}
	if s.State().Authenticated() {
		t.Fatal("session adopted without persistence")
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	bus := EventBus.New()
	auth := &fakeAuth{resp: &models.LoginResponse{Token: "t1", User: models.User{ID: "1"}}}
	s := NewStore(kv, auth, bus, nil)
	_ = s.Restore(ctx)
	_ = s.Login(ctx, "a@b.com", "x")

	loggedOut := false
	_ = bus.Subscribe(TopicLogout, func() { loggedOut = true })

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if s.State().Authenticated() || s.Token() != "" {
		t.Fatal("in-memory session survived logout")
	}
	for _, key := range []string{KeyToken, KeyUser} {
		if _, ok, _ := kv.Get(ctx, key); ok {
			t.Fatalf("%s still persisted", key)
		}
	}
	if !loggedOut {
		t.Fatal("logout not published")
	}
	if auth.calls != 1 {
		t.Fatalf("auth calls = %d, logout must not call the backend", auth.calls)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	auth := &fakeAuth{resp: &models.LoginResponse{Token: signedToken(t, exp), User: models.User{ID: "1"}}}
	s := NewStore(NewMemoryKV(), auth, nil, nil)
	_ = s.Login(ctx, "a@b.com", "x")

	state := s.State()
	if state.ExpiresAt == nil || !state.ExpiresAt.Equal(exp) {
		t.Fatalf("expires = %v, want %v", state.ExpiresAt, exp)
	}
	if s.Expired() {
		t.Fatal("fresh token reported expired")
	}
	s.now = func() time.Time { return exp.Add(time.Second) }
	if !s.Expired() {
		t.Fatal("token past exp not reported expired")
	}
}
