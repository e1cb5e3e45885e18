package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/domain/models"
)

// Lifecycle topics published on the event bus.
const (
	TopicLogin  = "session:login"
	TopicLogout = "session:logout"
)

// ErrNotAuthenticated is returned by operations that need an operator.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Authenticator exchanges credentials for a token and identity.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
}

// State is a point-in-time copy of the session.
type State struct {
	User      *models.User `json:"user"`
	Token     string       `json:"-"`
	Loading   bool         `json:"loading"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

// Authenticated reports whether an operator is signed in. The answer is only
// meaningful when Loading is false.
func (s State) Authenticated() bool {
	return !s.Loading && s.User != nil
}

// Store holds the single operator identity for the life of the process.
// It is mutated only through Restore, Login and Logout.
type Store struct {
	mu      sync.RWMutex
	user    *models.User
	token   string
	expires *time.Time
	loading bool

	kv     KV
	auth   Authenticator
	bus    EventBus.Bus
	logger *zap.Logger
	now    func() time.Time
}

// NewStore builds a store in the loading state; call Restore once at startup.
func NewStore(kv KV, auth Authenticator, bus EventBus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = EventBus.New()
	}
	return &Store{
		loading: true,
		kv:      kv,
		auth:    auth,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}
}

// Bus returns the event bus lifecycle events are published on.
func (s *Store) Bus() EventBus.Bus {
	return s.bus
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := State{Token: s.token, Loading: s.loading, ExpiresAt: s.expires}
	if s.user != nil {
		u := *s.user
		state.User = &u
	}
	return state
}

// Token returns the current bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Restore adopts a previously persisted token and identity when both are
// present. It never calls the network and always clears the loading flag.
func (s *Store) Restore(ctx context.Context) error {
	defer s.setLoading(false)

	token, hasToken, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("restore session token: %w", err)
	}
	rawUser, hasUser, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("restore session user: %w", err)
	}
	if !hasToken || !hasUser || token == "" || rawUser == "" {
		return nil
	}

	user, err := models.DecodeUser(rawUser)
	if err != nil {
		s.logger.Warn("discarding unreadable persisted identity", zap.Error(err))
		return nil
	}

	expires := tokenExpiry(token)
	if expires != nil && !expires.After(s.now()) {
		s.logger.Info("persisted token expired, staying signed out", zap.Time("expired_at", *expires))
		s.clearPersisted(ctx)
		return nil
	}

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.expires = expires
	s.mu.Unlock()

	s.logger.Info("session restored", zap.String("user_id", user.ID.String()))
	return nil
}

// Login authenticates the operator, persists the token and identity, then
// adopts them. On failure the session stays as it was.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.logger.Info("login failed", zap.String("email", email), zap.Error(err))
		return err
	}

	rawUser, err := models.EncodeUser(resp.User)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyToken, resp.Token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	if err := s.kv.Set(ctx, KeyUser, rawUser); err != nil {
		s.clearPersisted(ctx)
		return fmt.Errorf("persist session user: %w", err)
	}

	user := resp.User
	s.mu.Lock()
	s.user = &user
	s.token = resp.Token
	s.expires = tokenExpiry(resp.Token)
	s.mu.Unlock()

	s.logger.Info("login succeeded", zap.String("user_id", user.ID.String()))
	s.bus.Publish(TopicLogin, user)
	return nil
}

// Logout forgets the operator immediately, in memory and in storage.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	hadUser := s.user != nil
	s.user = nil
	s.token = ""
	s.expires = nil
	s.mu.Unlock()

	err := s.clearPersisted(ctx)
	if hadUser {
		s.logger.Info("logout")
	}
	s.bus.Publish(TopicLogout)
	return err
}

// Expired reports whether the adopted token carries an exp claim in the past.
func (s *Store) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expires != nil && !s.expires.After(s.now())
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

func (s *Store) clearPersisted(ctx context.Context) error {
	var errs []error
	if err := s.kv.Delete(ctx, KeyToken); err != nil {
		errs = append(errs, fmt.Errorf("delete session token: %w", err))
	}
	if err := s.kv.Delete(ctx, KeyUser); err != nil {
		errs = append(errs, fmt.Errorf("delete session user: %w", err))
	}
	if len(errs) > 0 {
		s.logger.Warn("failed clearing persisted session", zap.Error(errors.Join(errs...)))
	}
	return errors.Join(errs...)
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The console does not hold the signing key; the backend stays the judge of
// validity. Opaque tokens yield nil.
func tokenExpiry(token string) *time.Time {
	claims := jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	exp := claims.ExpiresAt.Time
	return &exp
}
