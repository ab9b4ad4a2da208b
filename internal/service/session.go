package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"chatgw/internal/cache"
	"chatgw/internal/model"
)

var (
	// ErrValidation is returned when a required input field is empty.
	ErrValidation = errors.New("required fields are missing")
)

// SessionService owns the current authenticated identity. Identity is
// synthesized locally (a real deployment would delegate to an identity
// provider) and persisted to the cache so a restart keeps the session.
type SessionService interface {
	// Login validates the fields, synthesizes a User deterministically from
	// the email, and replaces any existing session.
	Login(ctx context.Context, email, password string) (*model.User, error)

	// Register behaves like Login but takes the display name explicitly.
	Register(ctx context.Context, name, email, password string) (*model.User, error)

	// Logout clears the persisted session and the in-memory identity. Idempotent.
	Logout(ctx context.Context) error

	// Current returns the authenticated user, or nil.
	Current() *model.User

	// Authenticating reports whether a login/register call is in flight.
	// Transient flag for UI input gating, not a durable state.
	Authenticating() bool
}

type sessionService struct {
	cache cache.Cache

	mu             sync.RWMutex
	user           *model.User
	authenticating bool
}

// NewSessionService constructs the session store and hydrates the identity
// from the persisted cache. A corrupt persisted record is treated as absent:
// the record is purged and no error is surfaced.
func NewSessionService(ctx context.Context, c cache.Cache) SessionService {
	s := &sessionService{cache: c}

	data, err := c.Get(ctx, cache.KeySession)
	if err != nil {
		return s
	}
	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		_ = c.Delete(ctx, cache.KeySession)
		return s
	}
	s.user = &u
	return s
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password", ErrValidation)
	}
	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	return s.establish(ctx, name, email)
}

func (s *sessionService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password", ErrValidation)
	}
	return s.establish(ctx, name, email)
}

// establish synthesizes the identity and persists it, replacing any
// existing session. The id is a UUIDv5 of the email so the same address
// always maps to the same user.
func (s *sessionService) establish(ctx context.Context, name, email string) (*model.User, error) {
	s.setAuthenticating(true)
	defer s.setAuthenticating(false)

	u := &model.User{
		ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Name:  name,
		Email: email,
	}

	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.cache.Put(ctx, cache.KeySession, data); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return u, nil
}

func (s *sessionService) Logout(ctx context.Context) error {
	if err := s.cache.Delete(ctx, cache.KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return nil
}

func (s *sessionService) Current() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *sessionService) Authenticating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticating
}

func (s *sessionService) setAuthenticating(v bool) {
	s.mu.Lock()
	s.authenticating = v
	s.mu.Unlock()
}
