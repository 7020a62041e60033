// Package session holds who is logged in for one storefront client and
// keeps that identity in durable storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/eliotaldersonfsociety/texasstore-api/storage"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

const (
	keySession = "session"
	keyToken   = "token"
	keyAvatar  = "avatar"

	SessionTTL = 7 * 24 * time.Hour
	// The avatar outlives logout on purpose.
	AvatarTTL = 3650 * 24 * time.Hour
)

type State int

const (
	Uninitialized State = iota
	Loading
	Resolved
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	default:
		return "uninitialized"
	}
}

var ErrInvalidSession = errors.New("session: user id, email and token are required")

type Store struct {
	storage  storage.Storage
	logger   *log.Logger
	validate *validator.Validate
	now      func() time.Time

	mu      sync.RWMutex
	state   State
	session *models.UserSession
	token   string
}

func NewStore(s storage.Storage, logger *log.Logger) *Store {
	return &Store{
		storage:  s,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Load resolves the persisted session. Anything unreadable resolves to
// logged out and the stale keys are dropped.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Loading
	s.session, s.token = nil, ""
	defer func() { s.state = Resolved }()

	rawSession, err := s.storage.Get(ctx, keySession)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Printf("session: failed to read persisted session: %v", err)
		}
		return
	}

	var user models.UserSession
	if err := json.Unmarshal([]byte(rawSession), &user); err != nil {
		s.logger.Printf("session: discarding malformed persisted session: %v", err)
		s.forget(ctx)
		return
	}

	token, err := s.storage.Get(ctx, keyToken)
	if err != nil || token == "" || s.tokenExpired(token) {
		s.logger.Println("session: persisted session has no valid token, logging out")
		s.forget(ctx)
		return
	}

	if user.Avatar == "" {
		user.Avatar = s.savedAvatar(ctx)
	}
	user.IsOnline = true
	s.session, s.token = &user, token
}

// Current returns a copy of the session, the bearer token, and whether the
// store is still resolving. A nil session means logged out only when
// loading is false.
func (s *Store) Current() (*models.UserSession, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loading := s.state != Resolved
	if s.session == nil {
		return nil, "", loading
	}
	copied := *s.session
	return &copied, s.token, loading
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil && s.token != ""
}

// IsAdmin reports the session flag or an "admin" role claim in the token.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return false
	}
	if s.session.IsAdmin {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.token, claims); err != nil {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}

func (s *Store) SetSession(ctx context.Context, user models.UserSession, token string) error {
	if token == "" {
		return ErrInvalidSession
	}
	if err := s.validate.Struct(user); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Avatar == "" {
		user.Avatar = s.savedAvatar(ctx)
	}
	user.IsOnline = true

	if err := s.persist(ctx, user); err != nil {
		return err
	}
	if err := s.storage.Set(ctx, keyToken, token, SessionTTL); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	if user.Avatar != "" {
		if err := s.storage.Set(ctx, keyAvatar, user.Avatar, AvatarTTL); err != nil {
			s.logger.Printf("session: failed to persist avatar: %v", err)
		}
	}

	s.session, s.token, s.state = &user, token, Resolved
	return nil
}

// ClearSession logs out. The persisted avatar is kept.
func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session, s.token, s.state = nil, "", Resolved
	return errors.Join(
		s.storage.Remove(ctx, keySession),
		s.storage.Remove(ctx, keyToken),
	)
}

// UpdateAvatar is a no-op without an active session.
func (s *Store) UpdateAvatar(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}

	updated := *s.session
	updated.Avatar = url
	if err := s.storage.Set(ctx, keyAvatar, url, AvatarTTL); err != nil {
		return fmt.Errorf("failed to persist avatar: %w", err)
	}
	if err := s.persist(ctx, updated); err != nil {
		return err
	}
	s.session = &updated
	return nil
}

// SavedAvatar returns the long-lived avatar, even after logout.
func (s *Store) SavedAvatar(ctx context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedAvatar(ctx)
}

func (s *Store) savedAvatar(ctx context.Context) string {
	avatar, err := s.storage.Get(ctx, keyAvatar)
	if err != nil {
		return ""
	}
	return avatar
}

func (s *Store) persist(ctx context.Context, user models.UserSession) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.storage.Set(ctx, keySession, string(raw), SessionTTL); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *Store) forget(ctx context.Context) {
	if err := errors.Join(s.storage.Remove(ctx, keySession), s.storage.Remove(ctx, keyToken)); err != nil {
		s.logger.Printf("session: failed to drop stale keys: %v", err)
	}
}

// tokenExpired only judges tokens that parse as JWTs; opaque tokens are
// left to the backend to reject.
func (s *Store) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}
