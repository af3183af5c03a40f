package sessions

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid or expired session token")
)

type session struct {
	token     string
	createdAt time.Time
	expiresAt time.Time
}

// Service implements the shared-password gate: one configured password, and
// uuid session tokens handed out on a successful comparison. Sessions live
// only in memory; a restart logs everyone out.
type Service struct {
	mu       sync.RWMutex
	password string
	ttl      time.Duration
	sessions map[string]session
}

func NewService(password string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		password: password,
		ttl:      ttl,
		sessions: make(map[string]session),
	}
}

// Login validates the shared password and returns a fresh session token.
func (s *Service) Login(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return "", ErrInvalidPassword
	}

	token := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{
		token:     token,
		createdAt: now,
		expiresAt: now.Add(s.ttl),
	}
	return token, nil
}

// Validate checks a token and returns ErrInvalidToken when unknown or
// expired. Expired sessions are pruned on access.
func (s *Service) Validate(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}

	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return ErrInvalidToken
	}
	if time.Now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return ErrInvalidToken
	}
	return nil
}

// Logout invalidates a token. Unknown tokens are a no-op.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Count reports live sessions, for the admin/status surface.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
