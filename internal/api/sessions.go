package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionTTL = 12 * time.Hour

type session struct {
	username  string
	expiresAt time.Time
}

type sessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]session
	now   func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]session),
		now:   time.Now,
	}
}

func (s *sessionStore) put(username string) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token = uuid.NewString()
	s.items[token] = session{
		username:  username,
		expiresAt: now.Add(s.ttl),
	}
	return token
}

func (s *sessionStore) get(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[token]
	if !ok {
		return "", false
	}
	if s.now().After(v.expiresAt) {
		delete(s.items, token)
		return "", false
	}
	return v.username, true
}

func (s *sessionStore) delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

func (s *sessionStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}
