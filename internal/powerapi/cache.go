package powerapi

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SessionCache keeps authenticated sessions around so repeated syncs of the
// same student can skip the login call until the session expires.
type SessionCache struct {
	api   API
	cache *expirable.LRU[string, *Session]
}

func NewSessionCache(api API, size int, ttl time.Duration) SessionCache {
	return SessionCache{
		api:   api,
		cache: expirable.NewLRU[string, *Session](size, nil, ttl),
	}
}

// Get returns the cached session of a student or logs them in.
func (s SessionCache) Get(ctx context.Context, creds Credentials) (*Session, error) {
	cached, hit := s.cache.Get(creds.Username)
	if hit {
		return cached, nil
	}

	session, err := s.api.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.cache.Add(creds.Username, session)
	return session, nil
}

// Sync fetches a fresh transcript through a cached session. If the fetch
// fails the session is evicted, the next call logs in again.
func (s SessionCache) Sync(ctx context.Context, creds Credentials) (*Session, error) {
	session, err := s.Get(ctx, creds)
	if err != nil {
		return nil, err
	}
	_, err = s.api.FetchTranscript(ctx, session)
	if err != nil {
		s.cache.Remove(creds.Username)
		return nil, err
	}
	return session, nil
}

// Evict drops the session of a student.
func (s SessionCache) Evict(username string) {
	s.cache.Remove(username)
}

func (s SessionCache) Len() int {
	return s.cache.Len()
}
