package powerapi

import (
	"sync"
	"time"

	"powerapi-backend/internal/packager"
	"powerapi-backend/internal/scrapers/powerschool"
)

// Credentials are a student's portal login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session holds everything known about one logged in student: the portal
// session and the last transcript fetched with it. It is safe to read from
// multiple goroutines.
type Session struct {
	mutex sync.RWMutex

	username   string
	portal     powerschool.Session
	transcript packager.Transcript
	fetchedAt  time.Time
	fetched    bool
}

func newSession(username string, portal powerschool.Session) *Session {
	return &Session{
		username: username,
		portal:   portal,
	}
}

func (s *Session) Username() string {
	return s.username
}

// Portal returns the ticket and user id the session was created with.
func (s *Session) Portal() powerschool.Session {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.portal
}

// Transcript returns the last fetched transcript and when it was fetched,
// ok is false if nothing has been fetched yet.
func (s *Session) Transcript() (transcript packager.Transcript, fetchedAt time.Time, ok bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.transcript, s.fetchedAt, s.fetched
}

func (s *Session) setTranscript(transcript packager.Transcript, fetchedAt time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.transcript = transcript
	s.fetchedAt = fetchedAt
	s.fetched = true
}
