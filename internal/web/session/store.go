// Package session keeps the per-browser UI state: the selected project,
// the editor's name and pending flash messages.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"sync"
	"time"
)

// CookieName is the session cookie.
const CookieName = "roster_session"

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Kind    string
	Title   string
	Message string
}

// Session is a snapshot of one browser's UI state.
type Session struct {
	ID        string
	ProjectID string
	Editor    string
	Flashes   []Flash
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	once     sync.Once
}

func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Create starts an empty session.
func (s *Store) Create() (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return session.snapshot(), nil
}

// Get returns a copy of the session and extends its lifetime.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || time.Now().After(session.ExpiresAt) {
		return nil, false
	}
	session.ExpiresAt = time.Now().Add(s.ttl)
	return session.snapshot(), true
}

// SelectProject records the selected project. An empty id clears it.
func (s *Store) SelectProject(id, projectID string) {
	s.update(id, func(sess *Session) { sess.ProjectID = projectID })
}

// SetEditor remembers the name the browser last signed up with.
func (s *Store) SetEditor(id, editor string) {
	s.update(id, func(sess *Session) { sess.Editor = editor })
}

// AddFlash queues a message for the next render.
func (s *Store) AddFlash(id string, f Flash) {
	s.update(id, func(sess *Session) { sess.Flashes = append(sess.Flashes, f) })
}

// PopFlashes returns and clears the pending messages.
func (s *Store) PopFlashes(id string) []Flash {
	var flashes []Flash
	s.update(id, func(sess *Session) {
		flashes = sess.Flashes
		sess.Flashes = nil
	})
	return flashes
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Close stops the expiry loop.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Store) update(id string, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		fn(session)
	}
}

func (s *Store) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			for id, session := range s.sessions {
				if time.Now().After(session.ExpiresAt) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Session) snapshot() *Session {
	c := *s
	c.Flashes = slices.Clone(s.Flashes)
	return &c
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
