package server

import (
	"sync"

	"github.com/koustreak/brewery/internal/database"
)

// Session serializes access to one connection and its sink. The data-access
// core is single-threaded; HTTP handlers run concurrently.
type Session struct {
	mu   sync.Mutex
	conn *database.Connection
}

// NewSession wraps conn. The caller keeps ownership and closes it.
func NewSession(conn *database.Connection) *Session {
	return &Session{conn: conn}
}

// Do runs fn while holding the session lock. Cursors opened inside fn must
// be closed before it returns.
func (s *Session) Do(fn func(conn *database.Connection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.conn)
}

// Snapshot serializes the database under the session lock.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Snapshot()
}
