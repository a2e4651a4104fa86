// ABOUTME: Thread-safe store of MCP HTTP sessions with idle expiry
// ABOUTME: Size-limited; the least recently used session is evicted at capacity

package mcp

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session limits used when Config leaves them zero.
const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 1000
)

// mcpSession tracks an active MCP client session.
type mcpSession struct {
	id              string
	protocolVersion string
	createdAt       time.Time
	lastSeen        time.Time
	element         *list.Element
}

// sessionStore holds sessions keyed by id. A session not used for ttl is
// gone. order keeps ids by last use, oldest at front, for O(1) eviction.
type sessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*mcpSession
	order       *list.List
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	done        chan struct{}
	closed      bool
}

// newSessionStore creates a store and starts a background goroutine that
// sweeps expired sessions until close is called.
func newSessionStore(ttl time.Duration, maxSessions int) *sessionStore {
	s := &sessionStore{
		sessions:    make(map[string]*mcpSession),
		order:       list.New(),
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
		done:        make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// create opens a session, evicting the least recently used one when full.
func (s *sessionStore) create(protocolVersion string) *mcpSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}

	now := s.now()
	sess := &mcpSession{
		id:              uuid.New().String(),
		protocolVersion: protocolVersion,
		createdAt:       now,
		lastSeen:        now,
	}
	sess.element = s.order.PushBack(sess.id)
	s.sessions[sess.id] = sess
	return sess
}

// get returns a live session and marks it used. Expired sessions are
// removed and reported missing.
func (s *sessionStore) get(id string) (*mcpSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(sess.lastSeen) >= s.ttl {
		s.removeLocked(sess)
		return nil, false
	}
	sess.lastSeen = now
	s.order.MoveToBack(sess.element)
	return sess, true
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	s.removeLocked(sess)
	return true
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Must be called with mu held.
func (s *sessionStore) removeLocked(sess *mcpSession) {
	s.order.Remove(sess.element)
	delete(s.sessions, sess.id)
}

// Must be called with mu held.
func (s *sessionStore) evictOldestLocked() {
	front := s.order.Front()
	if front == nil {
		return
	}
	id, _ := front.Value.(string)
	if sess, ok := s.sessions[id]; ok {
		s.removeLocked(sess)
	}
}

func (s *sessionStore) sweepLoop() {
	interval := s.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

// sweep removes every expired session and returns how many it removed.
func (s *sessionStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	// Front is least recently used, so stop at the first live session.
	for e := s.order.Front(); e != nil; {
		next := e.Next()
		id, _ := e.Value.(string)
		sess := s.sessions[id]
		if now.Sub(sess.lastSeen) < s.ttl {
			break
		}
		s.removeLocked(sess)
		removed++
		e = next
	}
	return removed
}

// close stops the sweep goroutine. It is safe to call multiple times.
func (s *sessionStore) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.done)
		s.closed = true
	}
}
