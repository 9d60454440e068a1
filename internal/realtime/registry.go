package realtime

import "sync"

// Registry owns the mapping between verified users and their live sessions.
// A user holds at most one session: registering a second connection for the
// same user displaces the first (last-writer-wins, matching the platform's
// reconnect behavior) and the displaced session is returned so the caller
// can signal and close it.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*Session
	byUser map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*Session),
		byUser: make(map[string]*Session),
	}
}

// Register records the session as the user's current connection and returns
// the session it displaced, if any.
func (r *Registry) Register(s *Session) (displaced *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[s.UserID]; ok && prev.ID != s.ID {
		displaced = prev
		delete(r.byConn, prev.ID)
	}
	r.byConn[s.ID] = s
	r.byUser[s.UserID] = s
	return displaced
}

// Remove drops the session. Idempotent: removing an absent session is a
// no-op. lastForUser reports whether this removal left the user with no
// current connection, which is false when the session was already displaced
// by a reconnect.
func (r *Registry) Remove(s *Session) (removed, lastForUser bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConn[s.ID]; !ok {
		return false, false
	}
	delete(r.byConn, s.ID)

	if current, ok := r.byUser[s.UserID]; ok && current.ID == s.ID {
		delete(r.byUser, s.UserID)
		return true, true
	}
	return true, false
}

// Lookup returns the user's current session.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byUser[userID]
	return s, ok
}

// Sessions returns a snapshot of every registered session.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*Session, 0, len(r.byConn))
	for _, s := range r.byConn {
		sessions = append(sessions, s)
	}
	return sessions
}

// OnlineUsers returns a snapshot of user ids with a live session.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.byUser))
	for uid := range r.byUser {
		users = append(users, uid)
	}
	return users
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
