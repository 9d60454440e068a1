package realtime

import (
	"sync"

	"github.com/samber/lo"
)

// TypingState holds the ephemeral per-thread sets of users currently
// composing. Each entry records the connection that set it so a stale,
// displaced session can never scrub the indicator of the connection that
// replaced it. There is no TTL: entries clear on an explicit stop or on
// disconnect reconciliation.
type TypingState struct {
	mu       sync.Mutex
	byThread map[string]map[string]string // threadID -> userID -> connID
}

// NewTypingState creates an empty typing table.
func NewTypingState() *TypingState {
	return &TypingState{byThread: make(map[string]map[string]string)}
}

// Start flags the user as typing in the thread. Idempotent; a repeated
// start from a new connection re-tags the entry with that connection.
func (t *TypingState) Start(threadID, userID, connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.byThread[threadID] == nil {
		t.byThread[threadID] = make(map[string]string)
	}
	t.byThread[threadID][userID] = connID
}

// Stop clears the user's typing flag. Removing an absent entry is a no-op.
func (t *TypingState) Stop(threadID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if users, ok := t.byThread[threadID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.byThread, threadID)
		}
	}
}

// Typists returns the user ids currently typing in the thread.
func (t *TypingState) Typists(threadID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	users := t.byThread[threadID]
	if len(users) == 0 {
		return nil
	}
	return lo.Keys(users)
}

// RemoveConn clears every typing entry owned by the connection and returns
// the thread ids that changed. Entries re-tagged by a newer connection of
// the same user are left alone.
func (t *TypingState) RemoveConn(userID, connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var affected []string
	for threadID, users := range t.byThread {
		if owner, ok := users[userID]; ok && owner == connID {
			delete(users, userID)
			if len(users) == 0 {
				delete(t.byThread, threadID)
			}
			affected = append(affected, threadID)
		}
	}
	return affected
}
