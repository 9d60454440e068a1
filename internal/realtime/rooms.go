package realtime

import (
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Room id prefixes. A room exists implicitly while it has members.
const (
	personalRoomPrefix = "user:"
	threadRoomPrefix   = "thread:"
)

// PersonalRoom names the per-user channel.
func PersonalRoom(userID string) string { return personalRoomPrefix + userID }

// ThreadRoom names the per-conversation channel.
func ThreadRoom(threadID string) string { return threadRoomPrefix + threadID }

// RoomKind classifies a room id for metrics.
func RoomKind(roomID string) string {
	switch {
	case strings.HasPrefix(roomID, personalRoomPrefix):
		return "personal"
	case strings.HasPrefix(roomID, threadRoomPrefix):
		return "thread"
	default:
		return "other"
	}
}

// Rooms tracks which sessions subscribed to which rooms. Forward index for
// broadcasts, reverse index so disconnect cleanup is O(rooms of the
// connection) instead of a full scan.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]*Session
	byConn  map[string]map[string]bool
}

// NewRooms creates an empty membership table.
func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]map[string]*Session),
		byConn:  make(map[string]map[string]bool),
	}
}

// Join subscribes the session to the room. Idempotent.
func (r *Rooms) Join(s *Session, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[roomID] == nil {
		r.members[roomID] = make(map[string]*Session)
	}
	r.members[roomID][s.ID] = s
	if r.byConn[s.ID] == nil {
		r.byConn[s.ID] = make(map[string]bool)
	}
	r.byConn[s.ID][roomID] = true
}

// Leave removes the subscription. Idempotent; leaving a room that never
// existed is a no-op and an empty room is dropped.
func (r *Rooms) Leave(s *Session, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(s.ID, roomID)
}

func (r *Rooms) leaveLocked(connID, roomID string) {
	if sessions, ok := r.members[roomID]; ok {
		delete(sessions, connID)
		if len(sessions) == 0 {
			delete(r.members, roomID)
		}
	}
	if rooms, ok := r.byConn[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// RemoveAll unsubscribes the session from every room it was in and returns
// the affected room ids.
func (r *Rooms) RemoveAll(s *Session) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms, ok := r.byConn[s.ID]
	if !ok {
		return nil
	}
	affected := lo.Keys(rooms)
	for _, roomID := range affected {
		r.leaveLocked(s.ID, roomID)
	}
	return affected
}

// Snapshot returns the sessions currently in the room.
func (r *Rooms) Snapshot(roomID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := r.members[roomID]
	if len(sessions) == 0 {
		return nil
	}
	return lo.Values(sessions)
}

// MembersOf returns the distinct user ids subscribed to the room.
func (r *Rooms) MembersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make(map[string]bool)
	for _, s := range r.members[roomID] {
		users[s.UserID] = true
	}
	return lo.Keys(users)
}

// RoomsOf returns the room ids the session is subscribed to.
func (r *Rooms) RoomsOf(s *Session) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms, ok := r.byConn[s.ID]
	if !ok {
		return nil
	}
	return lo.Keys(rooms)
}
