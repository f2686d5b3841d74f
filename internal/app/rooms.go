package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ShubhKirti62/interview-signaling/internal/core"
	"github.com/ShubhKirti62/interview-signaling/internal/domain"
)

// RoomDirectory tracks room membership sets. Rooms are created lazily on
// first join and deleted the instant membership becomes empty, so a room
// exists exactly while it has members.
//
// One mutex guards the whole directory. Join/leave on a given room are
// therefore serialized, which is the guarantee the router relies on;
// the contention cost is irrelevant at interview-room scale.
type RoomDirectory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[core.SessionID]struct{}
}

func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{rooms: make(map[domain.RoomID]map[core.SessionID]struct{})}
}

// Join inserts sid into the room's member set, creating the room if
// absent. Reports whether sid was already a member.
func (d *RoomDirectory) Join(room domain.RoomID, sid core.SessionID) (already bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	members, ok := d.rooms[room]
	if !ok {
		members = make(map[core.SessionID]struct{})
		d.rooms[room] = members
		log.Info().Str("module", "app.rooms").Str("room", string(room)).Msg("room created")
	}
	if _, already = members[sid]; already {
		return true
	}
	members[sid] = struct{}{}
	log.Info().Str("module", "app.rooms").Str("room", string(room)).
		Str("sid", string(sid)).Int("count", len(members)).Msg("member joined")
	return false
}

// Leave removes sid from the room, deleting the room once empty.
// Reports whether sid was actually a member.
func (d *RoomDirectory) Leave(room domain.RoomID, sid core.SessionID) (removed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	members, ok := d.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[sid]; !ok {
		return false
	}
	delete(members, sid)
	log.Info().Str("module", "app.rooms").Str("room", string(room)).
		Str("sid", string(sid)).Int("count", len(members)).Msg("member left")
	if len(members) == 0 {
		delete(d.rooms, room)
		log.Info().Str("module", "app.rooms").Str("room", string(room)).Msg("room deleted")
	}
	return true
}

// Members returns a snapshot of the room's member ids. Safe to iterate
// after the lock is released; nil when the room does not exist.
func (d *RoomDirectory) Members(room domain.RoomID) []core.SessionID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	members, ok := d.rooms[room]
	if !ok {
		return nil
	}
	out := make([]core.SessionID, 0, len(members))
	for sid := range members {
		out = append(out, sid)
	}
	return out
}

func (d *RoomDirectory) IsMember(room domain.RoomID, sid core.SessionID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[room][sid]
	return ok
}

func (d *RoomDirectory) Exists(room domain.RoomID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[room]
	return ok
}

func (d *RoomDirectory) MemberCount(room domain.RoomID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms[room])
}
