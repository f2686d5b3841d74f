package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ShubhKirti62/interview-signaling/internal/core"
	"github.com/ShubhKirti62/interview-signaling/internal/domain"
)

// ClientSession is one connected client's state. The connection handle is
// owned by the transport adapter that created it; the registry only
// borrows it for sends.
type ClientSession struct {
	ID       core.SessionID
	UserName string
	Role     domain.Role
	Room     domain.RoomID
	Conn     core.SignalConnection
}

// Registry tracks every live session by id. It holds no room membership;
// that belongs to the RoomDirectory.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*ClientSession
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*ClientSession)}
}

// Add registers a fresh session. Re-adding an existing id replaces the
// connection handle but keeps the recorded profile. A nil handle (a
// polling client declaring an id) never displaces a live connection:
// the session keeps its channel and the polling caller shares the id.
func (r *Registry) Add(sid core.SessionID, conn core.SignalConnection) *ClientSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sid]; ok {
		if conn != nil || s.Conn == nil {
			s.Conn = conn
		}
		return s
	}
	s := &ClientSession{ID: sid, Conn: conn}
	r.sessions[sid] = s
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("session added")
	return s
}

func (r *Registry) Get(sid core.SessionID) (*ClientSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sid]
	return s, ok
}

// SetProfile records the declared name and role, set on join.
func (r *Registry) SetProfile(sid core.SessionID, userName string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sid]
	if !ok {
		return
	}
	s.UserName = userName
	s.Role = role
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).
		Str("userName", userName).Str("role", string(role)).Msg("profile set")
}

func (r *Registry) SetRoom(sid core.SessionID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sid]; ok {
		s.Room = room
	}
}

// RoomOf returns the session's current room, "" when it has none.
func (r *Registry) RoomOf(sid core.SessionID) domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[sid]; ok {
		return s.Room
	}
	return ""
}

// Remove destroys the session. No-op for unknown ids.
func (r *Registry) Remove(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; !ok {
		return
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("session removed")
}

// Resolve maps member ids to read-only member records, skipping ids whose
// session is already gone.
func (r *Registry) Resolve(sids []core.SessionID) []core.MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.MemberDTO, 0, len(sids))
	for _, sid := range sids {
		if s, ok := r.sessions[sid]; ok {
			out = append(out, core.MemberDTO{
				ID:       domain.UserID(s.ID),
				UserName: s.UserName,
				Role:     s.Role,
			})
		}
	}
	return out
}

// Conns returns the live connection handles for the given ids. Sessions
// without a live channel (polling clients) are skipped.
func (r *Registry) Conns(sids []core.SessionID) map[core.SessionID]core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[core.SessionID]core.SignalConnection, len(sids))
	for _, sid := range sids {
		if s, ok := r.sessions[sid]; ok && s.Conn != nil {
			out[sid] = s.Conn
		}
	}
	return out
}
