package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ShubhKirti62/interview-signaling/internal/core"
	"github.com/ShubhKirti62/interview-signaling/internal/domain"
)

// Router is the message dispatch core: one inbound envelope in, zero or
// more outbound sends out. Transport adapters normalize their traffic
// into Connect / HandleMessage / Disconnect and never touch room or
// session state themselves.
type Router struct {
	Registry *Registry
	Rooms    *RoomDirectory
	Presence *Presence
	Buffer   *EventBuffer

	// mu serializes every compound mutation (read-check-mutate across
	// the registry and the directory) together with its fan-out, so a
	// session's room pointer and the room's member set can never drift
	// apart under concurrent requests for the same id. Fan-out under mu
	// is safe: TrySend is a non-blocking channel handoff, no outbound
	// I/O happens while the lock is held.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

var _ core.Listener = (*Router)(nil)

func NewRouter(reg *Registry, rooms *RoomDirectory, presence *Presence, buf *EventBuffer) *Router {
	return &Router{
		Registry: reg,
		Rooms:    rooms,
		Presence: presence,
		Buffer:   buf,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// NewSessionID allocates a collision-resistant client id.
func (rt *Router) NewSessionID() core.SessionID {
	return core.SessionID(rt.newID())
}

// Connect registers a fresh session. Clients with a live channel get a
// connected event carrying their allocated id; polling clients receive
// theirs in the synchronous join acknowledgement instead.
func (rt *Router) Connect(sid core.SessionID, conn core.SignalConnection) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.Registry.Add(sid, conn)
	if conn == nil {
		return
	}
	frame, _, err := encodeEvent(domain.EvtConnected, domain.ConnectedEvent{ClientID: string(sid)})
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("encode connected")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("sid", string(sid)).Msg("send connected")
	}
}

// Disconnect runs the leave sequence and destroys the session. Safe to
// call more than once; the second call is a no-op.
func (rt *Router) Disconnect(sid core.SessionID) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.leaveLocked(sid)
	rt.Registry.Remove(sid)
}

// HandleMessage dispatches one decoded inbound envelope. Malformed
// payloads and unknown types are logged and dropped; the connection is
// never terminated from here.
func (rt *Router) HandleMessage(sid core.SessionID, raw []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("sid", string(sid)).Msg("malformed envelope")
		return
	}
	switch env.Type {
	case domain.MsgJoinRoom:
		var p domain.JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Err(err).Str("module", "app.router").Msg("malformed join-room payload")
			return
		}
		rt.Join(sid, p)
	case domain.MsgLeaveRoom:
		rt.mu.Lock()
		rt.leaveLocked(sid)
		rt.mu.Unlock()
	case domain.MsgSignaling:
		var p domain.SignalingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Err(err).Str("module", "app.router").Msg("malformed signaling payload")
			return
		}
		rt.relaySignaling(sid, p)
	case domain.MsgChat:
		var p domain.ChatPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Err(err).Str("module", "app.router").Msg("malformed chat payload")
			return
		}
		rt.relayChat(sid, p)
	default:
		log.Warn().Str("module", "app.router").Str("type", string(env.Type)).Msg("unknown message type")
	}
}

// JoinResult is the synchronous answer to a join, used by the polling
// transport's acknowledgement.
type JoinResult struct {
	ClientID core.SessionID   `json:"clientId"`
	Users    []core.MemberDTO `json:"users"`
}

// Join records the declared profile and inserts the client into the
// room. Joining a second room implicitly leaves the first. Re-joining
// the same room is idempotent: the snapshot is re-sent but no duplicate
// user-joined fans out.
func (rt *Router) Join(sid core.SessionID, p domain.JoinPayload) JoinResult {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.joinLocked(sid, p)
}

func (rt *Router) joinLocked(sid core.SessionID, p domain.JoinPayload) JoinResult {
	room := domain.RoomID(p.RoomID)
	if room == "" {
		log.Warn().Str("module", "app.router").Str("sid", string(sid)).Msg("join-room without roomId")
		return JoinResult{ClientID: sid}
	}

	// A join for a session that no longer exists (already disconnected)
	// must not touch membership, or the id would linger in the room
	// forever with nothing left to clean it up.
	sess, ok := rt.Registry.Get(sid)
	if !ok {
		log.Warn().Str("module", "app.router").Str("sid", string(sid)).Msg("join-room from unknown session")
		return JoinResult{ClientID: sid}
	}

	userName := domain.NormalizeUserName(p.UserName)
	role := domain.Role(p.Role)
	if !role.Valid() {
		log.Warn().Str("module", "app.router").Str("sid", string(sid)).
			Str("role", p.Role).Msg("unknown role, defaulting to candidate")
		role = domain.RoleCandidate
	}

	if current := rt.Registry.RoomOf(sid); current != "" && current != room {
		rt.leaveLocked(sid)
	}

	rt.Registry.SetProfile(sid, userName, role)
	already := rt.Rooms.Join(room, sid)
	rt.Registry.SetRoom(sid, room)

	if !already {
		rt.Presence.NotifyJoined(room, sess)
	}
	// Snapshot is taken after insertion, so it includes the joiner itself.
	rt.Presence.SendSnapshot(sid, room)
	return JoinResult{ClientID: sid, Users: rt.Presence.Snapshot(room)}
}

// leaveLocked removes the client from its current room, if any, and
// notifies the remaining members. Calling it again is a no-op.
// Caller holds rt.mu.
func (rt *Router) leaveLocked(sid core.SessionID) {
	room := rt.Registry.RoomOf(sid)
	if room == "" {
		return
	}
	removed := rt.Rooms.Leave(room, sid)
	rt.Registry.SetRoom(sid, "")
	if removed {
		rt.Presence.NotifyLeft(room, sid)
	}
}

// relaySignaling forwards an opaque negotiation payload. With a target
// id it is unicast to that one member; without one it goes to every
// other room member. A target that is not a current member is dropped,
// with no broadcast fallback and no notice to the sender.
func (rt *Router) relaySignaling(sid core.SessionID, p domain.SignalingPayload) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room := rt.Registry.RoomOf(sid)
	if room == "" {
		log.Warn().Str("module", "app.router").Str("sid", string(sid)).Msg("signaling from client outside any room")
		return
	}

	ev := domain.SignalingEvent{Message: p.Message, FromUserID: domain.UserID(sid)}
	if p.TargetUserID != "" {
		target := core.SessionID(p.TargetUserID)
		if !rt.Rooms.IsMember(room, target) {
			log.Warn().Str("module", "app.router").Str("room", string(room)).
				Str("target", p.TargetUserID).Msg("signaling target not in room, dropped")
			return
		}
		ev.TargetUserID = domain.UserID(target)
		frame, data, err := encodeEvent(domain.EvtSignaling, ev)
		if err != nil {
			log.Error().Err(err).Str("module", "app.router").Msg("encode signaling")
			return
		}
		rt.Presence.Unicast(room, domain.EvtSignaling, frame, data, target)
		return
	}

	frame, data, err := encodeEvent(domain.EvtSignaling, ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("encode signaling")
		return
	}
	rt.Presence.Broadcast(room, domain.EvtSignaling, frame, data, sid)
}

// relayChat stamps the message with a generated id and timestamp, then
// broadcasts it to the entire room including the sender so every
// participant renders an identical transcript.
func (rt *Router) relayChat(sid core.SessionID, p domain.ChatPayload) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room := rt.Registry.RoomOf(sid)
	if room == "" {
		log.Warn().Str("module", "app.router").Str("sid", string(sid)).Msg("chat from client outside any room")
		return
	}

	userName := p.UserName
	if sess, ok := rt.Registry.Get(sid); ok && sess.UserName != "" {
		userName = sess.UserName
	}
	ev := domain.ChatEvent{
		ID:        rt.newID(),
		UserName:  userName,
		Message:   p.Message,
		Timestamp: rt.now().UnixMilli(),
		UserID:    domain.UserID(sid),
	}
	frame, data, err := encodeEvent(domain.EvtChat, ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("encode chat")
		return
	}
	rt.Presence.Broadcast(room, domain.EvtChat, frame, data, "")
}

// MembersOf returns the current member records for a room.
func (rt *Router) MembersOf(room domain.RoomID) []core.MemberDTO {
	return rt.Presence.Snapshot(room)
}
