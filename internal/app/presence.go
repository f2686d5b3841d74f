package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ShubhKirti62/interview-signaling/internal/core"
	"github.com/ShubhKirti62/interview-signaling/internal/domain"
)

// Presence fans out join/leave/snapshot notifications to a room. Every
// room-scoped event is also appended to the room's event buffer so that
// polling clients observe the same stream.
type Presence struct {
	Registry *Registry
	Rooms    *RoomDirectory
	Buffer   *EventBuffer
}

func NewPresence(reg *Registry, rooms *RoomDirectory, buf *EventBuffer) *Presence {
	return &Presence{Registry: reg, Rooms: rooms, Buffer: buf}
}

// encodeEvent marshals the payload and wraps it in the outbound envelope.
// Returns both the full frame and the bare data for buffering.
func encodeEvent(typ domain.MessageType, payload any) (core.Frame, json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	frame, err := json.Marshal(domain.Envelope{Type: typ, Data: data})
	if err != nil {
		return nil, nil, err
	}
	return frame, data, nil
}

// NotifyJoined emits a user-joined event to every current member except
// the joining client itself.
func (p *Presence) NotifyJoined(room domain.RoomID, joined *ClientSession) {
	frame, data, err := encodeEvent(domain.EvtJoined, domain.UserJoinedEvent{
		UserID:   domain.UserID(joined.ID),
		UserName: joined.UserName,
		Role:     joined.Role,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").Msg("encode user-joined")
		return
	}
	p.deliver(room, frame, joined.ID)
	p.Buffer.Append(room, domain.EvtJoined, data, "")
}

// NotifyLeft emits a user-left event to every remaining member.
func (p *Presence) NotifyLeft(room domain.RoomID, left core.SessionID) {
	frame, data, err := encodeEvent(domain.EvtLeft, domain.UserLeftEvent{
		UserID: domain.UserID(left),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").Msg("encode user-left")
		return
	}
	p.deliver(room, frame, left)
	if p.Rooms.Exists(room) {
		p.Buffer.Append(room, domain.EvtLeft, data, "")
	} else {
		// Last member gone, the room is already deleted.
		p.Buffer.Drop(room)
	}
}

// SendSnapshot sends the full current member list to exactly one
// recipient. Snapshots are targeted, so they are never buffered.
func (p *Presence) SendSnapshot(to core.SessionID, room domain.RoomID) {
	frame, _, err := encodeEvent(domain.EvtRoomUsers, p.Snapshot(room))
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").Msg("encode room-users")
		return
	}
	p.sendTo(to, frame)
}

// Snapshot resolves the room's membership into member records.
func (p *Presence) Snapshot(room domain.RoomID) []core.MemberDTO {
	return p.Registry.Resolve(p.Rooms.Members(room))
}

// Broadcast sends one frame to every member of the room, optionally
// excluding one id, and appends it to the room's event buffer.
// Membership is snapshotted first; no lock is held during sends.
func (p *Presence) Broadcast(room domain.RoomID, typ domain.MessageType, frame core.Frame, data json.RawMessage, exclude core.SessionID) {
	p.deliver(room, frame, exclude)
	p.Buffer.Append(room, typ, data, "")
}

// Unicast sends one frame to a single member. When the target has no
// live connection (polling client) only the buffered copy reaches it.
func (p *Presence) Unicast(room domain.RoomID, typ domain.MessageType, frame core.Frame, data json.RawMessage, to core.SessionID) {
	p.sendTo(to, frame)
	p.Buffer.Append(room, typ, data, domain.UserID(to))
}

// deliver fans frame out to the room, skipping exclude. A failed send to
// one recipient is logged and never aborts delivery to the rest.
func (p *Presence) deliver(room domain.RoomID, frame core.Frame, exclude core.SessionID) {
	members := p.Rooms.Members(room)
	conns := p.Registry.Conns(members)
	for sid, conn := range conns {
		if sid == exclude {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.presence").
				Str("room", string(room)).Str("sid", string(sid)).Msg("send failed")
		}
	}
}

func (p *Presence) sendTo(sid core.SessionID, frame core.Frame) {
	conns := p.Registry.Conns([]core.SessionID{sid})
	conn, ok := conns[sid]
	if !ok {
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.presence").
			Str("sid", string(sid)).Msg("send failed")
	}
}
