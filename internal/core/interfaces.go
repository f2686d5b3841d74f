package core

import "github.com/ShubhKirti62/interview-signaling/internal/domain"

// Frame is one serialized outbound envelope, ready for the wire.
type Frame []byte

// SessionID identifies one connected client for the lifetime of its
// connection (or of its polling identity on the fallback transport).
type SessionID string

// SignalConnection abstracts a client's outbound half.
// Owned by the adapter that created it; the adapter must Close() it.
// A nil SignalConnection means a polling client with no live channel.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberDTO is a read-only member view for snapshots and APIs
// (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	UserName string        `json:"userName"`
	Role     domain.Role   `json:"role"`
}

// Listener is what every transport backend normalizes its traffic into.
// Implemented by the message router; adapters never touch room or
// session state directly.
type Listener interface {
	Connect(sid SessionID, conn SignalConnection)
	HandleMessage(sid SessionID, raw []byte)
	Disconnect(sid SessionID)
}
