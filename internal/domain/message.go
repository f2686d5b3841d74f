package domain

import "encoding/json"

// MessageType tags an inbound envelope.
type MessageType string

const (
	MsgJoinRoom  MessageType = "join-room"
	MsgLeaveRoom MessageType = "leave-room"
	MsgSignaling MessageType = "signaling-message"
	MsgChat      MessageType = "chat-message"
)

// Outbound event types share the same envelope shape.
const (
	EvtConnected MessageType = "connected"
	EvtRoomUsers MessageType = "room-users"
	EvtJoined    MessageType = "user-joined"
	EvtLeft      MessageType = "user-left"
	EvtSignaling MessageType = "signaling-message"
	EvtChat      MessageType = "chat-message"
)

// Envelope is the wire shape shared by all three transports.
// Data stays raw until the router knows the type.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

type JoinPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
	UserID   string `json:"userId,omitempty"`
}

// SignalingPayload carries an opaque negotiation blob (SDP, ICE candidate).
// The core never looks inside Message.
type SignalingPayload struct {
	RoomID       string          `json:"roomId"`
	Message      json.RawMessage `json:"message"`
	TargetUserID string          `json:"targetUserId,omitempty"`
	FromUserID   string          `json:"fromUserId,omitempty"`
}

type ChatPayload struct {
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	UserName string `json:"userName"`
	UserID   string `json:"userId,omitempty"`
}

// Outbound event payloads.

type ConnectedEvent struct {
	ClientID string `json:"clientId"`
}

type UserJoinedEvent struct {
	UserID   UserID `json:"userId"`
	UserName string `json:"userName"`
	Role     Role   `json:"role"`
}

type UserLeftEvent struct {
	UserID UserID `json:"userId"`
}

type SignalingEvent struct {
	Message      json.RawMessage `json:"message"`
	FromUserID   UserID          `json:"fromUserId"`
	TargetUserID UserID          `json:"targetUserId,omitempty"`
}

type ChatEvent struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	UserID    UserID `json:"userId"`
}
