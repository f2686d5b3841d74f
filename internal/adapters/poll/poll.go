// Package poll is the stateless fallback transport: each request carries
// exactly one message and elicits exactly one synchronous ack. There is
// no disconnect signal, so room cleanup relies on an explicit leave.
package poll

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ShubhKirti62/interview-signaling/internal/app"
	"github.com/ShubhKirti62/interview-signaling/internal/core"
	"github.com/ShubhKirti62/interview-signaling/internal/domain"
)

type Controller struct {
	Router *app.Router
	Buffer *app.EventBuffer
}

func NewController(rt *app.Router, buf *app.EventBuffer) *Controller {
	return &Controller{Router: rt, Buffer: buf}
}

type submitAck struct {
	Status   string           `json:"status"`
	ClientID core.SessionID   `json:"clientId,omitempty"`
	Users    []core.MemberDTO `json:"users,omitempty"`
}

// Submit accepts one {type,data} envelope for the room in the path.
// A join allocates (or adopts) a client id and returns it with the room
// snapshot; every other type is acked with a bare ok. Malformed bodies
// are rejected, unknown types are logged and acked so a newer client
// never kills an older server.
func (ctl *Controller) Submit(c *gin.Context) {
	roomID := c.Param("roomId")

	var env domain.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed envelope"})
		return
	}

	if env.Type == domain.MsgJoinRoom {
		ctl.join(c, roomID, env.Data)
		return
	}

	sid, ok := ctl.senderOf(env.Data)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing userId"})
		return
	}

	switch env.Type {
	case domain.MsgLeaveRoom:
		// No persistent connection exists to clean the session up later,
		// so an explicit leave destroys it too.
		ctl.Router.Disconnect(sid)
	case domain.MsgSignaling, domain.MsgChat:
		raw, err := json.Marshal(env)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "encode"})
			return
		}
		ctl.Router.HandleMessage(sid, raw)
	default:
		log.Warn().Str("module", "adapters.poll").Str("type", string(env.Type)).Msg("unknown message type")
	}
	c.JSON(http.StatusOK, submitAck{Status: "ok"})
}

func (ctl *Controller) join(c *gin.Context, roomID string, data json.RawMessage) {
	var p domain.JoinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed join payload"})
		return
	}
	// The path, not the body, names the room.
	p.RoomID = roomID

	sid := core.SessionID(p.UserID)
	if sid == "" {
		sid = ctl.Router.NewSessionID()
	}
	ctl.Router.Connect(sid, nil)
	res := ctl.Router.Join(sid, p)
	c.JSON(http.StatusOK, submitAck{Status: "ok", ClientID: res.ClientID, Users: res.Users})
}

// senderOf extracts the declared sender id from a payload. The core
// trusts declared identity by design.
func (ctl *Controller) senderOf(data json.RawMessage) (core.SessionID, bool) {
	var ident struct {
		UserID     string `json:"userId"`
		FromUserID string `json:"fromUserId"`
	}
	if err := json.Unmarshal(data, &ident); err != nil {
		return "", false
	}
	if ident.UserID != "" {
		return core.SessionID(ident.UserID), true
	}
	if ident.FromUserID != "" {
		return core.SessionID(ident.FromUserID), true
	}
	return "", false
}

// Users returns the current member list for a room.
func (ctl *Controller) Users(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))
	c.JSON(http.StatusOK, gin.H{"users": ctl.Router.MembersOf(roomID)})
}

// Events returns buffered events with sequence greater than the cursor.
func (ctl *Controller) Events(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))
	cursor, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad cursor"})
		return
	}
	events := ctl.Buffer.Since(roomID, cursor)
	if events == nil {
		events = []app.BufferedEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
