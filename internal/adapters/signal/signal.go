// Package signal is the managed websocket transport backend, built on
// gorilla/websocket. It normalizes the connection's lifecycle into
// Connect / HandleMessage / Disconnect calls on the message router.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ShubhKirti62/interview-signaling/internal/config"
	"github.com/ShubhKirti62/interview-signaling/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Listener core.Listener
	Cfg      *config.Config
}

func NewController(listener core.Listener, cfg *config.Config) *Controller {
	return &Controller{Listener: listener, Cfg: cfg}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool

	// disconnect fires at most once per connection, no matter how many
	// close/error signals the underlying socket produces.
	disconnect sync.Once
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the connection's pumps. A fresh
// session id is allocated per connection; the client learns it from the
// connected event.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context, sid core.SessionID) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "adapters.signal").Str("sid", string(sid)).Msg("new ws connection")

	if ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Listener.Connect(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		ctl.writePump(ctx, conn)
	}()
	go func() {
		defer cancel()
		ctl.readPump(ctx, sid, conn)
	}()
}
