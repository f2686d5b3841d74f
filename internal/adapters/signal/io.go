package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ShubhKirti62/interview-signaling/internal/core"
)

const writeWait = 5 * time.Second

const defaultPingPeriod = 54 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	period := ctl.Cfg.PingPeriod
	if period <= 0 {
		period = defaultPingPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	// Closing the socket on exit unblocks a reader parked in ReadMessage,
	// so a write failure tears the connection down without waiting for
	// the peer to send another byte.
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "adapters.signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid core.SessionID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "adapters.signal").Str("sid", string(sid)).Msg("readPump closing")
		c.disconnect.Do(func() { ctl.Listener.Disconnect(sid) })
		c.Close()
	}()

	idle := ctl.Cfg.IdleTimeout
	if idle > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(idle))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(idle))
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "adapters.signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			if idle > 0 {
				_ = c.conn.SetReadDeadline(time.Now().Add(idle))
			}
			ctl.Listener.HandleMessage(sid, data)
		}
	}
}
