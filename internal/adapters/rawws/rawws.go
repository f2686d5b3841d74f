// Package rawws is the raw-framed transport backend. It performs the
// upgrade handshake and frame codec by hand via internal/protocol,
// for deployments where the library-backed transport is unavailable.
package rawws

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ShubhKirti62/interview-signaling/internal/core"
	"github.com/ShubhKirti62/interview-signaling/internal/protocol"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Listener core.Listener
}

func NewController(listener core.Listener) *Controller {
	return &Controller{Listener: listener}
}

type rawConn struct {
	conn net.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool

	disconnect sync.Once
}

func (c *rawConn) TrySend(f core.Frame) error {
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

func (c *rawConn) Close() {
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

// Handle validates the upgrade request, hijacks the socket, answers the
// handshake with the computed accept key, and runs the frame pumps.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context, sid core.SessionID) {
	key, err := protocol.ValidateUpgrade(c.Request.Header)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.rawws").Msg("bad upgrade request")
		c.String(400, "bad websocket upgrade request")
		return
	}

	hj, ok := c.Writer.(interface {
		Hijack() (net.Conn, *bufio.ReadWriter, error)
	})
	if !ok {
		log.Error().Str("module", "adapters.rawws").Msg("response writer does not support hijacking")
		c.String(500, "upgrade unsupported")
		return
	}
	netConn, rw, err := hj.Hijack()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.rawws").Msg("hijack")
		return
	}

	resp := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		fmt.Sprintf("Sec-WebSocket-Accept: %s\r\n\r\n", protocol.ComputeAcceptKey(key))
	if _, err := rw.WriteString(resp); err != nil {
		log.Error().Err(err).Str("module", "adapters.rawws").Msg("write handshake response")
		_ = netConn.Close()
		return
	}
	if err := rw.Flush(); err != nil {
		log.Error().Err(err).Str("module", "adapters.rawws").Msg("flush handshake response")
		_ = netConn.Close()
		return
	}
	log.Info().Str("module", "adapters.rawws").Str("sid", string(sid)).Msg("raw ws connection established")

	conn := &rawConn{
		conn: netConn,
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
		ctl.readLoop(ctx, sid, conn, rw.Reader)
	}()
}

func (ctl *Controller) writePump(ctx context.Context, c *rawConn) {
	// Closing the socket on exit unblocks a reader parked in ReadFrame,
	// so a write failure tears the connection down without waiting for
	// the peer to send another byte.
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := protocol.WriteFrame(c.conn, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.rawws").Msg("writePump write error")
				return
			}
		}
	}
}

// readLoop decodes inbound frames. A malformed frame is logged and
// dropped while the connection stays open; only transport-level failures
// and a peer close frame end the loop and trigger the disconnect path.
func (ctl *Controller) readLoop(ctx context.Context, sid core.SessionID, c *rawConn, br *bufio.Reader) {
	defer func() {
		log.Info().Str("module", "adapters.rawws").Str("sid", string(sid)).Msg("readLoop closing")
		c.disconnect.Do(func() { ctl.Listener.Disconnect(sid) })
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			payload, err := protocol.ReadFrame(br)
			switch {
			case err == nil:
				ctl.Listener.HandleMessage(sid, payload)
			case errors.Is(err, protocol.ErrConnectionClosed):
				log.Info().Str("module", "adapters.rawws").Str("sid", string(sid)).Msg("peer closed")
				return
			case errors.Is(err, protocol.ErrFragmentedFrame),
				errors.Is(err, protocol.ErrUnexpectedOpcode):
				// ReadFrame consumed the whole frame; the stream is aligned.
				log.Warn().Err(err).Str("module", "adapters.rawws").Str("sid", string(sid)).Msg("frame dropped")
			case errors.Is(err, protocol.ErrFrameTooLarge),
				errors.Is(err, protocol.ErrTruncatedFrame),
				errors.Is(err, io.EOF):
				return
			default:
				log.Warn().Err(err).Str("module", "adapters.rawws").Str("sid", string(sid)).Msg("read error")
				return
			}
		}
	}
}
