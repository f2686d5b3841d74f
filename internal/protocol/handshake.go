// Package protocol implements the raw-framed transport's wire format:
// the RFC 6455 upgrade handshake and single-frame text message codec.
// It exists for the transport backend that cannot use a websocket
// library; the managed transport never touches this package.
package protocol

import (
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// WebSocketGUID is the fixed public constant mixed into the client key
// when computing the handshake accept value (RFC 6455 section 1.3).
const WebSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

const RequiredWebSocketVersion = "13"

var (
	ErrInvalidUpgradeHeaders = errors.New("invalid websocket upgrade headers")
	ErrMissingWebSocketKey   = errors.New("missing Sec-WebSocket-Key header")
	ErrBadWebSocketVersion   = errors.New("unsupported websocket version; only '13' is supported")
)

// ComputeAcceptKey derives the Sec-WebSocket-Accept value from the
// client-supplied key. Pure function, no state.
func ComputeAcceptKey(clientKey string) string {
	sum := sha1.Sum([]byte(clientKey + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ValidateUpgrade checks the request headers required for an upgrade and
// returns the client key on success.
func ValidateUpgrade(h http.Header) (clientKey string, err error) {
	if !headerContainsToken(h, "Connection", "Upgrade") ||
		!headerContainsToken(h, "Upgrade", "websocket") {
		return "", ErrInvalidUpgradeHeaders
	}
	if h.Get("Sec-WebSocket-Version") != RequiredWebSocketVersion {
		return "", ErrBadWebSocketVersion
	}
	key := h.Get("Sec-WebSocket-Key")
	if key == "" {
		return "", ErrMissingWebSocketKey
	}
	return key, nil
}

func headerContainsToken(h http.Header, name, token string) bool {
	token = strings.ToLower(token)
	for _, v := range h[http.CanonicalHeaderKey(name)] {
		for _, part := range strings.Split(v, ",") {
			if strings.ToLower(strings.TrimSpace(part)) == token {
				return true
			}
		}
	}
	return false
}
