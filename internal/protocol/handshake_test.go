package protocol

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAcceptKey_RFCVector(t *testing.T) {
	// Known vector from RFC 6455 section 1.3.
	got := ComputeAcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", got)
}

func upgradeHeaders() http.Header {
	h := make(http.Header)
	h.Set("Connection", "Upgrade")
	h.Set("Upgrade", "websocket")
	h.Set("Sec-WebSocket-Version", "13")
	h.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return h
}

func TestValidateUpgrade_OK(t *testing.T) {
	key, err := ValidateUpgrade(upgradeHeaders())
	require.NoError(t, err)
	assert.Equal(t, "dGhlIHNhbXBsZSBub25jZQ==", key)
}

func TestValidateUpgrade_TokenLists(t *testing.T) {
	h := upgradeHeaders()
	h.Set("Connection", "keep-alive, Upgrade")
	_, err := ValidateUpgrade(h)
	assert.NoError(t, err)
}

func TestValidateUpgrade_Errors(t *testing.T) {
	h := upgradeHeaders()
	h.Del("Upgrade")
	_, err := ValidateUpgrade(h)
	assert.ErrorIs(t, err, ErrInvalidUpgradeHeaders)

	h = upgradeHeaders()
	h.Set("Sec-WebSocket-Version", "8")
	_, err = ValidateUpgrade(h)
	assert.ErrorIs(t, err, ErrBadWebSocketVersion)

	h = upgradeHeaders()
	h.Del("Sec-WebSocket-Key")
	_, err = ValidateUpgrade(h)
	assert.ErrorIs(t, err, ErrMissingWebSocketKey)
}
