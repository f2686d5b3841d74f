package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// maskedClientFrame builds a masked text frame the way a client would.
func maskedClientFrame(payload []byte) []byte {
	key := [4]byte{0x1f, 0x2e, 0x3d, 0x4c}
	n := len(payload)
	var buf bytes.Buffer
	buf.WriteByte(finBit | opcodeText)
	switch {
	case n <= 125:
		buf.WriteByte(maskBit | byte(n))
	case n <= 0xFFFF:
		buf.WriteByte(maskBit | 126)
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(n))
		buf.Write(ext[:])
	default:
		buf.WriteByte(maskBit | 127)
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(n))
		buf.Write(ext[:])
	}
	buf.Write(key[:])
	for i, b := range payload {
		buf.WriteByte(b ^ key[i%4])
	}
	return buf.Bytes()
}

func TestFrameRoundTrip_AllTiers(t *testing.T) {
	sizes := []int{0, 1, 125, 126, 300, 65535, 65536, 70000}
	for _, n := range sizes {
		payload := bytes.Repeat([]byte{0xAB}, n)
		got, err := DecodeFrame(EncodeFrame(payload))
		require.NoError(t, err, "size %d", n)
		assert.Equal(t, payload, got, "size %d", n)
	}
}

func TestFrameRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, 1024).Draw(t, "payload")
		got, err := DecodeFrame(EncodeFrame(payload))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !bytes.Equal(payload, got) {
			t.Fatalf("round trip mismatch: %d bytes in, %d out", len(payload), len(got))
		}
	})
}

func TestDecodeFrame_MaskedClientFrame(t *testing.T) {
	payload := []byte(`{"type":"chat-message","data":{"message":"hi"}}`)
	got, err := DecodeFrame(maskedClientFrame(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecodeFrame_MaskedExtendedTiers(t *testing.T) {
	for _, n := range []int{126, 65535, 65536} {
		payload := bytes.Repeat([]byte{0x5c}, n)
		got, err := DecodeFrame(maskedClientFrame(payload))
		require.NoError(t, err, "size %d", n)
		assert.Equal(t, payload, got, "size %d", n)
	}
}

func TestDecodeFrame_Truncated(t *testing.T) {
	full := EncodeFrame(bytes.Repeat([]byte{0x01}, 300))
	cases := map[string][]byte{
		"empty":           {},
		"header only":     full[:1],
		"missing ext len": full[:3],
		"short payload":   full[:len(full)-10],
	}
	for name, buf := range cases {
		_, err := DecodeFrame(buf)
		assert.ErrorIs(t, err, ErrTruncatedFrame, name)
	}
}

func TestDecodeFrame_DeclaredLengthExceedsAvailable(t *testing.T) {
	// Header claims 125 payload bytes, only 3 follow.
	buf := []byte{finBit | opcodeText, 125, 0x01, 0x02, 0x03}
	_, err := DecodeFrame(buf)
	assert.ErrorIs(t, err, ErrTruncatedFrame)
}

func TestDecodeFrame_RejectsFragmentation(t *testing.T) {
	// FIN clear on a text frame.
	noFin := []byte{opcodeText, 2, 'h', 'i'}
	_, err := DecodeFrame(noFin)
	assert.ErrorIs(t, err, ErrFragmentedFrame)

	// Continuation opcode.
	cont := []byte{finBit | opcodeContinuation, 2, 'h', 'i'}
	_, err = DecodeFrame(cont)
	assert.ErrorIs(t, err, ErrFragmentedFrame)
}

func TestDecodeFrame_RejectsNonTextOpcodes(t *testing.T) {
	binFrame := []byte{finBit | 0x2, 2, 'h', 'i'}
	_, err := DecodeFrame(binFrame)
	assert.ErrorIs(t, err, ErrUnexpectedOpcode)

	ping := []byte{finBit | 0x9, 0}
	_, err = DecodeFrame(ping)
	assert.ErrorIs(t, err, ErrUnexpectedOpcode)
}

func TestDecodeFrame_CloseFrame(t *testing.T) {
	closeFrame := []byte{finBit | opcodeClose, 0}
	_, err := DecodeFrame(closeFrame)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestDecodeFrame_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(finBit | opcodeText)
	buf.WriteByte(127)
	var ext [8]byte
	binary.BigEndian.PutUint64(ext[:], MaxFramePayload+1)
	buf.Write(ext[:])
	_, err := DecodeFrame(buf.Bytes())
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrame_StreamStaysAlignedAfterRejectedFrame(t *testing.T) {
	var stream bytes.Buffer
	stream.Write([]byte{finBit | 0x2, 2, 0xde, 0xad}) // binary, rejected
	stream.Write(EncodeFrame([]byte("next")))

	_, err := ReadFrame(&stream)
	require.ErrorIs(t, err, ErrUnexpectedOpcode)

	got, err := ReadFrame(&stream)
	require.NoError(t, err)
	assert.Equal(t, []byte("next"), got)
}

func TestEncodeFrame_MinimalTier(t *testing.T) {
	assert.Equal(t, byte(125), EncodeFrame(make([]byte, 125))[1])
	assert.Equal(t, byte(126), EncodeFrame(make([]byte, 126))[1])
	assert.Equal(t, byte(127), EncodeFrame(make([]byte, 65536))[1])
	// Outbound frames are never masked.
	assert.Zero(t, EncodeFrame([]byte("x"))[1]&maskBit)
}
