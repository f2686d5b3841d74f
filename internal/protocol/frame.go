package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// MaxFramePayload caps a single frame's payload. Anything larger than
// this would have to be fragmented, which the transport does not support.
const MaxFramePayload = 1 << 20 // 1 MiB

const (
	opcodeContinuation = 0x0
	opcodeText         = 0x1
	opcodeClose        = 0x8

	finBit  = 0x80
	maskBit = 0x80
)

var (
	// ErrTruncatedFrame means the declared length exceeds the bytes available.
	ErrTruncatedFrame = errors.New("truncated frame")
	// ErrFragmentedFrame means FIN was clear or a continuation opcode arrived.
	// Multi-frame messages are rejected, not reassembled.
	ErrFragmentedFrame = errors.New("fragmented frames not supported")
	// ErrUnexpectedOpcode covers every non-text data opcode.
	ErrUnexpectedOpcode = errors.New("unexpected opcode, only text frames accepted")
	// ErrFrameTooLarge means the declared payload exceeds MaxFramePayload.
	ErrFrameTooLarge = errors.New("frame payload exceeds maximum allowed size")
	// ErrConnectionClosed is returned for a close frame so the caller can
	// run its normal disconnect path.
	ErrConnectionClosed = errors.New("peer sent close frame")
)

// ReadFrame reads exactly one frame from r and returns its unmasked text
// payload. Client frames are expected masked per the protocol, but
// unmasked inbound frames are tolerated. A short read anywhere inside
// the frame yields ErrTruncatedFrame, never an out-of-bounds access.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, truncated(err)
	}

	fin := hdr[0]&finBit != 0
	opcode := hdr[0] & 0x0F
	masked := hdr[1]&maskBit != 0
	length := uint64(hdr[1] & 0x7F)

	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, truncated(err)
		}
		length = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, truncated(err)
		}
		length = binary.BigEndian.Uint64(ext[:])
	}
	if length > MaxFramePayload {
		return nil, ErrFrameTooLarge
	}

	var maskKey [4]byte
	if masked {
		if _, err := io.ReadFull(r, maskKey[:]); err != nil {
			return nil, truncated(err)
		}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, truncated(err)
	}

	// The frame is fully consumed before any rejection, so a caller on a
	// stream stays aligned and can keep the connection open.
	switch opcode {
	case opcodeText:
	case opcodeContinuation:
		return nil, ErrFragmentedFrame
	case opcodeClose:
		return nil, ErrConnectionClosed
	default:
		return nil, ErrUnexpectedOpcode
	}
	if !fin {
		return nil, ErrFragmentedFrame
	}

	if masked {
		for i := range payload {
			payload[i] ^= maskKey[i%4]
		}
	}
	return payload, nil
}

// DecodeFrame parses a complete frame held in buf. It is ReadFrame over
// an in-memory buffer; trailing bytes after the frame are ignored.
func DecodeFrame(buf []byte) ([]byte, error) {
	return ReadFrame(bytes.NewReader(buf))
}

// EncodeFrame serializes payload as a single final text frame using the
// minimal length tier. Server-to-client frames are never masked.
func EncodeFrame(payload []byte) []byte {
	n := len(payload)
	var hdr [10]byte
	hdr[0] = finBit | opcodeText

	var header []byte
	switch {
	case n <= 125:
		hdr[1] = byte(n)
		header = hdr[:2]
	case n <= 0xFFFF:
		hdr[1] = 126
		binary.BigEndian.PutUint16(hdr[2:4], uint16(n))
		header = hdr[:4]
	default:
		hdr[1] = 127
		binary.BigEndian.PutUint64(hdr[2:10], uint64(n))
		header = hdr[:10]
	}

	out := make([]byte, 0, len(header)+n)
	out = append(out, header...)
	return append(out, payload...)
}

// WriteFrame encodes payload and writes the whole frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	_, err := w.Write(EncodeFrame(payload))
	return err
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedFrame
	}
	return err
}
