package frame

import (
	"fmt"

	"github.com/chronologos/seedlink/internal/slproto"
)

const (
	V3Signature = "SL"
	V3HeaderLen = 8
	V3PayloadLen = 512
	V3FrameLen   = 520
)

// ParseV3 parses a fixed 520-byte v3 frame.
func ParseV3(data []byte) (V3, error) {
	if len(data) < V3FrameLen {
		return V3{}, fmt.Errorf("%w: want %d bytes, got %d", slproto.ErrFrameTooShort, V3FrameLen, len(data))
	}
	if string(data[0:2]) != V3Signature {
		return V3{}, fmt.Errorf("%w: want %q, got %q", slproto.ErrInvalidSignature, V3Signature, data[0:2])
	}
	seq, err := slproto.ParseV3Hex(string(data[2:8]))
	if err != nil {
		return V3{}, err
	}
	payload := make([]byte, V3PayloadLen)
	copy(payload, data[V3HeaderLen:V3FrameLen])
	return V3{Sequence: seq, Payload: payload}, nil
}

// WriteV3 renders a 520-byte v3 frame. payload must be exactly V3PayloadLen bytes.
func WriteV3(sequence slproto.SequenceNumber, payload []byte) ([]byte, error) {
	if len(payload) != V3PayloadLen {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", slproto.ErrPayloadLengthMismatch, V3PayloadLen, len(payload))
	}
	out := make([]byte, 0, V3FrameLen)
	out = append(out, V3Signature...)
	out = append(out, sequence.V3Hex()...)
	out = append(out, payload...)
	return out, nil
}
