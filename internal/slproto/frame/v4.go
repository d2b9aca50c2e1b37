package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/chronologos/seedlink/internal/slproto"
)

const (
	V4Signature   = "SE"
	V4MinHeaderLen = 17 // 2 sig + 1 fmt + 1 subfmt + 4 payload-len + 8 seq + 1 station-id-len
)

// ParseV4 parses a variable-length v4 frame from the start of data,
// returning the parsed frame and the number of bytes consumed.
func ParseV4(data []byte) (V4, int, error) {
	if len(data) < V4MinHeaderLen {
		return V4{}, 0, fmt.Errorf("%w: want at least %d bytes, got %d", slproto.ErrFrameTooShort, V4MinHeaderLen, len(data))
	}
	if string(data[0:2]) != V4Signature {
		return V4{}, 0, fmt.Errorf("%w: want %q, got %q", slproto.ErrInvalidSignature, V4Signature, data[0:2])
	}

	format, err := slproto.ParsePayloadFormat(data[2])
	if err != nil {
		return V4{}, 0, err
	}
	subformat, err := slproto.ParsePayloadSubformat(data[3])
	if err != nil {
		return V4{}, 0, err
	}

	payloadLen := int(binary.LittleEndian.Uint32(data[4:8]))
	sequence := slproto.SequenceFromV4LEBytes(data[8:16])
	stationIDLen := int(data[16])

	headerLen := V4MinHeaderLen + stationIDLen
	totalLen := headerLen + payloadLen
	if len(data) < totalLen {
		return V4{}, 0, fmt.Errorf("%w: header declares %d bytes, got %d", slproto.ErrPayloadLengthMismatch, totalLen, len(data))
	}

	stationID := string(data[V4MinHeaderLen : V4MinHeaderLen+stationIDLen])
	payload := make([]byte, payloadLen)
	copy(payload, data[headerLen:totalLen])

	return V4{
		Format:    format,
		Subformat: subformat,
		Sequence:  sequence,
		StationID: stationID,
		Payload:   payload,
	}, totalLen, nil
}

// WriteV4 renders a v4 frame.
func WriteV4(format slproto.PayloadFormat, subformat slproto.PayloadSubformat, sequence slproto.SequenceNumber, stationID string, payload []byte) ([]byte, error) {
	stationIDBytes := []byte(stationID)
	if len(stationIDBytes) > 255 {
		return nil, fmt.Errorf("%w: station id too long (%d bytes)", slproto.ErrInvalidCommand, len(stationIDBytes))
	}
	headerLen := V4MinHeaderLen + len(stationIDBytes)
	totalLen := headerLen + len(payload)

	out := make([]byte, 0, totalLen)
	out = append(out, V4Signature...)
	out = append(out, format.Byte(), subformat.Byte())

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	out = append(out, lenBuf[:]...)

	seqBytes := sequence.V4LEBytes()
	out = append(out, seqBytes[:]...)

	out = append(out, byte(len(stationIDBytes)))
	out = append(out, stationIDBytes...)
	out = append(out, payload...)

	return out, nil
}
