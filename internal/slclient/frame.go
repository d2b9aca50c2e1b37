package slclient

import (
	"strings"

	"github.com/chronologos/seedlink/internal/slproto"
	"github.com/chronologos/seedlink/internal/slproto/frame"
)

// OwnedFrame is a SeedLink frame with its payload copied off the
// connection's read buffer, safe to hold onto after the next read.
type OwnedFrame struct {
	V4       bool
	Sequence slproto.SequenceNumber
	Payload  []byte

	// V4-only fields.
	Format    slproto.PayloadFormat
	Subformat slproto.PayloadSubformat
	StationID string
}

func ownedFromV3(v frame.V3) OwnedFrame {
	payload := make([]byte, len(v.Payload))
	copy(payload, v.Payload)
	return OwnedFrame{Sequence: v.Sequence, Payload: payload}
}

func ownedFromV4(v frame.V4) OwnedFrame {
	payload := make([]byte, len(v.Payload))
	copy(payload, v.Payload)
	return OwnedFrame{
		V4:        true,
		Sequence:  v.Sequence,
		Payload:   payload,
		Format:    v.Format,
		Subformat: v.Subformat,
		StationID: v.StationID,
	}
}

// StationKey extracts the network/station identity carried by the frame.
//
// For v3 frames this reads the fixed miniSEED v2 header fields (station at
// bytes 8-12, network at bytes 18-19). For v4 frames it splits StationID on
// the first underscore. Returns false if the identity can't be read.
func (f OwnedFrame) StationKey() (slproto.StationKey, bool) {
	if f.V4 {
		parts := strings.SplitN(f.StationID, "_", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return slproto.StationKey{}, false
		}
		return slproto.NewStationKey(parts[0], parts[1]), true
	}

	if len(f.Payload) < 20 {
		return slproto.StationKey{}, false
	}
	station := strings.TrimSpace(string(f.Payload[8:13]))
	network := strings.TrimSpace(string(f.Payload[18:20]))
	if station == "" || network == "" {
		return slproto.StationKey{}, false
	}
	return slproto.NewStationKey(network, station), true
}
