// Package frame implements the SeedLink v3 and v4 miniSEED-carrying wire
// frames, layered on top of the sequence and payload types in slproto.
package frame

import "github.com/chronologos/seedlink/internal/slproto"

// V3 is a fixed-length SeedLink v3 frame: 2-byte "SL" signature, a 6-hex-digit
// ASCII sequence, and a 512-byte payload.
type V3 struct {
	Sequence slproto.SequenceNumber
	Payload  []byte
}

// V4 is a variable-length SeedLink v4 frame carrying a format/subformat tag,
// a station identifier, and an arbitrary-length payload.
type V4 struct {
	Format     slproto.PayloadFormat
	Subformat  slproto.PayloadSubformat
	Sequence   slproto.SequenceNumber
	StationID  string
	Payload    []byte
}
