package slproto

// ProtocolVersion selects which wire format a connection uses. It is
// negotiated once during handshake and immutable afterward.
type ProtocolVersion int

const (
	V3 ProtocolVersion = iota
	V4
)

func (v ProtocolVersion) String() string {
	if v == V4 {
		return "4.0"
	}
	return "3.1"
}
