package slproto

import (
	"fmt"
	"strings"
)

// InfoLevel is the detail level requested by an INFO command. The core
// serves ID/STATIONS/STREAMS/CONNECTIONS; GAPS/ALL/FORMATS/CAPABILITIES
// parse and version-gate correctly but are rejected by the handler with
// ERROR UNSUPPORTED (spec.md explicitly excludes them as served features,
// not as wire-level syntax).
type InfoLevel int

const (
	InfoID InfoLevel = iota
	InfoStations
	InfoStreams
	InfoConnections
	InfoGaps
	InfoAll
	InfoFormats
	InfoCapabilities
)

func ParseInfoLevel(s string) (InfoLevel, error) {
	switch strings.ToUpper(s) {
	case "ID":
		return InfoID, nil
	case "STATIONS":
		return InfoStations, nil
	case "STREAMS":
		return InfoStreams, nil
	case "CONNECTIONS":
		return InfoConnections, nil
	case "GAPS":
		return InfoGaps, nil
	case "ALL":
		return InfoAll, nil
	case "FORMATS":
		return InfoFormats, nil
	case "CAPABILITIES":
		return InfoCapabilities, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidInfoLevel, s)
	}
}

func (l InfoLevel) String() string {
	switch l {
	case InfoID:
		return "ID"
	case InfoStations:
		return "STATIONS"
	case InfoStreams:
		return "STREAMS"
	case InfoConnections:
		return "CONNECTIONS"
	case InfoGaps:
		return "GAPS"
	case InfoAll:
		return "ALL"
	case InfoFormats:
		return "FORMATS"
	case InfoCapabilities:
		return "CAPABILITIES"
	default:
		return "UNKNOWN"
	}
}

// IsValidFor reports whether l may be requested on the given protocol
// version: ID/STATIONS/STREAMS/CONNECTIONS work on both; GAPS/ALL are
// v3-only; FORMATS/CAPABILITIES are v4-only.
func (l InfoLevel) IsValidFor(v ProtocolVersion) bool {
	switch l {
	case InfoGaps, InfoAll:
		return v == V3
	case InfoFormats, InfoCapabilities:
		return v == V4
	default:
		return true
	}
}

// Served reports whether the handler actually serves this level (the
// core implements ID/STATIONS/STREAMS/CONNECTIONS only).
func (l InfoLevel) Served() bool {
	switch l {
	case InfoID, InfoStations, InfoStreams, InfoConnections:
		return true
	default:
		return false
	}
}
