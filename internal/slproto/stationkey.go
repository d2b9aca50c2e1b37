package slproto

import "strings"

// StationKey identifies a station by network and station codes.
// Comparisons are case-insensitive, matching the wire convention that
// codes are always uppercased on output.
type StationKey struct {
	Network string
	Station string
}

func NewStationKey(network, station string) StationKey {
	return StationKey{
		Network: strings.ToUpper(network),
		Station: strings.ToUpper(station),
	}
}

func (k StationKey) Equal(other StationKey) bool {
	return strings.EqualFold(k.Network, other.Network) && strings.EqualFold(k.Station, other.Station)
}

func (k StationKey) String() string {
	return k.Network + "_" + k.Station
}
