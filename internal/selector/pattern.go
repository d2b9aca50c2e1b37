// Package selector implements SeedLink SELECT pattern matching and TIME
// window filtering against miniSEED v2 payloads.
package selector

// patternChar is a single matched byte in a SelectPattern: either a
// literal or the '?' wildcard.
type patternChar struct {
	literal  byte
	wildcard bool
}

func (c patternChar) matches(b byte) bool {
	return c.wildcard || c.literal == b
}

func newPatternChar(b byte) patternChar {
	if b == '?' {
		return patternChar{wildcard: true}
	}
	return patternChar{literal: b}
}

// SelectPattern is a parsed SELECT argument: an optional 2-char location
// code, a required 3-char channel code, and an optional type/quality
// suffix (".T").
type SelectPattern struct {
	hasLocation bool
	location    [2]patternChar
	channel     [3]patternChar
	hasType     bool
	typeCode    patternChar
}

// ParseSelectPattern parses a SELECT pattern string of the form
// "[LL]CCC[.T]" (no dot between location and channel). ok is false for an
// unparseable pattern.
func ParseSelectPattern(pattern string) (p SelectPattern, ok bool) {
	if pattern == "" {
		return SelectPattern{}, false
	}
	b := []byte(pattern)

	main := b
	if len(b) >= 2 && b[len(b)-2] == '.' {
		p.hasType = true
		p.typeCode = newPatternChar(b[len(b)-1])
		main = b[:len(b)-2]
	}

	switch len(main) {
	case 0:
		return SelectPattern{}, false
	case 1:
		// "Z" -> "??Z"
		p.channel = [3]patternChar{{wildcard: true}, {wildcard: true}, newPatternChar(main[0])}
	case 2:
		// "HZ" -> "?HZ"
		p.channel = [3]patternChar{{wildcard: true}, newPatternChar(main[0]), newPatternChar(main[1])}
	case 3:
		p.channel = [3]patternChar{newPatternChar(main[0]), newPatternChar(main[1]), newPatternChar(main[2])}
	case 5:
		p.hasLocation = true
		p.location = [2]patternChar{newPatternChar(main[0]), newPatternChar(main[1])}
		p.channel = [3]patternChar{newPatternChar(main[2]), newPatternChar(main[3]), newPatternChar(main[4])}
	default:
		// len == 4 or len > 5: last 3 chars are the channel, the rest is location.
		if len(main) < 3 {
			return SelectPattern{}, false
		}
		split := len(main) - 3
		locBytes := main[:split]
		chBytes := main[split:]
		p.hasLocation = true
		if len(locBytes) >= 2 {
			p.location = [2]patternChar{newPatternChar(locBytes[0]), newPatternChar(locBytes[1])}
		} else {
			p.location = [2]patternChar{{wildcard: true}, newPatternChar(locBytes[0])}
		}
		p.channel = [3]patternChar{newPatternChar(chBytes[0]), newPatternChar(chBytes[1]), newPatternChar(chBytes[2])}
	}

	return p, true
}

// StreamID decodes the stream identity out of a miniSEED v2 payload's
// fixed header: byte 6 is the quality/type indicator, bytes 13-14 the
// location code, bytes 15-17 the channel code. ok is false if payload is
// too short to hold a fixed header.
func StreamID(payload []byte) (location, channel, typeCode string, ok bool) {
	if len(payload) < 20 {
		return "", "", "", false
	}
	return string(payload[13:15]), string(payload[15:18]), string(payload[6]), true
}

// MatchesPayload checks whether p matches a miniSEED v2 payload's fixed
// header fields: byte 6 is the quality/type indicator, bytes 13-14 the
// location code, bytes 15-17 the channel code.
func (p SelectPattern) MatchesPayload(payload []byte) bool {
	if len(payload) < 20 {
		return false
	}
	if !p.channel[0].matches(payload[15]) || !p.channel[1].matches(payload[16]) || !p.channel[2].matches(payload[17]) {
		return false
	}
	if p.hasLocation {
		if !p.location[0].matches(payload[13]) || !p.location[1].matches(payload[14]) {
			return false
		}
	}
	if p.hasType && !p.typeCode.matches(payload[6]) {
		return false
	}
	return true
}
