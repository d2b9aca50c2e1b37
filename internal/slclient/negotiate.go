package slclient

import "strings"

// ParseCapabilities extracts the capability tokens from the `extra` field
// of a HELLO response. The extra field may carry a "::" separator before
// the capability list (e.g. "(2020.075) :: SLPROTO:4.0 SLPROTO:3.1"), or
// may already be stripped down to bare tokens.
func ParseCapabilities(extra string) []string {
	if idx := strings.Index(extra, "::"); idx >= 0 {
		right := strings.TrimSpace(extra[idx+2:])
		if right == "" {
			return nil
		}
		return strings.Fields(right)
	}

	var tokens []string
	for _, tok := range strings.Fields(extra) {
		if strings.Contains(tok, ":") {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// SupportsV4 reports whether capabilities advertise SeedLink v4 support.
func SupportsV4(capabilities []string) bool {
	for _, c := range capabilities {
		if c == "SLPROTO:4.0" {
			return true
		}
	}
	return false
}
