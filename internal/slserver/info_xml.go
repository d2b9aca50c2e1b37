package slserver

import (
	"fmt"
	"net"
	"strings"

	"github.com/chronologos/seedlink/internal/ring"
	"github.com/chronologos/seedlink/internal/slproto"
)

func xmlEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// buildInfoIDXML renders the INFO ID response.
func buildInfoIDXML(software, organization, started string) string {
	return fmt.Sprintf(
		"<?xml version=\"1.0\"?>\n<seedlink software=\"%s\" organization=\"%s\" started=\"%s\"/>\n",
		xmlEscape(software), xmlEscape(organization), xmlEscape(started),
	)
}

// buildInfoStationsXML renders the INFO STATIONS response.
func buildInfoStationsXML(stations []ring.StationSummary) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<seedlink>\n")
	for _, s := range stations {
		fmt.Fprintf(&b,
			"  <station name=\"%s\" network=\"%s\" description=\"\" begin_seq=\"%s\" end_seq=\"%s\" stream_check=\"enabled\"/>\n",
			xmlEscape(s.Station.Station), xmlEscape(s.Station.Network), s.OldestSeq.V3Hex(), s.NewestSeq.V3Hex(),
		)
	}
	b.WriteString("</seedlink>\n")
	return b.String()
}

// buildInfoStreamsXML renders the INFO STREAMS response. streams must
// already be grouped by station (ring.Streams sorts them that way); a
// <station> element is opened once and closed when the next stream belongs
// to a different station.
func buildInfoStreamsXML(streams []ring.StreamSummary) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<seedlink>\n")

	var open bool
	var current slproto.StationKey
	for _, s := range streams {
		if !open || !current.Equal(s.Station) {
			if open {
				b.WriteString("  </station>\n")
			}
			fmt.Fprintf(&b, "  <station name=\"%s\" network=\"%s\">\n", xmlEscape(s.Station.Station), xmlEscape(s.Station.Network))
			current = s.Station
			open = true
		}
		fmt.Fprintf(&b,
			"    <stream seedname=\"%s\" location=\"%s\" type=\"%s\" begin_seq=\"%s\" end_seq=\"%s\"/>\n",
			xmlEscape(s.Channel), xmlEscape(s.Location), xmlEscape(s.Type), s.OldestSeq.V3Hex(), s.NewestSeq.V3Hex(),
		)
	}
	if open {
		b.WriteString("  </station>\n")
	}
	b.WriteString("</seedlink>\n")
	return b.String()
}

// buildInfoConnectionsXML renders the INFO CONNECTIONS response.
func buildInfoConnectionsXML(conns []ConnectionInfo) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<seedlink>\n")
	for _, c := range conns {
		host, port := splitHostPort(c.Addr)
		ua := xmlEscape(c.UserAgent)
		fmt.Fprintf(&b,
			"  <connection host=\"%s\" port=\"%s\" ctime=\"%s\" proto=\"%s\" useragent=\"%s\" state=\"%s\"/>\n",
			xmlEscape(host), port, c.ConnectedAt.UTC().Format("2006-01-02 15:04:05"), c.ProtocolVersion.String(), ua, xmlEscape(c.State),
		)
	}
	b.WriteString("</seedlink>\n")
	return b.String()
}

func splitHostPort(addr net.Addr) (host, port string) {
	if addr == nil {
		return "", ""
	}
	h, p, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), ""
	}
	return h, p
}
