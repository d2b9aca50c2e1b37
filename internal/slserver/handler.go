package slserver

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chronologos/seedlink/internal/ring"
	"github.com/chronologos/seedlink/internal/selector"
	"github.com/chronologos/seedlink/internal/slproto"
	"github.com/chronologos/seedlink/internal/slproto/frame"
)

// State is a connection's position in the command/streaming state machine.
type State int

const (
	StateConnected State = iota
	StateConfigured
	StateStreamingContinuous
	StateStreamingOneShot
	StateTerminated
)

// HandlerConfig carries the server identity strings served by HELLO/INFO ID.
type HandlerConfig struct {
	Software     string
	Version      string
	Organization string
	Started      time.Time
}

// stationSub is one STATION's accumulated SELECT patterns, TIME window, and
// streaming cursor. A record matches if the station matches and, when
// present, at least one pattern matches and the record's timestamp falls
// in the window. DATA/FETCH with a sequence argument set resumeSeq on the
// most recently declared station, same as SELECT/TIME.
type stationSub struct {
	station   slproto.StationKey
	patterns  []selector.SelectPattern
	window    *selector.TimeWindow
	hasResume bool
	resumeSeq slproto.SequenceNumber
}

func (s *stationSub) matches(station slproto.StationKey, payload []byte) bool {
	if !s.station.Equal(station) {
		return false
	}
	if len(s.patterns) > 0 {
		ok := false
		for _, p := range s.patterns {
			if p.MatchesPayload(payload) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if s.window != nil {
		ts, ok := selector.ParseMseedBTime(payload)
		if !ok || !s.window.Contains(ts) {
			return false
		}
	}
	return true
}

// ConnHandler runs the per-connection command loop and, once streaming
// starts, the record-forwarding loop. One ConnHandler is created per
// accepted TCP connection and runs entirely on its own goroutine.
type ConnHandler struct {
	id       string
	conn     net.Conn
	reader   *bufio.Reader
	writer   *bufio.Writer
	ring     *ring.Ring
	registry *ConnectionRegistry
	cfg      HandlerConfig
	log      zerolog.Logger

	state           State
	protocolVersion slproto.ProtocolVersion
	subs            []*stationSub
	userAgent       string
}

// NewConnHandler wraps an accepted connection for the command loop.
func NewConnHandler(conn net.Conn, r *ring.Ring, registry *ConnectionRegistry, cfg HandlerConfig, log zerolog.Logger) *ConnHandler {
	return &ConnHandler{
		conn:            conn,
		reader:          bufio.NewReader(conn),
		writer:          bufio.NewWriter(conn),
		ring:            r,
		registry:        registry,
		cfg:             cfg,
		log:             log,
		protocolVersion: slproto.V3,
	}
}

// Run drives the connection to completion: registers it, reads commands
// until streaming or disconnect, then closes it on return.
func (h *ConnHandler) Run(ctx context.Context) {
	h.id = h.registry.Register(h.conn.RemoteAddr())
	h.log = h.log.With().Str("conn_id", h.id).Logger()
	defer h.registry.Unregister(h.id)
	defer h.conn.Close()

	h.log.Info().Msg("client connected")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := h.reader.ReadString('\n')
		if err != nil {
			if line == "" {
				break
			}
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if err != nil {
				break
			}
			continue
		}

		cmd, perr := slproto.ParseCommand(trimmed)
		if perr != nil {
			keyword := strings.Fields(trimmed)[0]
			h.sendResponse(slproto.Response{Kind: slproto.RespError, HasCode: true, Code: slproto.ErrCodeUnsupported, Message: "unknown command: " + keyword})
			if err != nil {
				break
			}
			continue
		}

		h.log.Debug().Str("command", cmd.Name()).Msg("received command")
		cont := h.handleCommand(ctx, cmd)
		if !cont || err != nil {
			break
		}
	}

	h.log.Info().Msg("client disconnected")
}

func (h *ConnHandler) sendResponse(resp slproto.Response) bool {
	if _, err := h.writer.Write(resp.Bytes()); err != nil {
		return false
	}
	return h.writer.Flush() == nil
}

func (h *ConnHandler) unsupported(name string) bool {
	return h.sendResponse(slproto.Response{Kind: slproto.RespError, HasCode: true, Code: slproto.ErrCodeUnsupported, Message: "unsupported command: " + name})
}

// handleCommand processes one parsed command. It returns false when the
// connection should close (BYE, or after streaming completes).
func (h *ConnHandler) handleCommand(ctx context.Context, cmd slproto.Command) bool {
	if !cmd.IsValidFor(h.protocolVersion) {
		return h.sendResponse(slproto.Response{Kind: slproto.RespError, HasCode: true, Code: slproto.ErrCodeUnsupported, Message: cmd.Name() + " not valid for negotiated protocol version"})
	}

	switch cmd.Kind {
	case slproto.CmdHello:
		return h.sendResponse(slproto.Response{
			Kind:         slproto.RespHello,
			Software:     h.cfg.Software,
			Version:      h.cfg.Version,
			Extra:        ":: SLPROTO:4.0 SLPROTO:3.1",
			Organization: h.cfg.Organization,
		})

	case slproto.CmdSlProto:
		if cmd.ProtoVersionText == "4.0" {
			h.protocolVersion = slproto.V4
			h.registry.Update(h.id, func(info *ConnectionInfo) { info.ProtocolVersion = slproto.V4 })
			return h.sendResponse(slproto.Response{Kind: slproto.RespOk})
		}
		return h.sendResponse(slproto.Response{Kind: slproto.RespError, HasCode: true, Code: slproto.ErrCodeUnsupported, Message: "unsupported protocol version: " + cmd.ProtoVersionText})

	case slproto.CmdStation:
		h.subs = append(h.subs, &stationSub{station: slproto.NewStationKey(cmd.Network, cmd.Station)})
		h.state = StateConfigured
		h.registry.Update(h.id, func(info *ConnectionInfo) { info.State = "Configured" })
		return h.sendResponse(slproto.Response{Kind: slproto.RespOk})

	case slproto.CmdSelect:
		if len(h.subs) == 0 {
			return h.sendResponse(slproto.Response{Kind: slproto.RespError, HasCode: true, Code: slproto.ErrCodeUnexpected, Message: "SELECT requires prior STATION"})
		}
		pat, ok := selector.ParseSelectPattern(cmd.Pattern)
		if !ok {
			return h.sendResponse(slproto.Response{Kind: slproto.RespError, HasCode: true, Code: slproto.ErrCodeArguments, Message: "invalid SELECT pattern: " + cmd.Pattern})
		}
		last := h.subs[len(h.subs)-1]
		last.patterns = append(last.patterns, pat)
		return h.sendResponse(slproto.Response{Kind: slproto.RespOk})

	case slproto.CmdTime:
		if len(h.subs) == 0 {
			return h.sendResponse(slproto.Response{Kind: slproto.RespError, HasCode: true, Code: slproto.ErrCodeUnsupported, Message: "TIME requires prior STATION"})
		}
		tw, ok := selector.ParseTimeWindow(cmd.Start, cmd.End)
		if !ok {
			return h.sendResponse(slproto.Response{Kind: slproto.RespError, HasCode: true, Code: slproto.ErrCodeArguments, Message: "invalid TIME arguments"})
		}
		h.subs[len(h.subs)-1].window = &tw
		return h.sendResponse(slproto.Response{Kind: slproto.RespOk})

	case slproto.CmdData:
		if cmd.HasSequence && len(h.subs) > 0 {
			last := h.subs[len(h.subs)-1]
			last.resumeSeq, last.hasResume = cmd.Sequence, true
		}
		return h.sendResponse(slproto.Response{Kind: slproto.RespOk})

	case slproto.CmdFetch:
		if cmd.HasSequence && len(h.subs) > 0 {
			last := h.subs[len(h.subs)-1]
			last.resumeSeq, last.hasResume = cmd.Sequence, true
		}
		h.state = StateStreamingOneShot
		h.registry.Update(h.id, func(info *ConnectionInfo) { info.State = "Streaming" })
		h.streamFrames(ctx, false)
		return false

	case slproto.CmdEnd:
		h.state = StateStreamingContinuous
		h.registry.Update(h.id, func(info *ConnectionInfo) { info.State = "Streaming" })
		h.streamFrames(ctx, true)
		return false

	case slproto.CmdBye:
		return false

	case slproto.CmdInfo:
		return h.handleInfo(cmd.Level)

	case slproto.CmdUserAgent:
		h.userAgent = cmd.UserAgent
		h.registry.Update(h.id, func(info *ConnectionInfo) { info.UserAgent = cmd.UserAgent })
		return h.sendResponse(slproto.Response{Kind: slproto.RespOk})

	case slproto.CmdBatch, slproto.CmdCat, slproto.CmdAuth, slproto.CmdEndFetch:
		return h.sendResponse(slproto.Response{Kind: slproto.RespOk})

	default:
		return h.unsupported(cmd.Name())
	}
}

// buildFrame renders record as a wire frame for the connection's negotiated
// protocol version.
func (h *ConnHandler) buildFrame(record ring.Record) ([]byte, error) {
	if h.protocolVersion == slproto.V4 {
		stationID := record.Station.String()
		return frame.WriteV4(slproto.MiniSeed2, slproto.SubData, record.Sequence, stationID, record.Payload)
	}
	return frame.WriteV3(record.Sequence, record.Payload)
}

// streamFrames forwards ring records matching h.subs to the client, one
// cursor per subscription so a resume point set on one station never
// affects another's starting point. continuous == true (END) waits for
// new data forever; false (FETCH) sends what's buffered and returns.
func (h *ConnHandler) streamFrames(ctx context.Context, continuous bool) {
	cursors := make(map[*stationSub]slproto.SequenceNumber, len(h.subs))
	for _, s := range h.subs {
		if s.hasResume {
			cursors[s] = s.resumeSeq
		}
	}

	for {
		gen := h.ring.Notify()

		var sent bool
		for _, s := range h.subs {
			records := h.ring.ReadSince(cursors[s], []ring.Subscription{{Station: s.station}})
			for _, r := range records {
				if !s.matches(r.Station, r.Payload) {
					continue
				}
				f, err := h.buildFrame(r)
				if err != nil {
					return
				}
				if _, err := h.writer.Write(f); err != nil {
					return
				}
				sent = true
			}
			if len(records) > 0 {
				cursors[s] = records[len(records)-1].Sequence
			}
		}
		if sent {
			if h.writer.Flush() != nil {
				return
			}
			continue
		}

		if !continuous {
			return
		}

		if err := h.ring.WaitForNew(ctx, gen); err != nil {
			return
		}
	}
}

func (h *ConnHandler) handleInfo(level slproto.InfoLevel) bool {
	var xml string
	switch level {
	case slproto.InfoID:
		xml = buildInfoIDXML(h.cfg.Software+" "+h.cfg.Version, h.cfg.Organization, h.cfg.Started.UTC().Format("2006/01/02 15:04:05"))
	case slproto.InfoStations:
		xml = buildInfoStationsXML(h.ring.Stations())
	case slproto.InfoStreams:
		xml = buildInfoStreamsXML(h.ring.Streams())
	case slproto.InfoConnections:
		xml = buildInfoConnectionsXML(h.registry.Snapshot())
	default:
		return h.sendResponse(slproto.Response{Kind: slproto.RespError, HasCode: true, Code: slproto.ErrCodeUnsupported, Message: "unsupported INFO level: " + level.String()})
	}

	xmlBytes := []byte(xml)

	if h.protocolVersion == slproto.V4 {
		f, err := frame.WriteV4(slproto.Xml, slproto.SubInfo, 0, "", xmlBytes)
		if err != nil || !h.writeRaw(f) {
			return false
		}
	} else {
		for {
			chunk := xmlBytes
			if len(chunk) > frame.V3PayloadLen {
				chunk = chunk[:frame.V3PayloadLen]
			}
			padded := make([]byte, frame.V3PayloadLen)
			copy(padded, chunk)
			f, err := frame.WriteV3(0, padded)
			if err != nil || !h.writeRaw(f) {
				return false
			}
			xmlBytes = xmlBytes[len(chunk):]
			if len(chunk) < frame.V3PayloadLen {
				break
			}
		}
	}

	return h.sendResponse(slproto.Response{Kind: slproto.RespEnd})
}

func (h *ConnHandler) writeRaw(b []byte) bool {
	if _, err := h.writer.Write(b); err != nil {
		return false
	}
	return h.writer.Flush() == nil
}
