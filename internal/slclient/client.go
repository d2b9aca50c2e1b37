// Package slclient implements a synchronous SeedLink client: connect,
// negotiate v3/v4, configure station/channel/time subscriptions, and read
// the resulting frame stream.
package slclient

import (
	"time"

	"github.com/chronologos/seedlink/internal/slproto"
)

// ClientState is the client-side connection state machine:
// Disconnected -> Connected -> Configured -> Streaming -> Disconnected.
type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnected
	StateConfigured
	StateStreaming
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnected:
		return "Connected"
	case StateConfigured:
		return "Configured"
	case StateStreaming:
		return "Streaming"
	default:
		return "Unknown"
	}
}

// Config configures a Client's connection behavior.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	PreferV4       bool
}

// DefaultConfig returns the client's default timeouts, matching the
// teacher stack's convention of a small typed defaults constructor rather
// than zero-value struct literals scattered at call sites.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
		PreferV4:       true,
	}
}

// ServerInfo captures the server identity parsed out of HELLO.
type ServerInfo struct {
	Software     string
	Version      string
	Organization string
	Capabilities []string
}

// Client is a synchronous SeedLink client connection.
type Client struct {
	conn       *connection
	state      ClientState
	version    slproto.ProtocolVersion
	serverInfo ServerInfo
	sequences  map[slproto.StationKey]slproto.SequenceNumber
	cfg        Config
}

// Connect dials addr with default configuration.
func Connect(addr string) (*Client, error) {
	return ConnectWithConfig(addr, DefaultConfig())
}

// ConnectWithConfig dials addr, sends HELLO, and negotiates SLPROTO 4.0
// when cfg.PreferV4 is set and the server advertises support for it. On
// success the client is in StateConnected.
func ConnectWithConfig(addr string, cfg Config) (*Client, error) {
	conn, err := dial(addr, cfg.ConnectTimeout, cfg.ReadTimeout)
	if err != nil {
		return nil, err
	}

	if err := conn.sendCommand(slproto.Command{Kind: slproto.CmdHello}, slproto.V3); err != nil {
		conn.close()
		return nil, err
	}

	line1, err := conn.readLine()
	if err != nil {
		conn.close()
		return nil, err
	}
	line2, err := conn.readLine()
	if err != nil {
		conn.close()
		return nil, err
	}

	hello, err := slproto.ParseHello(line1, line2)
	if err != nil {
		conn.close()
		return nil, err
	}
	if hello.Kind != slproto.RespHello {
		conn.close()
		return nil, &UnexpectedResponseError{Detail: "expected HELLO response"}
	}

	capabilities := ParseCapabilities(hello.Extra)
	version := slproto.V3

	if cfg.PreferV4 && SupportsV4(capabilities) {
		if err := conn.sendCommand(slproto.Command{Kind: slproto.CmdSlProto, ProtoVersionText: "4.0"}, slproto.V4); err != nil {
			conn.close()
			return nil, err
		}
		respLine, err := conn.readLine()
		if err != nil {
			conn.close()
			return nil, err
		}
		resp, err := slproto.ParseLine(respLine)
		if err != nil {
			conn.close()
			return nil, err
		}
		switch resp.Kind {
		case slproto.RespOk:
			version = slproto.V4
		case slproto.RespError:
			// Fall back to v3; the server understood SLPROTO but declined 4.0.
		default:
			conn.close()
			return nil, &UnexpectedResponseError{Detail: "expected OK or ERROR for SLPROTO, got: " + respLine}
		}
	}

	return &Client{
		conn:    conn,
		state:   StateConnected,
		version: version,
		serverInfo: ServerInfo{
			Software:     hello.Software,
			Version:      hello.Version,
			Organization: hello.Organization,
			Capabilities: capabilities,
		},
		sequences: make(map[slproto.StationKey]slproto.SequenceNumber),
		cfg:       cfg,
	}, nil
}

// Version returns the negotiated protocol version.
func (c *Client) Version() slproto.ProtocolVersion { return c.version }

// ServerInfo returns the server identity parsed from HELLO.
func (c *Client) ServerInfo() ServerInfo { return c.serverInfo }

// State returns the current client state.
func (c *Client) State() ClientState { return c.state }

// Config returns the configuration used for this connection.
func (c *Client) Config() Config { return c.cfg }

// Station subscribes to a station/network pair. Requires Connected or
// Configured; transitions to Configured.
func (c *Client) Station(station, network string) error {
	if err := c.requireStateIn(StateConnected, StateConfigured); err != nil {
		return err
	}
	cmd := slproto.Command{Kind: slproto.CmdStation, Station: station, Network: network}
	if err := c.conn.sendCommand(cmd, c.version); err != nil {
		return err
	}
	if err := c.readOKResponse("STATION"); err != nil {
		return err
	}
	c.state = StateConfigured
	return nil
}

// Select narrows the current station subscription to a channel pattern
// (e.g. "BHZ", "00BHZ"). Requires Connected or Configured; transitions
// to Configured.
func (c *Client) Select(pattern string) error {
	if err := c.requireStateIn(StateConnected, StateConfigured); err != nil {
		return err
	}
	cmd := slproto.Command{Kind: slproto.CmdSelect, Pattern: pattern}
	if err := c.conn.sendCommand(cmd, c.version); err != nil {
		return err
	}
	if err := c.readOKResponse("SELECT"); err != nil {
		return err
	}
	c.state = StateConfigured
	return nil
}

// UserAgent sends the client's identifying string to the server (SLPROTO
// 4.0 only). Valid in any state.
func (c *Client) UserAgent(name string) error {
	cmd := slproto.Command{Kind: slproto.CmdUserAgent, UserAgent: name}
	if err := c.conn.sendCommand(cmd, c.version); err != nil {
		return err
	}
	return c.readOKResponse("USERAGENT")
}

// Data arms the current station with DATA, streaming from the ring's
// current tail. Requires Configured; state stays Configured until End or
// Fetch starts the transfer.
func (c *Client) Data() error {
	return c.dataCmd(slproto.Command{Kind: slproto.CmdData})
}

// DataFrom arms the current station with DATA, resuming after sequence.
// Requires Configured; state stays Configured.
func (c *Client) DataFrom(sequence slproto.SequenceNumber) error {
	return c.dataCmd(slproto.Command{Kind: slproto.CmdData, Sequence: sequence, HasSequence: true})
}

func (c *Client) dataCmd(cmd slproto.Command) error {
	if err := c.requireStateIn(StateConfigured); err != nil {
		return err
	}
	if err := c.conn.sendCommand(cmd, c.version); err != nil {
		return err
	}
	return c.readOKResponse("DATA")
}

// TimeWindow arms the current station with a TIME start/end filter,
// "YYYY,M,D,h,m,s" formatted. end may be empty for an open-ended window.
// Requires Configured; state stays Configured.
func (c *Client) TimeWindow(start, end string) error {
	if err := c.requireStateIn(StateConfigured); err != nil {
		return err
	}
	cmd := slproto.Command{Kind: slproto.CmdTime, Start: start, End: end}
	if err := c.conn.sendCommand(cmd, c.version); err != nil {
		return err
	}
	return c.readOKResponse("TIME")
}

// EndStream sends END, starting continuous binary streaming immediately
// (no text response). Requires Configured; transitions to Streaming.
func (c *Client) EndStream() error {
	if err := c.requireStateIn(StateConfigured); err != nil {
		return err
	}
	if err := c.conn.sendCommand(slproto.Command{Kind: slproto.CmdEnd}, c.version); err != nil {
		return err
	}
	c.state = StateStreaming
	return nil
}

// Fetch sends FETCH, streaming only what the server has buffered before it
// closes the connection. Requires Configured; transitions to Streaming.
func (c *Client) Fetch() error {
	return c.fetchCmd(slproto.Command{Kind: slproto.CmdFetch})
}

// FetchFrom sends FETCH resuming after sequence. Requires Configured;
// transitions to Streaming.
func (c *Client) FetchFrom(sequence slproto.SequenceNumber) error {
	return c.fetchCmd(slproto.Command{Kind: slproto.CmdFetch, Sequence: sequence, HasSequence: true})
}

func (c *Client) fetchCmd(cmd slproto.Command) error {
	if err := c.requireStateIn(StateConfigured); err != nil {
		return err
	}
	if err := c.conn.sendCommand(cmd, c.version); err != nil {
		return err
	}
	c.state = StateStreaming
	return nil
}

// NextFrame reads the next binary frame. Returns (nil, nil) on a clean
// server-initiated close, transitioning to Disconnected. Requires
// Streaming.
func (c *Client) NextFrame() (*OwnedFrame, error) {
	if err := c.requireStateIn(StateStreaming); err != nil {
		return nil, err
	}

	var frame OwnedFrame
	var err error
	if c.version == slproto.V4 {
		frame, err = c.conn.readV4Frame()
	} else {
		frame, err = c.conn.readV3Frame()
	}

	if err != nil {
		if err == ErrDisconnected {
			c.state = StateDisconnected
			return nil, nil
		}
		return nil, err
	}

	c.trackSequence(frame)
	return &frame, nil
}

// Info requests server metadata at the given level and returns the
// resulting binary frames (typically XML payloads), collected until the
// server sends a terminating text line. Valid in any state.
func (c *Client) Info(level slproto.InfoLevel) ([]OwnedFrame, error) {
	cmd := slproto.Command{Kind: slproto.CmdInfo, Level: level}
	if err := c.conn.sendCommand(cmd, c.version); err != nil {
		return nil, err
	}

	var frames []OwnedFrame
	for {
		tag, err := c.conn.readTag()
		if err != nil {
			return frames, err
		}
		switch {
		case tag[0] == 'S' && tag[1] == 'L':
			f, err := c.conn.readV3FrameWithTag(tag)
			if err != nil {
				return frames, err
			}
			frames = append(frames, f)
		case tag[0] == 'S' && tag[1] == 'E':
			f, err := c.conn.readV4FrameWithTag(tag)
			if err != nil {
				return frames, err
			}
			frames = append(frames, f)
		default:
			if _, err := c.conn.readLineWithPrefix(tag); err != nil {
				return frames, err
			}
			return frames, nil
		}
	}
}

// Bye sends BYE and closes the connection. Transitions to Disconnected.
// Valid in any state.
func (c *Client) Bye() error {
	err := c.conn.sendCommand(slproto.Command{Kind: slproto.CmdBye}, c.version)
	c.conn.close()
	c.state = StateDisconnected
	return err
}

// LastSequence returns the most recently observed sequence number for a
// network/station pair, or (0, false) if no frame has been seen yet.
func (c *Client) LastSequence(network, station string) (slproto.SequenceNumber, bool) {
	seq, ok := c.sequences[slproto.NewStationKey(network, station)]
	return seq, ok
}

// Sequences returns the full set of tracked per-station sequence numbers.
func (c *Client) Sequences() map[slproto.StationKey]slproto.SequenceNumber {
	return c.sequences
}

func (c *Client) requireStateIn(allowed ...ClientState) error {
	for _, s := range allowed {
		if c.state == s {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = s.String()
	}
	expected := names[0]
	for _, n := range names[1:] {
		expected += "|" + n
	}
	return &InvalidStateError{Expected: expected, Actual: c.state.String()}
}

func (c *Client) readOKResponse(commandName string) error {
	line, err := c.conn.readLine()
	if err != nil {
		return err
	}
	resp, err := slproto.ParseLine(line)
	if err != nil {
		return err
	}
	switch resp.Kind {
	case slproto.RespOk:
		return nil
	case slproto.RespError:
		msg := resp.Message
		if resp.HasCode {
			msg = resp.Code.String() + " " + resp.Message
		}
		return &ServerError{Command: commandName, Message: msg}
	default:
		return &UnexpectedResponseError{Detail: "expected OK for " + commandName + ", got: " + line}
	}
}

func (c *Client) trackSequence(frame OwnedFrame) {
	key, ok := frame.StationKey()
	if !ok {
		return
	}
	c.sequences[key] = frame.Sequence
}
