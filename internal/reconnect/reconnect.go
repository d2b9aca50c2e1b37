// Package reconnect wraps slclient.Client with automatic reconnect,
// subscription replay, and sequence deduplication across reconnects.
package reconnect

import (
	"time"

	"github.com/chronologos/seedlink/internal/slclient"
	"github.com/chronologos/seedlink/internal/slproto"
)

// Config controls exponential backoff between reconnect attempts.
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// MaxAttempts caps reconnect attempts per disconnect; 0 means unlimited.
	MaxAttempts uint32
}

// DefaultConfig matches the teacher's convention of a small typed
// defaults constructor for tunable knobs.
func DefaultConfig() Config {
	return Config{
		InitialBackoff: time.Second,
		MaxBackoff:     60 * time.Second,
		Multiplier:     2.0,
		MaxAttempts:    0,
	}
}

func (c Config) next(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * c.Multiplier)
	if next > c.MaxBackoff {
		return c.MaxBackoff
	}
	return next
}

// FailedError is returned when reconnect attempts are exhausted.
type FailedError struct {
	Attempts uint32
}

func (e *FailedError) Error() string {
	return "reconnect: failed after exhausting attempts"
}

type stepKind int

const (
	stepStation stepKind = iota
	stepSelect
	stepData
	stepDataFrom
	stepTimeWindow
	stepUserAgent
)

// step records one subscription-shaping call for replay on reconnect.
type step struct {
	kind      stepKind
	station   string
	network   string
	pattern   string
	sequence  slproto.SequenceNumber
	start     string
	end       string
	userAgent string
}

// Client wraps slclient.Client, transparently reconnecting on EOF and
// replaying the recorded subscription steps, resuming each station from
// its last observed sequence.
type Client struct {
	addr         string
	clientConfig slclient.Config
	reconnect    Config

	steps  []step
	client *slclient.Client

	sequences map[slproto.StationKey]slproto.SequenceNumber
}

// Connect dials addr with default client and reconnect configuration.
func Connect(addr string) (*Client, error) {
	return ConnectWithConfig(addr, slclient.DefaultConfig(), DefaultConfig())
}

// ConnectWithConfig dials addr with explicit client and reconnect
// configuration.
func ConnectWithConfig(addr string, clientConfig slclient.Config, reconnect Config) (*Client, error) {
	c, err := slclient.ConnectWithConfig(addr, clientConfig)
	if err != nil {
		return nil, err
	}
	return &Client{
		addr:         addr,
		clientConfig: clientConfig,
		reconnect:    reconnect,
		client:       c,
		sequences:    make(map[slproto.StationKey]slproto.SequenceNumber),
	}, nil
}

// Station subscribes to a station/network pair and records the step for
// replay on reconnect.
func (c *Client) Station(station, network string) error {
	c.steps = append(c.steps, step{kind: stepStation, station: station, network: network})
	return c.client.Station(station, network)
}

// Select narrows the current subscription and records the step for
// replay on reconnect.
func (c *Client) Select(pattern string) error {
	c.steps = append(c.steps, step{kind: stepSelect, pattern: pattern})
	return c.client.Select(pattern)
}

// Data arms the current station with DATA and records the step for
// replay on reconnect.
func (c *Client) Data() error {
	c.steps = append(c.steps, step{kind: stepData})
	return c.client.Data()
}

// DataFrom arms the current station with DATA from sequence and records
// the step for replay on reconnect.
func (c *Client) DataFrom(sequence slproto.SequenceNumber) error {
	c.steps = append(c.steps, step{kind: stepDataFrom, sequence: sequence})
	return c.client.DataFrom(sequence)
}

// TimeWindow arms the current station with a TIME filter and records the
// step for replay on reconnect.
func (c *Client) TimeWindow(start, end string) error {
	c.steps = append(c.steps, step{kind: stepTimeWindow, start: start, end: end})
	return c.client.TimeWindow(start, end)
}

// UserAgent sends the client's identifying string and records the step
// for replay on reconnect.
func (c *Client) UserAgent(name string) error {
	c.steps = append(c.steps, step{kind: stepUserAgent, userAgent: name})
	return c.client.UserAgent(name)
}

// EndStream starts streaming. Not recorded — replay always re-arms with
// END after replaying subscriptions.
func (c *Client) EndStream() error {
	return c.client.EndStream()
}

// NextFrame reads the next frame, transparently reconnecting on EOF.
// Frames at or below the last tracked sequence for their station are
// silently dropped (a server may resend the frame at a resumed sequence).
// When reconnect attempts are exhausted after a disconnect it returns a
// *FailedError; any other read error is returned unchanged. It never
// returns (nil, nil).
func (c *Client) NextFrame() (*slclient.OwnedFrame, error) {
	for {
		frame, err := c.client.NextFrame()
		if err != nil {
			return nil, err
		}
		if frame != nil {
			if key, ok := frame.StationKey(); ok {
				if tracked, seen := c.sequences[key]; seen && frame.Sequence <= tracked {
					continue
				}
			}
			c.syncSequences()
			return frame, nil
		}

		// EOF — attempt reconnect and replay.
		if err := c.attemptReconnect(); err != nil {
			return nil, err
		}
	}
}

// LastSequence returns the last tracked sequence number for a
// network/station pair.
func (c *Client) LastSequence(network, station string) (slproto.SequenceNumber, bool) {
	seq, ok := c.sequences[slproto.NewStationKey(network, station)]
	return seq, ok
}

// Sequences returns the full set of tracked per-station sequence numbers.
func (c *Client) Sequences() map[slproto.StationKey]slproto.SequenceNumber {
	return c.sequences
}

func (c *Client) syncSequences() {
	for key, seq := range c.client.Sequences() {
		c.sequences[key] = seq
	}
}

func (c *Client) attemptReconnect() error {
	c.client = nil
	backoff := c.reconnect.InitialBackoff

	for attempt := uint32(1); ; attempt++ {
		if c.reconnect.MaxAttempts > 0 && attempt > c.reconnect.MaxAttempts {
			return &FailedError{Attempts: c.reconnect.MaxAttempts}
		}

		time.Sleep(backoff)

		newClient, err := slclient.ConnectWithConfig(c.addr, c.clientConfig)
		if err != nil {
			backoff = c.reconnect.next(backoff)
			continue
		}

		if err := c.replaySteps(newClient); err != nil {
			backoff = c.reconnect.next(backoff)
			continue
		}
		if err := newClient.EndStream(); err != nil {
			backoff = c.reconnect.next(backoff)
			continue
		}

		c.client = newClient
		return nil
	}
}

// replaySteps replays every recorded step on a freshly connected client.
// Bare DATA/DATA-from steps are rewritten to resume from the last tracked
// sequence for the station currently in scope, when one is known.
func (c *Client) replaySteps(client *slclient.Client) error {
	var currentStation *slproto.StationKey

	for _, s := range c.steps {
		switch s.kind {
		case stepStation:
			if err := client.Station(s.station, s.network); err != nil {
				return err
			}
			key := slproto.NewStationKey(s.network, s.station)
			currentStation = &key

		case stepSelect:
			if err := client.Select(s.pattern); err != nil {
				return err
			}

		case stepData:
			if currentStation != nil {
				if seq, ok := c.sequences[*currentStation]; ok {
					if err := client.DataFrom(seq); err != nil {
						return err
					}
					continue
				}
			}
			if err := client.Data(); err != nil {
				return err
			}

		case stepDataFrom:
			seq := s.sequence
			if currentStation != nil {
				if tracked, ok := c.sequences[*currentStation]; ok && tracked > seq {
					seq = tracked
				}
			}
			if err := client.DataFrom(seq); err != nil {
				return err
			}

		case stepTimeWindow:
			if err := client.TimeWindow(s.start, s.end); err != nil {
				return err
			}

		case stepUserAgent:
			if err := client.UserAgent(s.userAgent); err != nil {
				return err
			}
		}
	}

	return nil
}
