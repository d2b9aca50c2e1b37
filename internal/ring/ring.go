// Package ring implements the server's in-memory record store: a
// fixed-capacity ring buffer of miniSEED records keyed by monotonic
// sequence number, with multi-consumer subscription-filtered reads and
// a broadcast wake-up for streaming connections.
package ring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chronologos/seedlink/internal/selector"
	"github.com/chronologos/seedlink/internal/slproto"
	"github.com/chronologos/seedlink/internal/slproto/frame"
)

var ErrInvalidPayloadLength = errors.New("ring: payload must be exactly 512 bytes")

// Record is a single stored miniSEED record.
type Record struct {
	Sequence slproto.SequenceNumber
	Station  slproto.StationKey
	Payload  []byte
}

// Subscription is a station filter used by ReadSince.
type Subscription struct {
	Station slproto.StationKey
}

// StationSummary describes one station present in the ring, for INFO STATIONS.
type StationSummary struct {
	Station     slproto.StationKey
	RecordCount int
	OldestSeq   slproto.SequenceNumber
	NewestSeq   slproto.SequenceNumber
}

// StreamSummary describes one distinct (station, location, channel, type)
// stream present in the ring, for INFO STREAMS.
type StreamSummary struct {
	Station   slproto.StationKey
	Location  string
	Channel   string
	Type      string
	OldestSeq slproto.SequenceNumber
	NewestSeq slproto.SequenceNumber
}

// Ring is a fixed-capacity, multi-consumer record store. It is safe for
// concurrent use by any number of writers and readers.
type Ring struct {
	mu       sync.Mutex
	entries  []Record
	head     int // next write slot
	count    int
	capacity int
	nextSeq  slproto.SequenceNumber

	notifyMu sync.Mutex
	notifyCh chan struct{}
}

// New creates a ring store with room for capacity records.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Ring{
		entries:  make([]Record, capacity),
		capacity: capacity,
		nextSeq:  1,
		notifyCh: make(chan struct{}),
	}
}

// Push stores a record and assigns it the next sequence number, wrapping
// from V3Max back to 1. payload must be exactly the v3 miniSEED record
// size; a shorter or longer payload is rejected rather than truncated.
func (r *Ring) Push(station slproto.StationKey, payload []byte) (slproto.SequenceNumber, error) {
	if len(payload) != frame.V3PayloadLen {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPayloadLength, len(payload))
	}
	stored := make([]byte, len(payload))
	copy(stored, payload)

	r.mu.Lock()
	seq := r.nextSeq
	r.entries[r.head] = Record{Sequence: seq, Station: station, Payload: stored}
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
	r.nextSeq = seq.Next()
	r.mu.Unlock()

	r.broadcast()
	return seq, nil
}

// tail returns the index of the oldest stored entry. Caller must hold r.mu
// and ensure r.count > 0.
func (r *Ring) tail() int {
	return (r.head - r.count + r.capacity) % r.capacity
}

// ReadSince returns all records with sequence > cursor matching any of subs,
// oldest first. A nil or empty subs matches nothing.
func (r *Ring) ReadSince(cursor slproto.SequenceNumber, subs []Subscription) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 || len(subs) == 0 {
		return nil
	}

	var out []Record
	t := r.tail()
	for i := 0; i < r.count; i++ {
		e := r.entries[(t+i)%r.capacity]
		if e.Sequence <= cursor {
			continue
		}
		for _, s := range subs {
			if s.Station.Equal(e.Station) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Notify returns a channel that closes the next time a record is pushed.
// Callers must call Notify *before* ReadSince and pass the channel to
// WaitForNew, to avoid a race where a push happens between the read and
// the wait.
func (r *Ring) Notify() <-chan struct{} {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	return r.notifyCh
}

func (r *Ring) broadcast() {
	r.notifyMu.Lock()
	old := r.notifyCh
	r.notifyCh = make(chan struct{})
	r.notifyMu.Unlock()
	close(old)
}

// WaitForNew blocks until a record is pushed after gen was captured, or
// until ctx is cancelled.
func (r *Ring) WaitForNew(ctx context.Context, gen <-chan struct{}) error {
	select {
	case <-gen:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stations returns a summary of every distinct station currently in the ring.
func (r *Ring) Stations() []StationSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make(map[slproto.StationKey]*StationSummary)
	var order []slproto.StationKey

	if r.count == 0 {
		return nil
	}
	t := r.tail()
	for i := 0; i < r.count; i++ {
		e := r.entries[(t+i)%r.capacity]
		s, ok := summaries[e.Station]
		if !ok {
			s = &StationSummary{Station: e.Station, OldestSeq: e.Sequence}
			summaries[e.Station] = s
			order = append(order, e.Station)
		}
		s.RecordCount++
		s.NewestSeq = e.Sequence
	}

	out := make([]StationSummary, 0, len(order))
	for _, k := range order {
		out = append(out, *summaries[k])
	}
	return out
}

// streamKey identifies one distinct stream within a station.
type streamKey struct {
	station  slproto.StationKey
	location string
	channel  string
	typeCode string
}

// Streams returns one StreamSummary per distinct (station, location,
// channel, type) tuple decoded from stored payloads, sorted by network,
// station, location and channel so callers can group by station without
// re-sorting.
func (r *Ring) Streams() []StreamSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}

	summaries := make(map[streamKey]*StreamSummary)
	t := r.tail()
	for i := 0; i < r.count; i++ {
		e := r.entries[(t+i)%r.capacity]
		loc, ch, typ, ok := selector.StreamID(e.Payload)
		if !ok {
			continue
		}
		k := streamKey{station: e.Station, location: loc, channel: ch, typeCode: typ}
		s, exists := summaries[k]
		if !exists {
			s = &StreamSummary{Station: e.Station, Location: loc, Channel: ch, Type: typ, OldestSeq: e.Sequence}
			summaries[k] = s
		}
		s.NewestSeq = e.Sequence
	}

	out := make([]StreamSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Station.Network != b.Station.Network {
			return a.Station.Network < b.Station.Network
		}
		if a.Station.Station != b.Station.Station {
			return a.Station.Station < b.Station.Station
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return a.Channel < b.Channel
	})
	return out
}
