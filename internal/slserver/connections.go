package slserver

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chronologos/seedlink/internal/slproto"
)

// ConnectionInfo is a snapshot of one client connection's metadata, served
// by INFO CONNECTIONS.
type ConnectionInfo struct {
	ID              string
	Addr            net.Addr
	ConnectedAt     time.Time
	ProtocolVersion slproto.ProtocolVersion
	UserAgent       string
	State           string
}

// ConnectionRegistry is a thread-safe table of active connections, keyed
// by UUID so entries stay unique across reconnects.
type ConnectionRegistry struct {
	mu          sync.Mutex
	connections map[string]*ConnectionInfo
	count       int64
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{connections: make(map[string]*ConnectionInfo)}
}

// Register adds a new connection and returns its ID.
func (r *ConnectionRegistry) Register(addr net.Addr) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.connections[id] = &ConnectionInfo{
		ID:              id,
		Addr:            addr,
		ConnectedAt:     time.Now(),
		ProtocolVersion: slproto.V3,
		State:           "Connected",
	}
	r.mu.Unlock()
	atomic.AddInt64(&r.count, 1)
	return id
}

// Unregister removes a connection from the registry.
func (r *ConnectionRegistry) Unregister(id string) {
	r.mu.Lock()
	_, existed := r.connections[id]
	delete(r.connections, id)
	r.mu.Unlock()
	if existed {
		atomic.AddInt64(&r.count, -1)
	}
}

// Update mutates a connection's metadata in place. It is a no-op if id is
// unknown (e.g. the connection closed concurrently).
func (r *ConnectionRegistry) Update(id string, f func(*ConnectionInfo)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.connections[id]; ok {
		f(info)
	}
}

// Snapshot returns a copy of every currently registered connection.
func (r *ConnectionRegistry) Snapshot() []ConnectionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ConnectionInfo, 0, len(r.connections))
	for _, info := range r.connections {
		out = append(out, *info)
	}
	return out
}

// Count returns the number of active connections.
func (r *ConnectionRegistry) Count() int {
	return int(atomic.LoadInt64(&r.count))
}
