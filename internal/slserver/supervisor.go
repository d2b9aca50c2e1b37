package slserver

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chronologos/seedlink/internal/ring"
)

// Config configures a Supervisor.
type Config struct {
	Addr         string
	Software     string
	Version      string
	Organization string
	RingCapacity int
}

// Supervisor owns the TCP listener, the shared ring store, and the
// connection registry, and spawns one ConnHandler goroutine per accepted
// connection — generalizing the teacher's single-session accept/rearm
// loop to a many-connection model via errgroup for coordinated shutdown.
type Supervisor struct {
	cfg      Config
	ring     *ring.Ring
	registry *ConnectionRegistry
	log      zerolog.Logger

	ln     net.Listener
	cancel context.CancelFunc
	done   chan struct{}

	// Ready is closed once the listener is bound. Addr() is valid after that.
	Ready chan struct{}
}

// New creates a Supervisor with its own ring store and connection registry.
func New(cfg Config, log zerolog.Logger) *Supervisor {
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = 1 << 16
	}
	return &Supervisor{
		cfg:      cfg,
		ring:     ring.New(cfg.RingCapacity),
		registry: NewConnectionRegistry(),
		log:      log,
		Ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Ring exposes the supervisor's shared store, so a data-ingest source can
// push records into it.
func (s *Supervisor) Ring() *ring.Ring { return s.ring }

// Addr returns the bound listener address. Valid after Ready is closed.
func (s *Supervisor) Addr() net.Addr { return s.ln.Addr() }

// Run binds the listener and accepts connections until ctx is cancelled.
// Each accepted connection is handled on its own goroutine tracked by the
// errgroup; Run returns once the listener is closed and every handler has
// finished its current frame and exited.
func (s *Supervisor) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	close(s.Ready)

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	s.cancel = cancel
	defer close(s.done)

	g.Go(func() error {
		<-gctx.Done()
		return s.ln.Close()
	})

	g.Go(func() error {
		started := time.Now()
		for {
			conn, err := s.ln.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				s.log.Warn().Err(err).Msg("accept error")
				continue
			}
			handler := NewConnHandler(conn, s.ring, s.registry, HandlerConfig{
				Software:     s.cfg.Software,
				Version:      s.cfg.Version,
				Organization: s.cfg.Organization,
				Started:      started,
			}, s.log)
			g.Go(func() error {
				handler.Run(gctx)
				return nil
			})
		}
	})

	return g.Wait()
}

// Shutdown stops accepting new connections, signals every in-flight
// handler to close, and waits for them to drain their current frame — or
// for ctx to expire, whichever comes first.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
