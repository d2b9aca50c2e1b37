package slclient

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/chronologos/seedlink/internal/slproto"
	"github.com/chronologos/seedlink/internal/slproto/frame"
)

// mockServer is a minimal scripted SeedLink server for exercising Client
// against real TCP I/O without a full slserver instance.
type mockServer struct {
	ln net.Listener
}

func startMockServer(t *testing.T, handle func(net.Conn)) *mockServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		handle(conn)
	}()
	return &mockServer{ln: ln}
}

func (m *mockServer) addr() string { return m.ln.Addr().String() }

func makeV3Frame(t *testing.T, seq uint64, station, network string) []byte {
	t.Helper()
	payload := make([]byte, frame.V3PayloadLen)
	copy(payload[8:13], []byte(padRight(station, 5)))
	copy(payload[18:20], []byte(padRight(network, 2)))
	b, err := frame.WriteV3(slproto.SequenceNumber(seq), payload)
	if err != nil {
		t.Fatalf("WriteV3: %v", err)
	}
	return b
}

func padRight(s string, n int) string {
	for len(s) < n {
		s += " "
	}
	return s[:n]
}

func TestConnectV3Hello(t *testing.T) {
	srv := startMockServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		line, _ := r.ReadString('\n')
		if line != "HELLO\r\n" {
			return
		}
		conn.Write([]byte("SeedLink v3.1\r\nMock Server\r\n"))
	})

	c, err := ConnectWithConfig(srv.addr(), Config{ConnectTimeout: time.Second, ReadTimeout: time.Second, PreferV4: false})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.Version() != slproto.V3 {
		t.Fatalf("expected v3, got %v", c.Version())
	}
	if c.ServerInfo().Organization != "Mock Server" {
		t.Fatalf("unexpected organization: %q", c.ServerInfo().Organization)
	}
	if c.State() != StateConnected {
		t.Fatalf("expected Connected, got %v", c.State())
	}
}

func TestConnectV4Negotiation(t *testing.T) {
	srv := startMockServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		r.ReadString('\n') // HELLO
		conn.Write([]byte("SeedLink v4.0 :: SLPROTO:4.0 SLPROTO:3.1\r\nMock Server v4\r\n"))
		r.ReadString('\n') // SLPROTO 4.0
		conn.Write([]byte("OK\r\n"))
	})

	c, err := Connect(srv.addr())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.Version() != slproto.V4 {
		t.Fatalf("expected v4, got %v", c.Version())
	}
}

func TestStationDataEndFlow(t *testing.T) {
	frameBytes := makeV3Frame(t, 1, "ANMO", "IU")

	srv := startMockServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		r.ReadString('\n') // HELLO
		conn.Write([]byte("SeedLink v3.1\r\nMock\r\n"))
		r.ReadString('\n') // STATION
		conn.Write([]byte("OK\r\n"))
		r.ReadString('\n') // DATA
		conn.Write([]byte("OK\r\n"))
		r.ReadString('\n') // END
		conn.Write(frameBytes)
	})

	c, err := ConnectWithConfig(srv.addr(), Config{ConnectTimeout: time.Second, ReadTimeout: 2 * time.Second, PreferV4: false})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Station("ANMO", "IU"); err != nil {
		t.Fatalf("Station: %v", err)
	}
	if c.State() != StateConfigured {
		t.Fatalf("expected Configured, got %v", c.State())
	}
	if err := c.Data(); err != nil {
		t.Fatalf("Data: %v", err)
	}
	if err := c.EndStream(); err != nil {
		t.Fatalf("EndStream: %v", err)
	}
	if c.State() != StateStreaming {
		t.Fatalf("expected Streaming, got %v", c.State())
	}

	got, err := c.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if got == nil || got.Sequence != slproto.SequenceNumber(1) {
		t.Fatalf("unexpected frame: %+v", got)
	}
	if key, ok := got.StationKey(); !ok || key.Station != "ANMO" || key.Network != "IU" {
		t.Fatalf("unexpected station key: %+v ok=%v", key, ok)
	}
	if seq, ok := c.LastSequence("IU", "ANMO"); !ok || seq != slproto.SequenceNumber(1) {
		t.Fatalf("expected tracked sequence 1, got %v ok=%v", seq, ok)
	}
}

func TestNextFrameReturnsNilOnEOF(t *testing.T) {
	frameBytes := makeV3Frame(t, 1, "ANMO", "IU")

	srv := startMockServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		r.ReadString('\n')
		conn.Write([]byte("SeedLink v3.1\r\nMock\r\n"))
		r.ReadString('\n')
		conn.Write([]byte("OK\r\n"))
		r.ReadString('\n')
		conn.Write([]byte("OK\r\n"))
		r.ReadString('\n')
		conn.Write(frameBytes)
		conn.Close()
	})

	c, err := ConnectWithConfig(srv.addr(), Config{ConnectTimeout: time.Second, ReadTimeout: 2 * time.Second, PreferV4: false})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.Station("ANMO", "IU")
	c.Data()
	c.EndStream()

	f, err := c.NextFrame()
	if err != nil || f == nil {
		t.Fatalf("expected first frame, got %+v err=%v", f, err)
	}

	f, err = c.NextFrame()
	if err != nil {
		t.Fatalf("expected clean EOF, got err=%v", err)
	}
	if f != nil {
		t.Fatalf("expected nil frame on EOF, got %+v", f)
	}
	if c.State() != StateDisconnected {
		t.Fatalf("expected Disconnected, got %v", c.State())
	}
}

func TestStateMachineEnforcement(t *testing.T) {
	srv := startMockServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		r.ReadString('\n')
		conn.Write([]byte("SeedLink v3.1\r\nMock\r\n"))
	})

	c, err := ConnectWithConfig(srv.addr(), Config{ConnectTimeout: time.Second, ReadTimeout: time.Second, PreferV4: false})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := c.Data(); err == nil {
		t.Fatal("expected InvalidStateError from Data before Station")
	}
	if _, err := c.NextFrame(); err == nil {
		t.Fatal("expected InvalidStateError from NextFrame before Streaming")
	}
}

func TestServerErrorOnStation(t *testing.T) {
	srv := startMockServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		r.ReadString('\n')
		conn.Write([]byte("SeedLink v3.1\r\nMock\r\n"))
		r.ReadString('\n')
		conn.Write([]byte("ERROR ARGUMENTS bad station\r\n"))
	})

	c, err := ConnectWithConfig(srv.addr(), Config{ConnectTimeout: time.Second, ReadTimeout: time.Second, PreferV4: false})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	err = c.Station("BAD", "XX")
	if err == nil {
		t.Fatal("expected ServerError")
	}
	if _, ok := err.(*ServerError); !ok {
		t.Fatalf("expected *ServerError, got %T: %v", err, err)
	}
}

func TestUserAgentSendsOnV4(t *testing.T) {
	var gotLine string
	srv := startMockServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		r.ReadString('\n') // HELLO
		conn.Write([]byte("SeedLink v4.0 :: SLPROTO:4.0 SLPROTO:3.1\r\nMock Server v4\r\n"))
		r.ReadString('\n') // SLPROTO 4.0
		conn.Write([]byte("OK\r\n"))
		line, _ := r.ReadString('\n')
		gotLine = line
		conn.Write([]byte("OK\r\n"))
	})

	c, err := Connect(srv.addr())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.UserAgent("seedlink-go/1.0"); err != nil {
		t.Fatalf("UserAgent: %v", err)
	}
	if gotLine != "USERAGENT seedlink-go/1.0\r\n" {
		t.Fatalf("unexpected wire line: %q", gotLine)
	}
}

func TestUserAgentRejectedOnV3(t *testing.T) {
	srv := startMockServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		r.ReadString('\n') // HELLO
		conn.Write([]byte("SeedLink v3.1\r\nMock\r\n"))
	})

	c, err := ConnectWithConfig(srv.addr(), Config{ConnectTimeout: time.Second, ReadTimeout: time.Second, PreferV4: false})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.UserAgent("seedlink-go/1.0"); err == nil {
		t.Fatal("expected error sending USERAGENT over v3")
	}
}

func TestBye(t *testing.T) {
	srv := startMockServer(t, func(conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)
		r.ReadString('\n')
		conn.Write([]byte("SeedLink v3.1\r\nMock\r\n"))
		r.ReadString('\n') // BYE
	})

	c, err := ConnectWithConfig(srv.addr(), Config{ConnectTimeout: time.Second, ReadTimeout: time.Second, PreferV4: false})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Bye(); err != nil {
		t.Fatalf("Bye: %v", err)
	}
	if c.State() != StateDisconnected {
		t.Fatalf("expected Disconnected, got %v", c.State())
	}
}
