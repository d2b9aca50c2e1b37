package slclient

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/chronologos/seedlink/internal/slproto"
	"github.com/chronologos/seedlink/internal/slproto/frame"
)

// connection wraps a TCP connection with buffered, deadline-bounded reads
// and writes. Unlike the async Rust original, Go's blocking I/O needs no
// separate task per direction — each call sets its own deadline and blocks
// the calling goroutine, matching the synchronous style of the teacher's
// own transport wrapper.
type connection struct {
	conn        net.Conn
	reader      *bufio.Reader
	writer      *bufio.Writer
	readTimeout time.Duration
}

func dial(addr string, connectTimeout, readTimeout time.Duration) (*connection, error) {
	c, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, &TimeoutError{Timeout: connectTimeout}
		}
		return nil, err
	}
	if tc, ok := c.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	return &connection{
		conn:        c,
		reader:      bufio.NewReader(c),
		writer:      bufio.NewWriter(c),
		readTimeout: readTimeout,
	}, nil
}

func (c *connection) sendCommand(cmd slproto.Command, version slproto.ProtocolVersion) error {
	b, err := cmd.Encode(version)
	if err != nil {
		return err
	}
	return c.sendRaw(b)
}

func (c *connection) sendRaw(data []byte) error {
	if _, err := c.writer.Write(data); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *connection) readLine() (string, error) {
	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if line == "" {
			return "", classifyReadErr(err, c.readTimeout)
		}
		return "", classifyReadErr(err, c.readTimeout)
	}
	return line, nil
}

func (c *connection) readExact(buf []byte) error {
	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	n, err := readFull(c.reader, buf)
	if err != nil {
		if err == io.EOF && n > 0 && n < len(buf) {
			return fmt.Errorf("%w: connection closed after %d of %d bytes", slproto.ErrFrameTooShort, n, len(buf))
		}
		return classifyReadErr(err, c.readTimeout)
	}
	return nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func classifyReadErr(err error, timeout time.Duration) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return &TimeoutError{Timeout: timeout}
	}
	return ErrDisconnected
}

func (c *connection) readV3Frame() (OwnedFrame, error) {
	buf := make([]byte, frame.V3FrameLen)
	if err := c.readExact(buf); err != nil {
		return OwnedFrame{}, err
	}
	v, err := frame.ParseV3(buf)
	if err != nil {
		return OwnedFrame{}, err
	}
	return ownedFromV3(v), nil
}

func (c *connection) readV4Frame() (OwnedFrame, error) {
	header := make([]byte, frame.V4MinHeaderLen)
	if err := c.readExact(header); err != nil {
		return OwnedFrame{}, err
	}

	stationIDLen := int(header[16])
	payloadLen := int(binary.LittleEndian.Uint32(header[4:8]))
	remaining := stationIDLen + payloadLen

	full := make([]byte, frame.V4MinHeaderLen+remaining)
	copy(full, header)
	if err := c.readExact(full[frame.V4MinHeaderLen:]); err != nil {
		return OwnedFrame{}, err
	}

	v, _, err := frame.ParseV4(full)
	if err != nil {
		return OwnedFrame{}, err
	}
	return ownedFromV4(v), nil
}

// readTag reads the first two bytes of the next message without knowing
// yet whether it's a v3 frame, a v4 frame, or a text response line.
func (c *connection) readTag() ([2]byte, error) {
	var tag [2]byte
	if err := c.readExact(tag[:]); err != nil {
		return tag, err
	}
	return tag, nil
}

func (c *connection) readV3FrameWithTag(tag [2]byte) (OwnedFrame, error) {
	buf := make([]byte, frame.V3FrameLen)
	copy(buf, tag[:])
	if err := c.readExact(buf[2:]); err != nil {
		return OwnedFrame{}, err
	}
	v, err := frame.ParseV3(buf)
	if err != nil {
		return OwnedFrame{}, err
	}
	return ownedFromV3(v), nil
}

func (c *connection) readV4FrameWithTag(tag [2]byte) (OwnedFrame, error) {
	header := make([]byte, frame.V4MinHeaderLen)
	copy(header, tag[:])
	if err := c.readExact(header[2:]); err != nil {
		return OwnedFrame{}, err
	}
	stationIDLen := int(header[16])
	payloadLen := int(binary.LittleEndian.Uint32(header[4:8]))
	remaining := stationIDLen + payloadLen

	full := make([]byte, frame.V4MinHeaderLen+remaining)
	copy(full, header)
	if err := c.readExact(full[frame.V4MinHeaderLen:]); err != nil {
		return OwnedFrame{}, err
	}
	v, _, err := frame.ParseV4(full)
	if err != nil {
		return OwnedFrame{}, err
	}
	return ownedFromV4(v), nil
}

func (c *connection) readLineWithPrefix(prefix [2]byte) (string, error) {
	rest, err := c.readLine()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s", prefix[:], rest), nil
}

func (c *connection) close() error {
	return c.conn.Close()
}
