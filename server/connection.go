// Package server implements the buffered frame connection and the symmetric
// message pump shared by server and client code paths.
package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/machinefabric/bearcub/wire"
)

// FirstByteTimeout and RecentByteTimeout bound how long a connection may sit
// idle: a connection that never sends a byte, or that goes silent between
// frames, for this long is considered dead.
const (
	FirstByteTimeout  = 5 * time.Second
	RecentByteTimeout = 5 * time.Second
)

// initialBufCap sizes the growable read buffer against a comfortably large
// single frame.
const initialBufCap = 4 * 4096

// ErrTruncatedFrame is returned by ReadFrame when the peer closes the socket
// mid-frame: some bytes were buffered but never completed a whole frame.
var ErrTruncatedFrame = errors.New("server: connection closed with a truncated frame")

// Connection wraps one accepted (or dialed) TCP socket with the buffered
// frame reader/writer and idle-timeout bookkeeping.
type Connection struct {
	conn net.Conn
	buf  []byte

	cxnStart time.Time
	lastRecv time.Time
	hasRecv  bool
}

// New wraps conn for frame-level I/O.
func New(conn net.Conn) *Connection {
	return &Connection{
		conn:     conn,
		buf:      make([]byte, 0, initialBufCap),
		cxnStart: time.Now(),
	}
}

// RemoteAddr exposes the underlying socket's peer address for logging.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// deadline returns the absolute time past which the next read is considered
// idle: FirstByteTimeout after connection start if no bytes have arrived
// yet, otherwise RecentByteTimeout after the last received bytes. ReadFrame
// installs this as the socket's read deadline before every read, so an idle
// peer is disconnected by a read timeout rather than by separate polling.
func (c *Connection) deadline() time.Time {
	if !c.hasRecv {
		return c.cxnStart.Add(FirstByteTimeout)
	}
	return c.lastRecv.Add(RecentByteTimeout)
}

// ReadFrame reads bytes from the socket until one whole frame can be parsed
// out of the buffer, or the connection ends. It returns (nil, nil) on a
// clean EOF with no partial frame pending.
func (c *Connection) ReadFrame() (*wire.Frame, error) {
	readBuf := make([]byte, initialBufCap)

	for {
		if _, ok := wire.Check(c.buf); ok {
			f, consumed, err := wire.TryParse(c.buf)
			if err != nil {
				return nil, fmt.Errorf("server: frame decode: %w", err)
			}
			c.buf = append(c.buf[:0], c.buf[consumed:]...)
			return f, nil
		}

		if err := c.conn.SetReadDeadline(c.deadline()); err != nil {
			return nil, fmt.Errorf("server: set read deadline: %w", err)
		}

		n, err := c.conn.Read(readBuf)
		if n > 0 {
			c.buf = append(c.buf, readBuf[:n]...)
			c.lastRecv = time.Now()
			c.hasRecv = true
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(c.buf) == 0 {
					return nil, nil
				}
				return nil, ErrTruncatedFrame
			}
			return nil, err
		}
		if n == 0 {
			if len(c.buf) == 0 {
				return nil, nil
			}
			return nil, ErrTruncatedFrame
		}
	}
}

// WriteFrame serializes and writes one frame, looping until every byte is
// written or a fatal error occurs.
func (c *Connection) WriteFrame(f *wire.Frame) error {
	buf, err := f.Encode()
	if err != nil {
		return fmt.Errorf("server: encode frame: %w", err)
	}
	for len(buf) > 0 {
		n, err := c.conn.Write(buf)
		if err != nil {
			return fmt.Errorf("server: write frame: %w", err)
		}
		buf = buf[n:]
	}
	return nil
}
