package client

// TCP transport carrying encapsulation frames

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tturner/cipmsg/internal/enip"
)

// Transport moves whole encapsulation frames to and from the target.
type Transport interface {
	Connect(ctx context.Context, addr string) error
	Disconnect() error
	Send(ctx context.Context, frame []byte) error
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
	IsConnected() bool
}

// TCPTransport implements Transport over a single TCP connection.
type TCPTransport struct {
	conn        net.Conn
	addr        string
	dialTimeout time.Duration
	connMu      sync.RWMutex
}

var _ Transport = (*TCPTransport)(nil)

// NewTCPTransport creates a new TCP transport
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{dialTimeout: 5 * time.Second}
}

// Connect establishes a TCP connection
func (t *TCPTransport) Connect(ctx context.Context, addr string) error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conn != nil {
		return fmt.Errorf("already connected")
	}

	dialer := net.Dialer{Timeout: t.dialTimeout, KeepAlive: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial TCP: %w", err)
	}
	t.conn = conn
	t.addr = addr
	return nil
}

// Disconnect closes the TCP connection
func (t *TCPTransport) Disconnect() error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.addr = ""
	return err
}

// Send writes one frame.
func (t *TCPTransport) Send(ctx context.Context, frame []byte) error {
	t.connMu.RLock()
	defer t.connMu.RUnlock()

	if t.conn == nil {
		return fmt.Errorf("not connected")
	}
	deadline, _ := ctx.Deadline()
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { t.conn.SetWriteDeadline(time.Now()) })
	defer stop()

	if _, err := t.conn.Write(frame); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Receive reads one complete frame, waiting at most timeout or until ctx is done.
func (t *TCPTransport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	t.connMu.RLock()
	defer t.connMu.RUnlock()

	if t.conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { t.conn.SetReadDeadline(time.Now()) })
	defer stop()

	frame, err := enip.ReadFrame(t.conn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return frame, nil
}

// IsConnected returns whether the transport is connected
func (t *TCPTransport) IsConnected() bool {
	t.connMu.RLock()
	defer t.connMu.RUnlock()
	return t.conn != nil
}

// RemoteAddr returns the address passed to Connect.
func (t *TCPTransport) RemoteAddr() string {
	t.connMu.RLock()
	defer t.connMu.RUnlock()
	return t.addr
}
