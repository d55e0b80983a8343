package client

// EtherNet/IP session: registration, the class 3 connection and its
// sequence counter.

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tturner/cipmsg/internal/cip/protocol"
	"github.com/tturner/cipmsg/internal/cip/route"
	"github.com/tturner/cipmsg/internal/enip"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
	"github.com/tturner/cipmsg/internal/logging"
)

const (
	DefaultTimeout        = 5 * time.Second
	DefaultConnectionSize = 500
	DefaultRPI            = 2 * time.Second
	DefaultVendorID       = 0x1337
)

// Config describes the target and the explicit messaging connection.
type Config struct {
	Address          string // host:port
	Timeout          time.Duration
	Route            []route.Segment
	ConnectionSize   uint16
	LargeForwardOpen bool
	RPI              time.Duration
	VendorID         uint16
	OriginatorSerial uint32
}

// DefaultConfig returns a Config for ip on the standard port with route 1/0.
func DefaultConfig(ip string) Config {
	return Config{
		Address:          net.JoinHostPort(ip, strconv.Itoa(enip.DefaultPort)),
		Timeout:          DefaultTimeout,
		Route:            []route.Segment{route.Port(1), route.Link(0)},
		ConnectionSize:   DefaultConnectionSize,
		RPI:              DefaultRPI,
		VendorID:         DefaultVendorID,
		OriginatorSerial: rand.Uint32(),
	}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTransport replaces the TCP transport.
func WithTransport(t Transport) SessionOption {
	return func(s *Session) {
		if t != nil {
			s.transport = t
		}
	}
}

// WithLogger attaches a logger for session lifecycle messages.
func WithLogger(l *logging.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// Session owns one encapsulation session and at most one connection.
// Round trips are serialized; the sequence counter is not.
type Session struct {
	cfg       Config
	transport Transport
	log       *logging.Logger

	mu         sync.Mutex
	sessionID  uint32
	conn       *protocol.ForwardOpenReply
	connSerial uint16
	requests   uint64

	seq atomic.Uint32
}

// NewSession creates a session for cfg. Nothing is sent until Connect or
// EnsureOpen.
func NewSession(cfg Config, opts ...SessionOption) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ConnectionSize == 0 {
		cfg.ConnectionSize = DefaultConnectionSize
	}
	if cfg.RPI <= 0 {
		cfg.RPI = DefaultRPI
	}
	s := &Session{cfg: cfg, transport: NewTCPTransport()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// DefaultRoute returns the configured route to the target.
func (s *Session) DefaultRoute() []route.Segment { return s.cfg.Route }

// NextSequence returns the next connected sequence count, wrapping at 2^16.
func (s *Session) NextSequence() uint16 {
	return uint16(s.seq.Add(1))
}

// SessionID returns the registered session handle, or 0.
func (s *Session) SessionID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// IsOpen reports whether the explicit messaging connection is established.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Connect dials the target and registers a session.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerLocked(ctx)
}

// EnsureOpen registers a session and performs a Forward Open if no
// connection exists yet. A session dropped by a failed round trip is
// established again from scratch.
func (s *Session) EnsureOpen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil && s.transport.IsConnected() {
		return nil
	}
	if s.conn != nil {
		s.resetLocked()
	}
	if err := s.registerLocked(ctx); err != nil {
		return err
	}

	path, err := route.ConnectionPath(s.cfg.Route)
	if err != nil {
		return err
	}
	path = append(path, protocol.MessageRouterPath()...)

	s.connSerial = uint16(rand.Uint32())
	req, err := protocol.ForwardOpen{
		Large:            s.cfg.LargeForwardOpen,
		ConnectionSize:   s.cfg.ConnectionSize,
		RPI:              s.cfg.RPI,
		TOConnectionID:   rand.Uint32(),
		ConnectionSerial: s.connSerial,
		VendorID:         s.cfg.VendorID,
		OriginatorSerial: s.cfg.OriginatorSerial,
		ConnectionPath:   path,
	}.Encode()
	if err != nil {
		return fmt.Errorf("build forward open: %w", err)
	}

	resp, err := s.unconnectedLocked(ctx, req)
	if err != nil {
		return fmt.Errorf("forward open: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("forward open rejected: %w", cipErrors.DeviceError(resp.Status, resp.ExtStatus))
	}
	reply, err := protocol.ParseForwardOpenReply(resp.Data)
	if err != nil {
		return fmt.Errorf("forward open: %w", err)
	}
	s.conn = &reply
	s.log.Verbose("connection open: O->T 0x%08X T->O 0x%08X serial 0x%04X", reply.OTConnectionID, reply.TOConnectionID, s.connSerial)
	return nil
}

// Close performs a Forward Close and unregisters the session. Errors from the
// Forward Close are logged, not returned.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		if err := s.forwardCloseLocked(ctx); err != nil {
			s.log.Error("forward close: %v", err)
		}
		s.conn = nil
	}
	if s.sessionID != 0 {
		if err := s.transport.Send(ctx, enip.BuildUnregisterSession(s.sessionID, enip.SenderContext)); err != nil {
			s.log.Verbose("unregister session: %v", err)
		}
		s.sessionID = 0
	}
	return s.transport.Disconnect()
}

func (s *Session) forwardCloseLocked(ctx context.Context) error {
	path, err := route.ConnectionPath(s.cfg.Route)
	if err != nil {
		return err
	}
	path = append(path, protocol.MessageRouterPath()...)
	req, err := protocol.ForwardClose{
		ConnectionSerial: s.connSerial,
		VendorID:         s.cfg.VendorID,
		OriginatorSerial: s.cfg.OriginatorSerial,
		ConnectionPath:   path,
	}.Encode()
	if err != nil {
		return err
	}
	resp, err := s.unconnectedLocked(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return cipErrors.DeviceError(resp.Status, resp.ExtStatus)
	}
	return nil
}

func (s *Session) registerLocked(ctx context.Context) error {
	if s.sessionID != 0 {
		return nil
	}
	if !s.transport.IsConnected() {
		if err := s.transport.Connect(ctx, s.cfg.Address); err != nil {
			return err
		}
	}
	reply, err := s.exchangeLocked(ctx, enip.BuildRegisterSession(enip.SenderContext))
	if err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	id, err := enip.ParseRegisterSessionReply(reply)
	if err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	s.sessionID = id
	s.log.Verbose("session registered: 0x%08X", id)
	return nil
}

// exchangeLocked writes frame and reads one reply. Any failure leaves the
// stream in an unknown state, so the session is torn down.
func (s *Session) exchangeLocked(ctx context.Context, frame []byte) ([]byte, error) {
	s.log.LogHex("tx", frame)
	if err := s.transport.Send(ctx, frame); err != nil {
		s.resetLocked()
		return nil, err
	}
	reply, err := s.transport.Receive(ctx, s.cfg.Timeout)
	if err != nil {
		s.resetLocked()
		return nil, err
	}
	s.log.LogHex("rx", reply)
	return reply, nil
}

// resetLocked drops the TCP stream along with the session and connection
// bound to it. The next request dials and registers again.
func (s *Session) resetLocked() {
	if s.sessionID != 0 || s.conn != nil {
		s.log.Verbose("session 0x%08X reset", s.sessionID)
	}
	if err := s.transport.Disconnect(); err != nil {
		s.log.Debug("disconnect: %v", err)
	}
	s.sessionID = 0
	s.conn = nil
}

// unconnectedLocked sends a Message Router request with SendRRData.
func (s *Session) unconnectedLocked(ctx context.Context, req []byte) (protocol.Response, error) {
	s.requests++
	senderCtx := enip.NewSenderContext(s.requests)
	reply, err := s.exchangeLocked(ctx, enip.BuildSendRRData(s.sessionID, senderCtx, req))
	if err != nil {
		return protocol.Response{}, err
	}
	encap, err := enip.DecodeENIP(reply)
	if err != nil {
		s.resetLocked()
		return protocol.Response{}, err
	}
	if err := enip.CheckReply(encap, enip.ENIPCommandSendRRData); err != nil {
		s.resetLocked()
		return protocol.Response{}, err
	}
	if encap.SenderContext != senderCtx {
		s.resetLocked()
		return protocol.Response{}, fmt.Errorf("reply sender context % X, want % X", encap.SenderContext, senderCtx)
	}
	data, err := enip.ParseSendRRDataResponse(encap.Data)
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.DecodeResponse(data)
}

// connectedLocked sends a Message Router request with SendUnitData on the
// open connection.
func (s *Session) connectedLocked(ctx context.Context, seq uint16, req []byte) (protocol.Response, error) {
	if s.conn == nil {
		return protocol.Response{}, fmt.Errorf("no open connection")
	}
	frame := enip.BuildSendUnitData(s.sessionID, s.conn.OTConnectionID, seq, req)
	reply, err := s.exchangeLocked(ctx, frame)
	if err != nil {
		return protocol.Response{}, err
	}
	encap, err := enip.DecodeENIP(reply)
	if err != nil {
		s.resetLocked()
		return protocol.Response{}, err
	}
	if err := enip.CheckReply(encap, enip.ENIPCommandSendUnitData); err != nil {
		s.resetLocked()
		return protocol.Response{}, err
	}
	connID, gotSeq, data, err := enip.ParseSendUnitDataResponse(encap.Data)
	if err != nil {
		return protocol.Response{}, err
	}
	if connID != s.conn.TOConnectionID {
		want := s.conn.TOConnectionID
		s.resetLocked()
		return protocol.Response{}, fmt.Errorf("reply for connection 0x%08X, want 0x%08X", connID, want)
	}
	if gotSeq != seq {
		s.resetLocked()
		return protocol.Response{}, fmt.Errorf("reply sequence %d, want %d", gotSeq, seq)
	}
	return protocol.DecodeResponse(data)
}

// SendUnconnected registers the session if needed and sends req with SendRRData.
func (s *Session) SendUnconnected(ctx context.Context, req []byte) (protocol.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registerLocked(ctx); err != nil {
		return protocol.Response{}, err
	}
	return s.unconnectedLocked(ctx, req)
}

// SendConnected sends req on the open connection with sequence count seq.
func (s *Session) SendConnected(ctx context.Context, seq uint16, req []byte) (protocol.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectedLocked(ctx, seq, req)
}
