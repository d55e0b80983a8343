package client

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/tturner/cipmsg/internal/cip/codec"
	"github.com/tturner/cipmsg/internal/cip/protocol"
	"github.com/tturner/cipmsg/internal/cip/spec"
	"github.com/tturner/cipmsg/internal/enip"
)

const (
	testSessionID uint32 = 0x00001234
	testOTConnID  uint32 = 0xAABBCCDD
)

// recorded is one Message Router request seen by the fake device.
type recorded struct {
	Connected bool
	Sequence  uint16
	Request   protocol.Request
}

// fakeDevice is a minimal EtherNet/IP target on a loopback listener.
type fakeDevice struct {
	t  *testing.T
	ln net.Listener

	// handle answers every request except Forward Open/Close. nil means the
	// device closes the connection instead of replying.
	handle func(r recorded) *protocol.Response

	forwardOpenStatus uint8
	silent            bool

	mu       sync.Mutex
	commands []uint16
	requests []recorded
	toConnID uint32
}

func startDevice(t *testing.T, handle func(recorded) *protocol.Response, opts ...func(*fakeDevice)) *fakeDevice {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	d := &fakeDevice{t: t, ln: ln, handle: handle}
	for _, opt := range opts {
		opt(d)
	}
	t.Cleanup(func() { ln.Close() })
	go d.serve()
	return d
}

func (d *fakeDevice) addr() string { return d.ln.Addr().String() }

func (d *fakeDevice) serve() {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		go d.serveConn(conn)
	}
}

func (d *fakeDevice) serveConn(conn net.Conn) {
	defer conn.Close()
	for {
		frame, err := enip.ReadFrame(conn)
		if err != nil {
			return
		}
		encap, err := enip.DecodeENIP(frame)
		if err != nil {
			return
		}
		d.mu.Lock()
		d.commands = append(d.commands, encap.Command)
		d.mu.Unlock()

		reply, ok := d.reply(encap)
		if !ok {
			return
		}
		if reply == nil {
			continue
		}
		if _, err := conn.Write(reply); err != nil {
			return
		}
	}
}

func (d *fakeDevice) reply(encap enip.ENIPEncapsulation) ([]byte, bool) {
	switch encap.Command {
	case enip.ENIPCommandRegisterSession:
		return enip.EncodeENIP(enip.ENIPEncapsulation{
			Command:       enip.ENIPCommandRegisterSession,
			SessionID:     testSessionID,
			SenderContext: encap.SenderContext,
			Data:          encap.Data,
		}), true
	case enip.ENIPCommandUnregisterSession:
		return nil, false
	case enip.ENIPCommandSendRRData:
		data, err := enip.ParseSendRRDataResponse(encap.Data)
		if err != nil {
			return nil, false
		}
		req, err := protocol.DecodeRequest(data)
		if err != nil {
			return nil, false
		}
		resp := d.respond(recorded{Request: req})
		if resp == nil {
			return nil, d.silent
		}
		return enip.BuildSendRRData(encap.SessionID, encap.SenderContext, protocol.EncodeResponse(*resp)), true
	case enip.ENIPCommandSendUnitData:
		connID, seq, data, err := enip.ParseSendUnitDataResponse(encap.Data)
		if err != nil || connID != testOTConnID {
			return nil, false
		}
		req, err := protocol.DecodeRequest(data)
		if err != nil {
			return nil, false
		}
		resp := d.respond(recorded{Connected: true, Sequence: seq, Request: req})
		if resp == nil {
			return nil, d.silent
		}
		d.mu.Lock()
		to := d.toConnID
		d.mu.Unlock()
		return enip.BuildSendUnitData(encap.SessionID, to, seq, protocol.EncodeResponse(*resp)), true
	}
	return nil, false
}

func (d *fakeDevice) respond(r recorded) *protocol.Response {
	d.mu.Lock()
	d.requests = append(d.requests, r)
	d.mu.Unlock()

	service := spec.ServiceCode(r.Request.Service[0])
	switch service {
	case spec.ServiceForwardOpen, spec.ServiceLargeForwardOpen:
		if d.forwardOpenStatus != 0 {
			return &protocol.Response{Service: byte(service) | spec.ReplyFlag, Status: d.forwardOpenStatus, ExtStatus: []byte{0x00, 0x01}}
		}
		to, _ := codec.Uint32(r.Request.Data, 6)
		d.mu.Lock()
		d.toConnID = to
		d.mu.Unlock()
		data := codec.AppendUint32(nil, testOTConnID)
		data = append(data, r.Request.Data[6:18]...) // T->O id, serial, vendor, originator serial
		data = codec.AppendUint32(data, 2000000)
		data = codec.AppendUint32(data, 2000000)
		data = append(data, 0x00, 0x00)
		return &protocol.Response{Service: byte(service) | spec.ReplyFlag, Data: data}
	case spec.ServiceForwardClose:
		return &protocol.Response{Service: byte(service) | spec.ReplyFlag, Data: append([]byte{}, r.Request.Data[2:10]...)}
	}
	if d.handle == nil {
		return nil
	}
	return d.handle(r)
}

func (d *fakeDevice) seenRequests() []recorded {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]recorded(nil), d.requests...)
}

func (d *fakeDevice) seenCommands() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint16(nil), d.commands...)
}

// echoAttribute answers with the reply flag set and a fixed two-byte value.
func echoAttribute(r recorded) *protocol.Response {
	return &protocol.Response{Service: r.Request.Service[0] | spec.ReplyFlag, Data: []byte{0x2A, 0x00}}
}

func silentDevice(d *fakeDevice) { d.silent = true }

func rejectForwardOpen(status uint8) func(*fakeDevice) {
	return func(d *fakeDevice) { d.forwardOpenStatus = status }
}

func testConfig(addr string) Config {
	cfg := DefaultConfig("127.0.0.1")
	cfg.Address = addr
	cfg.Timeout = 2 * time.Second
	return cfg
}
