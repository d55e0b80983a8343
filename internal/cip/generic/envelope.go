package generic

import (
	"fmt"

	"github.com/tturner/cipmsg/internal/cip/protocol"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// Envelope is the request shape handed to a Dispatcher. It is either a
// ConnectedEnvelope or an UnconnectedEnvelope.
type Envelope interface {
	// Request returns the Message Router request carried by the envelope.
	Request() protocol.Request
	envelope()
}

// ConnectedEnvelope is sent over an open connection. It never carries a route.
type ConnectedEnvelope struct {
	Sequence uint16
	Service  []byte
	Path     []byte
	Payload  []byte
}

func (e ConnectedEnvelope) Request() protocol.Request {
	return protocol.Request{Service: e.Service, Path: e.Path, Data: e.Payload}
}

func (ConnectedEnvelope) envelope() {}

func (e ConnectedEnvelope) String() string {
	return fmt.Sprintf("connected seq=%d service=% X path=% X payload=% X", e.Sequence, e.Service, e.Path, e.Payload)
}

// UnconnectedEnvelope is sent through the UCMM. RoutePath is the encoded
// route; UnconnectedSend asks for the request to be wrapped in an
// Unconnected Send to the Connection Manager before transmission.
type UnconnectedEnvelope struct {
	Service         []byte
	Path            []byte
	Payload         []byte
	RoutePath       []byte
	UnconnectedSend bool
}

func (e UnconnectedEnvelope) Request() protocol.Request {
	return protocol.Request{Service: e.Service, Path: e.Path, Data: e.Payload}
}

func (UnconnectedEnvelope) envelope() {}

func (e UnconnectedEnvelope) String() string {
	return fmt.Sprintf("unconnected service=% X path=% X payload=% X route=% X wrap=%t",
		e.Service, e.Path, e.Payload, e.RoutePath, e.UnconnectedSend)
}

// Status is the general and extended status of a device reply.
type Status struct {
	General  uint8
	Extended []byte
}

func (s Status) OK() bool { return s.General == 0 }

// Err returns nil for success and a DeviceError otherwise.
func (s Status) Err() error {
	if s.OK() {
		return nil
	}
	return cipErrors.DeviceError(s.General, s.Extended)
}

// DeviceResponse is a reply obtained from the device. Raw is the reply data
// following the status fields.
type DeviceResponse struct {
	Service uint8
	Status  Status
	Raw     []byte
}

// NewDeviceResponse converts a decoded Message Router reply.
func NewDeviceResponse(resp protocol.Response) *DeviceResponse {
	return &DeviceResponse{
		Service: resp.Service,
		Status:  Status{General: resp.Status, Extended: resp.ExtStatus},
		Raw:     resp.Data,
	}
}
