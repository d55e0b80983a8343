package generic

import (
	"github.com/tturner/cipmsg/internal/cip/protocol"
	"github.com/tturner/cipmsg/internal/cip/route"
)

// DefaultLabel names requests that were not given a label.
const DefaultLabel = "generic"

// Request describes one generic message. Build it with NewRequest.
type Request struct {
	Service         protocol.Address
	Class           protocol.Address
	Instance        protocol.Address
	Attribute       protocol.Address
	Payload         []byte
	Decoder         protocol.Decoder
	Label           string
	Connected       bool
	UnconnectedSend bool
	Route           route.Spec
	RawResponse     bool
}

// RequestOption adjusts a Request.
type RequestOption func(*Request)

// NewRequest returns a connected request using the default route.
func NewRequest(service, class, instance protocol.Address, opts ...RequestOption) Request {
	req := Request{
		Service:   service,
		Class:     class,
		Instance:  instance,
		Label:     DefaultLabel,
		Connected: true,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

func WithAttribute(a protocol.Address) RequestOption {
	return func(r *Request) { r.Attribute = a }
}

// WithPayload sets the request data. The slice is copied.
func WithPayload(data []byte) RequestOption {
	return func(r *Request) { r.Payload = append([]byte{}, data...) }
}

func WithDecoder(d protocol.Decoder) RequestOption {
	return func(r *Request) { r.Decoder = d }
}

func WithLabel(label string) RequestOption {
	return func(r *Request) {
		if label != "" {
			r.Label = label
		}
	}
}

// Unconnected sends the request through the UCMM.
func Unconnected() RequestOption {
	return WithConnected(false)
}

func WithConnected(connected bool) RequestOption {
	return func(r *Request) { r.Connected = connected }
}

// WithUnconnectedSend wraps an unconnected request in an Unconnected Send.
// Ignored for connected requests.
func WithUnconnectedSend(wrap bool) RequestOption {
	return func(r *Request) { r.UnconnectedSend = wrap }
}

// WithRoute selects the route of an unconnected request. Ignored for
// connected requests.
func WithRoute(spec route.Spec) RequestOption {
	return func(r *Request) { r.Route = spec }
}

// WithRawResponse returns the whole DeviceResponse as the result value.
func WithRawResponse() RequestOption {
	return func(r *Request) { r.RawResponse = true }
}
