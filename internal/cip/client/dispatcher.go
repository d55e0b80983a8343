package client

import (
	"context"
	"fmt"

	"github.com/tturner/cipmsg/internal/cip/generic"
	"github.com/tturner/cipmsg/internal/cip/protocol"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// Dispatcher sends generic envelopes over a Session.
type Dispatcher struct {
	session *Session
}

var _ generic.Dispatcher = (*Dispatcher)(nil)
var _ generic.Session = (*Session)(nil)

// NewDispatcher returns a Dispatcher bound to s.
func NewDispatcher(s *Session) *Dispatcher {
	return &Dispatcher{session: s}
}

// Encode returns the Message Router bytes that Send would put inside the
// encapsulation frame for env.
func Encode(env generic.Envelope) ([]byte, error) {
	req, err := env.Request().Encode()
	if err != nil {
		return nil, err
	}
	if u, ok := env.(generic.UnconnectedEnvelope); ok && u.UnconnectedSend {
		return protocol.WrapUnconnectedSend(req, u.RoutePath)
	}
	return req, nil
}

// Send transmits env and waits for the reply. Failures to obtain a reply are
// TransportFailure errors; a reply with an error status is returned as is.
func (d *Dispatcher) Send(ctx context.Context, env generic.Envelope) (*generic.DeviceResponse, error) {
	req, err := Encode(env)
	if err != nil {
		return nil, cipErrors.TransportFailure("encode", err)
	}

	var resp protocol.Response
	switch e := env.(type) {
	case generic.ConnectedEnvelope:
		resp, err = d.session.SendConnected(ctx, e.Sequence, req)
	case generic.UnconnectedEnvelope:
		resp, err = d.session.SendUnconnected(ctx, req)
	default:
		err = fmt.Errorf("unsupported envelope %T", env)
	}
	if err != nil {
		return nil, cipErrors.TransportFailure("send", err)
	}
	return generic.NewDeviceResponse(resp), nil
}
