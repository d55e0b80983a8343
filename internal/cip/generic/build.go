package generic

import (
	"github.com/tturner/cipmsg/internal/cip/protocol"
	"github.com/tturner/cipmsg/internal/cip/route"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// Builder turns requests into envelopes without any I/O.
type Builder struct {
	RouteMode    route.Mode
	PathMode     protocol.PathMode
	DefaultRoute []route.Segment
}

type target struct {
	service []byte
	path    []byte
}

// prepared is a validated request waiting for its sequence count.
type prepared struct {
	req       Request
	target    target
	routePath []byte
}

// prepare encodes the service, request path and route of req. It performs
// every check that can reject a request.
func (b Builder) prepare(req Request) (prepared, error) {
	service, err := protocol.EncodeService(req.Service)
	if err != nil {
		return prepared{}, err
	}
	path, err := protocol.BuildRequestPath(req.Class, req.Instance, req.Attribute, b.PathMode)
	if err != nil {
		return prepared{}, err
	}
	p := prepared{req: req, target: target{service: service, path: path}}
	if req.Connected {
		return p, nil
	}
	if p.routePath, err = req.Route.Resolve(b.DefaultRoute, b.RouteMode); err != nil {
		return prepared{}, err
	}
	if req.UnconnectedSend && (len(p.routePath) == 0 || p.routePath[0] == 0) {
		return prepared{}, cipErrors.InvalidRoute("unconnected send needs a route path")
	}
	return p, nil
}

// envelope assembles the envelope. nextSeq is only called for connected requests.
func (p prepared) envelope(nextSeq func() uint16) Envelope {
	if p.req.Connected {
		return connectedEnvelope(p.req, p.target, nextSeq())
	}
	return unconnectedEnvelope(p.req, p.target, p.routePath)
}

// Build validates req and assembles its envelope. For connected requests
// nextSeq is called exactly once, after validation succeeds.
func (b Builder) Build(req Request, nextSeq func() uint16) (Envelope, error) {
	p, err := b.prepare(req)
	if err != nil {
		return nil, err
	}
	return p.envelope(nextSeq), nil
}

func connectedEnvelope(req Request, t target, seq uint16) ConnectedEnvelope {
	return ConnectedEnvelope{
		Sequence: seq,
		Service:  t.service,
		Path:     t.path,
		Payload:  append([]byte{}, req.Payload...),
	}
}

func unconnectedEnvelope(req Request, t target, routePath []byte) UnconnectedEnvelope {
	return UnconnectedEnvelope{
		Service:         t.service,
		Path:            t.path,
		Payload:         append([]byte{}, req.Payload...),
		RoutePath:       routePath,
		UnconnectedSend: req.UnconnectedSend,
	}
}
