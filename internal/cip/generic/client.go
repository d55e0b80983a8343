// Package generic sends one class/instance/attribute addressed request over
// a connected session or through the unconnected message manager.
package generic

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tturner/cipmsg/internal/cip/protocol"
	"github.com/tturner/cipmsg/internal/cip/route"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// Session is the connection collaborator. NextSequence must hand out each
// value once, atomically, per connection.
type Session interface {
	EnsureOpen(ctx context.Context) error
	NextSequence() uint16
	DefaultRoute() []route.Segment
}

// Dispatcher transmits an envelope and returns the device reply. It owns
// timeouts; a nil response with a nil error counts as no response.
type Dispatcher interface {
	Send(ctx context.Context, env Envelope) (*DeviceResponse, error)
}

// Client sends generic requests. It holds no per-request state and may be
// shared across goroutines; serialization on one connection is up to the
// Dispatcher.
type Client struct {
	session    Session
	dispatcher Dispatcher
	observer   Observer
	routeMode  route.Mode
	pathMode   protocol.PathMode
	now        func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

func WithRouteMode(m route.Mode) ClientOption {
	return func(c *Client) { c.routeMode = m }
}

func WithPathMode(m protocol.PathMode) ClientOption {
	return func(c *Client) { c.pathMode = m }
}

// NewClient returns a Client using padded routes and request paths.
func NewClient(session Session, dispatcher Dispatcher, opts ...ClientOption) *Client {
	c := &Client{
		session:    session,
		dispatcher: dispatcher,
		observer:   NopObserver{},
		routeMode:  route.Padded,
		pathMode:   protocol.PathPadded,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Builder returns the envelope builder matching the client's modes.
func (c *Client) Builder() Builder {
	return Builder{RouteMode: c.routeMode, PathMode: c.pathMode, DefaultRoute: c.session.DefaultRoute()}
}

// SendGeneric builds and dispatches a request. See Send.
func (c *Client) SendGeneric(ctx context.Context, service, class, instance protocol.Address, opts ...RequestOption) (Result, error) {
	return c.Send(ctx, NewRequest(service, class, instance, opts...))
}

// Send dispatches req. The returned error is non-nil only for an invalid
// address or route, in which case nothing was sent. Every other failure is
// reported in Result.Error.
func (c *Client) Send(ctx context.Context, req Request) (Result, error) {
	p, err := c.Builder().prepare(req)
	if err != nil {
		return Result{}, err
	}

	ev := Event{
		ID:        uuid.New(),
		Label:     req.Label,
		Service:   p.target.service[0],
		Connected: req.Connected,
		Started:   c.now(),
	}

	if req.Connected {
		if err := c.session.EnsureOpen(ctx); err != nil {
			return c.fail(ev, req, cipErrors.ConnectionUnavailable("ensure open", err)), nil
		}
	}
	env := p.envelope(c.session.NextSequence)
	if ce, ok := env.(ConnectedEnvelope); ok {
		ev.Sequence = ce.Sequence
	}
	ev.Envelope = env
	c.observer.RequestSent(ev)

	resp, err := c.dispatcher.Send(ctx, env)
	if err == nil && resp == nil {
		err = cipErrors.New("no response")
	}
	if err != nil {
		if !cipErrors.Is(err, cipErrors.ErrTransportFailure) {
			err = cipErrors.TransportFailure("send", err)
		}
		return c.fail(ev, req, err), nil
	}

	res := Normalize(req, resp)
	res.ID = ev.ID
	ev.Elapsed = c.now().Sub(ev.Started)
	ev.Response = resp
	ev.Err = res.Error
	c.observer.RequestCompleted(ev)
	return res, nil
}

func (c *Client) fail(ev Event, req Request, err error) Result {
	ev.Elapsed = c.now().Sub(ev.Started)
	ev.Err = err
	c.observer.RequestFailed(ev)
	return Result{ID: ev.ID, Label: req.Label, Error: err}
}
