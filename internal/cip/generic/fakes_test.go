package generic

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tturner/cipmsg/internal/cip/route"
)

type fakeSession struct {
	seq       atomic.Uint32
	opens     atomic.Int32
	openErr   error
	defRoute  []route.Segment
	seqCalled atomic.Int32
}

func (s *fakeSession) EnsureOpen(context.Context) error {
	s.opens.Add(1)
	return s.openErr
}

func (s *fakeSession) NextSequence() uint16 {
	s.seqCalled.Add(1)
	return uint16(s.seq.Add(1))
}

func (s *fakeSession) DefaultRoute() []route.Segment { return s.defRoute }

type fakeDispatcher struct {
	mu    sync.Mutex
	sent  []Envelope
	resp  *DeviceResponse
	err   error
	block bool
}

func (d *fakeDispatcher) Send(ctx context.Context, env Envelope) (*DeviceResponse, error) {
	d.mu.Lock()
	d.sent = append(d.sent, env)
	d.mu.Unlock()
	if d.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return d.resp, d.err
}

func (d *fakeDispatcher) envelopes() []Envelope {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Envelope{}, d.sent...)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
	last   Event
}

func (o *recordingObserver) record(kind string, e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, kind)
	o.last = e
}

func (o *recordingObserver) RequestSent(e Event)      { o.record("sent", e) }
func (o *recordingObserver) RequestFailed(e Event)    { o.record("failed", e) }
func (o *recordingObserver) RequestCompleted(e Event) { o.record("completed", e) }

func okResponse(raw ...byte) *DeviceResponse {
	return &DeviceResponse{Service: 0x8E, Raw: raw}
}
