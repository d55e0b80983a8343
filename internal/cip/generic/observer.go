package generic

import (
	"time"

	"github.com/google/uuid"
)

// Event describes one request at an observation point.
type Event struct {
	ID        uuid.UUID
	Label     string
	Service   uint8
	Connected bool
	Sequence  uint16
	Envelope  Envelope
	Started   time.Time
	Elapsed   time.Duration
	Response  *DeviceResponse
	Err       error
}

// Observer is notified when a request is sent, when it fails without a
// device reply, and when it completes with one.
type Observer interface {
	RequestSent(Event)
	RequestFailed(Event)
	RequestCompleted(Event)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) RequestSent(Event)      {}
func (NopObserver) RequestFailed(Event)    {}
func (NopObserver) RequestCompleted(Event) {}

type multiObserver []Observer

// MultiObserver fans events out to each non-nil observer in order.
func MultiObserver(observers ...Observer) Observer {
	var out multiObserver
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multiObserver) RequestSent(e Event) {
	for _, o := range m {
		o.RequestSent(e)
	}
}

func (m multiObserver) RequestFailed(e Event) {
	for _, o := range m {
		o.RequestFailed(e)
	}
}

func (m multiObserver) RequestCompleted(e Event) {
	for _, o := range m {
		o.RequestCompleted(e)
	}
}
