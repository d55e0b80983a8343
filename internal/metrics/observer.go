package metrics

import (
	"github.com/tturner/cipmsg/internal/cip/generic"
	"github.com/tturner/cipmsg/internal/cip/spec"
	cipErrors "github.com/tturner/cipmsg/internal/errors"
)

// Observer records a Metric for every finished request.
type Observer struct {
	sink   *Sink
	writer *Writer
	onErr  func(error)
}

// NewObserver records into sink and, when writer is non-nil, streams each
// metric to it. Write errors go to onErr if set.
func NewObserver(sink *Sink, writer *Writer, onErr func(error)) *Observer {
	return &Observer{sink: sink, writer: writer, onErr: onErr}
}

func (o *Observer) RequestSent(generic.Event) {}

func (o *Observer) RequestFailed(e generic.Event) { o.record(e) }

func (o *Observer) RequestCompleted(e generic.Event) { o.record(e) }

func (o *Observer) record(e generic.Event) {
	m := FromEvent(e)
	if o.sink != nil {
		o.sink.Record(m)
	}
	if o.writer != nil {
		if err := o.writer.WriteMetric(m); err != nil && o.onErr != nil {
			o.onErr(err)
		}
	}
}

// FromEvent converts a finished request event into a Metric.
func FromEvent(e generic.Event) Metric {
	m := Metric{
		Timestamp: e.Started,
		RequestID: e.ID.String(),
		Label:     e.Label,
		Mode:      modeOf(e),
		Service:   spec.ServiceName(spec.ServiceCode(e.Service)),
		Success:   e.Err == nil,
		RTTMs:     float64(e.Elapsed.Microseconds()) / 1000,
		Outcome:   OutcomeSuccess,
	}
	if e.Response != nil {
		m.Status = e.Response.Status.General
	}
	if e.Err != nil {
		m.Outcome = cipErrors.KindOf(e.Err).String()
		m.Error = e.Err.Error()
	}
	return m
}

func modeOf(e generic.Event) Mode {
	switch env := e.Envelope.(type) {
	case generic.UnconnectedEnvelope:
		if env.UnconnectedSend {
			return ModeUnconnectedSend
		}
		return ModeUnconnected
	case generic.ConnectedEnvelope:
		return ModeConnected
	}
	if e.Connected {
		return ModeConnected
	}
	return ModeUnconnected
}
