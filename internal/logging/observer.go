package logging

import (
	"github.com/rs/zerolog"

	"github.com/tturner/cipmsg/internal/cip/generic"
	"github.com/tturner/cipmsg/internal/cip/spec"
)

// Observer logs generic request lifecycle events.
type Observer struct {
	log *Logger
}

// NewObserver returns an Observer writing to l. A nil logger is allowed.
func NewObserver(l *Logger) *Observer {
	return &Observer{log: l}
}

func (o *Observer) fields(ev *zerolog.Event, e generic.Event) *zerolog.Event {
	ev = ev.Str("id", e.ID.String()).
		Str("label", e.Label).
		Str("service", spec.ServiceName(spec.ServiceCode(e.Service))).
		Bool("connected", e.Connected)
	if e.Connected {
		ev = ev.Uint16("seq", e.Sequence)
	}
	return ev
}

func (o *Observer) RequestSent(e generic.Event) {
	o.fields(o.log.Event(LogLevelVerbose), e).Msg("request sent")
	if e.Envelope != nil && o.log.Enabled(LogLevelDebug) {
		if raw, err := e.Envelope.Request().Encode(); err == nil {
			o.log.LogHex("request", raw)
		}
	}
}

func (o *Observer) RequestFailed(e generic.Event) {
	o.fields(o.log.Event(LogLevelError), e).
		Err(e.Err).
		Dur("elapsed", e.Elapsed).
		Msg("request failed")
}

func (o *Observer) RequestCompleted(e generic.Event) {
	level := LogLevelInfo
	if e.Err != nil {
		level = LogLevelError
	}
	ev := o.fields(o.log.Event(level), e).Dur("elapsed", e.Elapsed)
	if e.Response != nil {
		ev = ev.Uint8("status", e.Response.Status.General).Int("bytes", len(e.Response.Raw))
	}
	ev.Err(e.Err).Msg("request completed")
	if e.Response != nil && o.log.Enabled(LogLevelDebug) {
		o.log.LogHex("reply", e.Response.Raw)
	}
}
