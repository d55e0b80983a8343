package capture

import (
	"context"
	"time"

	"github.com/tturner/cipmsg/internal/cip/client"
)

// Tap is a Transport that records every frame it sends or receives.
type Tap struct {
	inner client.Transport
	rec   *Recorder
}

var _ client.Transport = (*Tap)(nil)

// NewTap wraps inner. Recording errors never fail the transport; they are
// reported by rec.Close.
func NewTap(inner client.Transport, rec *Recorder) *Tap {
	return &Tap{inner: inner, rec: rec}
}

func (t *Tap) Connect(ctx context.Context, addr string) error {
	if err := t.inner.Connect(ctx, addr); err != nil {
		return err
	}
	t.rec.SetServer(addr)
	return nil
}

func (t *Tap) Disconnect() error { return t.inner.Disconnect() }

func (t *Tap) IsConnected() bool { return t.inner.IsConnected() }

func (t *Tap) Send(ctx context.Context, frame []byte) error {
	if err := t.inner.Send(ctx, frame); err != nil {
		return err
	}
	t.rec.Record(ToTarget, frame)
	return nil
}

func (t *Tap) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	frame, err := t.inner.Receive(ctx, timeout)
	if err != nil {
		return nil, err
	}
	t.rec.Record(FromTarget, frame)
	return frame, nil
}
