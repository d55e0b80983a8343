package capture

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/cipmsg/internal/enip"
)

func TestRecorderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf)
	require.NoError(t, err)

	req := enip.BuildRegisterSession(enip.SenderContext)
	reply := enip.EncodeENIP(enip.ENIPEncapsulation{Command: enip.ENIPCommandRegisterSession, SessionID: 9, Data: []byte{1, 0, 0, 0}})
	require.NoError(t, rec.Record(ToTarget, req))
	require.NoError(t, rec.Record(FromTarget, reply))
	require.NoError(t, rec.Close())
	assert.Equal(t, 2, rec.Count())

	frames, err := ReadFrames(bytes.NewReader(buf.Bytes()), enip.DefaultPort)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, ToTarget, frames[0].Direction)
	assert.Equal(t, req, frames[0].Payload)
	assert.Equal(t, FromTarget, frames[1].Direction)
	assert.Equal(t, reply, frames[1].Payload)
}

func TestRecorderTCPSequence(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf)
	require.NoError(t, err)
	rec.SetServer("10.1.2.3:44818")

	require.NoError(t, rec.Record(ToTarget, make([]byte, 28)))
	require.NoError(t, rec.Record(FromTarget, make([]byte, 40)))
	require.NoError(t, rec.Record(ToTarget, make([]byte, 24)))

	pr, err := pcapgo.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeEthernet, pr.LinkType())

	var seqs, acks []uint32
	var dsts []string
	src := gopacket.NewPacketSource(pr, pr.LinkType())
	for p := range src.Packets() {
		tcp := p.Layer(layers.LayerTypeTCP).(*layers.TCP)
		ip := p.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		seqs = append(seqs, tcp.Seq)
		acks = append(acks, tcp.Ack)
		dsts = append(dsts, ip.DstIP.String())
	}
	assert.Equal(t, []uint32{1, 1, 29}, seqs)
	assert.Equal(t, []uint32{1, 29, 41}, acks)
	assert.Equal(t, []string{"10.1.2.3", "192.0.2.1", "10.1.2.3"}, dsts)
}

func TestSetServerIgnoresHostNames(t *testing.T) {
	rec, err := NewRecorder(&bytes.Buffer{})
	require.NoError(t, err)
	rec.SetServer("plc.local:44818")
	assert.Equal(t, defaultServer, rec.server)
	rec.SetServer("[::1]:44818")
	assert.Equal(t, defaultServer, rec.server)
}

func TestCreateAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.pcap")
	rec, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, rec.Record(ToTarget, []byte{0x65, 0x00}))
	require.NoError(t, rec.Close())

	frames, err := ReadFile(path, enip.DefaultPort)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{0x65, 0x00}, frames[0].Payload)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.pcap"), enip.DefaultPort)
	assert.Error(t, err)
}

type stubTransport struct {
	connected bool
	sendErr   error
	replies   [][]byte
	sent      [][]byte
}

func (s *stubTransport) Connect(context.Context, string) error { s.connected = true; return nil }
func (s *stubTransport) Disconnect() error                     { s.connected = false; return nil }
func (s *stubTransport) IsConnected() bool                     { return s.connected }

func (s *stubTransport) Send(_ context.Context, frame []byte) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, frame)
	return nil
}

func (s *stubTransport) Receive(context.Context, time.Duration) ([]byte, error) {
	if len(s.replies) == 0 {
		return nil, errors.New("no reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func TestTapRecordsSuccessfulFramesOnly(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf)
	require.NoError(t, err)
	inner := &stubTransport{replies: [][]byte{{0xBB}}}
	tap := NewTap(inner, rec)
	ctx := context.Background()

	require.NoError(t, tap.Connect(ctx, "10.0.0.9:44818"))
	assert.True(t, tap.IsConnected())
	require.NoError(t, tap.Send(ctx, []byte{0xAA}))
	got, err := tap.Receive(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xBB}, got)

	_, err = tap.Receive(ctx, time.Second)
	assert.Error(t, err)
	inner.sendErr = errors.New("broken pipe")
	assert.Error(t, tap.Send(ctx, []byte{0xCC}))

	require.NoError(t, tap.Disconnect())
	assert.False(t, tap.IsConnected())
	assert.Equal(t, 2, rec.Count())

	frames, err := ReadFrames(bytes.NewReader(buf.Bytes()), 44818)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, []byte{0xAA}, frames[0].Payload)
	assert.Equal(t, []byte{0xBB}, frames[1].Payload)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "tx", ToTarget.String())
	assert.Equal(t, "rx", FromTarget.String())
}
