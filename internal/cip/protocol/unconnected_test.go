package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestWrapUnconnectedSend(t *testing.T) {
	message := []byte{0x0E, 0x03, 0x20, 0x01, 0x24, 0x01, 0x30, 0x07, 0xAA}
	route := []byte{0x01, 0x00, 0x01, 0x00}

	got, err := WrapUnconnectedSend(message, route)
	require.NoError(t, err)

	want := []byte{
		0x52, 0x02, 0x20, 0x06, 0x24, 0x01, // service + connection manager path
		0x0A, 0x05, // priority/tick, timeout ticks
		0x09, 0x00, // message length
	}
	want = append(want, message...)
	want = append(want, 0x00) // pad
	want = append(want, route...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("WrapUnconnectedSend mismatch (-want +got):\n%s", diff)
	}

	req, err := DecodeRequest(got)
	require.NoError(t, err)
	gotMsg, gotRoute, err := ParseUnconnectedSend(req.Data)
	require.NoError(t, err)
	if diff := cmp.Diff(message, gotMsg); diff != "" {
		t.Errorf("embedded message (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(route, gotRoute); diff != "" {
		t.Errorf("route (-want +got):\n%s", diff)
	}
}

func TestParseUnconnectedSendTruncated(t *testing.T) {
	_, _, err := ParseUnconnectedSend([]byte{0x0A, 0x05, 0x10, 0x00, 0x01})
	require.Error(t, err)
}
