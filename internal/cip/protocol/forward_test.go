package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/cipmsg/internal/cip/codec"
)

func TestForwardOpenEncodeStandard(t *testing.T) {
	fo := ForwardOpen{
		ConnectionSize:   500,
		RPI:              2 * time.Second,
		TOConnectionID:   0x11223344,
		ConnectionSerial: 0x0427,
		VendorID:         0x1009,
		OriginatorSerial: 42,
		ConnectionPath:   []byte{0x01, 0x00, 0x20, 0x02, 0x24, 0x01},
	}
	got, err := fo.Encode()
	require.NoError(t, err)

	req, err := DecodeRequest(got)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x54}, req.Service)
	assert.Equal(t, ConnectionManagerPath(), req.Path)

	d := req.Data
	assert.Equal(t, []byte{0x0A, 0x05}, d[0:2])
	to, _ := codec.Uint32(d, 6)
	assert.Equal(t, uint32(0x11223344), to)
	serial, _ := codec.Uint16(d, 10)
	assert.Equal(t, uint16(0x0427), serial)
	assert.Equal(t, byte(0x03), d[18], "timeout multiplier")
	rpi, _ := codec.Uint32(d, 22)
	assert.Equal(t, uint32(2_000_000), rpi)
	params, _ := codec.Uint16(d, 26)
	assert.Equal(t, uint16(0x4200|500), params)
	assert.Equal(t, byte(0xA3), d[34])
	assert.Equal(t, byte(3), d[35], "connection path words")
	assert.Equal(t, fo.ConnectionPath, d[36:])
}

func TestForwardOpenEncodeLarge(t *testing.T) {
	fo := ForwardOpen{Large: true, ConnectionSize: 4000, ConnectionPath: MessageRouterPath()}
	got, err := fo.Encode()
	require.NoError(t, err)
	req, err := DecodeRequest(got)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x5B}, req.Service)
	params, _ := codec.Uint32(req.Data, 26)
	assert.Equal(t, uint32(0x42000000|4000), params)
	assert.Equal(t, byte(2), req.Data[39])
}

func TestForwardOpenStandardSizeLimit(t *testing.T) {
	_, err := ForwardOpen{ConnectionSize: 4000}.Encode()
	assert.Error(t, err)
}

func TestParseForwardOpenReply(t *testing.T) {
	var data []byte
	data = codec.AppendUint32(data, 0xAABBCCDD)
	data = codec.AppendUint32(data, 0x01020304)
	data = codec.AppendUint16(data, 7)
	data = codec.AppendUint16(data, 0x1009)
	data = codec.AppendUint32(data, 42)
	data = codec.AppendUint32(data, 2_000_000)
	data = codec.AppendUint32(data, 1_000_000)
	data = append(data, 0x00, 0x00)

	reply, err := ParseForwardOpenReply(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAABBCCDD), reply.OTConnectionID)
	assert.Equal(t, uint32(0x01020304), reply.TOConnectionID)
	assert.Equal(t, uint16(7), reply.ConnectionSerial)
	assert.Equal(t, 2*time.Second, reply.OTAPI)
	assert.Equal(t, time.Second, reply.TOAPI)

	_, err = ParseForwardOpenReply(data[:10])
	assert.Error(t, err)
}

func TestForwardCloseEncode(t *testing.T) {
	got, err := ForwardClose{
		ConnectionSerial: 7,
		VendorID:         0x1009,
		OriginatorSerial: 42,
		ConnectionPath:   []byte{0x01, 0x00, 0x20, 0x02, 0x24, 0x01},
	}.Encode()
	require.NoError(t, err)
	req, err := DecodeRequest(got)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x4E}, req.Service)
	assert.Equal(t, []byte{0x03, 0x00}, req.Data[10:12], "path words + reserved")
	assert.Len(t, req.Data, 18)
}
