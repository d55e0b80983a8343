// Package capture records the encapsulation frames of a session to a pcap
// file, wrapped in synthetic Ethernet/IPv4/TCP headers so Wireshark's ENIP
// dissector can read them.
package capture

import (
	"fmt"
	"io"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const snapLen = 65535

// Direction of a recorded frame.
type Direction int

const (
	ToTarget Direction = iota
	FromTarget
)

func (d Direction) String() string {
	if d == FromTarget {
		return "rx"
	}
	return "tx"
}

var (
	defaultClient = netip.MustParseAddrPort("192.0.2.1:50000")
	defaultServer = netip.MustParseAddrPort("192.0.2.2:44818")
	clientMAC     = []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	serverMAC     = []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

// Recorder writes frames as one synthetic TCP flow.
type Recorder struct {
	mu        sync.Mutex
	w         *pcapgo.Writer
	closer    io.Closer
	client    netip.AddrPort
	server    netip.AddrPort
	clientSeq uint32
	serverSeq uint32
	count     int
	err       error
	now       func() time.Time
}

// NewRecorder writes a pcap stream to w.
func NewRecorder(w io.Writer) (*Recorder, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("write pcap header: %w", err)
	}
	return &Recorder{
		w:         pw,
		client:    defaultClient,
		server:    defaultServer,
		clientSeq: 1,
		serverSeq: 1,
		now:       time.Now,
	}, nil
}

// Create writes a new pcap file at path.
func Create(path string) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pcap file: %w", err)
	}
	r, err := NewRecorder(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// SetServer uses addr ("ip:port") as the target endpoint when it is a
// literal IPv4 address; host names keep the placeholder address.
func (r *Recorder) SetServer(addr string) {
	ap, err := netip.ParseAddrPort(addr)
	if err != nil || !ap.Addr().Unmap().Is4() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.server = netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// Record appends one frame. The first write error is kept and returned by
// later calls and by Close.
func (r *Recorder) Record(dir Direction, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}

	src, dst := r.client, r.server
	srcMAC, dstMAC := clientMAC, serverMAC
	seq, ack := r.clientSeq, r.serverSeq
	if dir == FromTarget {
		src, dst = dst, src
		srcMAC, dstMAC = dstMAC, srcMAC
		seq, ack = ack, seq
	}

	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    src.Addr().AsSlice(),
		DstIP:    dst.Addr().AsSlice(),
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(src.Port()),
		DstPort: layers.TCPPort(dst.Port()),
		ACK:     true,
		PSH:     true,
		Seq:     seq,
		Ack:     ack,
		Window:  0xFFFF,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		r.err = fmt.Errorf("tcp checksum: %w", err)
		return r.err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload)); err != nil {
		r.err = fmt.Errorf("serialize packet: %w", err)
		return r.err
	}
	data := buf.Bytes()
	ci := gopacket.CaptureInfo{Timestamp: r.now(), CaptureLength: len(data), Length: len(data)}
	if err := r.w.WritePacket(ci, data); err != nil {
		r.err = fmt.Errorf("write packet: %w", err)
		return r.err
	}

	if dir == FromTarget {
		r.serverSeq += uint32(len(payload))
	} else {
		r.clientSeq += uint32(len(payload))
	}
	r.count++
	return nil
}

// Count returns the number of frames written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Close closes the file opened by Create and reports the first write error.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = err
		}
		r.closer = nil
	}
	return r.err
}

// Frame is one TCP payload read back from a capture.
type Frame struct {
	Timestamp time.Time
	Direction Direction
	Payload   []byte
}

// ReadFrames returns the TCP payloads of a pcap stream. Frames sent to
// serverPort are ToTarget; everything else is FromTarget.
func ReadFrames(rd io.Reader, serverPort uint16) ([]Frame, error) {
	pr, err := pcapgo.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("open pcap: %w", err)
	}
	src := gopacket.NewPacketSource(pr, pr.LinkType())
	var frames []Frame
	for packet := range src.Packets() {
		tcpLayer, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		if !ok || len(tcpLayer.Payload) == 0 {
			continue
		}
		dir := FromTarget
		if uint16(tcpLayer.DstPort) == serverPort {
			dir = ToTarget
		}
		frames = append(frames, Frame{
			Timestamp: packet.Metadata().Timestamp,
			Direction: dir,
			Payload:   append([]byte{}, tcpLayer.Payload...),
		})
	}
	return frames, nil
}

// ReadFile is ReadFrames on a file.
func ReadFile(path string, serverPort uint16) ([]Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pcap file: %w", err)
	}
	defer file.Close()
	return ReadFrames(file, serverPort)
}
