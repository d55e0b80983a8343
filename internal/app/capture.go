package app

import (
	"fmt"
	"io"

	"github.com/tturner/cipmsg/internal/capture"
	"github.com/tturner/cipmsg/internal/cip/protocol"
	"github.com/tturner/cipmsg/internal/cip/spec"
	"github.com/tturner/cipmsg/internal/enip"
)

var commandNames = map[uint16]string{
	enip.ENIPCommandNOP:               "NOP",
	enip.ENIPCommandListIdentity:      "ListIdentity",
	enip.ENIPCommandRegisterSession:   "RegisterSession",
	enip.ENIPCommandUnregisterSession: "UnregisterSession",
	enip.ENIPCommandSendRRData:        "SendRRData",
	enip.ENIPCommandSendUnitData:      "SendUnitData",
}

func commandName(cmd uint16) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", cmd)
}

// RunCaptureDump lists the encapsulation frames of a pcap written by send.
func RunCaptureDump(out io.Writer, path string, port uint16) error {
	frames, err := capture.ReadFile(path, port)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		fmt.Fprintln(out, "No frames found")
		return nil
	}
	for i, f := range frames {
		fmt.Fprintf(out, "%3d %s %s %s\n", i+1, f.Timestamp.Format("15:04:05.000"), f.Direction, describeFrame(f))
	}
	return nil
}

func describeFrame(f capture.Frame) string {
	encap, err := enip.DecodeENIP(f.Payload)
	if err != nil {
		return fmt.Sprintf("undecodable (%d bytes): %v", len(f.Payload), err)
	}
	line := fmt.Sprintf("%-17s session=0x%08X len=%d", commandName(encap.Command), encap.SessionID, len(encap.Data))
	if encap.Status != enip.ENIPStatusSuccess {
		line += fmt.Sprintf(" status=0x%X", encap.Status)
	}

	var mr []byte
	switch encap.Command {
	case enip.ENIPCommandSendRRData:
		mr, _ = enip.ParseSendRRDataResponse(encap.Data)
	case enip.ENIPCommandSendUnitData:
		var seq uint16
		if _, seq, mr, err = enip.ParseSendUnitDataResponse(encap.Data); err == nil {
			line += fmt.Sprintf(" seq=%d", seq)
		}
	}
	if len(mr) == 0 {
		return line
	}
	if f.Direction == capture.FromTarget {
		if resp, err := protocol.DecodeResponse(mr); err == nil {
			return line + fmt.Sprintf(" %s reply status=0x%02X", spec.ServiceName(spec.ServiceCode(resp.Service)), resp.Status)
		}
		return line
	}
	return line + " " + spec.ServiceName(spec.ServiceCode(mr[0]))
}
