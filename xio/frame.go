// Package xio models the XIO link: a half-duplex, byte-wide channel between
// the bridge and the remote fabric, gated by an RTS/CTS handshake and clocked
// by one data strobe per byte.
package xio

import "fmt"

// Command is the 4-bit command that opens every frame.
type Command uint8

// Commands understood by the remote fabric.
const (
	CmdNop       Command = 0x0
	CmdSDRAMRead Command = 0x1
)

// CommandMask keeps the command nibble.
const CommandMask = 0x0F

// PayloadLen returns the number of payload bytes that follow the command
// byte.
func (c Command) PayloadLen() int {
	if c&CommandMask == CmdSDRAMRead {
		return 4
	}

	return 0
}

func (c Command) String() string {
	switch c & CommandMask {
	case CmdNop:
		return "NOP"
	case CmdSDRAMRead:
		return "SDRAM_READ"
	default:
		return fmt.Sprintf("CMD_%X", uint8(c&CommandMask))
	}
}

// Frame is one command and its optional payload.
type Frame struct {
	ID      string
	Command Command
	Payload uint32
}

// Bytes returns the frame as it appears on the data lines: the command
// zero-extended to a byte, then the payload MSB first.
func (f Frame) Bytes() []byte {
	cmd := f.Command & CommandMask
	bytes := []byte{byte(cmd)}

	for i := 0; i < cmd.PayloadLen(); i++ {
		bytes = append(bytes, byte(f.Payload>>(24-8*i)))
	}

	return bytes
}

func (f Frame) String() string {
	if f.Command.PayloadLen() == 0 {
		return f.Command.String()
	}

	return fmt.Sprintf("%s %08X", f.Command, f.Payload)
}

// FrameDecoder rebuilds frames from the bytes latched by a receiver.
type FrameDecoder struct {
	inFrame   bool
	cmd       Command
	payload   uint32
	remaining int
}

// Push adds one byte. It returns the frame once its last byte arrives.
func (d *FrameDecoder) Push(b byte) (Frame, bool) {
	if !d.inFrame {
		d.cmd = Command(b) & CommandMask
		d.payload = 0
		d.remaining = d.cmd.PayloadLen()
		d.inFrame = true
	} else {
		d.payload = d.payload<<8 | uint32(b)
		d.remaining--
	}

	if d.remaining > 0 {
		return Frame{}, false
	}

	d.inFrame = false

	return Frame{Command: d.cmd, Payload: d.payload}, true
}

// InFrame tells if a partially received frame is pending.
func (d *FrameDecoder) InFrame() bool {
	return d.inFrame
}

// Reset drops a partially received frame.
func (d *FrameDecoder) Reset() {
	*d = FrameDecoder{}
}
