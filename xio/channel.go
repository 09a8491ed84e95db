package xio

import (
	"fmt"

	"github.com/sarchlab/a8xio/sim/hooking"
	"github.com/sarchlab/a8xio/sim/naming"
)

// State is the state of the link state machine.
type State int

// States of the link state machine.
const (
	StateIdle State = iota
	StateRequestToSend
	StateWaitClearToSend
	StateSendCommand
	StateStrobeClock
	StateSendByte3
	StateSendByte2
	StateSendByte1
	StateSendByte0
	StateDone
)

var stateNames = [...]string{
	"Idle",
	"RequestToSend",
	"WaitClearToSend",
	"SendCommand",
	"StrobeClock",
	"SendByte3",
	"SendByte2",
	"SendByte1",
	"SendByte0",
	"Done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// SubmitOutcome reports what happened to a submitted frame.
type SubmitOutcome int

// Possible submit outcomes.
const (
	// SubmitAccepted means the channel was idle and starts sending the frame.
	SubmitAccepted SubmitOutcome = iota
	// SubmitOverwritten means a frame was already in flight. Its command and
	// payload latches now hold the new frame, and the bytes not yet sent
	// come from the new frame.
	SubmitOverwritten
	// SubmitDropped means every byte of the frame in flight was already
	// driven. The new frame is discarded and the latches are left alone.
	SubmitDropped
)

func (o SubmitOutcome) String() string {
	switch o {
	case SubmitOverwritten:
		return "overwritten"
	case SubmitDropped:
		return "dropped"
	default:
		return "accepted"
	}
}

// Status summarizes one tick of the channel.
type Status int

// Tick statuses.
const (
	StatusIdle Status = iota
	StatusActive
	// StatusStalled means the channel is waiting for clear-to-send. There is
	// no timeout; the caller decides how long to wait.
	StatusStalled
	// StatusCompleted means the frame finished on this tick.
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusStalled:
		return "stalled"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outputs are the signals the channel drives towards the peer.
type Outputs struct {
	RequestToSend bool
	OutputEnable  bool
	DataStrobe    bool
	Data          uint8
}

// Hook positions of the channel.
var (
	HookPosFrameAccepted    = &hooking.HookPos{Name: "XIO Frame Accepted"}
	HookPosFrameOverwritten = &hooking.HookPos{Name: "XIO Frame Overwritten"}
	HookPosFrameDropped     = &hooking.HookPos{Name: "XIO Frame Dropped"}
	HookPosByteSent         = &hooking.HookPos{Name: "XIO Byte Sent"}
	HookPosFrameDone        = &hooking.HookPos{Name: "XIO Frame Done"}
)

// Channel is the sending side of the XIO link.
type Channel struct {
	naming.NamedBase
	hooking.HookableBase

	state  State
	queued State
	out    Outputs

	frame Frame
	// sent is the frame as driven on the data lines so far.
	sent Frame
}

// NewChannel creates an idle channel.
func NewChannel(name string) *Channel {
	naming.NameMustBeValid(name)

	return &Channel{NamedBase: naming.MakeNamedBase(name)}
}

// State returns the current state.
func (c *Channel) State() State {
	return c.state
}

// Outputs returns the signals driven after the last tick.
func (c *Channel) Outputs() Outputs {
	return c.out
}

// IsIdle tells if a new frame would be accepted without overwriting.
func (c *Channel) IsIdle() bool {
	return c.state == StateIdle
}

// InFlight returns the frame held in the latches.
func (c *Channel) InFlight() Frame {
	return c.frame
}

// Sent returns the frame as driven on the data lines so far.
func (c *Channel) Sent() Frame {
	return c.sent
}

// Submit latches a frame. An idle channel moves to RequestToSend right away.
// A busy channel keeps its state but the latches are overwritten, unless the
// last byte is already out, in which case the frame is dropped.
func (c *Channel) Submit(f Frame) SubmitOutcome {
	f.Command &= CommandMask

	if c.allBytesDriven() {
		c.invoke(HookPosFrameDropped, f, c.state)
		return SubmitDropped
	}

	c.frame = f

	if c.state != StateIdle {
		c.invoke(HookPosFrameOverwritten, f, c.state)
		return SubmitOverwritten
	}

	c.state = StateRequestToSend
	c.invoke(HookPosFrameAccepted, f, nil)

	return SubmitAccepted
}

func (c *Channel) allBytesDriven() bool {
	return c.state == StateDone ||
		(c.state == StateStrobeClock && c.queued == StateDone)
}

// Tick advances the state machine by one system tick.
func (c *Channel) Tick(clearToSend bool) (Outputs, Status) {
	status := StatusActive

	switch c.state {
	case StateIdle:
		status = StatusIdle
	case StateRequestToSend:
		c.out.RequestToSend = true
		c.state = StateWaitClearToSend
	case StateWaitClearToSend:
		if !clearToSend {
			status = StatusStalled
			break
		}

		c.out.OutputEnable = true
		c.state = StateSendCommand
	case StateSendCommand:
		c.sent = Frame{Command: c.frame.Command}
		c.drive(uint8(c.frame.Command))
		c.queued = StateDone
		if c.frame.Command == CmdSDRAMRead {
			c.queued = StateSendByte3
		}
	case StateStrobeClock:
		c.out.DataStrobe = false
		c.state = c.queued
	case StateSendByte3, StateSendByte2, StateSendByte1, StateSendByte0:
		c.sendPayloadByte()
	case StateDone:
		c.out = Outputs{}
		c.state = StateIdle
		status = StatusCompleted
		c.invoke(HookPosFrameDone, c.sent, nil)
	}

	return c.out, status
}

func (c *Channel) sendPayloadByte() {
	shift := 8 * uint(StateSendByte0-c.state)

	next := c.state + 1
	if c.state == StateSendByte0 {
		next = StateDone
	}

	b := uint8(c.frame.Payload >> shift)
	c.sent.Payload = c.sent.Payload&^(0xFF<<shift) | uint32(b)<<shift
	c.drive(b)
	c.queued = next
}

func (c *Channel) drive(b uint8) {
	c.sent.ID = c.frame.ID
	c.out.Data = b
	c.out.DataStrobe = true
	c.state = StateStrobeClock
	c.invoke(HookPosByteSent, b, c.frame)
}

// Reset returns the channel to Idle with all drivers released.
func (c *Channel) Reset() {
	c.state = StateIdle
	c.queued = StateIdle
	c.out = Outputs{}
	c.frame = Frame{}
	c.sent = Frame{}
}

func (c *Channel) invoke(pos *hooking.HookPos, item, detail any) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
