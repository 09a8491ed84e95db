// Package translator turns a host access that won aperture arbitration into a
// remote address, drives the host control lines for it, and generates one
// link request per remote read.
package translator

import (
	"fmt"

	"github.com/sarchlab/a8xio/hostbus/arbitration"
	"github.com/sarchlab/a8xio/hostbus/cyclemonitor"
	"github.com/sarchlab/a8xio/sim/hooking"
	"github.com/sarchlab/a8xio/sim/id"
	"github.com/sarchlab/a8xio/xio"
)

// A FrameSubmitter accepts frames for the link.
type FrameSubmitter interface {
	Submit(f xio.Frame) xio.SubmitOutcome
}

// State is the state of the translator.
type State int

// Translator states.
const (
	StateIdle State = iota
	StateAccessActive
)

func (s State) String() string {
	if s == StateAccessActive {
		return "AccessActive"
	}

	return "Idle"
}

// DeassertPolicy selects what ends an active access. Two variants of the
// bridge exist and they disagree here, so the choice is explicit.
type DeassertPolicy int

const (
	// DeassertOnClockFalling ends the access at the falling edge of the host
	// clock.
	DeassertOnClockFalling DeassertPolicy = iota
	// DeassertOnWriteStrobe ends the access when the write strobe fires while
	// no aperture claims the current address. Back-to-back accesses that stay
	// in an aperture keep the access active, so they share one link request.
	DeassertOnWriteStrobe
)

func (p DeassertPolicy) String() string {
	switch p {
	case DeassertOnClockFalling:
		return "clock-falling"
	case DeassertOnWriteStrobe:
		return "write-strobe"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Access is what the host bus presents in the current tick.
type Access struct {
	Address uint16
	IsRead  bool
}

// Page returns the high byte of the address.
func (a Access) Page() uint8 {
	return uint8(a.Address >> 8)
}

// Offset returns the low byte of the address.
func (a Access) Offset() uint8 {
	return uint8(a.Address)
}

// Request is the translated remote access.
type Request struct {
	RemoteAddress uint32
	IsRead        bool
	Valid         bool
}

// Step carries everything the translator samples in one tick.
type Step struct {
	Strobes     cyclemonitor.Strobes
	Access      Access
	Arbitration arbitration.Result
	// RemoteBase is the base of the winning aperture. It is ignored when the
	// arbitration has no winner.
	RemoteBase uint32
}

// Outputs are the translator outputs after one tick.
type Outputs struct {
	Request Request

	// MathPackDisableN and ExternalSelectN are active-low: false means the
	// line is asserted.
	MathPackDisableN bool
	ExternalSelectN  bool

	// SDRAMWrite is set during an active remote write. It does not drive the
	// control lines.
	SDRAMWrite bool

	// Submitted is set on the tick a frame was handed to the link, with the
	// frame and the outcome of the submission.
	Submitted     bool
	Frame         xio.Frame
	SubmitOutcome xio.SubmitOutcome
}

// AccessInfo describes a remote access for hooks.
type AccessInfo struct {
	Access   Access
	Aperture int
	Request  Request
}

// Hook positions of the translator.
var (
	HookPosAccessStart = &hooking.HookPos{Name: "Translator Access Start"}
	HookPosAccessEnd   = &hooking.HookPos{Name: "Translator Access End"}
)

// Translator tracks the active remote access.
type Translator struct {
	hooking.HookableBase

	link   FrameSubmitter
	policy DeassertPolicy

	state     State
	access    Access
	aperture  int
	request   Request
	prevValid bool
}

// New creates an idle translator that submits frames to link.
func New(link FrameSubmitter, policy DeassertPolicy) *Translator {
	return &Translator{
		link:     link,
		policy:   policy,
		aperture: -1,
	}
}

// State returns the current state.
func (t *Translator) State() State {
	return t.state
}

// Policy returns the deassert policy.
func (t *Translator) Policy() DeassertPolicy {
	return t.policy
}

// Request returns the current translated request.
func (t *Translator) Request() Request {
	return t.request
}

// Aperture returns the index of the aperture serving the active access, or
// -1.
func (t *Translator) Aperture() int {
	return t.aperture
}

// Tick advances the translator by one system tick.
func (t *Translator) Tick(in Step) Outputs {
	if in.Strobes.AddressValid {
		t.capture(in)
	}

	if t.state == StateAccessActive && t.shouldDeassert(in) {
		t.end()
	}

	out := t.outputs()

	valid := t.request.Valid
	if valid && !t.prevValid && t.request.IsRead {
		out.Frame = xio.Frame{
			ID:      id.Generate(),
			Command: xio.CmdSDRAMRead,
			Payload: t.request.RemoteAddress,
		}
		out.SubmitOutcome = t.link.Submit(out.Frame)
		out.Submitted = true
	}
	t.prevValid = valid

	return out
}

func (t *Translator) capture(in Step) {
	if !in.Arbitration.HasWinner {
		if t.state == StateAccessActive {
			t.end()
		}

		return
	}

	if t.state == StateAccessActive {
		t.end()
	}

	t.state = StateAccessActive
	t.access = in.Access
	t.aperture = in.Arbitration.Index
	t.request = Request{
		RemoteAddress: in.RemoteBase + uint32(in.Access.Offset()),
		IsRead:        in.Access.IsRead,
		Valid:         true,
	}

	t.invoke(HookPosAccessStart)
}

func (t *Translator) shouldDeassert(in Step) bool {
	switch t.policy {
	case DeassertOnWriteStrobe:
		return in.Strobes.WriteValid && !in.Arbitration.HasWinner
	default:
		return in.Strobes.ClockFalling
	}
}

func (t *Translator) end() {
	t.invoke(HookPosAccessEnd)

	t.state = StateIdle
	t.aperture = -1
	t.request.Valid = false
}

func (t *Translator) outputs() Outputs {
	out := Outputs{
		Request:          t.request,
		MathPackDisableN: true,
		ExternalSelectN:  true,
	}

	if t.state != StateAccessActive {
		return out
	}

	if t.request.IsRead {
		out.MathPackDisableN = false
		out.ExternalSelectN = false
	} else {
		out.SDRAMWrite = true
	}

	return out
}

// Reset returns the translator to Idle.
func (t *Translator) Reset() {
	t.state = StateIdle
	t.access = Access{}
	t.aperture = -1
	t.request = Request{}
	t.prevValid = false
}

func (t *Translator) invoke(pos *hooking.HookPos) {
	if t.NumHooks() == 0 {
		return
	}

	t.InvokeHook(hooking.HookCtx{
		Domain: t,
		Pos:    pos,
		Item: AccessInfo{
			Access:   t.access,
			Aperture: t.aperture,
			Request:  t.request,
		},
	})
}
