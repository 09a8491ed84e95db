// Package hostbus composes the bridge: it watches the A8 host bus, decides
// which accesses are backed by remote memory, drives the math-pack-disable
// and external-select lines, and forwards remote reads over the XIO link.
//
// Everything advances once per system tick through Comp.Tick. The component
// owns all of its state; nothing is global.
package hostbus

import (
	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/sarchlab/a8xio/hostbus/arbitration"
	"github.com/sarchlab/a8xio/hostbus/cyclemonitor"
	"github.com/sarchlab/a8xio/hostbus/translator"
	"github.com/sarchlab/a8xio/sim/hooking"
	"github.com/sarchlab/a8xio/sim/naming"
	"github.com/sarchlab/a8xio/sim/timing"
	"github.com/sarchlab/a8xio/xio"
)

// Inputs are the signals sampled on one system tick.
type Inputs struct {
	// ResetN is the active-low system reset.
	ResetN bool

	HostClock bool
	Address   uint16
	Data      uint8
	// Read is the host R/W line; high means the host reads.
	Read bool

	// ClearToSend is driven by the link peer.
	ClearToSend bool
}

// Outputs are the signals driven after one system tick.
type Outputs struct {
	// MathPackDisableN and ExternalSelectN are active-low.
	MathPackDisableN bool
	ExternalSelectN  bool

	Link       xio.Outputs
	LinkStatus xio.Status

	Strobes     cyclemonitor.Strobes
	Arbitration arbitration.Result
	Request     translator.Request
	SDRAMWrite  bool

	Submitted     bool
	Frame         xio.Frame
	SubmitOutcome xio.SubmitOutcome

	ConfigOutcome aperture.ConfigOutcome
}

// idleOutputs are driven while the bridge is held in reset.
var idleOutputs = Outputs{
	MathPackDisableN: true,
	ExternalSelectN:  true,
	Arbitration:      arbitration.NoWinner,
}

// ConfigEvent describes a configuration write seen on the host bus.
type ConfigEvent struct {
	Address uint16
	Data    uint8
	Outcome aperture.ConfigOutcome
}

// Hook positions of the component.
var (
	HookPosConfigWrite = &hooking.HookPos{Name: "HostBus Config Write"}
	HookPosReset       = &hooking.HookPos{Name: "HostBus Reset"}
)

// Comp is the host bus controller.
type Comp struct {
	naming.NamedBase
	hooking.HookableBase

	freq               timing.Freq
	clearConfigOnReset bool

	monitor    *cyclemonitor.Monitor
	bank       *aperture.Bank
	decoder    *aperture.Decoder
	translator *translator.Translator
	link       *xio.Channel

	tickCount uint64
	inReset   bool
}

// Freq returns the system clock frequency.
func (c *Comp) Freq() timing.Freq {
	return c.freq
}

// TickCount returns the number of ticks processed.
func (c *Comp) TickCount() uint64 {
	return c.tickCount
}

// CurrentTime returns the simulated time of the last processed tick.
func (c *Comp) CurrentTime() timing.VTimeInSec {
	return c.freq.TimeOf(c.tickCount)
}

// Bank returns the aperture bank.
func (c *Comp) Bank() *aperture.Bank {
	return c.bank
}

// ConfigLayout returns the layout of the configuration registers.
func (c *Comp) ConfigLayout() aperture.Layout {
	return c.decoder.Layout()
}

// Translator returns the address translator.
func (c *Comp) Translator() *translator.Translator {
	return c.translator
}

// Link returns the XIO channel.
func (c *Comp) Link() *xio.Channel {
	return c.link
}

// CycleMonitor returns the host cycle monitor.
func (c *Comp) CycleMonitor() *cyclemonitor.Monitor {
	return c.monitor
}

// Tick advances every part of the bridge by one system tick.
func (c *Comp) Tick(in Inputs) Outputs {
	c.tickCount++

	if !in.ResetN {
		c.holdReset()
		return idleOutputs
	}
	c.inReset = false

	out := Outputs{}
	out.Strobes = c.monitor.Sample(in.HostClock)

	access := translator.Access{Address: in.Address, IsRead: in.Read}

	out.Arbitration = arbitration.LowestIndex(c.bank.MatchVector(access.Page()))

	if out.Strobes.WriteValid && !in.Read {
		out.ConfigOutcome = c.handleConfigWrite(in.Address, in.Data)
	}

	step := translator.Step{
		Strobes:     out.Strobes,
		Access:      access,
		Arbitration: out.Arbitration,
	}
	if out.Arbitration.HasWinner {
		step.RemoteBase = c.bank.RemoteBase(out.Arbitration.Index)
	}

	tr := c.translator.Tick(step)
	out.MathPackDisableN = tr.MathPackDisableN
	out.ExternalSelectN = tr.ExternalSelectN
	out.Request = tr.Request
	out.SDRAMWrite = tr.SDRAMWrite
	out.Submitted = tr.Submitted
	out.Frame = tr.Frame
	out.SubmitOutcome = tr.SubmitOutcome

	out.Link, out.LinkStatus = c.link.Tick(in.ClearToSend)

	return out
}

func (c *Comp) handleConfigWrite(
	address uint16,
	data uint8,
) aperture.ConfigOutcome {
	outcome := c.decoder.HandleWrite(address, data)
	if outcome == aperture.ConfigNone {
		return outcome
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosConfigWrite,
			Item:   ConfigEvent{Address: address, Data: data, Outcome: outcome},
		})
	}

	return outcome
}

func (c *Comp) holdReset() {
	if c.inReset {
		return
	}
	c.inReset = true

	c.monitor.Reset()
	c.bank.Reset(c.clearConfigOnReset)
	c.decoder.Reset()
	c.translator.Reset()
	c.link.Reset()

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosReset})
	}
}
