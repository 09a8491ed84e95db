package simulation

import (
	"fmt"
	"time"

	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/sarchlab/a8xio/hostbus/cyclemonitor"
	"github.com/sarchlab/a8xio/sim/timing"
)

// A Stimulus produces the host side inputs of the bridge, one tick at a time.
// The runner fills in ClearToSend from the peer.
type Stimulus interface {
	// Next returns the inputs of the next tick. It returns false once the
	// stimulus is exhausted.
	Next() (hostbus.Inputs, bool)
}

// HostCycle is one A8 bus cycle.
type HostCycle struct {
	Address uint16 `json:"address"`
	Read    bool   `json:"read"`
	Data    uint8  `json:"data"`
	// Gap is the number of idle ticks, clock held low, after the cycle.
	Gap int `json:"gap,omitempty"`
}

// ReadCycle returns a host read of the address.
func ReadCycle(address uint16) HostCycle {
	return HostCycle{Address: address, Read: true}
}

// WriteCycle returns a host write of data to the address.
func WriteCycle(address uint16, data uint8) HostCycle {
	return HostCycle{Address: address, Data: data}
}

// ProgramCycles returns the host writes that program an aperture slot through
// the configuration page.
func ProgramCycles(
	layout aperture.Layout,
	slot int,
	startPage, endPage uint8,
	remoteBase uint32,
) []HostCycle {
	writes := layout.Writes(slot, startPage, endPage, remoteBase)

	cycles := make([]HostCycle, len(writes))
	for i, w := range writes {
		cycles[i] = WriteCycle(w.Address, w.Data)
	}

	return cycles
}

// Waveform describes the host clock within one bus cycle. The clock is low
// first and then high for High, so the falling edge ends the cycle.
type Waveform struct {
	Cycle time.Duration
	High  time.Duration
}

// A8Waveform keeps the clock high long enough to cover the write strobe.
var A8Waveform = Waveform{
	Cycle: cyclemonitor.A8Timing.Cycle,
	High:  480 * time.Nanosecond,
}

// Script is a list of host cycles preceded by a reset.
type Script struct {
	ResetTicks    int
	Cycles        []HostCycle
	TrailingTicks int
}

// ScriptStimulus renders a Script into per-tick inputs.
type ScriptStimulus struct {
	script    Script
	lowTicks  int
	highTicks int

	phase  scriptPhase
	cycle  int
	offset int
}

type scriptPhase int

const (
	phaseReset scriptPhase = iota
	phaseCycles
	phaseTrailing
	phaseDone
)

// NewScriptStimulus creates a stimulus that plays the script with the given
// system clock and host clock waveform.
func NewScriptStimulus(
	freq timing.Freq,
	w Waveform,
	script Script,
) *ScriptStimulus {
	cycleTicks := int(freq.CyclesFor(w.Cycle))
	highTicks := int(freq.CyclesFor(w.High))

	if highTicks <= 0 || highTicks >= cycleTicks {
		panic(fmt.Sprintf(
			"host clock high time %v does not fit a %v cycle at %.0f Hz",
			w.High, w.Cycle, float64(freq)))
	}

	s := &ScriptStimulus{
		script:    script,
		lowTicks:  cycleTicks - highTicks,
		highTicks: highTicks,
	}
	s.Rewind()

	return s
}

// TicksPerCycle returns the number of system ticks of one host cycle.
func (s *ScriptStimulus) TicksPerCycle() int {
	return s.lowTicks + s.highTicks
}

// TotalTicks returns the number of ticks the script lasts.
func (s *ScriptStimulus) TotalTicks() uint64 {
	total := s.script.ResetTicks + s.script.TrailingTicks
	for _, c := range s.script.Cycles {
		total += s.TicksPerCycle() + c.Gap
	}

	return uint64(total)
}

// Rewind restarts the script.
func (s *ScriptStimulus) Rewind() {
	s.phase = phaseReset
	s.cycle = 0
	s.offset = 0
}

// Next returns the inputs of the next tick.
func (s *ScriptStimulus) Next() (hostbus.Inputs, bool) {
	for {
		switch s.phase {
		case phaseReset:
			if s.offset < s.script.ResetTicks {
				s.offset++
				return hostbus.Inputs{ResetN: false}, true
			}

			s.advance(phaseCycles)
		case phaseCycles:
			if in, ok := s.nextCycleTick(); ok {
				return in, true
			}

			s.advance(phaseTrailing)
		case phaseTrailing:
			if s.offset < s.script.TrailingTicks {
				s.offset++
				return idleInputs(), true
			}

			s.advance(phaseDone)
		default:
			return hostbus.Inputs{}, false
		}
	}
}

func (s *ScriptStimulus) advance(p scriptPhase) {
	s.phase = p
	s.offset = 0
}

func (s *ScriptStimulus) nextCycleTick() (hostbus.Inputs, bool) {
	for s.cycle < len(s.script.Cycles) {
		c := s.script.Cycles[s.cycle]
		length := s.TicksPerCycle() + c.Gap

		if s.offset >= length {
			s.cycle++
			s.offset = 0

			continue
		}

		i := s.offset
		s.offset++

		if i >= s.TicksPerCycle() {
			return idleInputs(), true
		}

		return hostbus.Inputs{
			ResetN:    true,
			HostClock: i >= s.lowTicks,
			Address:   c.Address,
			Data:      c.Data,
			Read:      c.Read,
		}, true
	}

	return hostbus.Inputs{}, false
}

func idleInputs() hostbus.Inputs {
	return hostbus.Inputs{ResetN: true, Read: true}
}
