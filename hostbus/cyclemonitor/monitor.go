// Package cyclemonitor derives the host bus strobes from the host clock as it
// is sampled in the system clock domain.
//
// The host clock is treated as an asynchronous input. A rising edge starts a
// tick counter; the address-valid and write-valid strobes fire a fixed number
// of system ticks later. A falling edge marks the end of the host cycle.
package cyclemonitor

import (
	"fmt"
	"time"

	"github.com/sarchlab/a8xio/sim/timing"
)

// Timing holds the host bus timing constants, measured from the rising edge of
// the host clock.
type Timing struct {
	AddressValid time.Duration
	WriteValid   time.Duration
	Cycle        time.Duration
}

// A8Timing is the timing of the A8 expansion bus at ~1.79 MHz.
var A8Timing = Timing{
	AddressValid: 177 * time.Nanosecond,
	WriteValid:   422 * time.Nanosecond,
	Cycle:        558 * time.Nanosecond,
}

// Validate checks that the strobes are ordered within the cycle.
func (t Timing) Validate() error {
	if t.AddressValid <= 0 {
		return fmt.Errorf("address valid delay must be positive, got %v",
			t.AddressValid)
	}

	if t.WriteValid <= t.AddressValid {
		return fmt.Errorf("write valid delay %v must come after address "+
			"valid delay %v", t.WriteValid, t.AddressValid)
	}

	if t.Cycle < t.WriteValid {
		return fmt.Errorf("cycle length %v must not be shorter than write "+
			"valid delay %v", t.Cycle, t.WriteValid)
	}

	return nil
}

// Strobes are the single-tick pulses produced for one system tick.
type Strobes struct {
	ClockRising  bool
	AddressValid bool
	WriteValid   bool
	ClockFalling bool
}

// Any tells if any strobe fired.
func (s Strobes) Any() bool {
	return s.ClockRising || s.AddressValid || s.WriteValid || s.ClockFalling
}

// Monitor watches the sampled host clock.
type Monitor struct {
	addressValidTicks uint64
	writeValidTicks   uint64
	cycleTicks        uint64

	primed    bool
	prevClock bool
	counting  bool
	elapsed   uint64
}

// NewMonitor creates a monitor for a system clock running at freq.
func NewMonitor(freq timing.Freq, t Timing) *Monitor {
	if err := t.Validate(); err != nil {
		panic(err)
	}

	return &Monitor{
		addressValidTicks: freq.CyclesFor(t.AddressValid),
		writeValidTicks:   freq.CyclesFor(t.WriteValid),
		cycleTicks:        freq.CyclesFor(t.Cycle),
	}
}

// AddressValidTicks returns the number of system ticks between the rising edge
// and the address-valid strobe.
func (m *Monitor) AddressValidTicks() uint64 {
	return m.addressValidTicks
}

// WriteValidTicks returns the number of system ticks between the rising edge
// and the write-valid strobe.
func (m *Monitor) WriteValidTicks() uint64 {
	return m.writeValidTicks
}

// Sample feeds one system-tick sample of the host clock and returns the
// strobes for this tick.
func (m *Monitor) Sample(hostClock bool) Strobes {
	var s Strobes

	if !m.primed {
		m.primed = true
		m.prevClock = hostClock

		return s
	}

	s.ClockRising = hostClock && !m.prevClock
	s.ClockFalling = !hostClock && m.prevClock
	m.prevClock = hostClock

	switch {
	case s.ClockRising:
		m.counting = true
		m.elapsed = 0
	case m.counting:
		m.elapsed++
	}

	if !m.counting {
		return s
	}

	s.AddressValid = m.elapsed == m.addressValidTicks
	s.WriteValid = m.elapsed == m.writeValidTicks

	if m.elapsed >= m.cycleTicks {
		m.counting = false
	}

	return s
}

// Reset clears the edge detector and the delay counter.
func (m *Monitor) Reset() {
	m.primed = false
	m.prevClock = false
	m.counting = false
	m.elapsed = 0
}
