// Package timing defines the clock arithmetic shared by the bridge
// components. All components advance in lock step on the system clock; the
// host clock is only ever observed as a sampled signal.
package timing

import (
	"log"
	"math"
	"time"
)

// VTimeInSec defines the time in the simulated space in the unit of second
type VTimeInSec float64

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// cycleEpsilon absorbs floating point noise when a duration is an exact
// multiple of the period.
const cycleEpsilon = 1e-6

// Period returns the time between two consecutive ticks
func (f Freq) Period() VTimeInSec {
	f.mustBePositive()
	return VTimeInSec(1.0 / f)
}

// PeriodDuration returns the period as a time.Duration, rounded to the
// nearest nanosecond.
func (f Freq) PeriodDuration() time.Duration {
	f.mustBePositive()
	return time.Duration(math.Round(1e9 / float64(f)))
}

// TimeOf returns the time at which the given tick starts.
func (f Freq) TimeOf(tick uint64) VTimeInSec {
	return VTimeInSec(float64(tick) / float64(f))
}

// CyclesFor returns the smallest number of whole cycles that cover the given
// duration.
//
//	Duration
//	|-----------------|
//	|------|------|------|----->
//	                     |
//	                     Output (3)
func (f Freq) CyclesFor(d time.Duration) uint64 {
	f.mustBePositive()

	if d <= 0 {
		return 0
	}

	cycles := d.Seconds() * float64(f)

	return uint64(math.Ceil(cycles - cycleEpsilon))
}

func (f Freq) mustBePositive() {
	if f <= 0 {
		log.Panic("frequency must be positive")
	}
}

// A TimeTeller can tell how far the system clock has advanced.
type TimeTeller interface {
	// TickCount returns the number of system ticks elapsed since the start.
	TickCount() uint64

	// CurrentTime returns the simulated time of the current tick.
	CurrentTime() VTimeInSec
}
