package hostbus

import (
	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/sarchlab/a8xio/hostbus/cyclemonitor"
	"github.com/sarchlab/a8xio/hostbus/translator"
	"github.com/sarchlab/a8xio/sim/naming"
	"github.com/sarchlab/a8xio/sim/timing"
	"github.com/sarchlab/a8xio/xio"
)

// Builder can build host bus controllers.
type Builder struct {
	freq               timing.Freq
	numApertures       int
	busTiming          cyclemonitor.Timing
	layout             aperture.Layout
	policy             translator.DeassertPolicy
	clearConfigOnReset bool
}

// MakeBuilder creates a builder with the default parameters: a 100 MHz
// system clock, 8 apertures, A8 bus timing and configuration registers on
// page 0xD5.
func MakeBuilder() Builder {
	return Builder{
		freq:               100 * timing.MHz,
		numApertures:       aperture.DefaultNumApertures,
		busTiming:          cyclemonitor.A8Timing,
		layout:             aperture.DefaultLayout,
		policy:             translator.DeassertOnClockFalling,
		clearConfigOnReset: true,
	}
}

// WithFreq sets the system clock frequency.
func (b Builder) WithFreq(freq timing.Freq) Builder {
	b.freq = freq
	return b
}

// WithNumApertures sets the number of aperture slots.
func (b Builder) WithNumApertures(n int) Builder {
	b.numApertures = n
	return b
}

// WithBusTiming sets the host bus strobe timing.
func (b Builder) WithBusTiming(t cyclemonitor.Timing) Builder {
	b.busTiming = t
	return b
}

// WithConfigLayout sets where the configuration registers are decoded.
func (b Builder) WithConfigLayout(l aperture.Layout) Builder {
	b.layout = l
	return b
}

// WithDeassertPolicy selects what ends an active remote access.
func (b Builder) WithDeassertPolicy(p translator.DeassertPolicy) Builder {
	b.policy = p
	return b
}

// WithConfigKeptOnReset keeps the aperture configuration across a system
// reset. By default a reset makes every aperture inert.
func (b Builder) WithConfigKeptOnReset() Builder {
	b.clearConfigOnReset = false
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.freq <= 0 {
		panic("system clock frequency must be positive")
	}

	if b.numApertures <= 0 || b.numApertures > 64 {
		panic("number of apertures must be between 1 and 64")
	}

	if err := b.busTiming.Validate(); err != nil {
		panic(err)
	}

	if b.freq.CyclesFor(b.busTiming.AddressValid) ==
		b.freq.CyclesFor(b.busTiming.WriteValid) {
		panic("system clock too slow to separate the host bus strobes")
	}
}

// Build creates a host bus controller.
func (b Builder) Build(name string) *Comp {
	naming.NameMustBeValid(name)
	b.parametersMustBeValid()

	c := &Comp{
		NamedBase:          naming.MakeNamedBase(name),
		freq:               b.freq,
		clearConfigOnReset: b.clearConfigOnReset,
	}

	c.monitor = cyclemonitor.NewMonitor(b.freq, b.busTiming)
	c.bank = aperture.NewBank(b.numApertures)
	c.decoder = aperture.NewDecoder(b.layout, c.bank)
	c.link = xio.NewChannel(naming.BuildName(name, "XIO"))
	c.translator = translator.New(c.link, b.policy)

	return c
}
