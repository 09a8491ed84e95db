package hostbus_test

import (
	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/sarchlab/a8xio/xio"
)

// With a 100 MHz system clock a 558 ns host cycle is 56 ticks. The host
// clock is low for the first 8 and high for the remaining 48, so the
// address-valid strobe lands 18 ticks and the write-valid strobe 43 ticks
// after the rising edge, both before the clock falls.
const (
	lowTicks  = 8
	highTicks = 48
)

type bench struct {
	comp *hostbus.Comp
	peer *xio.Peer
	outs []hostbus.Outputs
}

func newBench(comp *hostbus.Comp, peer *xio.Peer) *bench {
	return &bench{comp: comp, peer: peer}
}

func (b *bench) tick(in hostbus.Inputs) hostbus.Outputs {
	in.ClearToSend = b.peer.ClearToSend()

	out := b.comp.Tick(in)
	b.peer.Observe(out.Link)
	b.outs = append(b.outs, out)

	return out
}

// cycle runs one host bus cycle and returns the outputs of its ticks.
func (b *bench) cycle(address uint16, read bool, data uint8) []hostbus.Outputs {
	start := len(b.outs)

	for i := 0; i < lowTicks+highTicks; i++ {
		b.tick(hostbus.Inputs{
			ResetN:    true,
			HostClock: i >= lowTicks,
			Address:   address,
			Data:      data,
			Read:      read,
		})
	}

	return b.outs[start:]
}

func (b *bench) idle(n int) {
	for i := 0; i < n; i++ {
		b.tick(hostbus.Inputs{ResetN: true})
	}
}

func (b *bench) reset(n int) {
	for i := 0; i < n; i++ {
		b.tick(hostbus.Inputs{ResetN: false})
	}
}

func (b *bench) program(slot int, start, end uint8, base uint32) {
	layout := b.comp.ConfigLayout()
	for _, w := range layout.Writes(slot, start, end, base) {
		b.cycle(w.Address, false, w.Data)
	}
}

func (b *bench) submissions() []xio.Frame {
	var frames []xio.Frame
	for _, o := range b.outs {
		if o.Submitted {
			frames = append(frames, o.Frame)
		}
	}

	return frames
}

func payloads(frames []xio.Frame) []uint32 {
	p := make([]uint32, len(frames))
	for i, f := range frames {
		p[i] = f.Payload
	}

	return p
}

func configOutcomes(outs []hostbus.Outputs) []aperture.ConfigOutcome {
	var outcomes []aperture.ConfigOutcome
	for _, o := range outs {
		if o.ConfigOutcome != aperture.ConfigNone {
			outcomes = append(outcomes, o.ConfigOutcome)
		}
	}

	return outcomes
}
