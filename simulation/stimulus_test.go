package simulation

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/sarchlab/a8xio/sim/timing"
)

func drain(s Stimulus) []hostbus.Inputs {
	var ins []hostbus.Inputs
	for {
		in, ok := s.Next()
		if !ok {
			return ins
		}
		ins = append(ins, in)
	}
}

var _ = Describe("ScriptStimulus", func() {
	freq := 100 * timing.MHz

	It("should render reset, cycles, gaps and trailing ticks", func() {
		s := NewScriptStimulus(freq, A8Waveform, Script{
			ResetTicks:    3,
			Cycles:        []HostCycle{{Address: 0x0510, Read: true, Gap: 4}},
			TrailingTicks: 2,
		})

		Expect(s.TicksPerCycle()).To(Equal(56))
		Expect(s.TotalTicks()).To(Equal(uint64(65)))

		ins := drain(s)
		Expect(ins).To(HaveLen(65))

		for i := 0; i < 3; i++ {
			Expect(ins[i].ResetN).To(BeFalse())
		}
		for i := 3; i < 11; i++ {
			Expect(ins[i].ResetN).To(BeTrue())
			Expect(ins[i].HostClock).To(BeFalse())
			Expect(ins[i].Address).To(Equal(uint16(0x0510)))
		}
		for i := 11; i < 59; i++ {
			Expect(ins[i].HostClock).To(BeTrue())
			Expect(ins[i].Read).To(BeTrue())
		}
		for i := 59; i < 65; i++ {
			Expect(ins[i]).To(Equal(hostbus.Inputs{ResetN: true, Read: true}))
		}
	})

	It("should stay exhausted until rewound", func() {
		s := NewScriptStimulus(freq, A8Waveform, Script{ResetTicks: 1})

		Expect(drain(s)).To(HaveLen(1))
		_, ok := s.Next()
		Expect(ok).To(BeFalse())

		s.Rewind()
		Expect(drain(s)).To(HaveLen(1))
	})

	It("should reject a waveform that does not fit the cycle", func() {
		Expect(func() {
			NewScriptStimulus(freq, Waveform{
				Cycle: 558 * time.Nanosecond,
				High:  600 * time.Nanosecond,
			}, Script{})
		}).To(Panic())
	})

	It("should turn aperture programming into host writes", func() {
		cycles := ProgramCycles(aperture.DefaultLayout, 1, 0x04, 0x05, 0x01020304)

		Expect(cycles).To(Equal([]HostCycle{
			{Address: 0xD508, Data: 0x04},
			{Address: 0xD509, Data: 0x05},
			{Address: 0xD50A, Data: 0x01},
			{Address: 0xD50B, Data: 0x02},
			{Address: 0xD50C, Data: 0x03},
			{Address: 0xD50D, Data: 0x04},
		}))
	})
})
