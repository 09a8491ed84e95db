package timing

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		var f = 1 * GHz
		Expect(f.Period()).To(BeNumerically("~", 1e-9, 1e-18))
		Expect((100 * MHz).PeriodDuration()).To(Equal(10 * time.Nanosecond))
	})

	It("should convert ticks to time", func() {
		var f = 100 * MHz
		Expect(f.TimeOf(100)).To(BeNumerically("~", 1e-6, 1e-15))
	})

	It("should round partial cycles up", func() {
		var f = 100 * MHz
		Expect(f.CyclesFor(177 * time.Nanosecond)).To(Equal(uint64(18)))
		Expect(f.CyclesFor(422 * time.Nanosecond)).To(Equal(uint64(43)))
		Expect(f.CyclesFor(558 * time.Nanosecond)).To(Equal(uint64(56)))
	})

	It("should not round exact multiples up", func() {
		var f = 50 * MHz
		Expect(f.CyclesFor(200 * time.Nanosecond)).To(Equal(uint64(10)))
		Expect(f.CyclesFor(0)).To(Equal(uint64(0)))
	})

	It("should panic on zero frequency", func() {
		var f Freq
		Expect(func() { f.Period() }).To(Panic())
	})
})
