package cmd

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/sarchlab/a8xio/simulation"
)

var _ = Describe("Scenario", func() {
	It("should accept hex strings and numbers", func() {
		s, err := parseScenario([]byte(`{
			"freq_mhz": 50,
			"reset_ticks": 4,
			"apertures": [
				{"slot": 0, "start_page": "0x04", "end_page": 5, "remote_base": "0x100"}
			],
			"cycles": [
				{"address": "0x0510", "read": true, "repeat": 2},
				{"address": 1280, "data": "0xAA", "gap": 3}
			]
		}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(s.FreqMHz).To(Equal(50.0))
		Expect(s.apertureSetups()).To(Equal([]simulation.ApertureSetup{
			{Slot: 0, StartPage: 0x04, EndPage: 0x05, RemoteBase: 0x100},
		}))

		script := s.script(aperture.DefaultLayout)
		Expect(script.ResetTicks).To(Equal(4))
		Expect(script.Cycles).To(Equal([]simulation.HostCycle{
			{Address: 0x0510, Read: true},
			{Address: 0x0510, Read: true},
			{Address: 0x0510, Read: true},
			{Address: 0x0500, Data: 0xAA, Gap: 3},
		}))
	})

	It("should put in-band programming before the cycles", func() {
		s, err := parseScenario([]byte(`{
			"program": [{"slot": 1, "start_page": 16, "end_page": 17, "remote_base": 0}],
			"cycles": [{"address": "0x1000", "read": true}]
		}`))

		Expect(err).NotTo(HaveOccurred())

		cycles := s.script(aperture.DefaultLayout).Cycles
		Expect(cycles).To(HaveLen(7))
		Expect(cycles[0]).To(Equal(simulation.HostCycle{Address: 0xD508, Data: 0x10}))
		Expect(cycles[6]).To(Equal(simulation.ReadCycle(0x1000)))
	})

	DescribeTable("should reject invalid scenarios",
		func(doc string) {
			_, err := parseScenario([]byte(doc))
			Expect(err).To(HaveOccurred())
		},
		Entry("unknown field", `{"bogus": 1}`),
		Entry("page out of range", `{"apertures": [{"start_page": 256}]}`),
		Entry("address out of range", `{"cycles": [{"address": "0x10000"}]}`),
		Entry("data out of range", `{"cycles": [{"data": 300}]}`),
		Entry("bad hex", `{"cycles": [{"address": "0xZZ"}]}`),
		Entry("negative reset", `{"reset_ticks": -1}`),
		Entry("unknown policy", `{"deassert": "never"}`),
		Entry("programmed slot past the bank",
			`{"num_apertures": 2, "program": [{"slot": 2}]}`),
		Entry("direct slot past the bank",
			`{"num_apertures": 4, "apertures": [{"slot": 7}]}`),
	)

	It("should check slots against the resolved number of apertures", func() {
		s, err := parseScenario([]byte(`{"program": [{"slot": 40}]}`))
		Expect(err).NotTo(HaveOccurred())

		Expect(s.checkSlots(aperture.DefaultNumApertures)).
			To(MatchError(ContainSubstring("aperture 40")))

		_, err = buildSimulation(s, settings{
			FreqMHz:      defaultFreqMHz,
			NumApertures: aperture.DefaultNumApertures,
		}, false, "", false)
		Expect(err).To(MatchError(ContainSubstring("only 8 slots")))
	})

	It("should report a missing file", func() {
		_, err := loadScenario("/nonexistent/scenario.json")

		Expect(err).To(MatchError(ContainSubstring("reading scenario")))
	})
})

var _ = Describe("Settings", func() {
	var flags *pflag.FlagSet

	BeforeEach(func() {
		flags = pflag.NewFlagSet("run", pflag.ContinueOnError)
		flags.Float64("freq-mhz", defaultFreqMHz, "")
		flags.Int("apertures", 8, "")
		flags.Int("tick-budget", 0, "")
		flags.Int("monitor-port", 0, "")
	})

	AfterEach(func() {
		os.Unsetenv(envFreqMHz)
		os.Unsetenv(envApertures)
		os.Unsetenv(envTickBudget)
		os.Unsetenv(envMonitorPort)
	})

	It("should use the defaults", func() {
		cfg, err := resolveSettings(flags, scenario{})

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(settings{
			FreqMHz:      100,
			NumApertures: aperture.DefaultNumApertures,
		}))
	})

	It("should prefer flags over the environment over the scenario", func() {
		sc := scenario{FreqMHz: 25, NumApertures: 4, TickBudget: 10}
		os.Setenv(envFreqMHz, "50")
		os.Setenv(envTickBudget, "500")
		Expect(flags.Parse([]string{"--freq-mhz", "75"})).To(Succeed())

		cfg, err := resolveSettings(flags, sc)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.FreqMHz).To(Equal(75.0))
		Expect(cfg.NumApertures).To(Equal(4))
		Expect(cfg.TickBudget).To(Equal(uint64(500)))
	})

	It("should reject malformed environment values", func() {
		os.Setenv(envApertures, "many")

		_, err := resolveSettings(flags, scenario{})

		Expect(err).To(MatchError(ContainSubstring(envApertures)))
	})
})
