package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/sarchlab/a8xio/hostbus/translator"
	"github.com/sarchlab/a8xio/simulation"
)

// number accepts JSON numbers and strings such as "0x0510".
type number uint64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}

		*n = number(v)

		return nil
	}

	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*n = number(v)

	return nil
}

type apertureSpec struct {
	Slot       int    `json:"slot"`
	StartPage  number `json:"start_page"`
	EndPage    number `json:"end_page"`
	RemoteBase number `json:"remote_base"`
}

type cycleSpec struct {
	Address number `json:"address"`
	Read    bool   `json:"read"`
	Data    number `json:"data"`
	Gap     int    `json:"gap"`
	Repeat  int    `json:"repeat"`
}

type peerSpec struct {
	AckDelay int  `json:"ack_delay"`
	NeverAck bool `json:"never_ack"`
}

// scenario is the JSON description of a run.
type scenario struct {
	FreqMHz           float64 `json:"freq_mhz"`
	NumApertures      int     `json:"num_apertures"`
	Deassert          string  `json:"deassert"`
	KeepConfigOnReset bool    `json:"keep_config_on_reset"`
	TickBudget        uint64  `json:"tick_budget"`

	Peer peerSpec `json:"peer"`

	ResetTicks    int `json:"reset_ticks"`
	TrailingTicks int `json:"trailing_ticks"`

	// Apertures are programmed directly. Program is written through the
	// configuration page before the cycles.
	Apertures []apertureSpec `json:"apertures"`
	Program   []apertureSpec `json:"program"`
	Cycles    []cycleSpec    `json:"cycles"`
}

func loadScenario(path string) (scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, fmt.Errorf("reading scenario: %w", err)
	}

	return parseScenario(data)
}

func parseScenario(data []byte) (scenario, error) {
	s := scenario{}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&s); err != nil {
		return scenario{}, fmt.Errorf("parsing scenario: %w", err)
	}

	if err := s.validate(); err != nil {
		return scenario{}, fmt.Errorf("invalid scenario: %w", err)
	}

	return s, nil
}

func (s scenario) validate() error {
	for _, a := range append(append([]apertureSpec{}, s.Apertures...), s.Program...) {
		if a.StartPage > 0xFF || a.EndPage > 0xFF {
			return fmt.Errorf("aperture %d: page out of range", a.Slot)
		}

		if a.RemoteBase > 0xFFFFFFFF {
			return fmt.Errorf("aperture %d: remote base out of range", a.Slot)
		}

		if a.Slot < 0 {
			return fmt.Errorf("aperture %d: negative slot", a.Slot)
		}
	}

	for i, c := range s.Cycles {
		if c.Address > 0xFFFF {
			return fmt.Errorf("cycle %d: address out of range", i)
		}

		if c.Data > 0xFF {
			return fmt.Errorf("cycle %d: data out of range", i)
		}

		if c.Gap < 0 || c.Repeat < 0 {
			return fmt.Errorf("cycle %d: negative gap or repeat", i)
		}
	}

	if s.ResetTicks < 0 || s.TrailingTicks < 0 || s.Peer.AckDelay < 0 {
		return fmt.Errorf("tick counts must not be negative")
	}

	if _, err := parseDeassert(s.Deassert); err != nil {
		return err
	}

	if s.NumApertures > 0 {
		return s.checkSlots(s.NumApertures)
	}

	return nil
}

// checkSlots makes sure every aperture the scenario sets up or programs
// exists on a bridge with numApertures slots.
func (s scenario) checkSlots(numApertures int) error {
	for _, a := range s.Apertures {
		if a.Slot >= numApertures {
			return fmt.Errorf("aperture %d: only %d slots", a.Slot, numApertures)
		}
	}

	for _, a := range s.Program {
		if a.Slot >= numApertures {
			return fmt.Errorf("program of aperture %d: only %d slots",
				a.Slot, numApertures)
		}
	}

	return nil
}

func parseDeassert(s string) (translator.DeassertPolicy, error) {
	switch strings.ToLower(s) {
	case "", "clock-falling":
		return translator.DeassertOnClockFalling, nil
	case "write-strobe":
		return translator.DeassertOnWriteStrobe, nil
	default:
		return 0, fmt.Errorf("unknown deassert policy %q", s)
	}
}

func (s scenario) apertureSetups() []simulation.ApertureSetup {
	setups := make([]simulation.ApertureSetup, len(s.Apertures))
	for i, a := range s.Apertures {
		setups[i] = simulation.ApertureSetup{
			Slot:       a.Slot,
			StartPage:  uint8(a.StartPage),
			EndPage:    uint8(a.EndPage),
			RemoteBase: uint32(a.RemoteBase),
		}
	}

	return setups
}

func (s scenario) script(layout aperture.Layout) simulation.Script {
	var cycles []simulation.HostCycle

	for _, a := range s.Program {
		cycles = append(cycles, simulation.ProgramCycles(layout, a.Slot,
			uint8(a.StartPage), uint8(a.EndPage), uint32(a.RemoteBase))...)
	}

	for _, c := range s.Cycles {
		cycle := simulation.HostCycle{
			Address: uint16(c.Address),
			Read:    c.Read,
			Data:    uint8(c.Data),
			Gap:     c.Gap,
		}

		for i := 0; i <= c.Repeat; i++ {
			cycles = append(cycles, cycle)
		}
	}

	return simulation.Script{
		ResetTicks:    s.ResetTicks,
		Cycles:        cycles,
		TrailingTicks: s.TrailingTicks,
	}
}
