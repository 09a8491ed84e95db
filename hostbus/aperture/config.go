// Package aperture implements the bank of address-range matchers that decide
// whether a host access is backed by remote memory.
//
// Each aperture owns an inclusive range of 256-byte host pages and a base
// address in the remote space. Apertures are programmed in-band, through a
// short sequence of configuration writes, and never match until programmed.
package aperture

import "fmt"

// Config is the programmed state of one aperture slot.
type Config struct {
	Index      int    `json:"index"`
	StartPage  uint8  `json:"start_page"`
	EndPage    uint8  `json:"end_page"`
	RemoteBase uint32 `json:"remote_base"`
	Armed      bool   `json:"armed"`
}

// Contains tells if the page falls in the inclusive range of an armed
// aperture.
func (c Config) Contains(page uint8) bool {
	return c.Armed && c.StartPage <= page && page <= c.EndPage
}

func (c Config) String() string {
	if !c.Armed {
		return fmt.Sprintf("aperture[%d] inert", c.Index)
	}

	return fmt.Sprintf("aperture[%d] pages %02X-%02X -> %08X",
		c.Index, c.StartPage, c.EndPage, c.RemoteBase)
}

// Field selects which part of an aperture a configuration write programs.
type Field int

// The fields of an aperture, in the order they must be written.
const (
	FieldStart Field = iota
	FieldEnd
	FieldBase
)

func (f Field) String() string {
	switch f {
	case FieldStart:
		return "start"
	case FieldEnd:
		return "end"
	case FieldBase:
		return "base"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ConfigWrite is one configuration event delivered to the bank.
type ConfigWrite struct {
	Slot  int
	Field Field
	Value uint32
}

// ConfigOutcome reports what a configuration write did.
type ConfigOutcome int

// Possible outcomes of a configuration write.
const (
	// ConfigNone means no configuration write happened on this tick.
	ConfigNone ConfigOutcome = iota
	// ConfigAccepted means the write advanced the slot's sequence.
	ConfigAccepted
	// ConfigArmed means the write completed the range and armed the slot.
	ConfigArmed
	// ConfigPending means a multi-byte base write is still being assembled.
	ConfigPending
	// ConfigIgnored means the write arrived outside an open sequence.
	ConfigIgnored
	// ConfigBadSlot means the write targeted a slot the bank does not have.
	ConfigBadSlot
	// ConfigBadValue means the value does not fit the field.
	ConfigBadValue
)

func (o ConfigOutcome) String() string {
	switch o {
	case ConfigNone:
		return "none"
	case ConfigAccepted:
		return "accepted"
	case ConfigArmed:
		return "armed"
	case ConfigPending:
		return "pending"
	case ConfigIgnored:
		return "ignored"
	case ConfigBadSlot:
		return "bad-slot"
	case ConfigBadValue:
		return "bad-value"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
