package aperture

import "fmt"

// Layout describes where the configuration registers live on the host bus.
//
// Slot i owns the offsets [i*SlotStride, i*SlotStride+SlotStride) of the
// configuration page:
//
//	+0 start page
//	+1 end page
//	+2 remote base bits 31:24
//	+3 remote base bits 23:16
//	+4 remote base bits 15:8
//	+5 remote base bits 7:0
type Layout struct {
	Page       uint8
	SlotStride uint8
}

// Offsets of the registers inside a slot block.
const (
	OffsetStart  = 0
	OffsetEnd    = 1
	OffsetBase3  = 2
	OffsetBase0  = 5
	minSlotBytes = OffsetBase0 + 1
)

// DefaultLayout places the configuration registers on page 0xD5, the
// cartridge control area of the A8.
var DefaultLayout = Layout{Page: 0xD5, SlotStride: 8}

// InPage tells if a host address is on the configuration page.
func (l Layout) InPage(address uint16) bool {
	return uint8(address>>8) == l.Page
}

// Fits tells if all registers of the slot are on the configuration page.
func (l Layout) Fits(slot int) bool {
	return slot >= 0 && (slot+1)*int(l.SlotStride) <= 0x100
}

// Address returns the host address of a register. The byte index selects one
// of the base bytes, 0 being bits 31:24. It panics if the register falls off
// the configuration page.
func (l Layout) Address(slot int, f Field, byteIndex int) uint16 {
	if !l.Fits(slot) {
		panic(fmt.Sprintf("slot %d is not on the configuration page", slot))
	}

	if f == FieldBase && (byteIndex < 0 || byteIndex > 3) {
		panic(fmt.Sprintf("base byte %d does not exist", byteIndex))
	}

	offset := slot * int(l.SlotStride)

	switch f {
	case FieldStart:
		offset += OffsetStart
	case FieldEnd:
		offset += OffsetEnd
	default:
		offset += OffsetBase3 + byteIndex
	}

	return uint16(l.Page)<<8 | uint16(offset)
}

type baseAssembly struct {
	next  int
	value uint32
}

// Decoder turns host byte writes on the configuration page into
// configuration events.
type Decoder struct {
	layout Layout
	bank   *Bank
	bases  []baseAssembly
}

// NewDecoder creates a decoder that programs the given bank.
func NewDecoder(layout Layout, bank *Bank) *Decoder {
	if int(layout.SlotStride) < minSlotBytes {
		panic("slot stride too small for the configuration registers")
	}

	if bank.Len()*int(layout.SlotStride) > 0x100 {
		panic("configuration registers do not fit in one page")
	}

	return &Decoder{
		layout: layout,
		bank:   bank,
		bases:  make([]baseAssembly, bank.Len()),
	}
}

// Layout returns the register layout.
func (d *Decoder) Layout() Layout {
	return d.layout
}

// HandleWrite decodes one host write. Writes off the configuration page
// return ConfigNone.
func (d *Decoder) HandleWrite(address uint16, data uint8) ConfigOutcome {
	if !d.layout.InPage(address) {
		return ConfigNone
	}

	offset := int(address & 0xFF)
	slot := offset / int(d.layout.SlotStride)
	reg := offset % int(d.layout.SlotStride)

	if slot >= d.bank.Len() || reg >= minSlotBytes {
		return ConfigBadSlot
	}

	switch reg {
	case OffsetStart:
		d.bases[slot] = baseAssembly{}
		return d.bank.ApplyConfigWrite(ConfigWrite{slot, FieldStart, uint32(data)})
	case OffsetEnd:
		d.bases[slot] = baseAssembly{}
		return d.bank.ApplyConfigWrite(ConfigWrite{slot, FieldEnd, uint32(data)})
	default:
		return d.handleBaseByte(slot, reg-OffsetBase3, data)
	}
}

func (d *Decoder) handleBaseByte(slot, byteIndex int, data uint8) ConfigOutcome {
	asm := &d.bases[slot]

	if !d.bank.Slot(slot).expects(FieldBase) || byteIndex != asm.next {
		*asm = baseAssembly{}
		return ConfigIgnored
	}

	asm.value = asm.value<<8 | uint32(data)
	asm.next++

	if asm.next < 4 {
		return ConfigPending
	}

	value := asm.value
	*asm = baseAssembly{}

	return d.bank.ApplyConfigWrite(ConfigWrite{slot, FieldBase, value})
}

// Reset forgets partially assembled base writes.
func (d *Decoder) Reset() {
	for i := range d.bases {
		d.bases[i] = baseAssembly{}
	}
}

// Writes returns the host writes, in order, that program slot i with the
// given range and base through this layout. Like Address, it panics on a slot
// that is not on the configuration page.
func (l Layout) Writes(
	slot int,
	startPage, endPage uint8,
	remoteBase uint32,
) []HostWrite {
	writes := []HostWrite{
		{l.Address(slot, FieldStart, 0), startPage},
		{l.Address(slot, FieldEnd, 0), endPage},
	}

	for i := 0; i < 4; i++ {
		b := uint8(remoteBase >> (24 - 8*i))
		writes = append(writes, HostWrite{l.Address(slot, FieldBase, i), b})
	}

	return writes
}

// HostWrite is a byte written by the host.
type HostWrite struct {
	Address uint16
	Data    uint8
}
