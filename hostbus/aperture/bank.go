package aperture

// DefaultNumApertures is the number of slots of a default bank.
const DefaultNumApertures = 8

// Bank holds all the aperture slots. Slot 0 has the highest priority.
type Bank struct {
	matchers []*Matcher
	matches  []bool
}

// NewBank creates a bank of n inert apertures.
func NewBank(n int) *Bank {
	if n <= 0 {
		panic("a bank needs at least one aperture")
	}

	b := &Bank{
		matchers: make([]*Matcher, n),
		matches:  make([]bool, n),
	}

	for i := range b.matchers {
		b.matchers[i] = NewMatcher(i)
	}

	return b
}

// Len returns the number of slots.
func (b *Bank) Len() int {
	return len(b.matchers)
}

// Slot returns the matcher of slot i.
func (b *Bank) Slot(i int) *Matcher {
	return b.matchers[i]
}

// Configure programs and arms slot i directly.
func (b *Bank) Configure(
	slot int,
	startPage, endPage uint8,
	remoteBase uint32,
) ConfigOutcome {
	if !b.hasSlot(slot) {
		return ConfigBadSlot
	}

	b.matchers[slot].Configure(startPage, endPage, remoteBase)

	return ConfigArmed
}

// ApplyConfigWrite delivers one configuration event to its slot.
func (b *Bank) ApplyConfigWrite(w ConfigWrite) ConfigOutcome {
	if !b.hasSlot(w.Slot) {
		return ConfigBadSlot
	}

	return b.matchers[w.Slot].apply(w.Field, w.Value)
}

// MatchVector evaluates every slot against the host page. The returned slice
// is reused by the next call.
func (b *Bank) MatchVector(page uint8) []bool {
	for i, m := range b.matchers {
		b.matches[i] = m.Matches(page)
	}

	return b.matches
}

// RemoteBase returns the remote base of slot i.
func (b *Bank) RemoteBase(slot int) uint32 {
	return b.matchers[slot].RemoteBase()
}

// Configs returns a snapshot of all slots.
func (b *Bank) Configs() []Config {
	configs := make([]Config, len(b.matchers))
	for i, m := range b.matchers {
		configs[i] = m.Config()
	}

	return configs
}

// Reset drops all open sequences. When clearConfig is set, every slot also
// becomes inert.
func (b *Bank) Reset(clearConfig bool) {
	for _, m := range b.matchers {
		if clearConfig {
			m.Disarm()
			continue
		}

		m.AbortSequence()
	}
}

func (b *Bank) hasSlot(slot int) bool {
	return slot >= 0 && slot < len(b.matchers)
}
