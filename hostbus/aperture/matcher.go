package aperture

type sequenceStage int

const (
	stageClosed sequenceStage = iota
	stageAwaitEnd
	stageAwaitBase
)

// Matcher owns one aperture slot.
type Matcher struct {
	cfg Config

	stage        sequenceStage
	pendingStart uint8
}

// NewMatcher creates an inert matcher for the given slot.
func NewMatcher(index int) *Matcher {
	return &Matcher{cfg: Config{Index: index}}
}

// Index returns the slot index.
func (m *Matcher) Index() int {
	return m.cfg.Index
}

// Config returns a copy of the current configuration.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Configure programs and arms the slot in one step.
func (m *Matcher) Configure(startPage, endPage uint8, remoteBase uint32) {
	m.cfg.StartPage = startPage
	m.cfg.EndPage = endPage
	m.cfg.RemoteBase = remoteBase
	m.cfg.Armed = true
	m.stage = stageClosed
}

// Matches tells if the host page belongs to this aperture.
func (m *Matcher) Matches(page uint8) bool {
	return m.cfg.Contains(page)
}

// RemoteBase returns the remote address of offset 0 of the aperture.
func (m *Matcher) RemoteBase() uint32 {
	return m.cfg.RemoteBase
}

// Disarm makes the slot inert and drops any open sequence.
func (m *Matcher) Disarm() {
	m.cfg = Config{Index: m.cfg.Index}
	m.stage = stageClosed
}

// AbortSequence drops an open configuration sequence but keeps the armed
// configuration.
func (m *Matcher) AbortSequence() {
	m.stage = stageClosed
}

func (m *Matcher) expects(f Field) bool {
	switch f {
	case FieldStart:
		return true
	case FieldEnd:
		return m.stage == stageAwaitEnd
	case FieldBase:
		return m.stage == stageAwaitBase
	default:
		return false
	}
}

// The start page is staged until the end page lands so that a half written
// range never matches.
func (m *Matcher) apply(f Field, v uint32) ConfigOutcome {
	if (f == FieldStart || f == FieldEnd) && v > 0xFF {
		return ConfigBadValue
	}

	if !m.expects(f) {
		return ConfigIgnored
	}

	switch f {
	case FieldStart:
		m.pendingStart = uint8(v)
		m.stage = stageAwaitEnd

		return ConfigAccepted
	case FieldEnd:
		m.cfg.StartPage = m.pendingStart
		m.cfg.EndPage = uint8(v)
		m.cfg.Armed = true
		m.stage = stageAwaitBase

		return ConfigArmed
	default:
		m.cfg.RemoteBase = v
		m.stage = stageClosed

		return ConfigAccepted
	}
}
