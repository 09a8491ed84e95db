// Package tracing turns component hooks into persistent or summarized
// records.
package tracing

import (
	"sync"

	"github.com/sarchlab/a8xio/datarecording"
	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/hostbus/translator"
	"github.com/sarchlab/a8xio/sim/hooking"
	"github.com/sarchlab/a8xio/sim/id"
	"github.com/sarchlab/a8xio/sim/timing"
	"github.com/sarchlab/a8xio/xio"
)

// Table names used by the DBTracer.
const (
	AccessTable = "host_accesses"
	ConfigTable = "config_writes"
	FrameTable  = "link_frames"
)

// AccessRecord is one remote access, from capture to deassertion.
type AccessRecord struct {
	ID            string
	Aperture      int
	Address       uint16
	RemoteAddress uint32
	IsRead        bool
	StartTick     uint64
	EndTick       uint64
	StartTime     float64
	EndTime       float64
}

// ConfigRecord is one host write to the configuration page.
type ConfigRecord struct {
	Tick    uint64
	Time    float64
	Address uint16
	Data    uint8
	Outcome string
}

// FrameRecord is one frame handed to the link.
type FrameRecord struct {
	ID         string
	Command    string
	Payload    uint32
	SubmitTick uint64
	EndTick    uint64
	// Outcome is "completed", "overwritten" when a later frame replaced the
	// latches before the link finished, or "dropped" when the frame arrived
	// after the last byte of the frame in flight was driven. A completed
	// record holds the command and payload as they appeared on the wire.
	Outcome string
}

type openFrame struct {
	frame xio.Frame
	tick  uint64
}

// DBTracer records host accesses, configuration writes and link frames into
// a DataRecorder. Attach it to a hostbus.Comp, its translator and its link.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller timing.TimeTeller
	backend    datarecording.DataRecorder

	access    *AccessRecord
	inFlight  *openFrame
	numWrites int
}

// NewDBTracer creates a DBTracer and the tables it writes to.
func NewDBTracer(
	timeTeller timing.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(AccessTable, AccessRecord{})
	dataRecorder.CreateTable(ConfigTable, ConfigRecord{})
	dataRecorder.CreateTable(FrameTable, FrameRecord{})

	return &DBTracer{
		timeTeller: timeTeller,
		backend:    dataRecorder,
	}
}

// Attach registers the tracer with every hookable part of the bridge.
func (t *DBTracer) Attach(c *hostbus.Comp) {
	c.AcceptHook(t)
	c.Translator().AcceptHook(t)
	c.Link().AcceptHook(t)
}

// NumRecords returns the number of records written so far.
func (t *DBTracer) NumRecords() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.numWrites
}

// Func handles a hook invocation.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ctx.Pos {
	case translator.HookPosAccessStart:
		t.startAccess(ctx.Item.(translator.AccessInfo))
	case translator.HookPosAccessEnd:
		t.endAccess()
	case hostbus.HookPosConfigWrite:
		t.recordConfigWrite(ctx.Item.(hostbus.ConfigEvent))
	case xio.HookPosFrameAccepted:
		t.inFlight = &openFrame{ctx.Item.(xio.Frame), t.timeTeller.TickCount()}
	case xio.HookPosFrameOverwritten:
		t.closeFrame("overwritten")
		t.inFlight = &openFrame{ctx.Item.(xio.Frame), t.timeTeller.TickCount()}
	case xio.HookPosFrameDropped:
		t.recordDroppedFrame(ctx.Item.(xio.Frame))
	case xio.HookPosFrameDone:
		t.completeFrame(ctx.Item.(xio.Frame))
	case hostbus.HookPosReset:
		t.access = nil
		t.inFlight = nil
	}
}

func (t *DBTracer) startAccess(info translator.AccessInfo) {
	t.access = &AccessRecord{
		ID:            id.Generate(),
		Aperture:      info.Aperture,
		Address:       info.Access.Address,
		RemoteAddress: info.Request.RemoteAddress,
		IsRead:        info.Request.IsRead,
		StartTick:     t.timeTeller.TickCount(),
		StartTime:     float64(t.timeTeller.CurrentTime()),
	}
}

func (t *DBTracer) endAccess() {
	if t.access == nil {
		return
	}

	rec := *t.access
	rec.EndTick = t.timeTeller.TickCount()
	rec.EndTime = float64(t.timeTeller.CurrentTime())

	t.insert(AccessTable, rec)
	t.access = nil
}

func (t *DBTracer) recordConfigWrite(evt hostbus.ConfigEvent) {
	t.insert(ConfigTable, ConfigRecord{
		Tick:    t.timeTeller.TickCount(),
		Time:    float64(t.timeTeller.CurrentTime()),
		Address: evt.Address,
		Data:    evt.Data,
		Outcome: evt.Outcome.String(),
	})
}

func (t *DBTracer) completeFrame(sent xio.Frame) {
	if t.inFlight == nil {
		return
	}

	t.inFlight.frame.Command = sent.Command
	t.inFlight.frame.Payload = sent.Payload
	t.closeFrame("completed")
}

func (t *DBTracer) recordDroppedFrame(f xio.Frame) {
	now := t.timeTeller.TickCount()
	t.insert(FrameTable, FrameRecord{
		ID:         f.ID,
		Command:    f.Command.String(),
		Payload:    f.Payload,
		SubmitTick: now,
		EndTick:    now,
		Outcome:    "dropped",
	})
}

func (t *DBTracer) closeFrame(outcome string) {
	if t.inFlight == nil {
		return
	}

	f := t.inFlight.frame
	t.insert(FrameTable, FrameRecord{
		ID:         f.ID,
		Command:    f.Command.String(),
		Payload:    f.Payload,
		SubmitTick: t.inFlight.tick,
		EndTick:    t.timeTeller.TickCount(),
		Outcome:    outcome,
	})
	t.inFlight = nil
}

func (t *DBTracer) insert(table string, entry any) {
	t.backend.InsertData(table, entry)
	t.numWrites++
}

// Terminate records the access still open, if any, and flushes the backend.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.endAccess()
	t.backend.Flush()
}
