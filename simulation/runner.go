package simulation

import (
	"context"
	"sync"

	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/sim/hooking"
	"github.com/sarchlab/a8xio/sim/timing"
	"github.com/sarchlab/a8xio/xio"
)

// DefaultTickBudget bounds a run when the caller gives no budget.
const DefaultTickBudget = 1_000_000

// Hook positions of the runner. The item is the tick count; after a tick the
// detail holds the bridge outputs.
var (
	HookPosBeforeTick = &hooking.HookPos{Name: "Runner Before Tick"}
	HookPosAfterTick  = &hooking.HookPos{Name: "Runner After Tick"}
)

// Result summarizes a run.
type Result struct {
	Ticks             uint64
	FramesSubmitted   int
	FramesOverwritten int
	FramesDropped     int
	FramesReceived    int
	// Stalled is set when the run stopped with the link waiting for
	// clear-to-send.
	Stalled bool
	// BudgetExhausted is set when the run stopped before the stimulus and
	// the link were done.
	BudgetExhausted bool
}

// Runner advances the bridge and its peer one tick at a time.
type Runner struct {
	hooking.HookableBase

	comp     *hostbus.Comp
	peer     *xio.Peer
	stimulus Stimulus

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	// stateLock is held while a tick is processed.
	stateLock sync.Mutex
	last      hostbus.Outputs
	exhausted bool
	result    Result
}

// NewRunner creates a runner that feeds the stimulus into the bridge and
// connects the bridge link to the peer.
func NewRunner(
	comp *hostbus.Comp,
	peer *xio.Peer,
	stimulus Stimulus,
) *Runner {
	return &Runner{
		comp:     comp,
		peer:     peer,
		stimulus: stimulus,
	}
}

// TickCount returns the number of ticks processed.
func (r *Runner) TickCount() uint64 {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	return r.comp.TickCount()
}

// CurrentTime returns the simulated time of the last tick.
func (r *Runner) CurrentTime() timing.VTimeInSec {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	return r.comp.CurrentTime()
}

// Inspect runs f between ticks so that f can read the model safely.
func (r *Runner) Inspect(f func()) {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	f()
}

// LastOutputs returns the outputs of the last tick.
func (r *Runner) LastOutputs() hostbus.Outputs {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	return r.last
}

// Result returns the summary of everything run so far.
func (r *Runner) Result() Result {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	return r.resultLocked()
}

func (r *Runner) resultLocked() Result {
	res := r.result
	res.Ticks = r.comp.TickCount()
	res.FramesReceived = len(r.peer.Frames())
	res.Stalled = r.last.LinkStatus == xio.StatusStalled

	return res
}

// Done tells if the stimulus is exhausted and the link has gone idle.
func (r *Runner) Done() bool {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	return r.doneLocked()
}

func (r *Runner) doneLocked() bool {
	return r.exhausted && r.comp.Link().IsIdle()
}

// Step processes one tick. Once the stimulus is exhausted the host bus is
// held idle so that the link can drain.
func (r *Runner) Step() hostbus.Outputs {
	r.pauseLock.Lock()
	defer r.pauseLock.Unlock()

	return r.step()
}

func (r *Runner) step() hostbus.Outputs {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	in := idleInputs()
	if !r.exhausted && r.stimulus != nil {
		next, ok := r.stimulus.Next()
		if ok {
			in = next
		} else {
			r.exhausted = true
		}
	} else {
		r.exhausted = true
	}

	tick := r.comp.TickCount() + 1
	r.invoke(HookPosBeforeTick, tick, nil)

	in.ClearToSend = r.peer.ClearToSend()
	out := r.comp.Tick(in)
	r.peer.Observe(out.Link)

	if out.Submitted {
		r.result.FramesSubmitted++
		switch out.SubmitOutcome {
		case xio.SubmitOverwritten:
			r.result.FramesOverwritten++
		case xio.SubmitDropped:
			r.result.FramesDropped++
		}
	}
	r.last = out

	r.invoke(HookPosAfterTick, tick, out)

	return out
}

// Run processes ticks until the stimulus is exhausted and the link is idle,
// the budget is spent or the context is canceled. A zero budget means
// DefaultTickBudget.
func (r *Runner) Run(ctx context.Context, budget uint64) (Result, error) {
	r.singleRunLock.Lock()
	defer r.singleRunLock.Unlock()

	if budget == 0 {
		budget = DefaultTickBudget
	}

	for spent := uint64(0); ; spent++ {
		if err := ctx.Err(); err != nil {
			return r.Result(), err
		}

		if r.Done() {
			return r.Result(), nil
		}

		if spent >= budget {
			res := r.Result()
			res.BudgetExhausted = true

			return res, nil
		}

		r.Step()
	}
}

// Pause stops the runner before its next tick.
func (r *Runner) Pause() {
	r.isPausedLock.Lock()
	defer r.isPausedLock.Unlock()

	if r.isPaused {
		return
	}

	r.pauseLock.Lock()
	r.isPaused = true
}

// Continue lets a paused runner go on.
func (r *Runner) Continue() {
	r.isPausedLock.Lock()
	defer r.isPausedLock.Unlock()

	if !r.isPaused {
		return
	}

	r.pauseLock.Unlock()
	r.isPaused = false
}

// IsPaused tells if the runner is paused.
func (r *Runner) IsPaused() bool {
	r.isPausedLock.Lock()
	defer r.isPausedLock.Unlock()

	return r.isPaused
}

func (r *Runner) invoke(pos *hooking.HookPos, tick uint64, detail any) {
	if r.NumHooks() == 0 {
		return
	}

	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Pos:    pos,
		Item:   tick,
		Detail: detail,
	})
}
