package simulation

import (
	"github.com/sarchlab/a8xio/monitoring"
	"github.com/sarchlab/a8xio/sim/hooking"
)

type progressHook struct {
	bar *monitoring.ProgressBar
}

// Func counts the tick being processed as in progress until it is done.
func (h *progressHook) Func(ctx hooking.HookCtx) {
	if h.bar == nil {
		return
	}

	switch ctx.Pos {
	case HookPosBeforeTick:
		h.bar.IncrementInProgress(1)
	case HookPosAfterTick:
		h.bar.MoveInProgressToFinished(1)
	}
}
