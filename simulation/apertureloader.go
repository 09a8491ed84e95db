package simulation

import (
	"fmt"

	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/sarchlab/a8xio/sim/hooking"
)

// apertureLoader programs apertures directly, and again every time the bridge
// enters reset, so that a reset preamble does not wipe them.
type apertureLoader struct {
	bank      *aperture.Bank
	apertures []ApertureSetup
}

func (l *apertureLoader) load() {
	for _, a := range l.apertures {
		outcome := l.bank.Configure(a.Slot, a.StartPage, a.EndPage, a.RemoteBase)
		if outcome != aperture.ConfigArmed {
			panic(fmt.Sprintf("cannot program aperture %d: %s", a.Slot, outcome))
		}
	}
}

func (l *apertureLoader) Func(ctx hooking.HookCtx) {
	if ctx.Pos == hostbus.HookPosReset {
		l.load()
	}
}
