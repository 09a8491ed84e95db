// Package simulation wires a bridge, its link peer and a host stimulus into a
// runnable model, with optional recording and live monitoring.
package simulation

import (
	"context"

	"github.com/sarchlab/a8xio/datarecording"
	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/monitoring"
	"github.com/sarchlab/a8xio/tracing"
	"github.com/sarchlab/a8xio/xio"
)

// A Simulation owns every part of one model run.
type Simulation struct {
	id string

	comp   *hostbus.Comp
	peer   *xio.Peer
	runner *Runner

	dataRecorder datarecording.DataRecorder
	tracer       *tracing.DBTracer
	counter      *tracing.CountTracer
	monitor      *monitoring.Monitor
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Comp returns the bridge.
func (s *Simulation) Comp() *hostbus.Comp {
	return s.comp
}

// Peer returns the device at the far end of the link.
func (s *Simulation) Peer() *xio.Peer {
	return s.peer
}

// Runner returns the runner.
func (s *Simulation) Runner() *Runner {
	return s.runner
}

// DataRecorder returns the data recorder, or nil when tracing is off.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Tracer returns the database tracer, or nil when tracing is off.
func (s *Simulation) Tracer() *tracing.DBTracer {
	return s.tracer
}

// Counter returns the tracer that counts hook invocations.
func (s *Simulation) Counter() *tracing.CountTracer {
	return s.counter
}

// Monitor returns the monitor, or nil when monitoring is off.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Run runs the simulation. See Runner.Run.
func (s *Simulation) Run(ctx context.Context, budget uint64) (Result, error) {
	if s.monitor == nil {
		return s.runner.Run(ctx, budget)
	}

	total := budget
	if total == 0 {
		total = DefaultTickBudget
	}

	bar := s.monitor.CreateProgressBar("Ticks", total)
	defer s.monitor.CompleteProgressBar(bar)

	progress := &progressHook{bar: bar}
	s.runner.AcceptHook(progress)

	res, err := s.runner.Run(ctx, budget)
	progress.bar = nil

	return res, err
}

// Terminate flushes and closes the recording.
func (s *Simulation) Terminate() {
	if s.tracer != nil {
		s.tracer.Terminate()
	}

	if s.dataRecorder != nil {
		s.dataRecorder.Close()
	}
}
