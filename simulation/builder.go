package simulation

import (
	"github.com/rs/xid"
	"github.com/sarchlab/a8xio/datarecording"
	"github.com/sarchlab/a8xio/hostbus"
	"github.com/sarchlab/a8xio/monitoring"
	"github.com/sarchlab/a8xio/tracing"
	"github.com/sarchlab/a8xio/xio"
)

// Builder can be used to build a simulation.
type Builder struct {
	bridge hostbus.Builder
	peer   xio.PeerBuilder

	script    *Script
	stimulus  Stimulus
	waveform  Waveform
	apertures []ApertureSetup

	tracingOn      bool
	outputFileName string
	monitorOn      bool
	monitorPort    int
}

// ApertureSetup programs an aperture directly, without host writes.
type ApertureSetup struct {
	Slot       int    `json:"slot"`
	StartPage  uint8  `json:"start_page"`
	EndPage    uint8  `json:"end_page"`
	RemoteBase uint32 `json:"remote_base"`
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		bridge:   hostbus.MakeBuilder(),
		peer:     xio.MakePeerBuilder(),
		waveform: A8Waveform,
	}
}

// WithBridge sets the builder of the bridge.
func (b Builder) WithBridge(bridge hostbus.Builder) Builder {
	b.bridge = bridge
	return b
}

// WithPeer sets the builder of the link peer.
func (b Builder) WithPeer(peer xio.PeerBuilder) Builder {
	b.peer = peer
	return b
}

// WithScript plays the script as the host stimulus.
func (b Builder) WithScript(s Script) Builder {
	b.script = &s
	b.stimulus = nil

	return b
}

// WithStimulus sets a custom stimulus.
func (b Builder) WithStimulus(s Stimulus) Builder {
	b.stimulus = s
	b.script = nil

	return b
}

// WithWaveform sets the host clock waveform used to play a script.
func (b Builder) WithWaveform(w Waveform) Builder {
	b.waveform = w
	return b
}

// WithApertures programs apertures before the first tick.
func (b Builder) WithApertures(apertures ...ApertureSetup) Builder {
	b.apertures = append([]ApertureSetup(nil), apertures...)
	return b
}

// WithTracing records accesses, configuration writes and frames.
func (b Builder) WithTracing() Builder {
	b.tracingOn = true
	return b
}

// WithOutputFileName sets the name of the recording database, without the
// extension.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitoring starts the monitoring server.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.tracingOn && b.outputFileName != "" {
		panic("output file cannot be set when tracing is disabled")
	}
}

// Build builds the simulation. The bridge is named name, and the peer
// name.Peer.
func (b Builder) Build(name string) *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:      xid.New().String(),
		comp:    b.bridge.Build(name),
		peer:    b.peer.Build(name + ".Peer"),
		counter: tracing.NewCountTracer(),
	}

	if len(b.apertures) > 0 {
		loader := &apertureLoader{bank: s.comp.Bank(), apertures: b.apertures}
		loader.load()
		s.comp.AcceptHook(loader)
	}

	stimulus := b.stimulus
	if b.script != nil {
		stimulus = NewScriptStimulus(s.comp.Freq(), b.waveform, *b.script)
	}

	s.runner = NewRunner(s.comp, s.peer, stimulus)

	s.comp.AcceptHook(s.counter)
	s.comp.Translator().AcceptHook(s.counter)
	s.comp.Link().AcceptHook(s.counter)
	s.peer.AcceptHook(s.counter)

	if b.tracingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "a8xio_sim_" + s.id
		}

		s.dataRecorder = datarecording.New(outputPath)
		s.tracer = tracing.NewDBTracer(s.comp, s.dataRecorder)
		s.tracer.Attach(s.comp)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterRunner(s.runner)
		s.monitor.RegisterBridge(s.comp)
		s.monitor.RegisterComponent(s.peer)
		s.monitor.StartServer()
	}

	return s
}
