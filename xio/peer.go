package xio

import (
	"github.com/sarchlab/a8xio/sim/hooking"
	"github.com/sarchlab/a8xio/sim/naming"
)

// HookPosFrameReceived marks a frame fully received by a peer.
var HookPosFrameReceived = &hooking.HookPos{Name: "XIO Frame Received"}

// Peer is the companion device at the far end of the link. It grants
// clear-to-send some ticks after it sees request-to-send, latches one byte per
// data strobe, and releases clear-to-send when request-to-send drops.
type Peer struct {
	naming.NamedBase
	hooking.HookableBase

	ackDelay int
	neverAck bool

	clearToSend bool
	waited      int
	prevStrobe  bool

	decoder    FrameDecoder
	bytes      []byte
	frames     []Frame
	violations int
}

// ClearToSend returns the level the peer drives on the CTS line.
func (p *Peer) ClearToSend() bool {
	return p.clearToSend
}

// Observe samples the channel outputs at the end of a tick.
func (p *Peer) Observe(out Outputs) {
	p.handshake(out.RequestToSend)

	strobeRising := out.DataStrobe && !p.prevStrobe
	p.prevStrobe = out.DataStrobe

	if !strobeRising {
		return
	}

	if !p.clearToSend || !out.OutputEnable {
		p.violations++
	}

	p.latch(out.Data)
}

func (p *Peer) handshake(requestToSend bool) {
	if !requestToSend {
		p.clearToSend = false
		p.waited = 0

		return
	}

	if p.clearToSend || p.neverAck {
		return
	}

	if p.waited >= p.ackDelay {
		p.clearToSend = true
		return
	}

	p.waited++
}

func (p *Peer) latch(b byte) {
	p.bytes = append(p.bytes, b)

	frame, done := p.decoder.Push(b)
	if !done {
		return
	}

	p.frames = append(p.frames, frame)

	if p.NumHooks() > 0 {
		p.InvokeHook(hooking.HookCtx{
			Domain: p,
			Pos:    HookPosFrameReceived,
			Item:   frame,
		})
	}
}

// Bytes returns every byte latched so far.
func (p *Peer) Bytes() []byte {
	return p.bytes
}

// Frames returns every complete frame received so far.
func (p *Peer) Frames() []Frame {
	return p.frames
}

// Violations returns the number of strobes seen without a granted handshake.
func (p *Peer) Violations() int {
	return p.violations
}

// Reset releases CTS and forgets everything received.
func (p *Peer) Reset() {
	p.clearToSend = false
	p.waited = 0
	p.prevStrobe = false
	p.decoder.Reset()
	p.bytes = nil
	p.frames = nil
	p.violations = 0
}

// PeerBuilder builds peers.
type PeerBuilder struct {
	ackDelay int
	neverAck bool
}

// MakePeerBuilder creates a builder for a peer that grants CTS on the tick
// after it sees RTS.
func MakePeerBuilder() PeerBuilder {
	return PeerBuilder{ackDelay: 0}
}

// WithAckDelay sets how many ticks the peer waits before granting CTS.
func (b PeerBuilder) WithAckDelay(ticks int) PeerBuilder {
	b.ackDelay = ticks
	return b
}

// WithoutAck makes a peer that never grants CTS.
func (b PeerBuilder) WithoutAck() PeerBuilder {
	b.neverAck = true
	return b
}

// Build creates the peer.
func (b PeerBuilder) Build(name string) *Peer {
	naming.NameMustBeValid(name)

	if b.ackDelay < 0 {
		panic("ack delay must not be negative")
	}

	return &Peer{
		NamedBase: naming.MakeNamedBase(name),
		ackDelay:  b.ackDelay,
		neverAck:  b.neverAck,
	}
}
