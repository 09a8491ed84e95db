package xio

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/a8xio/sim/hooking"
)

type tickRecord struct {
	out    Outputs
	status Status
	state  State
}

func runLink(ch *Channel, peer *Peer, budget int) []tickRecord {
	var records []tickRecord

	for i := 0; i < budget; i++ {
		out, status := ch.Tick(peer.ClearToSend())
		peer.Observe(out)
		records = append(records, tickRecord{out, status, ch.State()})

		if status == StatusCompleted {
			break
		}
	}

	return records
}

var _ = Describe("Channel", func() {
	var (
		ch   *Channel
		peer *Peer
	)

	BeforeEach(func() {
		ch = NewChannel("Bridge.XIO")
		peer = MakePeerBuilder().Build("Peer")
	})

	It("should stay idle without a frame", func() {
		for i := 0; i < 10; i++ {
			out, status := ch.Tick(true)
			Expect(out).To(Equal(Outputs{}))
			Expect(status).To(Equal(StatusIdle))
		}
	})

	It("should leave idle on the submitting tick", func() {
		Expect(ch.Submit(Frame{Command: CmdSDRAMRead})).To(Equal(SubmitAccepted))
		Expect(ch.State()).To(Equal(StateRequestToSend))

		out, _ := ch.Tick(false)
		Expect(out.RequestToSend).To(BeTrue())
		Expect(ch.State()).To(Equal(StateWaitClearToSend))
	})

	It("should send the command and payload in order", func() {
		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0xAABBCCDD})

		records := runLink(ch, peer, 100)

		Expect(records).To(HaveLen(13))
		Expect(records[len(records)-1].status).To(Equal(StatusCompleted))
		Expect(peer.Bytes()).To(Equal([]byte{0x01, 0xAA, 0xBB, 0xCC, 0xDD}))
		Expect(peer.Frames()).To(Equal([]Frame{
			{Command: CmdSDRAMRead, Payload: 0xAABBCCDD},
		}))
		Expect(ch.IsIdle()).To(BeTrue())
		Expect(ch.Outputs()).To(Equal(Outputs{}))
	})

	It("should pulse the strobe for a single tick per byte", func() {
		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0x01020304})

		records := runLink(ch, peer, 100)

		strobes := 0
		for i, r := range records {
			if !r.out.DataStrobe {
				continue
			}

			strobes++
			Expect(records[i+1].out.DataStrobe).To(BeFalse())
		}
		Expect(strobes).To(Equal(5))
	})

	It("should finish a command without payload after one byte", func() {
		ch.Submit(Frame{Command: 0x3, Payload: 0xFFFFFFFF})

		records := runLink(ch, peer, 100)

		Expect(records).To(HaveLen(5))
		Expect(peer.Bytes()).To(Equal([]byte{0x03}))
	})

	It("should never strobe before clear-to-send", func() {
		slowPeer := MakePeerBuilder().WithAckDelay(7).Build("Peer")
		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0x11223344})

		ctsSeen := false
		for i := 0; i < 100; i++ {
			cts := slowPeer.ClearToSend()
			ctsSeen = ctsSeen || cts

			out, status := ch.Tick(cts)
			slowPeer.Observe(out)

			if out.DataStrobe || out.OutputEnable {
				Expect(ctsSeen).To(BeTrue())
			}

			if status == StatusCompleted {
				break
			}
		}

		Expect(slowPeer.Violations()).To(Equal(0))
		Expect(slowPeer.Bytes()).To(Equal([]byte{0x01, 0x11, 0x22, 0x33, 0x44}))
	})

	It("should stall forever without clear-to-send", func() {
		deafPeer := MakePeerBuilder().WithoutAck().Build("Peer")
		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0x1})

		records := runLink(ch, deafPeer, 100000)

		Expect(records).To(HaveLen(100000))
		last := records[len(records)-1]
		Expect(last.state).To(Equal(StateWaitClearToSend))
		Expect(last.status).To(Equal(StatusStalled))
		Expect(last.out.RequestToSend).To(BeTrue())
		Expect(last.out.OutputEnable).To(BeFalse())
		Expect(deafPeer.Bytes()).To(BeEmpty())
	})

	It("should produce identical bytes for repeated submissions", func() {
		frame := Frame{Command: CmdSDRAMRead, Payload: 0xCAFEF00D}

		ch.Submit(frame)
		first := runLink(ch, peer, 100)
		firstBytes := append([]byte(nil), peer.Bytes()...)

		peer.Reset()
		Expect(ch.Submit(frame)).To(Equal(SubmitAccepted))
		second := runLink(ch, peer, 100)

		Expect(peer.Bytes()).To(Equal(firstBytes))
		Expect(second).To(Equal(first))
	})

	It("should overwrite the latches of a busy channel", func() {
		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0xAABBCCDD})
		ch.Tick(false)

		outcome := ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0x11223344})

		Expect(outcome).To(Equal(SubmitOverwritten))
		Expect(ch.State()).To(Equal(StateWaitClearToSend))

		runLink(ch, peer, 100)
		Expect(peer.Frames()).To(Equal([]Frame{
			{Command: CmdSDRAMRead, Payload: 0x11223344},
		}))
	})

	It("should mix payload bytes when overwritten mid-frame", func() {
		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0xAABBCCDD})

		var out Outputs
		for len(peer.Bytes()) < 3 {
			out, _ = ch.Tick(peer.ClearToSend())
			peer.Observe(out)
		}

		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0x11223344})
		runLink(ch, peer, 100)

		Expect(peer.Bytes()).To(Equal([]byte{0x01, 0xAA, 0xBB, 0x33, 0x44}))
	})

	It("should drop a frame submitted once the last byte is out", func() {
		var done []Frame
		ch.AcceptHook(hooking.FuncHook(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosFrameDone {
				done = append(done, ctx.Item.(Frame))
			}
		}))

		first := Frame{ID: "a", Command: CmdSDRAMRead, Payload: 0xAABBCCDD}
		ch.Submit(first)
		for ch.State() != StateDone {
			out, _ := ch.Tick(peer.ClearToSend())
			peer.Observe(out)
		}

		outcome := ch.Submit(
			Frame{ID: "b", Command: CmdSDRAMRead, Payload: 0x11223344})

		for i := 0; i < 50; i++ {
			out, _ := ch.Tick(peer.ClearToSend())
			peer.Observe(out)
		}

		Expect(outcome).To(Equal(SubmitDropped))
		Expect(ch.State()).To(Equal(StateIdle))
		Expect(ch.InFlight()).To(Equal(first))
		Expect(peer.Bytes()).To(Equal([]byte{0x01, 0xAA, 0xBB, 0xCC, 0xDD}))
		Expect(done).To(Equal([]Frame{first}))
	})

	It("should drop a frame submitted while the last strobe is high", func() {
		var dropped []*hooking.HookPos
		ch.AcceptHook(hooking.FuncHook(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosFrameDropped || ctx.Pos == HookPosFrameOverwritten {
				dropped = append(dropped, ctx.Pos)
			}
		}))

		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0xAABBCCDD})
		for len(peer.Bytes()) < 5 {
			out, _ := ch.Tick(peer.ClearToSend())
			peer.Observe(out)
		}
		Expect(ch.State()).To(Equal(StateStrobeClock))

		Expect(ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0x1})).
			To(Equal(SubmitDropped))
		Expect(dropped).To(Equal([]*hooking.HookPos{HookPosFrameDropped}))

		runLink(ch, peer, 100)
		Expect(peer.Frames()).To(Equal([]Frame{
			{Command: CmdSDRAMRead, Payload: 0xAABBCCDD},
		}))
	})

	It("should still overwrite while the last payload byte is pending", func() {
		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0xAABBCCDD})
		for len(peer.Bytes()) < 4 {
			out, _ := ch.Tick(peer.ClearToSend())
			peer.Observe(out)
		}

		Expect(ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0x11223344})).
			To(Equal(SubmitOverwritten))

		runLink(ch, peer, 100)
		Expect(peer.Bytes()).To(Equal([]byte{0x01, 0xAA, 0xBB, 0xCC, 0x44}))
	})

	It("should report the bytes on the wire when a frame completes", func() {
		var done []Frame
		ch.AcceptHook(hooking.FuncHook(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosFrameDone {
				done = append(done, ctx.Item.(Frame))
			}
		}))

		ch.Submit(Frame{ID: "a", Command: CmdSDRAMRead, Payload: 0xAABBCCDD})
		for len(peer.Bytes()) < 3 {
			out, _ := ch.Tick(peer.ClearToSend())
			peer.Observe(out)
		}
		ch.Submit(Frame{ID: "b", Command: CmdSDRAMRead, Payload: 0x11223344})
		runLink(ch, peer, 100)

		Expect(done).To(Equal([]Frame{
			{ID: "b", Command: CmdSDRAMRead, Payload: 0xAABB3344},
		}))
		Expect(ch.Sent().Payload).To(Equal(peer.Frames()[0].Payload))
	})

	It("should go back to idle on reset", func() {
		ch.Submit(Frame{Command: CmdSDRAMRead, Payload: 0x1})
		ch.Tick(false)
		ch.Tick(true)

		ch.Reset()

		Expect(ch.State()).To(Equal(StateIdle))
		Expect(ch.Outputs()).To(Equal(Outputs{}))
	})

	It("should report frames through hooks", func() {
		var positions []*hooking.HookPos
		ch.AcceptHook(hooking.FuncHook(func(ctx hooking.HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		ch.Submit(Frame{Command: 0x2})
		runLink(ch, peer, 100)

		Expect(positions).To(Equal([]*hooking.HookPos{
			HookPosFrameAccepted,
			HookPosByteSent,
			HookPosFrameDone,
		}))
	})
})
