package xio

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Frame", func() {
	It("should encode an SDRAM read big-endian", func() {
		f := Frame{Command: CmdSDRAMRead, Payload: 0xAABBCCDD}
		Expect(f.Bytes()).To(Equal([]byte{0x01, 0xAA, 0xBB, 0xCC, 0xDD}))
	})

	It("should encode commands without payload as a single byte", func() {
		for cmd := Command(0); cmd <= 0xF; cmd++ {
			if cmd == CmdSDRAMRead {
				continue
			}

			f := Frame{Command: cmd, Payload: 0x12345678}
			Expect(f.Bytes()).To(Equal([]byte{byte(cmd)}))
		}
	})

	It("should zero-extend the command nibble", func() {
		f := Frame{Command: 0xF1, Payload: 0x01020304}
		Expect(f.Bytes()).To(Equal([]byte{0x01, 0x01, 0x02, 0x03, 0x04}))
	})

	It("should decode a byte stream into frames", func() {
		var d FrameDecoder
		stream := []byte{0x01, 0xAA, 0xBB, 0xCC, 0xDD, 0x00, 0x07}

		var frames []Frame
		for _, b := range stream {
			if f, ok := d.Push(b); ok {
				frames = append(frames, f)
			}
		}

		Expect(frames).To(Equal([]Frame{
			{Command: CmdSDRAMRead, Payload: 0xAABBCCDD},
			{Command: CmdNop},
			{Command: 0x7},
		}))
		Expect(d.InFrame()).To(BeFalse())
	})

	It("should name commands", func() {
		Expect(CmdSDRAMRead.String()).To(Equal("SDRAM_READ"))
		Expect(Command(0xA).String()).To(Equal("CMD_A"))
		Expect(Frame{Command: CmdSDRAMRead, Payload: 0x110}.String()).
			To(Equal("SDRAM_READ 00000110"))
	})
})
