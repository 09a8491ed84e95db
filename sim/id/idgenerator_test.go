package id

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ID generation", func() {
	AfterEach(func() {
		UseSequentialIDs()
	})

	It("should count sequentially", func() {
		g := NewSequentialIDGenerator()
		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})

	It("should restart when switching back to sequential ids", func() {
		Generate()
		UseSequentialIDs()
		Expect(Generate()).To(Equal("1"))
	})

	It("should generate distinct xids", func() {
		UseGlobalUniqueIDs()
		a, b := Generate(), Generate()
		Expect(a).NotTo(Equal(b))
		Expect(a).To(HaveLen(20))
	})
})
