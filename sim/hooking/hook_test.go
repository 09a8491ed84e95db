package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HookableBase", func() {
	var (
		base HookableBase
		pos  = &HookPos{Name: "Test"}
	)

	BeforeEach(func() {
		base = HookableBase{}
	})

	It("should invoke hooks in registration order", func() {
		var order []int

		base.AcceptHook(FuncHook(func(HookCtx) { order = append(order, 1) }))
		base.AcceptHook(FuncHook(func(HookCtx) { order = append(order, 2) }))

		base.InvokeHook(HookCtx{Domain: &base, Pos: pos})

		Expect(base.NumHooks()).To(Equal(2))
		Expect(order).To(Equal([]int{1, 2}))
	})

	It("should pass the context through", func() {
		var got HookCtx

		base.AcceptHook(FuncHook(func(ctx HookCtx) { got = ctx }))
		base.InvokeHook(HookCtx{Domain: &base, Pos: pos, Item: 42})

		Expect(got.Pos).To(BeIdenticalTo(pos))
		Expect(got.Item).To(Equal(42))
	})
})
