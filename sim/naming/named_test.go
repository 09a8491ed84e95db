package naming

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Names", func() {
	It("should accept hierarchical names", func() {
		Expect(func() { NameMustBeValid("Bridge.Aperture[3].Matcher") }).
			NotTo(Panic())
		Expect(func() { NameMustBeValid("Bridge.XIO") }).NotTo(Panic())
	})

	It("should reject empty elements", func() {
		Expect(func() { NameMustBeValid("Bridge..XIO") }).To(Panic())
		Expect(func() { NameMustBeValid("Bridge.") }).To(Panic())
	})

	It("should reject lower case elements", func() {
		Expect(func() { NameMustBeValid("Bridge.xio") }).To(Panic())
	})

	It("should reject bad indices", func() {
		Expect(func() { NameMustBeValid("Bridge.Aperture[a]") }).To(Panic())
		Expect(func() { NameMustBeValid("Bridge.Aperture[1") }).To(Panic())
		Expect(func() { NameMustBeValid("Bridge_1") }).To(Panic())
	})

	It("should build indexed names", func() {
		Expect(BuildNameWithIndex("Bridge", "Aperture", 2)).
			To(Equal("Bridge.Aperture[2]"))
		Expect(BuildName("", "Bridge")).To(Equal("Bridge"))
	})
})
