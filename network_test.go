package geomerge

import (
	"net"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("Ranges", func() {
	It("Should compute the bounds of a /24", func() {
		r, err := ParseRange("198.51.100.0/24")

		Expect(err).To(BeNil())
		Expect(r.Start.String()).To(Equal("198.51.100.0"))
		Expect(r.End.String()).To(Equal("198.51.100.255"))
	})

	It("Should compute the bounds of a /25", func() {
		r, err := ParseRange("203.0.113.128/25")

		Expect(err).To(BeNil())
		Expect(r.Start.String()).To(Equal("203.0.113.128"))
		Expect(r.End.String()).To(Equal("203.0.113.255"))
	})

	It("Should mask host bits instead of rejecting them", func() {
		r, err := ParseRange("10.0.0.5/30")

		Expect(err).To(BeNil())
		Expect(r.Start.String()).To(Equal("10.0.0.4"))
		Expect(r.End.String()).To(Equal("10.0.0.7"))
	})

	It("Should treat a /32 as a single host", func() {
		r, err := ParseRange("192.0.2.17/32")

		Expect(err).To(BeNil())
		Expect(r.Start.String()).To(Equal("192.0.2.17"))
		Expect(r.End.String()).To(Equal(r.Start.String()))
	})

	It("Should cover the whole address space for a /0", func() {
		r, err := ParseRange("0.0.0.0/0")

		Expect(err).To(BeNil())
		Expect(r.Start.String()).To(Equal("0.0.0.0"))
		Expect(r.End.String()).To(Equal("255.255.255.255"))
	})

	It("Should reject garbage", func() {
		_, err := ParseRange("not-a-cidr")

		Expect(errors.Is(err, ErrBadNetwork)).To(BeTrue())
	})

	It("Should reject IPv6 networks", func() {
		_, err := ParseRange("2001:db8::/32")

		Expect(errors.Is(err, ErrBadNetwork)).To(BeTrue())
	})
})

var _ = Describe("Decimal conversion", func() {
	It("Should use the big-endian 32-bit interpretation", func() {
		Expect(IPToDecimal(net.IPv4(1, 2, 3, 4))).To(Equal(uint32(16909060)))
		Expect(DecimalToIP(16909060).String()).To(Equal("1.2.3.4"))
	})

	It("Should round-trip arbitrary addresses", func() {
		for _, addr := range []string{"0.0.0.0", "10.0.0.1", "172.16.254.3", "203.0.113.96", "255.255.255.255"} {
			ip := net.ParseIP(addr)

			Expect(DecimalToIP(IPToDecimal(ip)).String()).To(Equal(addr))
		}
	})
})
