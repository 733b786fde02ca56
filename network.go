package geomerge

import (
	"encoding/binary"
	"net"

	"github.com/pkg/errors"
)

// ErrBadNetwork is returned when a block row's network column is not a
// valid IPv4 CIDR string. Blocks tables are machine-generated, so a
// malformed network means the snapshot itself is corrupt and the merge
// aborts instead of skipping the row.
var ErrBadNetwork = errors.New("invalid IPv4 CIDR network")

// Range is the inclusive IPv4 address range covered by a CIDR block.
type Range struct {
	Start net.IP
	End   net.IP
}

// ParseRange computes the range covered by an IPv4 CIDR string.
// Host bits are masked off rather than rejected, so "203.0.113.5/24"
// covers 203.0.113.0 through 203.0.113.255.
func ParseRange(network string) (Range, error) {
	_, ipnet, err := net.ParseCIDR(network)

	if err != nil {
		return Range{}, errors.Wrapf(ErrBadNetwork, "%q", network)
	}

	start := ipnet.IP.To4()

	ones, bits := ipnet.Mask.Size()

	if start == nil || bits != 32 {
		return Range{}, errors.Wrapf(ErrBadNetwork, "%q is not IPv4", network)
	}

	// The broadcast address is the base with all host bits set.
	// A shift of 32 (for a /0) yields zero, which is exactly the
	// full-width host mask we want inverted below.
	end := DecimalToIP(IPToDecimal(start) | ^uint32(0)>>uint(ones))

	return Range{Start: start, End: end}, nil
}

// IPToDecimal returns the big-endian unsigned 32-bit form of an IPv4
// address (a.b.c.d -> a<<24 | b<<16 | c<<8 | d).
func IPToDecimal(ip net.IP) uint32 {
	return binary.BigEndian.Uint32(ip.To4())
}

// DecimalToIP is the inverse of IPToDecimal.
func DecimalToIP(n uint32) net.IP {
	ip := make(net.IP, net.IPv4len)

	binary.BigEndian.PutUint32(ip, n)

	return ip
}
