package packet

import (
	"fmt"
	"net"
)

// Ipv4Prefix is a (network address, prefix length) pair, encoded on the
// wire as one length octet followed by ceil(pfxlen/8) network octets,
// most-significant byte first.
type Ipv4Prefix struct {
	Addr   [4]byte
	PfxLen uint8
}

func NewIpv4Prefix(addr [4]byte, pfxlen uint8) Ipv4Prefix {
	return Ipv4Prefix{Addr: addr, PfxLen: pfxlen}
}

func (p Ipv4Prefix) String() string {
	return fmt.Sprintf("%s/%d", net.IP(p.Addr[:]), p.PfxLen)
}

func networkOctets(pfxlen uint8) int {
	return int((pfxlen + OctetLen - 1) / OctetLen)
}

// BytesLen returns the total on-wire length of the encoded prefix,
// including the leading length octet: 1, 2, 3, 4, or 5.
func (p Ipv4Prefix) BytesLen() int {
	return 1 + networkOctets(p.PfxLen)
}

func (p Ipv4Prefix) encode() []byte {
	n := networkOctets(p.PfxLen)
	buf := make([]byte, 1+n)
	buf[0] = p.PfxLen
	copy(buf[1:], p.Addr[:n])
	return buf
}

func encodePrefixes(prefixes []Ipv4Prefix) []byte {
	var buf []byte
	for _, p := range prefixes {
		buf = append(buf, p.encode()...)
	}
	return buf
}

// decodePrefixes interprets buf, in its entirety, as a sequence of IPv4
// prefixes and returns them in encounter order. Callers slice out exactly
// the section (withdrawn routes or NLRI) they want decoded beforehand.
func decodePrefixes(buf []byte) ([]Ipv4Prefix, error) {
	var out []Ipv4Prefix

	i := 0
	for i < len(buf) {
		pfxlen := buf[i]
		if pfxlen > 32 {
			return nil, newDecodeError("prefix", fmt.Sprintf("prefix length %d exceeds 32", pfxlen))
		}

		n := networkOctets(pfxlen)
		if i+1+n > len(buf) {
			return nil, newDecodeError("prefix", "truncated prefix network octets")
		}

		var addr [4]byte
		copy(addr[:], buf[i+1:i+1+n])

		out = append(out, Ipv4Prefix{Addr: addr, PfxLen: pfxlen})
		i += 1 + n
	}

	return out, nil
}
