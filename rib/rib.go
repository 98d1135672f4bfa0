// Package rib implements a minimal Adjacency-RIB-In: a longest-prefix-
// match store of the NLRI carried by received UPDATE messages. It does
// no route selection or best-path computation; it only remembers what a
// peer announced, keyed by prefix, for later lookup.
package rib

import (
	"encoding/binary"

	"bgpd/lpm"
	"bgpd/net"
	"bgpd/packet"
)

// RIB stores announced prefixes for one peer.
type RIB struct {
	trie *lpm.LPM
}

func New() *RIB {
	return &RIB{trie: lpm.New()}
}

// AddPaths inserts every NLRI prefix carried by u. Path attributes are
// not retained: this store answers "is this prefix reachable", not
// "via what path", which is the extent the lpm trie supports.
func (r *RIB) AddPaths(u packet.UpdateMessage) {
	for _, p := range u.NLRI {
		r.trie.Insert(toNetPrefix(p))
	}
}

// LongestMatch returns every stored prefix that equals or covers pfx,
// most general first; the last entry is the longest match.
func (r *RIB) LongestMatch(pfx packet.Ipv4Prefix) []packet.Ipv4Prefix {
	matches := r.trie.LPM(toNetPrefix(pfx))

	out := make([]packet.Ipv4Prefix, 0, len(matches))
	for _, m := range matches {
		out = append(out, fromNetPrefix(m))
	}
	return out
}

func toNetPrefix(p packet.Ipv4Prefix) *net.Prefix {
	return net.NewPfx(binary.BigEndian.Uint32(p.Addr[:]), p.PfxLen)
}

func fromNetPrefix(p *net.Prefix) packet.Ipv4Prefix {
	var addr [4]byte
	binary.BigEndian.PutUint32(addr[:], p.Addr())
	return packet.NewIpv4Prefix(addr, p.Pfxlen())
}
