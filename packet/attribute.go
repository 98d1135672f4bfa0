package packet

import (
	"fmt"

	"github.com/taktv6/tflow2/convert"
)

// PathAttribute is a closed tagged variant over the four BGP path
// attribute kinds this speaker understands. Exactly one of the Origin/
// AsPath*/NextHop/Unknown fields is meaningful, selected by Kind.
type PathAttribute struct {
	Kind AttrKind

	Origin     Origin
	ASPathType uint8 // ASSet or ASSequence
	ASPath     []ASN16
	NextHop    [4]byte
	UnknownRaw []byte // complete encoded form (flags..value), preserved verbatim
}

// AttrKind distinguishes the PathAttribute variants.
type AttrKind uint8

const (
	AttrOrigin AttrKind = iota
	AttrASPath
	AttrNextHop
	AttrUnknown
)

// Origin is the well-known ORIGIN path attribute value.
type Origin uint8

const (
	OriginIGP        Origin = IGP
	OriginEGP        Origin = EGP
	OriginIncomplete Origin = INCOMPLETE
)

func NewOriginAttribute(o Origin) PathAttribute {
	return PathAttribute{Kind: AttrOrigin, Origin: o}
}

func NewASSequenceAttribute(asns []ASN16) PathAttribute {
	return PathAttribute{Kind: AttrASPath, ASPathType: ASSequence, ASPath: asns}
}

func NewASSetAttribute(asns []ASN16) PathAttribute {
	return PathAttribute{Kind: AttrASPath, ASPathType: ASSet, ASPath: asns}
}

func NewNextHopAttribute(addr [4]byte) PathAttribute {
	return PathAttribute{Kind: AttrNextHop, NextHop: addr}
}

// valueLen is the length, in octets, of just the attribute value (not
// counting flags, type code or length octets).
func (a PathAttribute) valueLen() int {
	switch a.Kind {
	case AttrOrigin:
		return 1
	case AttrASPath:
		return 2 + 2*len(a.ASPath)
	case AttrNextHop:
		return 4
	}
	return 0
}

// BytesLen is the total on-wire length of the encoded attribute.
func (a PathAttribute) BytesLen() int {
	if a.Kind == AttrUnknown {
		return len(a.UnknownRaw)
	}

	v := a.valueLen()
	if v > 255 {
		return v + 4
	}
	return v + 3
}

func (a PathAttribute) typeCode() uint8 {
	switch a.Kind {
	case AttrOrigin:
		return OriginAttr
	case AttrASPath:
		return ASPathAttr
	case AttrNextHop:
		return NextHopAttr
	}
	return 0
}

func (a PathAttribute) encode() []byte {
	if a.Kind == AttrUnknown {
		return append([]byte(nil), a.UnknownRaw...)
	}

	v := a.valueLen()

	flags := byte(flagTransitive)
	extended := v > 255
	if extended {
		flags |= flagExtendedLength
	}

	buf := []byte{flags, a.typeCode()}
	if extended {
		buf = append(buf, convert.Uint16Byte(uint16(v))...)
	} else {
		buf = append(buf, byte(v))
	}

	switch a.Kind {
	case AttrOrigin:
		buf = append(buf, byte(a.Origin))
	case AttrASPath:
		buf = append(buf, a.ASPathType, byte(len(a.ASPath)))
		for _, asn := range a.ASPath {
			buf = append(buf, convert.Uint16Byte(uint16(asn))...)
		}
	case AttrNextHop:
		buf = append(buf, a.NextHop[:]...)
	}

	return buf
}

func encodeAttributes(attrs []PathAttribute) []byte {
	var buf []byte
	for _, a := range attrs {
		buf = append(buf, a.encode()...)
	}
	return buf
}

// decodeAttributes interprets buf, in its entirety, as a sequence of path
// attributes, in encounter order.
func decodeAttributes(buf []byte) ([]PathAttribute, error) {
	var out []PathAttribute

	i := 0
	for i < len(buf) {
		if i+2 > len(buf) {
			return nil, newDecodeError("path-attribute", "truncated flags/type")
		}

		flags := buf[i]
		typeCode := buf[i+1]
		i += 2

		var length int
		if flags&flagExtendedLength != 0 {
			if i+2 > len(buf) {
				return nil, newDecodeError("path-attribute", "truncated extended length")
			}
			length = int(buf[i])<<8 | int(buf[i+1])
			i += 2
		} else {
			if i+1 > len(buf) {
				return nil, newDecodeError("path-attribute", "truncated length")
			}
			length = int(buf[i])
			i++
		}

		if i+length > len(buf) {
			return nil, newDecodeError("path-attribute", "attribute value exceeds buffer")
		}

		value := buf[i : i+length]
		headerStart := i - headerLenFor(flags)

		attr, err := decodeAttributeValue(typeCode, value)
		if err != nil {
			return nil, err
		}

		if attr.Kind == AttrUnknown {
			raw := make([]byte, 0, length+headerLenFor(flags))
			raw = append(raw, buf[headerStart:i]...)
			raw = append(raw, value...)
			attr.UnknownRaw = raw
		}

		out = append(out, attr)
		i += length
	}

	return out, nil
}

func headerLenFor(flags byte) int {
	if flags&flagExtendedLength != 0 {
		return 4
	}
	return 3
}

func decodeAttributeValue(typeCode uint8, value []byte) (PathAttribute, error) {
	switch typeCode {
	case OriginAttr:
		if len(value) != 1 {
			return PathAttribute{}, newDecodeError("origin", "value must be 1 octet")
		}
		o := Origin(value[0])
		if o != OriginIGP && o != OriginEGP && o != OriginIncomplete {
			return PathAttribute{}, newDecodeError("origin", fmt.Sprintf("invalid origin value %d", value[0]))
		}
		return PathAttribute{Kind: AttrOrigin, Origin: o}, nil

	case ASPathAttr:
		if len(value) < 2 {
			return PathAttribute{}, newDecodeError("as-path", "truncated segment header")
		}
		segType := value[0]
		if segType != ASSet && segType != ASSequence {
			return PathAttribute{}, newDecodeError("as-path", fmt.Sprintf("invalid segment type %d", segType))
		}
		segLen := int(value[1])
		if len(value) != 2+2*segLen {
			return PathAttribute{}, newDecodeError("as-path", "segment length does not match value size")
		}
		asns := make([]ASN16, segLen)
		for i := 0; i < segLen; i++ {
			asns[i] = ASN16(uint16(value[2+2*i])<<8 | uint16(value[2+2*i+1]))
		}
		return PathAttribute{Kind: AttrASPath, ASPathType: segType, ASPath: asns}, nil

	case NextHopAttr:
		if len(value) != 4 {
			return PathAttribute{}, newDecodeError("next-hop", "value must be 4 octets")
		}
		var addr [4]byte
		copy(addr[:], value)
		return PathAttribute{Kind: AttrNextHop, NextHop: addr}, nil

	default:
		return PathAttribute{Kind: AttrUnknown}, nil
	}
}
