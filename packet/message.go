package packet

import (
	"fmt"

	"github.com/taktv6/tflow2/convert"
)

// Header is the 19-octet framing header common to every BGP message.
type Header struct {
	Length uint16
	Type   uint8
}

// Message is the closed set of BGP message bodies this speaker produces
// or consumes.
type Message interface {
	MsgType() uint8
	header() Header
	encodeBody() []byte
}

// OpenMessage is a decoded/constructed BGP OPEN message.
type OpenMessage struct {
	Version            Version
	MyAS               ASN16
	HoldTime           HoldTime
	BGPIdentifier      [4]byte
	OptionalParameters []byte
}

// NewOpenMessage builds an OPEN with no optional parameters, as emitted
// by this core (total length 29 octets).
func NewOpenMessage(myAS ASN16, holdTime HoldTime, id [4]byte) OpenMessage {
	return OpenMessage{Version: 4, MyAS: myAS, HoldTime: holdTime, BGPIdentifier: id}
}

func (o OpenMessage) MsgType() uint8 { return OpenMsg }

func (o OpenMessage) header() Header {
	return Header{Length: uint16(HeaderLen + 10 + len(o.OptionalParameters)), Type: OpenMsg}
}

func (o OpenMessage) encodeBody() []byte {
	buf := []byte{byte(o.Version)}
	buf = append(buf, convert.Uint16Byte(uint16(o.MyAS))...)
	buf = append(buf, convert.Uint16Byte(uint16(o.HoldTime))...)
	buf = append(buf, o.BGPIdentifier[:]...)
	buf = append(buf, byte(len(o.OptionalParameters)))
	buf = append(buf, o.OptionalParameters...)
	return buf
}

// KeepaliveMessage carries no data beyond the header.
type KeepaliveMessage struct{}

func NewKeepaliveMessage() KeepaliveMessage { return KeepaliveMessage{} }

func (k KeepaliveMessage) MsgType() uint8     { return KeepaliveMsg }
func (k KeepaliveMessage) header() Header     { return Header{Length: HeaderLen, Type: KeepaliveMsg} }
func (k KeepaliveMessage) encodeBody() []byte { return nil }

// UpdateMessage carries withdrawn routes, path attributes shared
// read-only across every NLRI entry, and the newly announced NLRI.
type UpdateMessage struct {
	WithdrawnRoutes []Ipv4Prefix
	PathAttributes  []PathAttribute
	NLRI            []Ipv4Prefix
}

func NewUpdateMessage(attrs []PathAttribute, nlri []Ipv4Prefix, withdrawn []Ipv4Prefix) UpdateMessage {
	return UpdateMessage{WithdrawnRoutes: withdrawn, PathAttributes: attrs, NLRI: nlri}
}

func (u UpdateMessage) withdrawnLen() int {
	n := 0
	for _, p := range u.WithdrawnRoutes {
		n += p.BytesLen()
	}
	return n
}

func (u UpdateMessage) attrsLen() int {
	n := 0
	for _, a := range u.PathAttributes {
		n += a.BytesLen()
	}
	return n
}

func (u UpdateMessage) nlriLen() int {
	n := 0
	for _, p := range u.NLRI {
		n += p.BytesLen()
	}
	return n
}

func (u UpdateMessage) MsgType() uint8 { return UpdateMsg }

func (u UpdateMessage) header() Header {
	length := HeaderLen + 2 + u.withdrawnLen() + 2 + u.attrsLen() + u.nlriLen()
	return Header{Length: uint16(length), Type: UpdateMsg}
}

func (u UpdateMessage) encodeBody() []byte {
	var buf []byte

	buf = append(buf, convert.Uint16Byte(uint16(u.withdrawnLen()))...)
	buf = append(buf, encodePrefixes(u.WithdrawnRoutes)...)

	buf = append(buf, convert.Uint16Byte(uint16(u.attrsLen()))...)
	buf = append(buf, encodeAttributes(u.PathAttributes)...)

	buf = append(buf, encodePrefixes(u.NLRI)...)

	return buf
}

// Encode renders msg to its complete wire representation, header included.
// The result's length always equals msg's computed header length.
func Encode(msg Message) []byte {
	h := msg.header()

	buf := make([]byte, 0, h.Length)
	for i := 0; i < MarkerLen; i++ {
		buf = append(buf, 0xff)
	}
	buf = append(buf, convert.Uint16Byte(h.Length)...)
	buf = append(buf, h.Type)
	buf = append(buf, msg.encodeBody()...)

	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, newDecodeError("header", fmt.Sprintf("buffer of %d octets shorter than header", len(buf)))
	}

	for i := 0; i < MarkerLen; i++ {
		if buf[i] != 0xff {
			return Header{}, newDecodeError("header", "marker is not all-ones")
		}
	}

	length := uint16(buf[16])<<8 | uint16(buf[17])
	if int(length) < HeaderLen {
		return Header{}, newDecodeError("header", fmt.Sprintf("declared length %d shorter than header", length))
	}
	if int(length) > len(buf) {
		return Header{}, newDecodeError("header", fmt.Sprintf("declared length %d exceeds buffer of %d octets", length, len(buf)))
	}

	return Header{Length: length, Type: buf[18]}, nil
}

// Decode interprets buf as exactly one complete BGP message (header plus
// body, with no trailing octets).
func Decode(buf []byte) (Message, error) {
	h, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}

	body := buf[HeaderLen:h.Length]

	switch h.Type {
	case OpenMsg:
		return decodeOpenMsg(body)
	case KeepaliveMsg:
		if len(body) != 0 {
			return nil, newDecodeError("keepalive", "body must be empty")
		}
		return NewKeepaliveMessage(), nil
	case UpdateMsg:
		return decodeUpdateMsg(body)
	default:
		return nil, newDecodeError("header", fmt.Sprintf("unknown message type %d", h.Type))
	}
}

func decodeOpenMsg(body []byte) (OpenMessage, error) {
	if len(body) < 10 {
		return OpenMessage{}, newDecodeError("open", "body shorter than fixed fields")
	}

	version := body[0]
	if version < MinVersion || version > MaxVersion {
		return OpenMessage{}, newDecodeError("open", fmt.Sprintf("unsupported version %d", version))
	}

	myAS := uint16(body[1])<<8 | uint16(body[2])
	holdTime := uint16(body[3])<<8 | uint16(body[4])

	var id [4]byte
	copy(id[:], body[5:9])

	optLen := int(body[9])
	if 10+optLen != len(body) {
		return OpenMessage{}, newDecodeError("open", "optional parameters length does not match body size")
	}

	o := OpenMessage{
		Version:       Version(version),
		MyAS:          ASN16(myAS),
		HoldTime:      HoldTime(holdTime),
		BGPIdentifier: id,
	}
	if optLen > 0 {
		o.OptionalParameters = append([]byte(nil), body[10:]...)
	}

	return o, nil
}

func decodeUpdateMsg(body []byte) (UpdateMessage, error) {
	if len(body) < 2 {
		return UpdateMessage{}, newDecodeError("update", "body shorter than withdrawn-routes length")
	}

	withdrawnLen := int(body[0])<<8 | int(body[1])
	if 2+withdrawnLen > len(body) {
		return UpdateMessage{}, newDecodeError("update", "withdrawn routes length exceeds body")
	}

	withdrawn, err := decodePrefixes(body[2 : 2+withdrawnLen])
	if err != nil {
		return UpdateMessage{}, err
	}

	rest := body[2+withdrawnLen:]
	if len(rest) < 2 {
		return UpdateMessage{}, newDecodeError("update", "body shorter than path-attribute length")
	}

	attrsLen := int(rest[0])<<8 | int(rest[1])
	if 2+attrsLen > len(rest) {
		return UpdateMessage{}, newDecodeError("update", "path attribute length exceeds body")
	}

	attrs, err := decodeAttributes(rest[2 : 2+attrsLen])
	if err != nil {
		return UpdateMessage{}, err
	}

	nlriBuf := rest[2+attrsLen:]
	nlri, err := decodePrefixes(nlriBuf)
	if err != nil {
		return UpdateMessage{}, err
	}

	return UpdateMessage{WithdrawnRoutes: withdrawn, PathAttributes: attrs, NLRI: nlri}, nil
}
