package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenMessageRoundTrip(t *testing.T) {
	open := NewOpenMessage(64512, 0, [4]byte{127, 0, 0, 1})

	encoded := Encode(open)
	assert.Len(t, encoded, 29)
	assert.Equal(t, uint8(OpenMsg), encoded[18])

	decoded, err := Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, open, decoded)
}

func TestOpenMessageToleratesOptionalParameters(t *testing.T) {
	buf := make([]byte, 0, 32)
	for i := 0; i < MarkerLen; i++ {
		buf = append(buf, 0xff)
	}
	buf = append(buf, 0, 32, OpenMsg)
	buf = append(buf, 4, 0xfc, 0x00, 0, 0, 10, 0, 0, 1, 3, 1, 2, 3)

	msg, err := Decode(buf)
	assert.NoError(t, err)

	open, ok := msg.(OpenMessage)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, open.OptionalParameters)
}

func TestKeepaliveMessageRoundTrip(t *testing.T) {
	keepalive := NewKeepaliveMessage()

	encoded := Encode(keepalive)
	assert.Len(t, encoded, 19)

	decoded, err := Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, keepalive, decoded)
}

func TestUpdateMessageRoundTrip(t *testing.T) {
	some := ASN16(64513)
	local := ASN16(64514)

	update := NewUpdateMessage(
		[]PathAttribute{
			NewOriginAttribute(OriginIGP),
			NewASSequenceAttribute([]ASN16{some, local}),
			NewNextHopAttribute([4]byte{10, 200, 100, 3}),
		},
		[]Ipv4Prefix{NewIpv4Prefix([4]byte{10, 100, 220, 0}, 24)},
		nil,
	)

	encoded := Encode(update)
	assert.Equal(t, int(update.header().Length), len(encoded))

	decoded, err := Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, update, decoded)
}

func TestUpdateMessageWithWithdrawn(t *testing.T) {
	update := NewUpdateMessage(nil, nil, []Ipv4Prefix{
		NewIpv4Prefix([4]byte{192, 168, 0, 0}, 16),
		NewIpv4Prefix([4]byte{0, 0, 0, 0}, 0),
	})

	encoded := Encode(update)
	decoded, err := Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, update, decoded)
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	assert.Error(t, err)
}

func TestDecodeRejectsBadMarker(t *testing.T) {
	buf := Encode(NewKeepaliveMessage())
	buf[0] = 0x00

	_, err := Decode(buf)
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	buf := Encode(NewKeepaliveMessage())
	buf[18] = 99

	_, err := Decode(buf)
	assert.Error(t, err)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	buf := Encode(NewOpenMessage(64512, 0, [4]byte{1, 2, 3, 4}))
	buf[19] = 5

	_, err := Decode(buf)
	assert.Error(t, err)
}

func TestHeaderLengthMatchesEncodedLength(t *testing.T) {
	msgs := []Message{
		NewKeepaliveMessage(),
		NewOpenMessage(1, 0, [4]byte{1, 1, 1, 1}),
		NewUpdateMessage(
			[]PathAttribute{NewOriginAttribute(OriginEGP)},
			[]Ipv4Prefix{NewIpv4Prefix([4]byte{172, 16, 0, 0}, 12)},
			nil,
		),
	}

	for _, m := range msgs {
		encoded := Encode(m)
		length := uint16(encoded[16])<<8 | uint16(encoded[17])
		assert.Equal(t, int(length), len(encoded))
	}
}
