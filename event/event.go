// Package event defines the tagged event variant that drives the peer
// FSM, and a FIFO queue of such events.
package event

import "bgpd/packet"

// Kind discriminates the Event variants.
type Kind uint8

const (
	ManualStart Kind = iota
	TcpConnectionConfirmed
	BgpOpen
	KeepaliveMsg
	UpdateMsg
	Established
)

func (k Kind) String() string {
	switch k {
	case ManualStart:
		return "ManualStart"
	case TcpConnectionConfirmed:
		return "TcpConnectionConfirmed"
	case BgpOpen:
		return "BgpOpen"
	case KeepaliveMsg:
		return "KeepaliveMsg"
	case UpdateMsg:
		return "UpdateMsg"
	case Established:
		return "Established"
	default:
		return "Unknown"
	}
}

// Event is a tagged variant; only the field matching Kind is populated.
type Event struct {
	Kind Kind

	Open   packet.OpenMessage
	Update packet.UpdateMessage
}

func NewManualStart() Event           { return Event{Kind: ManualStart} }
func NewTcpConnectionConfirmed() Event { return Event{Kind: TcpConnectionConfirmed} }
func NewEstablished() Event           { return Event{Kind: Established} }
func NewKeepaliveMsg() Event          { return Event{Kind: KeepaliveMsg} }

func NewBgpOpen(o packet.OpenMessage) Event {
	return Event{Kind: BgpOpen, Open: o}
}

func NewUpdateMsg(u packet.UpdateMessage) Event {
	return Event{Kind: UpdateMsg, Update: u}
}
