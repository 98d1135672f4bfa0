package fsm

import (
	log "github.com/sirupsen/logrus"

	"bgpd/event"
)

// Dependencies are the side effects the FSM triggers on a transition.
// The peer driver implements this, since it is the component that owns
// the TCP connection and the event queue.
type Dependencies interface {
	// Connect opens or accepts a TCP connection per the peer's
	// configured mode. A non-nil error is fatal to the peer.
	Connect() error

	// SendOpen transmits an OPEN built from the peer's local AS and IP.
	SendOpen() error

	// SendKeepalive transmits a KEEPALIVE.
	SendKeepalive() error

	// Enqueue appends ev to the peer's event queue for a later step.
	Enqueue(ev event.Event)
}

// FSM holds the current session state and applies one event at a time.
// Unspecified (state, event) pairs are silently ignored: the event is
// consumed but state and side effects are unchanged.
type FSM struct {
	state State
	peer  string
}

// New creates an FSM in the initial Idle state. peer is used only to
// tag log lines and may be empty.
func New(peer string) *FSM {
	return &FSM{state: Idle, peer: peer}
}

func (f *FSM) State() State {
	return f.state
}

// Apply feeds ev to the FSM, executing whatever side effect the
// transition table in (state, ev.Kind) prescribes. A fatal transport
// error from Connect is returned to the caller; the FSM remains in Idle,
// which is terminal for this peer.
func (f *FSM) Apply(ev event.Event, deps Dependencies) error {
	switch f.state {
	case Idle:
		if ev.Kind == event.ManualStart {
			if err := deps.Connect(); err != nil {
				return err
			}
			deps.Enqueue(event.NewTcpConnectionConfirmed())
			f.transition(Connect)
		}

	case Connect:
		if ev.Kind == event.TcpConnectionConfirmed {
			if err := deps.SendOpen(); err != nil {
				return err
			}
			f.transition(OpenSent)
		}

	case OpenSent:
		if ev.Kind == event.BgpOpen {
			if err := deps.SendKeepalive(); err != nil {
				return err
			}
			f.transition(OpenConfirm)
		}

	case OpenConfirm:
		if ev.Kind == event.KeepaliveMsg {
			f.transition(Established)
		}

	case Established:
		// terminal: UpdateMsg is accepted silently (the peer driver, not
		// the FSM, applies it to the RIB); every other event is ignored too.
	}

	return nil
}

func (f *FSM) transition(next State) {
	log.WithFields(log.Fields{
		"peer": f.peer,
		"from": f.state.String(),
		"to":   next.String(),
	}).Info("state transitioned")

	f.state = next
}
