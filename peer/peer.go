// Package peer implements the driver that owns one BGP session: its TCP
// connection, its event queue and its FSM. The supervisor in package
// server creates one Driver per configured neighbor and polls it.
package peer

import (
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"

	"bgpd/config"
	"bgpd/event"
	"bgpd/framer"
	"bgpd/fsm"
	"bgpd/packet"
	"bgpd/rib"
)

// BGPPort is the well-known TCP port BGP speakers connect or listen on.
const BGPPort = 179

// Driver owns the state, queue and optional framed connection for one
// peer session, and implements fsm.Dependencies so the FSM can drive it.
type Driver struct {
	cfg config.Config

	fsm    *fsm.FSM
	queue  *event.Queue
	framer *framer.Framer
	rib    *rib.RIB

	dial   func(network, address string) (net.Conn, error)
	listen func(network, address string) (net.Listener, error)
}

// New builds a Driver for cfg, dialing or listening with the standard
// library's net package.
func New(cfg config.Config) *Driver {
	return &Driver{
		cfg:    cfg,
		fsm:    fsm.New(cfg.RemoteIP.String()),
		queue:  event.NewQueue(),
		rib:    rib.New(),
		dial:   net.Dial,
		listen: net.Listen,
	}
}

// State reports the current session state.
func (d *Driver) State() fsm.State {
	return d.fsm.State()
}

// RIB exposes the peer's Adjacency-RIB-In, built from received UPDATE
// messages.
func (d *Driver) RIB() *rib.RIB {
	return d.rib
}

// Start enqueues the ManualStart event that kicks off the session.
func (d *Driver) Start() {
	d.queue.Enqueue(event.NewManualStart())
}

// Step advances the driver by at most one queued event and at most one
// inbound wire message. If the queue holds an event it is applied to the
// FSM first; the connection is then polled for a message, which is
// turned into an event and enqueued for the next step. Calling Step on
// an empty queue with no pending bytes is a no-op.
func (d *Driver) Step() error {
	if ev, ok := d.queue.Dequeue(); ok {
		if err := d.fsm.Apply(ev, d); err != nil {
			return err
		}
		if ev.Kind == event.UpdateMsg {
			d.rib.AddPaths(ev.Update)
		}
	}

	if d.framer == nil {
		return nil
	}

	msg, err := d.framer.TryReadMessage()
	if err != nil {
		if _, ok := err.(*packet.DecodeError); ok {
			log.WithField("peer", d.cfg.RemoteIP).WithError(err).Warn("dropping malformed message")
			return nil
		}
		return err
	}
	if msg == nil {
		return nil
	}

	log.WithFields(log.Fields{"peer": d.cfg.RemoteIP, "message": msg}).Info("message received")

	d.queue.Enqueue(messageToEvent(msg))
	return nil
}

func messageToEvent(msg packet.Message) event.Event {
	switch m := msg.(type) {
	case packet.OpenMessage:
		return event.NewBgpOpen(m)
	case packet.KeepaliveMessage:
		return event.NewKeepaliveMsg()
	case packet.UpdateMessage:
		return event.NewUpdateMsg(m)
	default:
		return event.NewKeepaliveMsg()
	}
}

// Connect implements fsm.Dependencies. It dials the remote peer in
// Active mode or accepts exactly one connection in Passive mode.
func (d *Driver) Connect() error {
	var conn net.Conn
	var err error

	switch d.cfg.Mode {
	case config.Active:
		conn, err = d.connectToRemotePeer()
	case config.Passive:
		conn, err = d.waitForRemotePeer()
	}
	if err != nil {
		return err
	}

	d.framer = framer.New(conn)
	return nil
}

func (d *Driver) connectToRemotePeer() (net.Conn, error) {
	addr := net.JoinHostPort(d.cfg.RemoteIP.String(), fmt.Sprint(BGPPort))
	log.WithFields(log.Fields{"remote_ip": d.cfg.RemoteIP, "bgp_port": BGPPort}).Info("connecting to remote peer")

	conn, err := d.dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to remote peer %s: %w", d.cfg.RemoteIP, err)
	}
	return conn, nil
}

func (d *Driver) waitForRemotePeer() (net.Conn, error) {
	addr := net.JoinHostPort(d.cfg.LocalIP.String(), fmt.Sprint(BGPPort))
	log.WithFields(log.Fields{"local_ip": d.cfg.LocalIP, "bgp_port": BGPPort}).Info("waiting for connection from remote peer")

	ln, err := d.listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("cannot listen for remote peer %s: %w", d.cfg.LocalIP, err)
	}
	defer ln.Close()

	return ln.Accept()
}

// SendOpen implements fsm.Dependencies.
func (d *Driver) SendOpen() error {
	id := ipToArray4(d.cfg.LocalIP)
	return d.framer.WriteMessage(packet.NewOpenMessage(d.cfg.LocalAS, 0, id))
}

// SendKeepalive implements fsm.Dependencies.
func (d *Driver) SendKeepalive() error {
	return d.framer.WriteMessage(packet.NewKeepaliveMessage())
}

// Enqueue implements fsm.Dependencies.
func (d *Driver) Enqueue(ev event.Event) {
	d.queue.Enqueue(ev)
}

func ipToArray4(ip net.IP) [4]byte {
	var out [4]byte
	copy(out[:], ip.To4())
	return out
}
