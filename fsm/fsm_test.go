package fsm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgpd/event"
)

// fakeDeps records invocations and lets a test force Connect to fail.
type fakeDeps struct {
	connectErr error

	connectCalls   int
	openCalls      int
	keepaliveCalls int
	enqueued       []event.Event
}

func (d *fakeDeps) Connect() error {
	d.connectCalls++
	return d.connectErr
}

func (d *fakeDeps) SendOpen() error {
	d.openCalls++
	return nil
}

func (d *fakeDeps) SendKeepalive() error {
	d.keepaliveCalls++
	return nil
}

func (d *fakeDeps) Enqueue(ev event.Event) {
	d.enqueued = append(d.enqueued, ev)
}

func TestIdleManualStartTransitionsToConnect(t *testing.T) {
	f := New("")
	deps := &fakeDeps{}

	err := f.Apply(event.NewManualStart(), deps)
	require.NoError(t, err)

	assert.Equal(t, Connect, f.State())
	assert.Equal(t, 1, deps.connectCalls)
	require.Len(t, deps.enqueued, 1)
	assert.Equal(t, event.TcpConnectionConfirmed, deps.enqueued[0].Kind)
}

func TestIdleManualStartConnectFailureStaysIdle(t *testing.T) {
	f := New("")
	deps := &fakeDeps{connectErr: errors.New("connection refused")}

	err := f.Apply(event.NewManualStart(), deps)
	assert.Error(t, err)
	assert.Equal(t, Idle, f.State())
}

func TestFullHandshakeReachesEstablished(t *testing.T) {
	f := New("")
	deps := &fakeDeps{}

	require.NoError(t, f.Apply(event.NewManualStart(), deps))
	assert.Equal(t, Connect, f.State())

	require.NoError(t, f.Apply(event.NewTcpConnectionConfirmed(), deps))
	assert.Equal(t, OpenSent, f.State())
	assert.Equal(t, 1, deps.openCalls)

	require.NoError(t, f.Apply(event.NewBgpOpen(event.Event{}.Open), deps))
	assert.Equal(t, OpenConfirm, f.State())
	assert.Equal(t, 1, deps.keepaliveCalls)

	require.NoError(t, f.Apply(event.NewKeepaliveMsg(), deps))
	assert.Equal(t, Established, f.State())
}

func TestUnspecifiedPairIsSilentlyIgnored(t *testing.T) {
	f := New("")
	deps := &fakeDeps{}

	err := f.Apply(event.NewKeepaliveMsg(), deps)
	require.NoError(t, err)

	assert.Equal(t, Idle, f.State())
	assert.Zero(t, deps.connectCalls)
	assert.Zero(t, deps.openCalls)
	assert.Zero(t, deps.keepaliveCalls)
}

func TestEstablishedIsTerminal(t *testing.T) {
	f := &FSM{state: Established}
	deps := &fakeDeps{}

	for _, ev := range []event.Event{
		event.NewManualStart(),
		event.NewTcpConnectionConfirmed(),
		event.NewKeepaliveMsg(),
		event.NewUpdateMsg(event.Event{}.Update),
	} {
		require.NoError(t, f.Apply(ev, deps))
		assert.Equal(t, Established, f.State())
	}

	assert.Zero(t, deps.connectCalls)
	assert.Zero(t, deps.openCalls)
	assert.Zero(t, deps.keepaliveCalls)
}
