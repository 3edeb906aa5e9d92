//go:build linux && amd64

package uthreads

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelCheckInvariantsOnIdleChannel(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[int](2)
	require.NoError(t, ch.checkInvariants(rt))
}

func TestChannelCheckInvariantsDetectsCapacityViolation(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[int](1)
	ch.buffer.count = 5 // corrupt: count exceeds the buffer's real capacity

	err := ch.checkInvariants(rt)
	require.Error(t, err)
}

func TestChannelSenderParksThenWakesOnReceive(t *testing.T) {
	rt := New(nil)
	rec := NewRecordingObserver()
	rt.observer = rec
	ch := NewChannel[int](0)

	senderDone := false
	senderID := rt.Spawn(func() {
		ch.Send(7)
		senderDone = true
	})

	// Run the sender alone first: with no receiver it must park rather
	// than complete.
	rt.Yield()
	require.False(t, senderDone)
	senderTask, ok := rt.task(senderID)
	require.True(t, ok)
	require.Equal(t, BlockedOnSend, senderTask.state)
	require.NoError(t, ch.checkInvariants(rt), "invariants must hold with a genuinely parked sender")

	var got int
	rt.Spawn(func() { got = ch.Receive() })
	rt.Run()

	require.True(t, senderDone)
	require.Equal(t, 7, got)
	require.Equal(t, 1, rec.CountOf(EventRendezvous))
}

func TestChannelCheckInvariantsWithPopulatedSendq(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[int](1)

	senderID := rt.Spawn(func() {
		ch.Send(1) // fills the one buffer slot, does not park
		ch.Send(2) // buffer is full and nobody is receiving: parks
	})

	rt.Yield()
	senderTask, ok := rt.task(senderID)
	require.True(t, ok)
	require.Equal(t, BlockedOnSend, senderTask.state)
	require.Equal(t, 1, ch.sendq.len())
	require.True(t, ch.buffer.full())
	require.NoError(t, ch.checkInvariants(rt), "sendq nonempty must imply a full buffer")

	var first, second int
	rt.Spawn(func() {
		first = ch.Receive()
		second = ch.Receive()
	})
	rt.Run()

	require.Equal(t, 1, first)
	require.Equal(t, 2, second)
}

func TestChannelCheckInvariantsWithPopulatedRecvq(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[int](1)

	receiverID := rt.Spawn(func() {
		ch.Receive() // buffer is empty and nobody is sending: parks
	})

	rt.Yield()
	receiverTask, ok := rt.task(receiverID)
	require.True(t, ok)
	require.Equal(t, BlockedOnRecv, receiverTask.state)
	require.Equal(t, 1, ch.recvq.len())
	require.True(t, ch.buffer.empty())
	require.NoError(t, ch.checkInvariants(rt), "recvq nonempty must imply an empty buffer")

	rt.Spawn(func() { ch.Send(5) })
	rt.Run()
}

func TestChannelReceiverParksThenWakesOnSend(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[int](0)

	var got int
	receiverDone := false
	receiverID := rt.Spawn(func() {
		got = ch.Receive()
		receiverDone = true
	})

	rt.Yield()
	require.False(t, receiverDone)
	receiverTask, ok := rt.task(receiverID)
	require.True(t, ok)
	require.Equal(t, BlockedOnRecv, receiverTask.state)
	require.NoError(t, ch.checkInvariants(rt), "invariants must hold with a genuinely parked receiver")

	rt.Spawn(func() { ch.Send(99) })
	rt.Run()

	require.True(t, receiverDone)
	require.Equal(t, 99, got)
}
