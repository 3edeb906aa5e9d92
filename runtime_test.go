//go:build linux && amd64

package uthreads

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpawnRunsEntryToCompletion(t *testing.T) {
	rt := New(nil)
	ran := false
	rt.Spawn(func() { ran = true })
	rt.Run()
	require.True(t, ran, "spawned task's entry closure should have run")
}

func TestRoundRobinOrdering(t *testing.T) {
	rt := New(nil)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		rt.Spawn(func() {
			order = append(order, i)
			Yield()
			order = append(order, i+10)
		})
	}
	rt.Run()

	require.Equal(t, []int{0, 1, 2, 10, 11, 12}, order)
}

func TestMultipleTasksAllComplete(t *testing.T) {
	rt := New(nil)

	const n = 8
	completed := make([]bool, n)
	for i := 0; i < n; i++ {
		i := i
		rt.Spawn(func() {
			for j := 0; j < 3; j++ {
				Yield()
			}
			completed[i] = true
		})
	}
	rt.Run()

	for i, done := range completed {
		require.Truef(t, done, "task %d did not complete", i)
	}
}

func TestChannelRendezvousDirectHandoff(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[int](0)

	var got int
	rt.Spawn(func() { ch.Send(42) })
	rt.Spawn(func() { got = ch.Receive() })
	rt.Run()

	require.Equal(t, 42, got)
}

func TestChannelBuffering(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[string](2)

	var received []string
	rt.Spawn(func() {
		ch.Send("a")
		ch.Send("b")
		ch.Send("c")
	})
	rt.Spawn(func() {
		for i := 0; i < 3; i++ {
			received = append(received, ch.Receive())
		}
	})
	rt.Run()

	require.Equal(t, []string{"a", "b", "c"}, received)
}

func TestChannelManyProducersOneConsumer(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[int](1)

	const producers = 5
	total := 0
	rt.Spawn(func() {
		for i := 0; i < producers; i++ {
			total += ch.Receive()
		}
	})
	for p := 0; p < producers; p++ {
		p := p
		rt.Spawn(func() { ch.Send(p) })
	}
	rt.Run()

	require.Equal(t, 0+1+2+3+4, total)
}

func TestObserverSeesLifecycleEvents(t *testing.T) {
	rec := NewRecordingObserver()
	rt := New(&Config{Observer: rec})

	rt.Spawn(func() { Yield() })
	rt.Run()

	require.Equal(t, 1, rec.CountOf(EventSpawned))
	require.Equal(t, 1, rec.CountOf(EventCompleted))
	require.GreaterOrEqual(t, rec.CountOf(EventYielded), 1)
}

func TestRunReturnsOnDeadlock(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[int](0)

	rt.Spawn(func() {
		ch.Receive() // nobody ever sends
	})

	// Run must not hang forever: once the only non-root task is
	// permanently blocked, Yield reports no other Ready task and Run
	// returns instead of spinning.
	rt.Run()
}
