//go:build linux && amd64

package uthreads

import "sync/atomic"

// Observer allows pluggable collection of scheduler events. All methods
// are called synchronously from inside the single thread the runtime
// occupies, so implementations never need their own locking purely on
// that account; they do need it if also read from another goroutine
// concurrently with Run.
type Observer interface {
	// TaskSpawned is called once a new task's stack and Context are
	// ready, before it has ever run.
	TaskSpawned(id TaskID)
	// TaskYielded is called when a task voluntarily gives up the
	// processor via Yield.
	TaskYielded(id TaskID)
	// TaskBlocked is called when a task parks on a channel operation,
	// with the state it transitioned into (BlockedOnSend or
	// BlockedOnRecv).
	TaskBlocked(id TaskID, state TaskState)
	// TaskCompleted is called when a task's entry function returns and
	// the task has been removed from the scheduler. Its stack is released
	// later, from another task's stack.
	TaskCompleted(id TaskID)
	// ChannelRendezvous is called whenever a value passes directly
	// between a Send and a Receive without going through the buffer,
	// naming both sides. A parked sender whose value is moved into the
	// buffer by a Receive does not produce this event.
	ChannelRendezvous(sender, receiver TaskID)
}

// NoOpObserver discards every event. It is the default Observer when a
// Runtime is built without one.
type NoOpObserver struct{}

func (NoOpObserver) TaskSpawned(TaskID)                  {}
func (NoOpObserver) TaskYielded(TaskID)                  {}
func (NoOpObserver) TaskBlocked(TaskID, TaskState)       {}
func (NoOpObserver) TaskCompleted(TaskID)                {}
func (NoOpObserver) ChannelRendezvous(TaskID, TaskID)    {}

// RuntimeMetrics is an Observer that accumulates atomic counters,
// suitable for periodic inspection from outside the runtime's own
// thread (for example a monitoring goroutine calling Snapshot).
type RuntimeMetrics struct {
	Spawned     atomic.Uint64
	Yields      atomic.Uint64
	Blocked     atomic.Uint64
	Completed   atomic.Uint64
	Rendezvous  atomic.Uint64
}

// NewRuntimeMetrics creates a zeroed RuntimeMetrics.
func NewRuntimeMetrics() *RuntimeMetrics {
	return &RuntimeMetrics{}
}

func (m *RuntimeMetrics) TaskSpawned(TaskID)               { m.Spawned.Add(1) }
func (m *RuntimeMetrics) TaskYielded(TaskID)               { m.Yields.Add(1) }
func (m *RuntimeMetrics) TaskBlocked(TaskID, TaskState)    { m.Blocked.Add(1) }
func (m *RuntimeMetrics) TaskCompleted(TaskID)             { m.Completed.Add(1) }
func (m *RuntimeMetrics) ChannelRendezvous(TaskID, TaskID) { m.Rendezvous.Add(1) }

// MetricsSnapshot is a point-in-time copy of RuntimeMetrics' counters.
type MetricsSnapshot struct {
	Spawned    uint64
	Yields     uint64
	Blocked    uint64
	Completed  uint64
	Rendezvous uint64
}

// Snapshot copies the current counter values.
func (m *RuntimeMetrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Spawned:    m.Spawned.Load(),
		Yields:     m.Yields.Load(),
		Blocked:    m.Blocked.Load(),
		Completed:  m.Completed.Load(),
		Rendezvous: m.Rendezvous.Load(),
	}
}

var (
	_ Observer = NoOpObserver{}
	_ Observer = (*RuntimeMetrics)(nil)
)
