//go:build linux && amd64

package uthreads

import "sync"

// RecordingObserver is an in-memory Observer that appends every event it
// receives to an ordered log, for assertions in tests that care about the
// exact sequence of scheduler activity rather than just final counts.
type RecordingObserver struct {
	mu     sync.Mutex
	events []Event
}

// Event is one entry in a RecordingObserver's log.
type Event struct {
	Kind     EventKind
	Task     TaskID
	State    TaskState // set for Blocked
	Receiver TaskID    // set for Rendezvous; Task holds the sender
}

// EventKind classifies an Event.
type EventKind int

const (
	EventSpawned EventKind = iota
	EventYielded
	EventBlocked
	EventCompleted
	EventRendezvous
)

func (k EventKind) String() string {
	switch k {
	case EventSpawned:
		return "spawned"
	case EventYielded:
		return "yielded"
	case EventBlocked:
		return "blocked"
	case EventCompleted:
		return "completed"
	case EventRendezvous:
		return "rendezvous"
	default:
		return "unknown"
	}
}

// NewRecordingObserver creates an empty RecordingObserver.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

func (r *RecordingObserver) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *RecordingObserver) TaskSpawned(id TaskID) {
	r.record(Event{Kind: EventSpawned, Task: id})
}

func (r *RecordingObserver) TaskYielded(id TaskID) {
	r.record(Event{Kind: EventYielded, Task: id})
}

func (r *RecordingObserver) TaskBlocked(id TaskID, state TaskState) {
	r.record(Event{Kind: EventBlocked, Task: id, State: state})
}

func (r *RecordingObserver) TaskCompleted(id TaskID) {
	r.record(Event{Kind: EventCompleted, Task: id})
}

func (r *RecordingObserver) ChannelRendezvous(sender, receiver TaskID) {
	r.record(Event{Kind: EventRendezvous, Task: sender, Receiver: receiver})
}

// Events returns a copy of the events recorded so far, in order.
func (r *RecordingObserver) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// CountOf returns how many times an event of the given kind was recorded.
func (r *RecordingObserver) CountOf(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

var _ Observer = (*RecordingObserver)(nil)
