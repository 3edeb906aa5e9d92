//go:build linux && amd64

package uthreads

// DefaultWaitQueueDepth bounds how many tasks may simultaneously park on
// one channel's sendq or recvq. It is generous for the fan-in patterns
// this runtime targets; exceeding it is treated as a programming error
// (ErrCodeQueueOverflow) rather than grown dynamically, so that a runaway
// number of blocked tasks fails fast instead of growing memory without
// bound.
const DefaultWaitQueueDepth = 256

// pendingSend is a sender parked in a channel's sendq: the value it
// wants to hand off and the task that will resume once it is taken.
type pendingSend[V any] struct {
	task TaskID
	val  V
}

// Channel is a bounded rendezvous primitive. A Send either hands its
// value directly to a task already parked in Receive, places it in the
// buffer if there is room, or parks the sender until a receiver arrives.
// A Receive mirrors this from the other side. Channel is not safe for
// use by more than one OS thread; it is safe across any number of tasks
// scheduled by the same Runtime, since only one task ever runs at a time.
type Channel[V any] struct {
	buffer circularBuffer[V]
	sendq  circularBuffer[pendingSend[V]]
	recvq  circularBuffer[TaskID]
}

// NewChannel creates a channel with the given buffer capacity. A capacity
// of 0 is a fully synchronous channel: Send only ever succeeds by direct
// handoff to a waiting receiver or by parking. Its sendq/recvq depth comes
// from the published Runtime's Config.QueueCapacity (DefaultWaitQueueDepth
// if no Runtime has been published yet), the same "ask the active Runtime
// for a configured default" pattern Spawn uses for stack size.
func NewChannel[V any](capacity int) *Channel[V] {
	depth := DefaultWaitQueueDepth
	if globalRuntime != nil {
		depth = globalRuntime.queueCapacity
	}
	return &Channel[V]{
		buffer: newCircularBuffer[V](capacity),
		sendq:  newCircularBuffer[pendingSend[V]](depth),
		recvq:  newCircularBuffer[TaskID](depth),
	}
}

// Send delivers v to the channel: directly to a parked receiver, into
// the buffer if there is room, or by parking the sender until one of
// those becomes possible. A Send with no receiver and no buffer room
// blocks forever if no other task ever calls Receive.
func (c *Channel[V]) Send(v V) {
	rt := mustCurrentRuntime("Channel.Send")
	senderID := rt.current

	if receiverID, ok := c.recvq.read(); ok {
		receiver := rt.mustTask(receiverID, "Channel.Send")
		if receiver.hasDelivered {
			rt.fatalf("Channel.Send", senderID, ErrCodeSlotOccupied,
				"receiver %s already has an undelivered value", receiverID)
		}
		receiver.delivered = v
		receiver.hasDelivered = true
		rt.setState(receiverID, Ready)
		if rt.observer != nil {
			rt.observer.ChannelRendezvous(senderID, receiverID)
		}
		return
	}

	if c.buffer.write(v) {
		return
	}

	if !c.sendq.write(pendingSend[V]{task: senderID, val: v}) {
		rt.fatalf("Channel.Send", senderID, ErrCodeQueueOverflow, "sendq is full")
	}
	rt.setState(senderID, BlockedOnSend)
	if rt.observer != nil {
		rt.observer.TaskBlocked(senderID, BlockedOnSend)
	}
	if rt.logger != nil {
		rt.logger.Debugf("task %s parked sending", senderID)
	}
	rt.Yield()
}

// Receive blocks the current task until a value is available, then
// returns it.
func (c *Channel[V]) Receive() V {
	rt := mustCurrentRuntime("Channel.Receive")
	receiverID := rt.current

	if v, ok := c.buffer.read(); ok {
		c.wakeOneSenderIntoBuffer(rt)
		return v
	}

	if ps, ok := c.sendq.read(); ok {
		rt.setState(ps.task, Ready)
		if rt.observer != nil {
			rt.observer.ChannelRendezvous(ps.task, receiverID)
		}
		return ps.val
	}

	task := rt.mustTask(receiverID, "Channel.Receive")
	task.hasDelivered = false
	if !c.recvq.write(receiverID) {
		rt.fatalf("Channel.Receive", receiverID, ErrCodeQueueOverflow, "recvq is full")
	}
	rt.setState(receiverID, BlockedOnRecv)
	if rt.observer != nil {
		rt.observer.TaskBlocked(receiverID, BlockedOnRecv)
	}
	if rt.logger != nil {
		rt.logger.Debugf("task %s parked receiving", receiverID)
	}
	rt.Yield()

	task = rt.mustTask(receiverID, "Channel.Receive")
	if !task.hasDelivered {
		rt.fatalf("Channel.Receive", receiverID, ErrCodeSlotOccupied,
			"task resumed from recvq with no delivered value")
	}
	v, _ := task.delivered.(V)
	task.delivered = nil
	task.hasDelivered = false
	return v
}

// wakeOneSenderIntoBuffer moves one sendq-parked value into the buffer
// slot Receive just freed, if anyone is waiting. It keeps the buffer full
// whenever there is backlog, so a steady stream of receivers drains
// sendq before the buffer ever runs dry.
func (c *Channel[V]) wakeOneSenderIntoBuffer(rt *Runtime) {
	ps, ok := c.sendq.read()
	if !ok {
		return
	}
	if !c.buffer.write(ps.val) {
		rt.fatalf("Channel.Receive", ps.task, ErrCodeQueueOverflow, "buffer rejected a value freed for it")
	}
	rt.setState(ps.task, Ready)
}

// checkInvariants re-derives the structural invariants a Channel must
// hold between operations (spec invariants 1-4): sendq nonempty implies
// the buffer is full, recvq nonempty implies the buffer is empty, sendq
// and recvq are never both nonempty at once, a task ID appears in at
// most one of sendq's senders or recvq, and every sendq or recvq task is
// actually Blocked in the runtime's own bookkeeping. It exists for
// tests, not the hot path.
func (c *Channel[V]) checkInvariants(rt *Runtime) error {
	if c.buffer.len() > c.buffer.cap() {
		return newError("checkInvariants", RootTaskID, ErrCodeQueueOverflow, "buffer exceeds capacity")
	}
	if c.sendq.len() > 0 && !c.buffer.full() {
		return newError("checkInvariants", RootTaskID, ErrCodeSlotOccupied, "sendq nonempty but buffer is not full")
	}
	if c.recvq.len() > 0 && !c.buffer.empty() {
		return newError("checkInvariants", RootTaskID, ErrCodeSlotOccupied, "recvq nonempty but buffer is not empty")
	}
	if c.sendq.len() > 0 && c.recvq.len() > 0 {
		return newError("checkInvariants", RootTaskID, ErrCodeSlotOccupied, "sendq and recvq both nonempty")
	}
	seen := make(map[TaskID]struct{}, c.recvq.len()+c.sendq.len())
	for i := 0; i < c.recvq.len(); i++ {
		id := c.recvq.data[(c.recvq.head+i)%c.recvq.cap()]
		if _, dup := seen[id]; dup {
			return newError("checkInvariants", id, ErrCodeSlotOccupied, "task queued twice")
		}
		seen[id] = struct{}{}
		if t, ok := rt.task(id); !ok || t.state != BlockedOnRecv {
			return newError("checkInvariants", id, ErrCodeSlotOccupied, "recvq task not BlockedOnRecv")
		}
	}
	for i := 0; i < c.sendq.len(); i++ {
		ps := c.sendq.data[(c.sendq.head+i)%c.sendq.cap()]
		if _, dup := seen[ps.task]; dup {
			return newError("checkInvariants", ps.task, ErrCodeSlotOccupied, "task queued twice")
		}
		seen[ps.task] = struct{}{}
		if t, ok := rt.task(ps.task); !ok || t.state != BlockedOnSend {
			return newError("checkInvariants", ps.task, ErrCodeSlotOccupied, "sendq task not BlockedOnSend")
		}
	}
	return nil
}
