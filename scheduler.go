//go:build linux && amd64

package uthreads

// Spawn allocates a stack for entry, registers a new Ready task, and
// returns its ID. The task's entry closure does not run until round
// robin selects it; Spawn never itself switches control away from the
// caller.
func (rt *Runtime) Spawn(entry func()) TaskID {
	rt.reapRetiredStacks()

	id := TaskID(rt.nextID)
	rt.nextID++

	t, err := newTask(id, entry, rt.stackSize)
	if err != nil {
		rt.fatalf("Spawn", id, ErrCodeNoSuccessor, "allocate stack: %v", err)
	}
	rt.tasks = append(rt.tasks, t)
	rt.observer.TaskSpawned(id)
	if rt.logger != nil {
		rt.logger.Debugf("task %s spawned", id)
	}
	return id
}

// roundRobin picks the next Ready task strictly after the current one in
// spawn order, wrapping around, never the current task itself. It
// returns nil if no other task is Ready — including when the current
// task is the only one registered at all.
func (rt *Runtime) roundRobin() *Task {
	startIdx := rt.indexOf(rt.current)
	n := len(rt.tasks)
	for step := 1; step < n; step++ {
		idx := (startIdx + step) % n
		if rt.tasks[idx].state == Ready {
			return rt.tasks[idx]
		}
	}
	return nil
}

// roundRobinFrom picks the next Ready task at or after tasks[startIdx] in
// spawn order, wrapping around, inclusive of tasks[startIdx] itself.
// Used by complete, whose current task has already been spliced out of
// rt.tasks by the time it needs to pick a successor, so tasks[startIdx]
// is already a different, legitimate candidate rather than "self".
func (rt *Runtime) roundRobinFrom(startIdx int) *Task {
	n := len(rt.tasks)
	if n == 0 {
		return nil
	}
	for step := 0; step < n; step++ {
		idx := (startIdx + step) % n
		if rt.tasks[idx].state == Ready {
			return rt.tasks[idx]
		}
	}
	return nil
}

func (rt *Runtime) indexOf(id TaskID) int {
	for i, t := range rt.tasks {
		if t.id == id {
			return i
		}
	}
	rt.fatalf("indexOf", id, ErrCodeNoSuccessor, "current task %s is not registered", id)
	return -1
}

// Yield suspends the calling task — demoting it from Running to Ready,
// never overwriting a state a channel operation set immediately before
// calling Yield on its behalf (BlockedOnSend/BlockedOnRecv already holds
// by the time control reaches here in that path) — and switches into the
// next Ready task found by round robin. It reports whether a switch
// actually happened.
func (rt *Runtime) Yield() bool {
	rt.reapRetiredStacks()

	from := rt.mustTask(rt.current, "Yield")
	wasRunning := from.state == Running
	if wasRunning {
		from.state = Ready
	}

	next := rt.roundRobin()
	if next == nil {
		// Nobody else is Ready; undo the demotion (if any) and carry on
		// inline.
		if wasRunning {
			from.state = Running
		}
		return false
	}

	rt.observer.TaskYielded(rt.current)
	if rt.logger != nil {
		rt.logger.Debugf("task %s yielded to %s", from.id, next.id)
	}
	rt.switchTo(from, next)
	return true
}

// complete retires the currently running task: it is removed from the
// scheduler and control switches into the next Ready task. The root task
// never completes (it has no entry closure to run out), so this only
// ever runs for a spawned task, reached through taskCompletionTrampoline.
//
// The retiring task's stack is NOT freed here: complete runs on that very
// stack, and munmap-ing memory out from under the code currently
// executing on it would fault on the next instruction. Its stack is
// instead queued in retiredStacks and reclaimed the next time any task
// runs reapRetiredStacks from a different stack (see Yield and Spawn).
func (rt *Runtime) complete() {
	from := rt.mustTask(rt.current, "complete")
	idx := rt.indexOf(from.id)
	rt.tasks = append(rt.tasks[:idx], rt.tasks[idx+1:]...)

	next := rt.roundRobinFrom(idx)
	if next == nil {
		// The root task is always Ready unless it is itself Running,
		// and the root can never be the task completing here, so this
		// indicates an invariant violation rather than a normal
		// all-done condition.
		rt.fatalf("complete", from.id, ErrCodeNoSuccessor, "no ready task to resume after completion")
	}

	rt.observer.TaskCompleted(from.id)
	if rt.logger != nil {
		rt.logger.Debugf("task %s completed", from.id)
	}
	if from.stack != nil {
		rt.retiredStacks = append(rt.retiredStacks, from.stack)
	}

	// There is no "old" Context to save into: this task will never run
	// again, so its register file is discarded rather than preserved.
	var discarded Context
	rt.switchTo(&Task{id: from.id, ctx: discarded}, next)
}

// reapRetiredStacks releases the stacks of tasks that completed since the
// last reap. Safe to call from any task's stack except one that is
// itself pending reclamation (complete never calls it directly).
func (rt *Runtime) reapRetiredStacks() {
	for _, s := range rt.retiredStacks {
		if err := s.release(); err != nil && rt.logger != nil {
			rt.logger.Warnf("uthreads: release retired stack: %v", err)
		}
	}
	rt.retiredStacks = rt.retiredStacks[:0]
}

// switchTo performs the bookkeeping common to every context switch: mark
// the destination Running, make it current, then hand off to rtSwitch.
func (rt *Runtime) switchTo(from, to *Task) {
	to.state = Running
	rt.current = to.id
	rtSwitch(&from.ctx, &to.ctx)
}
