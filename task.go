//go:build linux && amd64

package uthreads

// Task is the control block for one scheduled task: its saved register
// context, its independently allocated stack, its lifecycle state and
// whatever value a channel has handed directly to it.
type Task struct {
	id    TaskID
	ctx   Context
	stack *taskStack
	state TaskState
	entry func()

	// delivered and hasDelivered implement the direct-handoff slot a
	// sender writes into when it finds this task already parked in a
	// channel's recvq: see Channel.Send / Channel.Receive.
	delivered    any
	hasDelivered bool
}

// newTask allocates a stack for entry and lays out its bootstrap frame so
// that switching into it for the first time runs entry to completion and
// then retires the task. The root task (id == RootTaskID) is constructed
// separately by newRootTask and never runs an entry closure of its own.
func newTask(id TaskID, entry func(), stackSize int) (*Task, error) {
	stack, err := newTaskStack(stackSize)
	if err != nil {
		return nil, err
	}
	t := &Task{id: id, stack: stack, state: Ready, entry: entry}
	prepareStack(stack, &t.ctx)
	return t, nil
}

// newRootTask constructs the bootstrap task that hosts Run. Its Context
// is left zero-valued: rtSwitch never needs to manufacture an initial
// jump into it, because the first switch away from it simply resumes at
// whatever point inside Run it called rtSwitch from.
func newRootTask() *Task {
	return &Task{id: RootTaskID, state: Running}
}

// runCurrentEntry is called by taskEntryGlue (see switch_amd64.s)
// immediately after a freshly spawned task's stack is switched onto. It
// runs on the new task's stack but as an ordinary Go call frame, so it is
// free to invoke the task's stored closure like any other Go code; only
// getting here in the first place required the assembly trampoline.
//
//go:nosplit
func runCurrentEntry() {
	rt := mustCurrentRuntime("taskEntryGlue")
	task := rt.mustTask(rt.current, "taskEntryGlue")
	task.entry()
}

// runCurrentCompletion is called by taskCompletionTrampoline after a
// task's entry function returns normally. It retires the task and
// switches into its successor; it does not return.
func runCurrentCompletion() {
	rt := mustCurrentRuntime("taskCompletionTrampoline")
	rt.complete()
}
