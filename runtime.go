//go:build linux && amd64

package uthreads

import (
	"fmt"

	"github.com/chioni16/uthreads/internal/logging"
)

// Config configures a Runtime. A nil Config is equivalent to DefaultConfig().
type Config struct {
	// StackSize is the size in bytes allocated for every spawned task's
	// stack (default: DefaultStackSize).
	StackSize int

	// QueueCapacity bounds how many tasks may simultaneously park on any
	// one Channel's sendq or recvq (default: DefaultWaitQueueDepth).
	// NewChannel uses the Runtime it is created against to size its own
	// wait queues from this value; NewChannel's own capacity argument
	// only ever sizes the value buffer.
	QueueCapacity int

	// Logger receives diagnostic and fatal-error messages. If nil, the
	// runtime logs nothing.
	Logger *logging.Logger

	// Observer receives scheduler lifecycle events. If nil, the runtime
	// uses NoOpObserver.
	Observer Observer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StackSize:     DefaultStackSize,
		QueueCapacity: DefaultWaitQueueDepth,
		Observer:      NoOpObserver{},
	}
}

// Runtime is a single-threaded, cooperative round-robin scheduler over a
// set of Tasks. It is not safe to use from more than one goroutine at a
// time: Run must be called from, and Spawn/Yield/channel operations must
// be called from, the same goroutine for the lifetime of the Runtime.
type Runtime struct {
	tasks    []*Task // indexed in spawn order; tasks[0] is always the root
	current  TaskID
	nextID   uint64
	logger   *logging.Logger
	observer Observer

	stackSize     int
	queueCapacity int
	retiredStacks []*taskStack
}

// New constructs a Runtime hosting a root task and publishes it as the
// target of the package-level Spawn and Yield helpers and of the
// assembly entry/completion trampolines, which have no way to reach a
// specific Runtime value other than through that single package-level
// pointer. Because of that, only one Runtime can usefully be running at
// a time within a process; constructing a second one (as tests that want
// a clean Runtime per test case do) simply re-points the package-level
// handle at it. Init is an alias kept for call sites that want to name
// the "start the one Runtime this program uses" step explicitly.
func New(config *Config) *Runtime {
	if config == nil {
		config = DefaultConfig()
	}
	stackSize := config.StackSize
	if stackSize == 0 {
		stackSize = DefaultStackSize
	}
	queueCapacity := config.QueueCapacity
	if queueCapacity == 0 {
		queueCapacity = DefaultWaitQueueDepth
	}
	observer := config.Observer
	if observer == nil {
		observer = NoOpObserver{}
	}

	root := newRootTask()
	rt := &Runtime{
		tasks:         []*Task{root},
		current:       RootTaskID,
		nextID:        1,
		logger:        config.Logger,
		observer:      observer,
		stackSize:     stackSize,
		queueCapacity: queueCapacity,
	}
	globalRuntime = rt
	return rt
}

// globalRuntime is the Runtime published by Init, read by the
// package-level Spawn/Yield helpers and by the assembly glue's entry
// points (runCurrentEntry, runCurrentCompletion), which have no other way
// to reach "the current Runtime" from inside a task's own call stack.
var globalRuntime *Runtime

// Init is New under the name most programs reach for at startup.
func Init(config *Config) *Runtime {
	return New(config)
}

func mustCurrentRuntime(op string) *Runtime {
	if globalRuntime == nil {
		panic(fmt.Errorf("%w (op=%s)", ErrNotPublished, op))
	}
	return globalRuntime
}

// task looks up a task by ID.
func (rt *Runtime) task(id TaskID) (*Task, bool) {
	for _, t := range rt.tasks {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

func (rt *Runtime) mustTask(id TaskID, op string) *Task {
	t, ok := rt.task(id)
	if !ok {
		rt.fatalf(op, id, ErrCodeNoSuccessor, "task %s is not registered with this runtime", id)
	}
	return t
}

func (rt *Runtime) setState(id TaskID, state TaskState) {
	rt.mustTask(id, "setState").state = state
}

// CurrentTask returns the ID of the task presently running. Outside of
// Run (before it starts or after it returns) that is RootTaskID. It
// returns ErrNoCurrentTask only when called on a nil Runtime.
func (rt *Runtime) CurrentTask() (TaskID, error) {
	if rt == nil {
		return 0, ErrNoCurrentTask
	}
	return rt.current, nil
}

// Spawn creates a new task on the package-level published Runtime (see
// Init) and returns its ID. The task does not run until the scheduler
// selects it.
func Spawn(entry func()) TaskID {
	rt := mustCurrentRuntime("Spawn")
	return rt.Spawn(entry)
}

// Yield gives up the processor on the package-level published Runtime,
// letting the scheduler run another Ready task, then resumes once
// round-robin selects this task again. It reports whether any other task
// actually ran in between.
func Yield() bool {
	rt := mustCurrentRuntime("Yield")
	return rt.Yield()
}

// Run drives the scheduler from the root task until no task other than
// the root remains Ready. It must be called from the root task (the
// goroutine that called Init/New). It returns once every spawned task has
// completed, or earlier if the only remaining tasks are blocked on
// channels (a deadlock); those tasks are left blocked.
func (rt *Runtime) Run() {
	defer rt.reapRetiredStacks()
	for rt.hasOutstandingWork() {
		if !rt.Yield() {
			// No other task was Ready; outstanding tasks are all
			// blocked on channels nobody will ever unblock, which is
			// a deadlock the scheduler cannot resolve on its own.
			return
		}
	}
}

// hasOutstandingWork reports whether any non-root task still exists.
// complete removes a task from rt.tasks once it has run to completion, so
// this is simply "more than the root task remains".
func (rt *Runtime) hasOutstandingWork() bool {
	return len(rt.tasks) > 1
}
