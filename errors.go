//go:build linux && amd64

package uthreads

import (
	"errors"
	"fmt"
)

// Namespace prefixes the runtime's sentinel errors, following the
// convention used by other task-scheduling libraries in this ecosystem.
const Namespace = "uthreads"

// Sentinel errors for conditions that need no structured context beyond
// their message.
var (
	ErrNoCurrentTask = errors.New(Namespace + ": no task is currently running")
	ErrNotPublished  = errors.New(Namespace + ": no runtime has been published via Init")
)

// RuntimeErrorCode classifies a fatal Error.
type RuntimeErrorCode string

const (
	// ErrCodeQueueOverflow means a channel's sendq or recvq was full when
	// a task tried to park on it. The queue capacity is fixed when the
	// channel is created (Config.QueueCapacity, DefaultWaitQueueDepth by
	// default); exceeding it indicates too many tasks contending on one
	// channel.
	ErrCodeQueueOverflow RuntimeErrorCode = "blocked-queue overflow"
	// ErrCodeNoSuccessor means complete found no ready task to switch
	// into after removing the current one. The root task should always be
	// Ready when a non-root task completes, so this indicates an
	// invariant violation elsewhere in the runtime. The same code is used
	// when a task ID the runtime looks up is not registered, and when
	// Spawn cannot allocate a stack.
	ErrCodeNoSuccessor RuntimeErrorCode = "no successor task available"
	// ErrCodeSlotOccupied means a sender attempted to hand a value
	// directly to a receiver whose delivered slot was already occupied.
	// The same code is used when a receiver resumes from a recvq with no
	// delivered value.
	ErrCodeSlotOccupied RuntimeErrorCode = "delivered slot already occupied"
)

// Error is a structured runtime error with enough context to diagnose a
// scheduler invariant violation: which operation, which task, which code.
type Error struct {
	Op    string
	Task  TaskID
	Code  RuntimeErrorCode
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (op=%s task=%s)", Namespace, msg, e.Op, e.Task)
	}
	return fmt.Sprintf("%s: %s", Namespace, msg)
}

// Unwrap supports errors.Is/errors.As against Inner.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison by error code.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// newError constructs a structured Error for a fatal scheduler condition.
func newError(op string, task TaskID, code RuntimeErrorCode, msg string) *Error {
	return &Error{Op: op, Task: task, Code: code, Msg: msg}
}

// fatalf raises a structured invariant-violation error: it logs (if a
// logger is configured) and panics. Unlike a hard process abort, this is
// recoverable in tests, which lets the property suite assert on exactly
// which invariant broke.
func (rt *Runtime) fatalf(op string, task TaskID, code RuntimeErrorCode, format string, args ...any) {
	err := newError(op, task, code, fmt.Sprintf(format, args...))
	if rt.logger != nil {
		rt.logger.Errorf("%s", err.Error())
	}
	panic(err)
}
