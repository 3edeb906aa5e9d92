//go:build linux && amd64

package uthreads

import "reflect"

// Context is the callee-saved register file preserved across a context
// switch on linux/amd64. Field order and size must match switch_amd64.s
// byte-for-byte: rtSwitch addresses each field by its fixed offset, not by
// name.
type Context struct {
	sp  uintptr // stack pointer
	r15 uintptr
	r14 uintptr
	r13 uintptr
	r12 uintptr
	bx  uintptr
	bp  uintptr
}

// rtSwitch saves the callee-saved registers and stack pointer of the
// currently running task into old, then restores the same fields from new
// and returns onto new's stack. Because old and new alias whichever Task
// the scheduler is suspending and resuming, the return instruction at the
// end of rtSwitch transfers control to whatever instruction address sits
// at the top of new's stack: either a previously suspended call site
// inside Yield (via switchTo), or — for a freshly spawned task — the bootstrap
// slots written by prepareStack.
//
// rtSwitch is a leaf: it must never spill to the stack or be inlined,
// since the stack it is "using" changes out from under it mid-function.
//
//go:noescape
func rtSwitch(old, new *Context)

// taskEntryGlue, stackAlignPad and taskCompletionTrampoline have no Go
// bodies; they are defined in switch_amd64.s. Declaring them here lets Go
// code take their addresses (via funcAddr) to write onto a freshly spawned
// task's stack.
func taskEntryGlue()
func stackAlignPad()
func taskCompletionTrampoline()

// funcAddr returns the entry program counter of a niladic, résult-less Go
// function, suitable for writing into a manufactured stack frame that will
// be "returned into" by rtSwitch. This only works for functions with no
// arguments and no results, where Go's ABI0 and ABIInternal calling
// conventions coincide (no register/stack marshalling is required either
// way), which holds for every function this is called with in this
// package.
func funcAddr(fn func()) uintptr {
	return reflect.ValueOf(fn).Pointer()
}
