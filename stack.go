//go:build linux && amd64

package uthreads

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultStackSize is used when a task is spawned without an explicit
// stack size override.
const DefaultStackSize = 64 * 1024

// stackAlignment is the x86-64 System V ABI's required alignment of RSP
// immediately before a CALL instruction.
const stackAlignment = 16

// taskStack is an independently mapped region of memory backing one
// task's execution stack. It is allocated with golang.org/x/sys/unix.Mmap
// rather than a Go slice so its address is stable for the lifetime of the
// task: a Go-managed slice can be moved by the garbage collector's stack
// or heap machinery in ways a raw OS mapping cannot, and the runtime hands
// its base address to assembly that outlives any single Go stack frame.
// A PROT_NONE guard page just below the usable region (the stack grows
// down toward it) turns a stack overflow into a SIGSEGV instead of silent
// corruption of an adjacent mapping.
type taskStack struct {
	mem   []byte // usable region, mmap'd RW
	guard []byte // PROT_NONE page immediately below mem
}

func newTaskStack(size int) (*taskStack, error) {
	pageSize := unix.Getpagesize()
	usable := roundUp(size, pageSize)

	total := usable + pageSize
	mem, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("uthreads: mmap stack: %w", err)
	}

	guard := mem[:pageSize]
	if err := unix.Mprotect(guard, unix.PROT_NONE); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("uthreads: mprotect guard page: %w", err)
	}

	return &taskStack{mem: mem[pageSize:], guard: guard}, nil
}

func (s *taskStack) release() error {
	full := s.guard[:len(s.guard)+len(s.mem)]
	return unix.Munmap(full)
}

func roundUp(n, multiple int) int {
	if multiple == 0 {
		return n
	}
	rem := n % multiple
	if rem == 0 {
		return n
	}
	return n + multiple - rem
}

// prepareStack writes the three-slot bootstrap frame a freshly spawned
// task's Context needs in order for rtSwitch to land it in taskEntryGlue
// the first time it is switched into. The slots are written at
// descending addresses from the top of the stack:
//
//	topAddr-8   taskCompletionTrampoline  (read by taskEntryGlue after the
//	                                       entry closure returns)
//	topAddr-16  stackAlignPad             (unused filler, named for
//	                                       readability in a stack dump)
//	topAddr-24  taskEntryGlue             (popped by rtSwitch's RET;
//	                                       ctx.sp points here)
//
// topAddr is the end of s.mem (one past its highest usable byte), rounded
// down to a 16-byte boundary so that the SP taskEntryGlue observes right before its
// CALL into runCurrentEntry already satisfies the ABI's pre-call
// alignment requirement.
func prepareStack(s *taskStack, ctx *Context) {
	base := uintptr(unsafe.Pointer(&s.mem[0]))
	top := (base + uintptr(len(s.mem))) &^ uintptr(stackAlignment-1)

	slotTrampoline := top - 8
	slotPad := top - 16
	slotEntry := top - 24

	writeUintptrAt(slotTrampoline, funcAddr(taskCompletionTrampoline))
	writeUintptrAt(slotPad, funcAddr(stackAlignPad))
	writeUintptrAt(slotEntry, funcAddr(taskEntryGlue))

	*ctx = Context{sp: slotEntry}
}

// writeUintptrAt stores v at the raw address addr, which must lie within
// a live taskStack mapping. The mapping is OS memory obtained via Mmap,
// not a Go-managed allocation, so writing through a reinterpreted pointer
// here does not confuse the garbage collector the way it would for a
// slice backed by normal Go memory.
func writeUintptrAt(addr uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = v
}
