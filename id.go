//go:build linux && amd64

package uthreads

import "fmt"

// TaskID uniquely identifies a task for the lifetime of the runtime that
// created it. IDs are never reused.
type TaskID uint64

// RootTaskID identifies the bootstrap task that hosts Run. It executes no
// user entry function but participates in round-robin like any other task.
const RootTaskID TaskID = 0

func (id TaskID) String() string {
	if id == RootTaskID {
		return "task(root)"
	}
	return fmt.Sprintf("task(%d)", uint64(id))
}
