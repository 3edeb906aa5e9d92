//go:build linux && amd64

package uthreads

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestYieldReturnsFalseWhenAlone(t *testing.T) {
	rt := New(nil)
	require.False(t, rt.Yield(), "root task alone should find nothing to yield to")
}

func TestYieldDemotesRunningToReady(t *testing.T) {
	rt := New(nil)
	resumed := false
	var rootStateWhileSuspended TaskState
	id := rt.Spawn(func() {
		resumed = true
		root, _ := rt.task(RootTaskID)
		rootStateWhileSuspended = root.state
	})

	task, ok := rt.task(id)
	require.True(t, ok)
	require.Equal(t, Ready, task.state)

	rt.Run()
	require.True(t, resumed)
	require.Equal(t, Ready, rootStateWhileSuspended, "Yield should have demoted the root from Running to Ready")
	_, stillRegistered := rt.task(id)
	require.False(t, stillRegistered, "completed task should be removed from the runtime")
}

func TestCompleteRemovesTaskAndFreesStack(t *testing.T) {
	rt := New(nil)
	id := rt.Spawn(func() {})
	rt.Run()

	_, ok := rt.task(id)
	require.False(t, ok)
	require.Empty(t, rt.retiredStacks, "Run should have reaped every retired stack by the time it returns")
}

func TestRoundRobinSkipsBlockedTasks(t *testing.T) {
	rt := New(nil)
	ch := NewChannel[int](0)

	var secondRan bool
	rt.Spawn(func() {
		ch.Receive() // parks forever; nobody ever sends
	})
	rt.Spawn(func() {
		secondRan = true
	})

	rt.Run()
	require.True(t, secondRan, "round robin should skip the permanently blocked first task")
}
