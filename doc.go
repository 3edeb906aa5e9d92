//go:build linux && amd64

// Package uthreads implements a single-threaded cooperative task runtime.
//
// Tasks ("uthreads") are scheduled round-robin onto one OS thread. Each task
// owns an independently allocated stack and is resumed via a hand-written
// context switch rather than a real OS thread or goroutine. Tasks exchange
// values exclusively through Channel, a bounded rendezvous primitive that
// parks the caller when no partner or buffer slot is available.
//
// There is no preemption, no multi-core parallelism and no fairness beyond
// simple rotation: a task runs until it returns, calls Yield, or blocks on a
// channel operation.
package uthreads
