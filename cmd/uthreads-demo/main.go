// Command uthreads-demo runs one of a few small scenarios against the
// uthreads runtime, to exercise spawning, yielding and channel rendezvous
// from the command line.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chioni16/uthreads"
	"github.com/chioni16/uthreads/internal/logging"
)

func main() {
	var (
		scenario = flag.String("scenario", "counters", "scenario to run: counters, producer-consumer")
		verbose  = flag.Bool("v", false, "verbose logging")
		tasks    = flag.Int("tasks", 4, "number of tasks to spawn")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	metrics := uthreads.NewRuntimeMetrics()
	rt := uthreads.Init(&uthreads.Config{
		Logger:   logger,
		Observer: metrics,
	})

	switch *scenario {
	case "counters":
		runCounters(rt, *tasks)
	case "producer-consumer":
		runProducerConsumer(rt, *tasks)
	default:
		log.Fatalf("unknown scenario %q", *scenario)
	}

	snap := metrics.Snapshot()
	fmt.Printf("spawned=%d yields=%d blocked=%d completed=%d rendezvous=%d\n",
		snap.Spawned, snap.Yields, snap.Blocked, snap.Completed, snap.Rendezvous)
	os.Exit(0)
}

// runCounters spawns n tasks that each yield a few times, printing their
// index and round number before every yield, then returns once all of
// them have completed.
func runCounters(rt *uthreads.Runtime, n int) {
	for i := 0; i < n; i++ {
		i := i
		rt.Spawn(func() {
			for round := 0; round < 3; round++ {
				fmt.Printf("task %d: round %d\n", i, round)
				uthreads.Yield()
			}
		})
	}
	rt.Run()
}

// runProducerConsumer wires n producer tasks into a single buffered
// channel drained by one consumer task.
func runProducerConsumer(rt *uthreads.Runtime, n int) {
	ch := uthreads.NewChannel[int](4)
	done := uthreads.NewChannel[struct{}](0)

	rt.Spawn(func() {
		received := 0
		for received < n*3 {
			v := ch.Receive()
			fmt.Printf("consumer: got %d\n", v)
			received++
		}
		done.Send(struct{}{})
	})

	for p := 0; p < n; p++ {
		p := p
		rt.Spawn(func() {
			for i := 0; i < 3; i++ {
				ch.Send(p*100 + i)
			}
		})
	}

	rt.Spawn(func() {
		done.Receive()
	})

	rt.Run()
}
