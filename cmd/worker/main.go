// Command worker runs the aggregation worker: it connects to Temporal,
// registers the session aggregation workflow and activities, and serves the
// task queue until interrupted.
package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/rvelasq/eval360/internal/worker"
	"github.com/rvelasq/eval360/pkg/events"
)

// TaskQueue is the queue session aggregation workflows are dispatched on.
const TaskQueue = "eval360-aggregation"

func main() {
	hostPort := os.Getenv("TEMPORAL_HOSTPORT")
	if hostPort == "" {
		hostPort = client.DefaultHostPort
	}

	c, err := client.Dial(client.Options{HostPort: hostPort})
	if err != nil {
		log.Fatalf("failed to connect to temporal at %s: %v", hostPort, err)
	}
	defer c.Close()

	store, err := worker.InitializeStore(os.Getenv("REDIS_ADDR"))
	if err != nil {
		log.Fatalf("failed to initialize aggregation store: %v", err)
	}

	w := sdkworker.New(c, TaskQueue, sdkworker.Options{})
	worker.RegisterAll(w, store, events.NewNoOpEventSink())

	if err := w.Run(sdkworker.InterruptCh()); err != nil {
		log.Fatalf("worker stopped: %v", err)
	}
}
