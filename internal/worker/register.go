// Package worker exposes helpers to register workflows/activities with a
// Temporal worker and to initialize their dependencies at startup.
package worker

import (
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/rvelasq/eval360/internal/aggregation"
	"github.com/rvelasq/eval360/internal/workflow"
	"github.com/rvelasq/eval360/pkg/activity"
	"github.com/rvelasq/eval360/pkg/events"
)

// RegisterAll registers all workflows and activities with the Temporal
// worker. Call once during worker initialization, before starting the
// worker; registration is not thread-safe.
func RegisterAll(w sdkworker.Worker, store aggregation.AggregationStore, sink events.EventSink) {
	if sink == nil {
		sink = events.NewNoOpEventSink()
	}
	base := activity.NewBaseActivities(sink)
	limiter := aggregation.NewRecomputeLimiter(0, 0)

	aggregationActivities := aggregation.NewActivities(base, store, limiter)

	w.RegisterWorkflow(workflow.SessionAggregationWorkflow)
	w.RegisterActivity(aggregationActivities.ComputeAggregation)
}
