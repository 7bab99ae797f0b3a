package worker

import (
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/inkwell-ai/inkwell/internal/batch"
	"github.com/inkwell-ai/inkwell/internal/workflow"
	"github.com/inkwell-ai/inkwell/pkg/activity"
	"github.com/inkwell-ai/inkwell/pkg/events"
)

// RegisterAll registers the batch workflow and its activities with the
// Temporal worker. Not thread-safe; call once during startup before the
// worker runs.
func RegisterAll(w sdkworker.Worker, deps Dependencies, sink events.EventSink) {
	if sink == nil {
		sink = events.NewNoOpEventSink()
	}
	base := activity.NewBaseActivities(sink)

	batchActivities := batch.NewActivities(base, deps.Builder, deps.Escalator, deps.Store)

	w.RegisterWorkflow(workflow.BatchWorkflow)

	w.RegisterActivity(batchActivities.GenerateEpisode)
	w.RegisterActivity(batchActivities.SaveBatchState)
	w.RegisterActivity(batchActivities.LoadBatchState)
	w.RegisterActivity(batchActivities.EmitBatchPaused)
}
