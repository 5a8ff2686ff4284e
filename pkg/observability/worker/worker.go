package worker

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// JobMetrics receives job lifecycle events.
type JobMetrics interface {
	JobStarted(jobType string)
	JobFinished(jobType, status string, durationSec float64)
}

// WorkerInstrumenter instruments background jobs such as corpus syncs.
type WorkerInstrumenter struct {
	tracer  trace.Tracer
	metrics JobMetrics
}

// NewWorkerInstrumenter creates a new worker instrumenter
func NewWorkerInstrumenter(tracer trace.Tracer, metrics JobMetrics) *WorkerInstrumenter {
	return &WorkerInstrumenter{tracer: tracer, metrics: metrics}
}

// InstrumentJob wraps a job execution with a span and job metrics.
func (w *WorkerInstrumenter) InstrumentJob(ctx context.Context, jobType string, jobID string, fn func(context.Context) error) error {
	if w.metrics != nil {
		w.metrics.JobStarted(jobType)
	}

	ctx, span := w.tracer.Start(ctx, fmt.Sprintf("worker.%s", jobType),
		trace.WithAttributes(
			attribute.String("job.type", jobType),
			attribute.String("job.id", jobID),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("job.status", status))

	if w.metrics != nil {
		w.metrics.JobFinished(jobType, status, time.Since(start).Seconds())
	}
	return err
}
