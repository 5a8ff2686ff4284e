package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recordingMetrics struct {
	started  []string
	finished []string
}

func (m *recordingMetrics) JobStarted(jobType string) {
	m.started = append(m.started, jobType)
}

func (m *recordingMetrics) JobFinished(jobType, status string, durationSec float64) {
	m.finished = append(m.finished, jobType+":"+status)
}

func TestInstrumentJob(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	metrics := &recordingMetrics{}
	w := NewWorkerInstrumenter(tp.Tracer("test"), metrics)

	called := false
	err := w.InstrumentJob(context.Background(), "corpus_sync", "7", func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	boom := errors.New("boom")
	err = w.InstrumentJob(context.Background(), "corpus_sync", "8", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"corpus_sync", "corpus_sync"}, metrics.started)
	assert.Equal(t, []string{"corpus_sync:success", "corpus_sync:error"}, metrics.finished)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "worker.corpus_sync", spans[0].Name())
	assert.Len(t, spans[1].Events(), 1)
}
