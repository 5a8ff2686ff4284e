package search

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/janhq/knowledge-memory/internal/metrics"
)

var tracer = otel.Tracer("knowledge-memory/search")

// Engine dispatches queries to the registered strategies.
type Engine struct {
	mu         sync.RWMutex
	strategies map[Mode]Strategy
}

func NewEngine(strategies ...Strategy) *Engine {
	e := &Engine{strategies: make(map[Mode]Strategy, len(strategies))}
	for _, s := range strategies {
		e.Register(s)
	}
	return e
}

// Register adds a strategy, replacing any previous one for the same mode.
func (e *Engine) Register(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[s.Mode()] = s
}

// Modes lists the registered modes in name order.
func (e *Engine) Modes() []Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()

	modes := make([]Mode, 0, len(e.strategies))
	for mode := range e.strategies {
		modes = append(modes, mode)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// Search runs q with the strategy registered for mode. An unset target
// defaults to memories for recency ranking and to documents otherwise.
func (e *Engine) Search(ctx context.Context, mode Mode, q Query) ([]Result, error) {
	e.mu.RLock()
	strategy, ok := e.strategies[mode]
	e.mu.RUnlock()
	if !ok {
		return nil, validationError(ctx, ErrUnknownMode, "unknown search mode %q", mode)
	}

	if q.Target == "" {
		q.Target = TargetDocuments
		if mode == ModeRecency {
			q.Target = TargetMemories
		}
	}
	if !q.Target.Valid() {
		return nil, validationError(ctx, ErrUnknownTarget, "unknown search target %q", q.Target)
	}

	ctx, span := tracer.Start(ctx, "search."+string(mode))
	defer span.End()
	span.SetAttributes(
		attribute.String("search.mode", string(mode)),
		attribute.String("search.target", string(q.Target)),
	)

	start := time.Now()
	results, err := strategy.Search(ctx, q)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
	}
	metrics.RecordSearch(string(mode), string(q.Target), status, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("search.results", len(results)))
	return results, nil
}
