// Package publisher fans each tick report out to the configured sinks
// (Postgres, MQTT, websocket stream). A failing sink is logged and skipped
// so one slow consumer never stalls the tick loop.
package publisher

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

var ErrAlreadyRegistered = errors.New("publisher already registered")

type Publisher interface {
	Publish(ctx context.Context, report model.TickReport) error
}

// Func adapts a plain function to the Publisher interface.
type Func func(ctx context.Context, report model.TickReport) error

func (f Func) Publish(ctx context.Context, report model.TickReport) error {
	return f(ctx, report)
}

type Registry struct {
	mu         sync.Mutex
	publishers map[string]Publisher
	logger     *zap.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		publishers: make(map[string]Publisher),
		logger:     zap.L(),
	}
}

func (r *Registry) Register(name string, p Publisher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.publishers[name]; ok {
		return ErrAlreadyRegistered
	}
	r.publishers[name] = p
	return nil
}

// Publish delivers the report to every registered sink in name order. Sink
// errors are logged, not returned: the tick already happened and the next
// one should not be held back.
func (r *Registry) Publish(ctx context.Context, report model.TickReport) error {
	r.mu.Lock()
	names := make([]string, 0, len(r.publishers))
	for name := range r.publishers {
		names = append(names, name)
	}
	sort.Strings(names)
	sinks := make([]Publisher, 0, len(names))
	for _, name := range names {
		sinks = append(sinks, r.publishers[name])
	}
	r.mu.Unlock()

	for i, sink := range sinks {
		if err := sink.Publish(ctx, report); err != nil {
			r.logger.Error("failed to publish tick report", zap.Error(err), zap.String("publisher", names[i]))
			continue
		}
		r.logger.Debug("published tick report", zap.Int("cells", len(report.Cells)), zap.String("publisher", names[i]))
	}
	return nil
}
