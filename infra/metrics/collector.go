package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/gridwalk/core/metrics"
	"github.com/kilianp07/gridwalk/infra/logger"
	"github.com/kilianp07/gridwalk/internal/eventbus"
)

// StartEventCollector subscribes to the plan event bus and forwards every
// event to sink. It stops when the context is canceled or the bus closes.
// The returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.PlanEvent], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordPlan(ev); err != nil {
					log.Warnf("record plan %s: %v", ev.RunID, err)
				}
			}
		}
	}()
	return done
}
