package metrics

import (
	"context"
	"sync"

	"github.com/kilianp07/truckcharge/core/events"
	coremetrics "github.com/kilianp07/truckcharge/core/metrics"
	"github.com/kilianp07/truckcharge/infra/logger"
	"github.com/kilianp07/truckcharge/internal/eventbus"
)

// StartEventCollector records every run event published on bus into sink
// until ctx is cancelled or the bus is closed. The returned WaitGroup is done
// once the collector has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.RunEvent], sink coremetrics.MetricsSink, log logger.Logger) *sync.WaitGroup {
	var wg sync.WaitGroup
	if bus == nil || sink == nil {
		return &wg
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record run %s: %v", ev.ID(), err)
				}
			}
		}
	}()
	return &wg
}

func record(sink coremetrics.MetricsSink, ev events.RunEvent) error {
	switch e := ev.(type) {
	case events.RunCompleted:
		return sink.RecordRun(coremetrics.RunRecord{
			RunID:      e.RunID,
			Strategy:   e.Strategy,
			Result:     e.Result,
			UpperBound: e.UpperBound,
			Duration:   e.Duration,
			Time:       e.Time,
		})
	case events.RunFailed:
		if fr, ok := sink.(coremetrics.FailureRecorder); ok {
			return fr.RecordFailure(coremetrics.FailureRecord{
				RunID:    e.RunID,
				Strategy: e.Strategy,
				Kind:     e.Kind,
				Time:     e.Time,
			})
		}
	}
	return nil
}
