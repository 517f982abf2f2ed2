package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/truckcharge/config"
	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/events"
	"github.com/kilianp07/truckcharge/core/fleet"
	"github.com/kilianp07/truckcharge/core/history"
	coremetrics "github.com/kilianp07/truckcharge/core/metrics"
	"github.com/kilianp07/truckcharge/core/model"
	coremon "github.com/kilianp07/truckcharge/core/monitoring"
	"github.com/kilianp07/truckcharge/core/scheduler"
	"github.com/kilianp07/truckcharge/infra/fleetfile"
	"github.com/kilianp07/truckcharge/infra/logger"
	"github.com/kilianp07/truckcharge/infra/metrics"
	"github.com/kilianp07/truckcharge/infra/monitoring"
	"github.com/kilianp07/truckcharge/infra/mqtt"
	"github.com/kilianp07/truckcharge/internal/eventbus"
)

// SchedulePublisher delivers a finished schedule to the chargers.
type SchedulePublisher interface {
	PublishSchedule(ctx context.Context, runID string, res model.ScheduleResult) error
}

// Deps lists the collaborators of a Service. Nil optional fields fall back to
// no-op implementations.
type Deps struct {
	Provider  fleet.Provider
	Scheduler scheduler.Scheduler
	Strategy  string
	History   history.Store
	Publisher SchedulePublisher
	Sink      coremetrics.MetricsSink
	Logger    logger.Logger
	Monitor   coremon.Monitor
	// BoundMaxPairs skips the LP upper bound for fleets with more
	// (truck, charger) pairs. Zero uses scheduler.DefaultBoundMaxPairs and a
	// negative value disables the bound.
	BoundMaxPairs int
	// PromAddr enables the /metrics endpoint in Serve.
	PromAddr string
	Interval time.Duration
}

// Run is the outcome of one pipeline execution.
type Run struct {
	ID         string
	Strategy   string
	Result     model.ScheduleResult
	UpperBound int
	Duration   time.Duration
}

// Service runs the load, schedule, record and publish pipeline.
type Service struct {
	deps      Deps
	bus       *eventbus.TypedBus[events.RunEvent]
	collector *sync.WaitGroup
	log       logger.Logger
	closers   []func() error
	closeOnce sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	sched, err := scheduler.New(cfg.Scheduler.Module())
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	deps := Deps{
		Provider:      fleet.WithHorizon(fleetfile.New(cfg.Fleet.Path), cfg.Fleet.HorizonHours),
		Scheduler:     sched,
		Strategy:      cfg.Scheduler.Strategy,
		History:       store,
		Sink:          sink,
		Monitor:       mon,
		BoundMaxPairs: cfg.Scheduler.BoundMaxPairs,
		PromAddr:      cfg.Metrics.PrometheusAddr,
		Interval:      cfg.Serve.Interval(),
	}
	var closers []func() error
	if cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, apperr.Unavailable(err, "mqtt publisher")
		}
		deps.Publisher = pub
		closers = append(closers, func() error { pub.Close(); return nil })
	}
	svc := NewWithDeps(deps)
	svc.closers = append(svc.closers, closers...)
	return svc, nil
}

// NewWithDeps creates a Service from explicit collaborators.
func NewWithDeps(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logger.New("service")
	}
	if d.Strategy == "" {
		d.Strategy = scheduler.StrategyGreedy
	}
	if d.Scheduler == nil {
		d.Scheduler = scheduler.NewGreedy(scheduler.Options{})
	}
	if d.History == nil {
		d.History = history.NopStore{}
	}
	if d.Sink == nil {
		d.Sink = coremetrics.NopSink{}
	}
	if d.Monitor == nil {
		d.Monitor = coremon.NopMonitor{}
	}
	bus := eventbus.NewTypedWithBuffer[events.RunEvent](32)
	s := &Service{deps: d, bus: bus, log: d.Logger}
	s.collector = metrics.StartEventCollector(context.Background(), bus, d.Sink, d.Logger)
	s.closers = append(s.closers, d.History.Close)
	if c, ok := d.Sink.(interface{ Close() }); ok {
		s.closers = append(s.closers, func() error { c.Close(); return nil })
	}
	return s
}

// Events returns a subscription to run events.
func (s *Service) Events() <-chan events.RunEvent { return s.bus.Subscribe() }

// RunOnce executes the pipeline a single time. On failure nothing is
// published and the classified error is returned.
func (s *Service) RunOnce(ctx context.Context) (Run, error) {
	run := Run{ID: uuid.NewString(), Strategy: s.deps.Strategy, UpperBound: -1}
	start := time.Now()

	if s.deps.Provider == nil {
		return run, s.fail(run, apperr.Invalid("no fleet provider configured"))
	}
	snap, err := s.deps.Provider.Load(ctx)
	if err != nil {
		return run, s.fail(run, classify(err, "load fleet"))
	}
	res, err := s.deps.Scheduler.Schedule(ctx, snap.Trucks, snap.Chargers, snap.HorizonHours)
	if err != nil {
		return run, s.fail(run, err)
	}
	if err := res.Validate(); err != nil {
		return run, s.fail(run, err)
	}
	run.Result = res
	run.Duration = time.Since(start)

	bound, err := s.upperBound(ctx, run.ID, snap)
	if err != nil {
		return run, s.fail(run, err)
	}
	run.UpperBound = bound

	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishSchedule(ctx, run.ID, res); err != nil {
			return run, s.fail(run, classify(err, "publish schedule"))
		}
	}

	rec := history.Record{
		RunID:      run.ID,
		Timestamp:  start,
		Strategy:   run.Strategy,
		UpperBound: run.UpperBound,
		DurationMS: float64(run.Duration.Microseconds()) / 1000,
		Result:     res,
	}
	if err := s.deps.History.Append(ctx, rec); err != nil {
		s.log.Warnf("run %s: history append: %v", run.ID, err)
	}

	s.bus.Publish(events.RunCompleted{
		RunID:      run.ID,
		Strategy:   run.Strategy,
		Result:     res,
		UpperBound: run.UpperBound,
		Duration:   run.Duration,
		Time:       start,
	})
	s.log.Infow("schedule run completed", map[string]any{
		"run_id":        run.ID,
		"strategy":      run.Strategy,
		"fully_charged": res.FullyChargedCount,
		"total_trucks":  res.TotalTrucks,
		"unassigned":    len(res.UnassignedTrucks),
		"upper_bound":   run.UpperBound,
		"duration_ms":   rec.DurationMS,
	})
	return run, nil
}

// upperBound returns -1 when the bound is disabled, too large for the fleet
// or not solvable. Only cancellation is returned as an error.
func (s *Service) upperBound(ctx context.Context, runID string, snap fleet.Snapshot) (int, error) {
	limit := s.deps.BoundMaxPairs
	if limit == 0 {
		limit = scheduler.DefaultBoundMaxPairs
	}
	if limit < 0 {
		return -1, nil
	}
	if pairs := scheduler.BoundPairs(snap.Trucks, snap.Chargers); pairs > limit {
		s.log.Warnf("run %s: upper bound skipped, %d truck-charger pairs exceed limit %d", runID, pairs, limit)
		return -1, nil
	}
	bound, err := scheduler.UpperBound(ctx, snap.Trucks, snap.Chargers, snap.HorizonHours)
	if err != nil {
		if ctx.Err() != nil {
			return -1, ctx.Err()
		}
		s.log.Warnf("run %s: upper bound: %v", runID, err)
		return -1, nil
	}
	return bound, nil
}

func (s *Service) fail(run Run, err error) error {
	kind := apperr.KindOf(err)
	s.bus.Publish(events.RunFailed{
		RunID:    run.ID,
		Strategy: run.Strategy,
		Kind:     kind,
		Err:      err,
		Time:     time.Now(),
	})
	s.log.Errorf("run %s failed (%s): %v", run.ID, kind, err)
	if !errors.Is(err, context.Canceled) {
		s.deps.Monitor.CaptureException(err, map[string]string{
			"run_id":   run.ID,
			"strategy": run.Strategy,
			"kind":     kind.String(),
		})
	}
	return err
}

// classify keeps errors that are already classified and marks the rest as
// a data source failure of op.
func classify(err error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.Unavailable(err, op)
}

// Serve runs the pipeline immediately and then on every interval until ctx
// is cancelled. A failed tick is logged and the next tick retries from the
// data fetch.
func (s *Service) Serve(ctx context.Context) error {
	interval := s.deps.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if s.deps.PromAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.deps.PromAddr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.tick(ctx); err != nil && ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) tick(ctx context.Context) error {
	defer s.deps.Monitor.Recover()
	_, err := s.RunOnce(ctx)
	return err
}

// History queries past runs.
func (s *Service) History(ctx context.Context, q history.Query) ([]history.Record, error) {
	return s.deps.History.Query(ctx, q)
}

// Close stops event collection and releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		s.bus.Close()
		s.collector.Wait()
		for _, c := range s.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		s.deps.Monitor.Flush(2 * time.Second)
	})
	return errors.Join(errs...)
}
