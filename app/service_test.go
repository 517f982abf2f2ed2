package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/truckcharge/config"
	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/events"
	"github.com/kilianp07/truckcharge/core/factory"
	"github.com/kilianp07/truckcharge/core/fleet"
	"github.com/kilianp07/truckcharge/core/history"
	coremetrics "github.com/kilianp07/truckcharge/core/metrics"
	"github.com/kilianp07/truckcharge/core/model"
	"github.com/kilianp07/truckcharge/infra/logger"
)

type recordingSink struct {
	mu       sync.Mutex
	runs     []coremetrics.RunRecord
	failures []coremetrics.FailureRecord
}

func (r *recordingSink) RecordRun(rec coremetrics.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, rec)
	return nil
}

func (r *recordingSink) RecordFailure(rec coremetrics.FailureRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, rec)
	return nil
}

type fakePublisher struct {
	err   error
	calls []string
}

func (f *fakePublisher) PublishSchedule(_ context.Context, runID string, _ model.ScheduleResult) error {
	f.calls = append(f.calls, runID)
	return f.err
}

type recordingMonitor struct {
	errs []error
	tags []map[string]string
}

func (m *recordingMonitor) CaptureException(err error, tags map[string]string) {
	m.errs = append(m.errs, err)
	m.tags = append(m.tags, tags)
}
func (m *recordingMonitor) Recover()            {}
func (m *recordingMonitor) Flush(time.Duration) {}

type failingProvider struct{ err error }

func (f failingProvider) Load(context.Context) (fleet.Snapshot, error) {
	return fleet.Snapshot{}, f.err
}

func snapshot() fleet.Snapshot {
	return fleet.Snapshot{
		Trucks: []model.Truck{
			{ID: "t1", CapacityKWh: 100, ChargePercent: 50},
			{ID: "t2", CapacityKWh: 100, ChargePercent: 0},
			{ID: "t3", CapacityKWh: 1000, ChargePercent: 0},
		},
		Chargers:     []model.Charger{{ID: "c1", RateKW: 50}},
		HorizonHours: 4,
	}
}

func TestRunOnceSuccess(t *testing.T) {
	sink := &recordingSink{}
	pub := &fakePublisher{}
	store, err := history.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	svc := NewWithDeps(Deps{
		Provider:  fleet.Static{Snapshot: snapshot()},
		History:   store,
		Publisher: pub,
		Sink:      sink,
		Logger:    logger.NopLogger{},
	})

	run, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "greedy", run.Strategy)
	assert.Equal(t, 2, run.Result.FullyChargedCount)
	assert.Equal(t, 2, run.UpperBound)
	assert.Equal(t, []string{run.ID}, pub.calls)

	recs, err := svc.History(context.Background(), history.Query{TruckID: "t3"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, run.ID, recs[0].RunID)

	require.NoError(t, svc.Close())
	require.Len(t, sink.runs, 1)
	assert.Equal(t, run.ID, sink.runs[0].RunID)
	assert.Equal(t, 2, sink.runs[0].UpperBound)
	assert.Empty(t, sink.failures)
}

func TestRunOnceEmitsEvent(t *testing.T) {
	svc := NewWithDeps(Deps{
		Provider:      fleet.Static{Snapshot: snapshot()},
		Logger:        logger.NopLogger{},
		BoundMaxPairs: -1,
	})
	defer func() { _ = svc.Close() }()
	sub := svc.Events()
	run, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, run.UpperBound)
	select {
	case ev := <-sub:
		done, ok := ev.(events.RunCompleted)
		require.True(t, ok)
		assert.Equal(t, run.ID, done.RunID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestRunOnceSkipsBoundAboveLimit(t *testing.T) {
	sink := &recordingSink{}
	svc := NewWithDeps(Deps{
		Provider:      fleet.Static{Snapshot: snapshot()},
		Sink:          sink,
		Logger:        logger.NopLogger{},
		BoundMaxPairs: 2,
	})

	run, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, run.Result.FullyChargedCount)
	assert.Equal(t, -1, run.UpperBound)

	require.NoError(t, svc.Close())
	require.Len(t, sink.runs, 1)
	assert.Equal(t, -1, sink.runs[0].UpperBound)
}

func TestRunOnceProviderFailure(t *testing.T) {
	sink := &recordingSink{}
	pub := &fakePublisher{}
	mon := &recordingMonitor{}
	svc := NewWithDeps(Deps{
		Provider:  failingProvider{err: os.ErrNotExist},
		Publisher: pub,
		Sink:      sink,
		Logger:    logger.NopLogger{},
		Monitor:   mon,
	})
	_, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDataUnavailable))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, pub.calls)
	require.Len(t, mon.errs, 1)
	assert.Equal(t, "data_unavailable", mon.tags[0]["kind"])

	require.NoError(t, svc.Close())
	assert.Empty(t, sink.runs)
	require.Len(t, sink.failures, 1)
	assert.Equal(t, apperr.DataUnavailable, sink.failures[0].Kind)
}

func TestRunOnceInvalidInput(t *testing.T) {
	snap := snapshot()
	snap.HorizonHours = 0
	pub := &fakePublisher{}
	svc := NewWithDeps(Deps{Provider: fleet.Static{Snapshot: snap}, Publisher: pub, Logger: logger.NopLogger{}})
	defer func() { _ = svc.Close() }()
	_, err := svc.RunOnce(context.Background())
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
	assert.Empty(t, pub.calls)
}

func TestRunOncePublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	store, err := history.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	svc := NewWithDeps(Deps{Provider: fleet.Static{Snapshot: snapshot()}, Publisher: pub, History: store, Logger: logger.NopLogger{}})
	defer func() { _ = svc.Close() }()
	_, err = svc.RunOnce(context.Background())
	assert.Equal(t, apperr.DataUnavailable, apperr.KindOf(err))
	recs, err := svc.History(context.Background(), history.Query{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRunOncePublishRejectsInput(t *testing.T) {
	pub := &fakePublisher{err: apperr.Invalid("charger id %q cannot be used as an mqtt topic level", "c/1")}
	svc := NewWithDeps(Deps{Provider: fleet.Static{Snapshot: snapshot()}, Publisher: pub, Logger: logger.NopLogger{}, BoundMaxPairs: -1})
	defer func() { _ = svc.Close() }()
	_, err := svc.RunOnce(context.Background())
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
}

func TestRunOnceCanceled(t *testing.T) {
	mon := &recordingMonitor{}
	svc := NewWithDeps(Deps{Provider: fleet.Static{Snapshot: snapshot()}, Logger: logger.NopLogger{}, Monitor: mon})
	defer func() { _ = svc.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mon.errs, "cancellation is not reported")
}

func TestServeStopsOnCancel(t *testing.T) {
	sink := &recordingSink{}
	svc := NewWithDeps(Deps{
		Provider: fleet.Static{Snapshot: snapshot()},
		Sink:     sink,
		Logger:   logger.NopLogger{},
		Interval: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, svc.Serve(ctx))
	require.NoError(t, svc.Close())
	assert.GreaterOrEqual(t, len(sink.runs), 2)
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	fleetPath := filepath.Join(dir, "fleet.yaml")
	require.NoError(t, os.WriteFile(fleetPath, []byte(`horizon_hours: 8
chargers:
  - id: c1
    rate_kw: 50
trucks:
  - id: t1
    capacity_kwh: 100
    charge_percent: 50
`), 0o644))
	cfg := &config.Config{
		Fleet:     config.FleetConfig{Path: fleetPath, HorizonHours: 2},
		Scheduler: config.SchedulerConfig{Strategy: "input-order"},
		History:   history.Config{Backend: history.BackendSQLite, Path: "file:app_new.db?mode=memory&cache=shared"},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	run, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "input-order", run.Strategy)
	assert.Equal(t, 2, run.Result.TimeHorizon)
	assert.Equal(t, 1, run.Result.FullyChargedCount)

	recs, err := svc.History(context.Background(), history.Query{Strategy: "input-order"})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestNewUnknownSink(t *testing.T) {
	cfg := &config.Config{Fleet: config.FleetConfig{Path: "fleet.yaml"}}
	cfg.SetDefaults()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "invalid input: time horizon must be positive",
		UserMessage(apperr.Invalid("time horizon must be positive")))
	assert.Equal(t, "data source unavailable: load fleet: boom",
		UserMessage(apperr.Unavailable(errors.New("boom"), "load fleet")))
	assert.Contains(t, UserMessage(errors.New("nil map")), "internal error")
	assert.Contains(t, UserMessage(context.Canceled), "cancelled")
}
