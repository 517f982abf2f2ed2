package metrics

import (
	"time"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/model"
)

// RunRecord summarizes a completed scheduling run.
type RunRecord struct {
	RunID      string
	Strategy   string
	Result     model.ScheduleResult
	UpperBound int // -1 when not computed
	Duration   time.Duration
	Time       time.Time
}

// MetricsSink records completed runs for observability purposes.
type MetricsSink interface {
	RecordRun(rec RunRecord) error
}

// FailureRecord describes a run that produced no schedule.
type FailureRecord struct {
	RunID    string
	Strategy string
	Kind     apperr.Kind
	Time     time.Time
}

// FailureRecorder is implemented by sinks able to count failed runs.
type FailureRecorder interface {
	RecordFailure(rec FailureRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error         { return nil }
func (NopSink) RecordFailure(FailureRecord) error { return nil }
