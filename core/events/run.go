package events

import (
	"time"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/model"
)

// RunEvent is implemented by every run event.
type RunEvent interface {
	ID() string
}

// RunCompleted is published once a schedule has been produced and validated.
type RunCompleted struct {
	RunID    string
	Strategy string
	Result   model.ScheduleResult
	// UpperBound is the LP bound on fully charged trucks, or -1 when it was
	// not computed.
	UpperBound int
	Duration   time.Duration
	Time       time.Time
}

// ID returns the run identifier.
func (e RunCompleted) ID() string { return e.RunID }

// RunFailed is published when loading or scheduling fails.
type RunFailed struct {
	RunID    string
	Strategy string
	Kind     apperr.Kind
	Err      error
	Time     time.Time
}

// ID returns the run identifier.
func (e RunFailed) ID() string { return e.RunID }
