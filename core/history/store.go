// Package history keeps a record of past scheduling runs and lets them be
// queried back. Three backends are available: a JSONL file, a size-rotated
// JSONL file and a SQLite database.
package history

import (
	"context"
	"time"

	"github.com/kilianp07/truckcharge/core/model"
)

// Record captures one completed scheduling run.
type Record struct {
	RunID      string               `json:"run_id"`
	Timestamp  time.Time            `json:"timestamp"`
	Strategy   string               `json:"strategy"`
	UpperBound int                  `json:"upper_bound"`
	DurationMS float64              `json:"duration_ms"`
	Result     model.ScheduleResult `json:"result"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start    time.Time
	End      time.Time
	Strategy string
	// TruckID keeps runs in which the truck was assigned or left unassigned.
	TruckID string
	Limit   int
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Matches reports whether rec passes every filter of q.
func (q Query) Matches(rec Record) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.Strategy != "" && rec.Strategy != q.Strategy {
		return false
	}
	if q.TruckID != "" && !mentionsTruck(rec.Result, q.TruckID) {
		return false
	}
	return true
}

func mentionsTruck(res model.ScheduleResult, id string) bool {
	for _, s := range res.Schedules {
		for _, a := range s.Assignments {
			if a.Truck.ID == id {
				return true
			}
		}
	}
	for _, t := range res.UnassignedTrucks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// limit keeps the last q.Limit records when a limit is set.
func (q Query) limit(recs []Record) []Record {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
