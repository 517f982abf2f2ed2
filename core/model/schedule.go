package model

import (
	"math"

	"github.com/kilianp07/truckcharge/core/apperr"
)

// timeEpsilon absorbs floating point drift when comparing schedule times.
const timeEpsilon = 1e-9

// ScheduleAssignment places one truck on a charger for [Start, End) hours.
type ScheduleAssignment struct {
	Truck    Truck   `json:"truck"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// ChargerSchedule is the chronological plan of a single charger.
type ChargerSchedule struct {
	ChargerID          string               `json:"charger_id"`
	Assignments        []ScheduleAssignment `json:"assignments"`
	TotalScheduledTime float64              `json:"total_scheduled_time"`
}

// Utilization returns the share of the horizon the charger is busy, in percent.
func (s ChargerSchedule) Utilization(horizon float64) float64 {
	if horizon <= 0 {
		return 0
	}
	return s.TotalScheduledTime / horizon * 100
}

// ScheduleResult is the outcome of one scheduling run. It must be treated as
// read-only once returned.
type ScheduleResult struct {
	Schedules map[string]ChargerSchedule `json:"schedules"`
	// ChargerOrder lists charger IDs in the order they were supplied.
	ChargerOrder      []string `json:"charger_order"`
	FullyChargedCount int      `json:"fully_charged_count"`
	TotalTrucks       int      `json:"total_trucks"`
	TimeHorizon       int      `json:"time_horizon"`
	UnassignedTrucks  []Truck  `json:"unassigned_trucks"`
}

// FleetUtilization returns the share of trucks fully charged, in percent.
func (r ScheduleResult) FleetUtilization() float64 {
	if r.TotalTrucks == 0 {
		return 0
	}
	return float64(r.FullyChargedCount) / float64(r.TotalTrucks) * 100
}

// OrderedSchedules returns the charger schedules in input charger order.
func (r ScheduleResult) OrderedSchedules() []ChargerSchedule {
	out := make([]ChargerSchedule, 0, len(r.ChargerOrder))
	for _, id := range r.ChargerOrder {
		out = append(out, r.Schedules[id])
	}
	return out
}

// AssignedCount returns the number of trucks placed on a charger.
func (r ScheduleResult) AssignedCount() int {
	n := 0
	for _, s := range r.Schedules {
		n += len(s.Assignments)
	}
	return n
}

// Validate checks the structural invariants of the result. A failure means
// the producing scheduler is defective, so it is reported as Internal.
//
//gocyclo:ignore
func (r ScheduleResult) Validate() error {
	if r.TimeHorizon <= 0 {
		return apperr.Internalf("time horizon must be positive, got %d", r.TimeHorizon)
	}
	if r.FullyChargedCount+len(r.UnassignedTrucks) != r.TotalTrucks {
		return apperr.Internalf("fully charged %d + unassigned %d != total %d",
			r.FullyChargedCount, len(r.UnassignedTrucks), r.TotalTrucks)
	}
	if len(r.ChargerOrder) != len(r.Schedules) {
		return apperr.Internalf("charger order lists %d chargers, schedules %d", len(r.ChargerOrder), len(r.Schedules))
	}
	horizon := float64(r.TimeHorizon)
	seen := make(map[string]bool, len(r.Schedules))
	for _, id := range r.ChargerOrder {
		if seen[id] {
			return apperr.Internalf("charger %s listed twice", id)
		}
		seen[id] = true
		s, ok := r.Schedules[id]
		if !ok {
			return apperr.Internalf("charger %s missing from schedules", id)
		}
		prev := 0.0
		for i, a := range s.Assignments {
			if math.Abs(a.Start-prev) > timeEpsilon {
				return apperr.Internalf("charger %s assignment %d starts at %v, want %v", id, i, a.Start, prev)
			}
			if !(a.End > a.Start) {
				return apperr.Internalf("charger %s assignment %d ends before it starts", id, i)
			}
			if math.Abs(a.End-a.Start-a.Duration) > timeEpsilon {
				return apperr.Internalf("charger %s assignment %d duration mismatch", id, i)
			}
			prev = a.End
		}
		if math.Abs(s.TotalScheduledTime-prev) > timeEpsilon {
			return apperr.Internalf("charger %s total %v != last end %v", id, s.TotalScheduledTime, prev)
		}
		if s.TotalScheduledTime > horizon+timeEpsilon {
			return apperr.Internalf("charger %s exceeds horizon", id)
		}
	}
	return nil
}
