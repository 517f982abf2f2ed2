package scheduler

import (
	"context"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/model"
)

// Reapply runs the assignment phase again on top of prior, keeping every
// existing assignment frozen. Charger loads start from the prior schedules and
// only the prior unassigned trucks are offered again. chargers must list the
// same chargers, in the same order, as the run that produced prior.
//
// Applied to a result produced by Schedule with the same options, Reapply
// returns an identical result.
func (g *Greedy) Reapply(ctx context.Context, prior model.ScheduleResult, chargers []model.Charger) (model.ScheduleResult, error) {
	if err := Validate(prior.UnassignedTrucks, chargers, prior.TimeHorizon); err != nil {
		return model.ScheduleResult{}, err
	}
	if len(chargers) != len(prior.ChargerOrder) {
		return model.ScheduleResult{}, apperr.Invalid("prior schedule covers %d chargers, got %d", len(prior.ChargerOrder), len(chargers))
	}
	p := newPlan(chargers)
	for i, c := range chargers {
		if prior.ChargerOrder[i] != c.ID {
			return model.ScheduleResult{}, apperr.Invalid("charger %d is %s, prior schedule has %s", i, c.ID, prior.ChargerOrder[i])
		}
		s := prior.Schedules[c.ID]
		p.assignments[i] = append([]model.ScheduleAssignment(nil), s.Assignments...)
		p.usage[i] = s.TotalScheduledTime
	}

	horizon := float64(prior.TimeHorizon)
	var unassigned []model.Truck
	var cands []candidate
	for _, t := range prior.UnassignedTrucks {
		best := BestTime(t, chargers)
		if best > horizon {
			unassigned = append(unassigned, t)
			continue
		}
		cands = append(cands, candidate{truck: t, best: best})
	}
	rejected, err := g.assign(ctx, p, cands, horizon)
	if err != nil {
		return model.ScheduleResult{}, err
	}
	unassigned = append(unassigned, rejected...)
	// prior.FullyChargedCount already includes the frozen assignments.
	return p.result(prior.TimeHorizon, prior.TotalTrucks, prior.FullyChargedCount, unassigned), nil
}
