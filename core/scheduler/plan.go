package scheduler

import "github.com/kilianp07/truckcharge/core/model"

// plan tracks the committed load of every charger during one run. It is never
// shared between runs.
type plan struct {
	chargers    []model.Charger
	usage       []float64
	assignments [][]model.ScheduleAssignment
	placed      int
}

func newPlan(chargers []model.Charger) *plan {
	return &plan{
		chargers:    chargers,
		usage:       make([]float64, len(chargers)),
		assignments: make([][]model.ScheduleAssignment, len(chargers)),
	}
}

// place puts t on the charger finishing it earliest within horizon. Ties go
// to the charger supplied first. It returns false when no charger fits.
func (p *plan) place(t model.Truck, horizon float64) bool {
	idx := -1
	var end, dur float64
	for i, c := range p.chargers {
		d := c.TimeToFull(t)
		e := p.usage[i] + d
		if e > horizon {
			continue
		}
		if idx < 0 || e < end {
			idx, end, dur = i, e, d
		}
	}
	if idx < 0 {
		return false
	}
	p.assignments[idx] = append(p.assignments[idx], model.ScheduleAssignment{
		Truck:    t,
		Start:    p.usage[idx],
		End:      end,
		Duration: dur,
	})
	p.usage[idx] = end
	p.placed++
	return true
}

func (p *plan) result(horizonHours, total, alreadyFull int, unassigned []model.Truck) model.ScheduleResult {
	res := model.ScheduleResult{
		Schedules:         make(map[string]model.ChargerSchedule, len(p.chargers)),
		ChargerOrder:      make([]string, len(p.chargers)),
		FullyChargedCount: alreadyFull + p.placed,
		TotalTrucks:       total,
		TimeHorizon:       horizonHours,
		UnassignedTrucks:  unassigned,
	}
	for i, c := range p.chargers {
		res.ChargerOrder[i] = c.ID
		res.Schedules[c.ID] = model.ChargerSchedule{
			ChargerID:          c.ID,
			Assignments:        p.assignments[i],
			TotalScheduledTime: p.usage[i],
		}
	}
	return res
}
