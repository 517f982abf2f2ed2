package scheduler

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/model"
)

// Scheduler produces a charging schedule for a fleet.
type Scheduler interface {
	Schedule(ctx context.Context, trucks []model.Truck, chargers []model.Charger, horizonHours int) (model.ScheduleResult, error)
}

// Func adapts a plain function to the Scheduler interface.
type Func func(ctx context.Context, trucks []model.Truck, chargers []model.Charger, horizonHours int) (model.ScheduleResult, error)

// Schedule calls f.
func (f Func) Schedule(ctx context.Context, trucks []model.Truck, chargers []model.Charger, horizonHours int) (model.ScheduleResult, error) {
	return f(ctx, trucks, chargers, horizonHours)
}

// Order selects the sequence in which trucks are offered to the chargers.
type Order int

const (
	// ShortestFirst processes trucks by ascending best charge time.
	ShortestFirst Order = iota
	// InputOrder processes trucks in the order they were supplied.
	InputOrder
)

// Options tune the greedy scheduler.
type Options struct {
	Order Order `json:"-"`
	// Parallelism bounds the goroutines computing best charge times.
	// Values below 2 compute them sequentially.
	Parallelism int `json:"parallelism"`
}

// Greedy is the list scheduler. The zero value schedules shortest job first
// on a single goroutine.
type Greedy struct {
	opts Options
}

// NewGreedy returns a Greedy scheduler using opts.
func NewGreedy(opts Options) *Greedy { return &Greedy{opts: opts} }

type candidate struct {
	truck model.Truck
	best  float64
}

// Schedule implements Scheduler. Invalid input is rejected with an
// InvalidArgument error before any truck is considered.
func (g *Greedy) Schedule(ctx context.Context, trucks []model.Truck, chargers []model.Charger, horizonHours int) (model.ScheduleResult, error) {
	if err := Validate(trucks, chargers, horizonHours); err != nil {
		return model.ScheduleResult{}, err
	}
	horizon := float64(horizonHours)

	var needs []model.Truck
	full := 0
	for _, t := range trucks {
		if t.FullyCharged() {
			full++
			continue
		}
		needs = append(needs, t)
	}

	best, err := bestTimes(ctx, needs, chargers, g.opts.Parallelism)
	if err != nil {
		return model.ScheduleResult{}, err
	}

	// Trucks that cannot finish even on an idle charger are rejected up front.
	var unassigned []model.Truck
	eligible := make([]candidate, 0, len(needs))
	for i, t := range needs {
		if best[i] > horizon {
			unassigned = append(unassigned, t)
			continue
		}
		eligible = append(eligible, candidate{truck: t, best: best[i]})
	}

	p := newPlan(chargers)
	rejected, err := g.assign(ctx, p, eligible, horizon)
	if err != nil {
		return model.ScheduleResult{}, err
	}
	unassigned = append(unassigned, rejected...)
	return p.result(horizonHours, len(trucks), full, unassigned), nil
}

// assign offers each candidate to the plan and returns those no charger could
// fit. Assignment order matters: every placement raises a charger's load.
func (g *Greedy) assign(ctx context.Context, p *plan, cands []candidate, horizon float64) ([]model.Truck, error) {
	if g.opts.Order == ShortestFirst {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].best < cands[j].best })
	}
	var rejected []model.Truck
	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !p.place(c.truck, horizon) {
			rejected = append(rejected, c.truck)
		}
	}
	return rejected, nil
}

// BestTime returns the shortest time-to-full of t over all chargers,
// ignoring their load.
func BestTime(t model.Truck, chargers []model.Charger) float64 {
	best := 0.0
	for i, c := range chargers {
		d := c.TimeToFull(t)
		if i == 0 || d < best {
			best = d
		}
	}
	return best
}

func bestTimes(ctx context.Context, trucks []model.Truck, chargers []model.Charger, parallelism int) ([]float64, error) {
	out := make([]float64, len(trucks))
	if parallelism < 2 || len(trucks) < 2 {
		for i, t := range trucks {
			out[i] = BestTime(t, chargers)
		}
		return out, nil
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)
	for i := range trucks {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = BestTime(trucks[i], chargers)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks the scheduling preconditions and every entity invariant.
func Validate(trucks []model.Truck, chargers []model.Charger, horizonHours int) error {
	if horizonHours <= 0 {
		return apperr.Invalid("time horizon must be positive")
	}
	if len(chargers) == 0 {
		return apperr.Invalid("at least one charger required")
	}
	seen := make(map[string]bool, len(chargers))
	for _, c := range chargers {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.ID] {
			return apperr.Invalid("duplicate charger id %s", c.ID)
		}
		seen[c.ID] = true
	}
	seen = make(map[string]bool, len(trucks))
	for _, t := range trucks {
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.ID] {
			return apperr.Invalid("duplicate truck id %s", t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}
