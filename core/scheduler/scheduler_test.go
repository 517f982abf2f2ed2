package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/model"
)

func truck(id string, capacity, percent float64) model.Truck {
	return model.Truck{ID: id, CapacityKWh: capacity, ChargePercent: percent}
}

func charger(id string, rate float64) model.Charger {
	return model.Charger{ID: id, RateKW: rate}
}

func run(t *testing.T, trucks []model.Truck, chargers []model.Charger, horizon int) model.ScheduleResult {
	t.Helper()
	res, err := NewGreedy(Options{}).Schedule(context.Background(), trucks, chargers, horizon)
	require.NoError(t, err)
	require.NoError(t, res.Validate())
	return res
}

func ids(trucks []model.Truck) []string {
	out := make([]string, len(trucks))
	for i, t := range trucks {
		out[i] = t.ID
	}
	return out
}

func assignedIDs(s model.ChargerSchedule) []string {
	out := make([]string, len(s.Assignments))
	for i, a := range s.Assignments {
		out[i] = a.Truck.ID
	}
	return out
}

func TestScheduleSingleTruck(t *testing.T) {
	res := run(t, []model.Truck{truck("t1", 100, 50)}, []model.Charger{charger("c1", 50)}, 8)
	s := res.Schedules["c1"]
	require.Len(t, s.Assignments, 1)
	a := s.Assignments[0]
	assert.Equal(t, "t1", a.Truck.ID)
	assert.InDelta(t, 0.0, a.Start, 1e-9)
	assert.InDelta(t, 1.0, a.End, 1e-9)
	assert.InDelta(t, 1.0, a.Duration, 1e-9)
	assert.Equal(t, 1, res.FullyChargedCount)
	assert.Empty(t, res.UnassignedTrucks)
}

func TestScheduleShortestJobFirst(t *testing.T) {
	trucks := []model.Truck{
		truck("two-hours", 100, 0),
		truck("one-hour", 50, 0),
		truck("ninety-minutes", 75, 0),
	}
	res := run(t, trucks, []model.Charger{charger("c1", 50)}, 8)
	s := res.Schedules["c1"]
	assert.Equal(t, []string{"one-hour", "ninety-minutes", "two-hours"}, assignedIDs(s))
	want := [][2]float64{{0, 1}, {1, 2.5}, {2.5, 4.5}}
	for i, w := range want {
		assert.InDelta(t, w[0], s.Assignments[i].Start, 1e-9)
		assert.InDelta(t, w[1], s.Assignments[i].End, 1e-9)
	}
	assert.InDelta(t, 4.5, s.TotalScheduledTime, 1e-9)
	assert.Equal(t, 3, res.FullyChargedCount)
}

func TestScheduleSpreadsAcrossChargers(t *testing.T) {
	trucks := []model.Truck{truck("a", 200, 0), truck("b", 200, 0)}
	res := run(t, trucks, []model.Charger{charger("c1", 50), charger("c2", 50)}, 8)
	assert.Equal(t, []string{"a"}, assignedIDs(res.Schedules["c1"]))
	assert.Equal(t, []string{"b"}, assignedIDs(res.Schedules["c2"]))
	assert.InDelta(t, 4.0, res.Schedules["c1"].TotalScheduledTime, 1e-9)
	assert.InDelta(t, 4.0, res.Schedules["c2"].TotalScheduledTime, 1e-9)
	assert.Equal(t, 2, res.FullyChargedCount)
}

func TestScheduleRejectsTruckBeyondHorizon(t *testing.T) {
	trucks := []model.Truck{truck("ten-hours", 500, 0), truck("four-hours", 200, 0)}
	res := run(t, trucks, []model.Charger{charger("c1", 50)}, 8)
	assert.Equal(t, []string{"ten-hours"}, ids(res.UnassignedTrucks))
	assert.Equal(t, []string{"four-hours"}, assignedIDs(res.Schedules["c1"]))
	assert.Equal(t, 1, res.FullyChargedCount)
}

func TestSchedulePrefersFasterCharger(t *testing.T) {
	res := run(t, []model.Truck{truck("t1", 200, 0)}, []model.Charger{charger("slow", 50), charger("fast", 100)}, 8)
	assert.Empty(t, res.Schedules["slow"].Assignments)
	require.Len(t, res.Schedules["fast"].Assignments, 1)
	assert.InDelta(t, 2.0, res.Schedules["fast"].Assignments[0].End, 1e-9)
}

func TestScheduleContentionReject(t *testing.T) {
	// Both trucks fit alone, but the second cannot follow the first.
	trucks := []model.Truck{truck("five", 250, 0), truck("three", 150, 0)}
	res := run(t, trucks, []model.Charger{charger("c1", 50)}, 6)
	assert.Equal(t, []string{"three"}, assignedIDs(res.Schedules["c1"]))
	assert.Equal(t, []string{"five"}, ids(res.UnassignedTrucks))
}

func TestScheduleUnassignedOrder(t *testing.T) {
	// Triage rejects come first in input order, then contention rejects.
	trucks := []model.Truck{
		truck("contended", 250, 0),
		truck("huge", 1000, 0),
		truck("short", 150, 0),
	}
	res := run(t, trucks, []model.Charger{charger("c1", 50)}, 6)
	assert.Equal(t, []string{"huge", "contended"}, ids(res.UnassignedTrucks))
}

func TestScheduleChargerTieBreak(t *testing.T) {
	res := run(t, []model.Truck{truck("t1", 100, 0)}, []model.Charger{charger("b", 50), charger("a", 50)}, 8)
	assert.Len(t, res.Schedules["b"].Assignments, 1)
	assert.Empty(t, res.Schedules["a"].Assignments)
}

func TestScheduleStableTies(t *testing.T) {
	trucks := []model.Truck{truck("x", 100, 0), truck("y", 100, 0), truck("z", 100, 0)}
	res := run(t, trucks, []model.Charger{charger("c1", 50)}, 8)
	assert.Equal(t, []string{"x", "y", "z"}, assignedIDs(res.Schedules["c1"]))
}

func TestScheduleBoundaries(t *testing.T) {
	chargers := []model.Charger{charger("c1", 50), charger("c2", 22)}

	t.Run("no trucks", func(t *testing.T) {
		res := run(t, nil, chargers, 8)
		assert.Equal(t, 0, res.TotalTrucks)
		assert.Equal(t, 0, res.FullyChargedCount)
		assert.Empty(t, res.UnassignedTrucks)
		require.Len(t, res.Schedules, 2)
		for _, s := range res.Schedules {
			assert.Empty(t, s.Assignments)
			assert.Equal(t, 0.0, s.TotalScheduledTime)
		}
	})

	t.Run("all full", func(t *testing.T) {
		res := run(t, []model.Truck{truck("a", 100, 100), truck("b", 80, 100)}, chargers, 8)
		assert.Equal(t, 2, res.FullyChargedCount)
		assert.Equal(t, 0, res.AssignedCount())
		assert.Empty(t, res.UnassignedTrucks)
	})
}

func TestSchedulePreconditions(t *testing.T) {
	g := NewGreedy(Options{})
	ctx := context.Background()
	trucks := []model.Truck{truck("t1", 100, 50)}

	_, err := g.Schedule(ctx, trucks, []model.Charger{charger("c1", 50)}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "time horizon must be positive")

	_, err = g.Schedule(ctx, trucks, nil, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one charger required")

	_, err = g.Schedule(ctx, trucks, []model.Charger{charger("c1", 0)}, 8)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	_, err = g.Schedule(ctx, trucks, []model.Charger{charger("c1", math.Inf(1))}, 8)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	_, err = g.Schedule(ctx, []model.Truck{truck("t1", math.Inf(1), 10)}, []model.Charger{charger("c1", 50)}, 8)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	_, err = g.Schedule(ctx, []model.Truck{truck("t1", 100, 120)}, []model.Charger{charger("c1", 50)}, 8)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	_, err = g.Schedule(ctx, []model.Truck{truck("t1", 100, 10), truck("t1", 50, 10)}, []model.Charger{charger("c1", 50)}, 8)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	_, err = g.Schedule(ctx, trucks, []model.Charger{charger("c1", 50), charger("c1", 22)}, 8)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
}

func TestScheduleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGreedy(Options{}).Schedule(ctx, []model.Truck{truck("t1", 100, 50)}, []model.Charger{charger("c1", 50)}, 8)
	assert.ErrorIs(t, err, context.Canceled)
}

// fleet returns a mixed fleet used by the property tests.
func fleet() ([]model.Truck, []model.Charger) {
	var trucks []model.Truck
	for i := 0; i < 40; i++ {
		capacity := float64(100 + (i*37)%400)
		percent := float64((i * 13) % 101)
		trucks = append(trucks, truck(fmt.Sprintf("t%02d", i), capacity, percent))
	}
	chargers := []model.Charger{charger("c1", 50), charger("c2", 150), charger("c3", 22), charger("c4", 50)}
	return trucks, chargers
}

func TestScheduleInvariants(t *testing.T) {
	trucks, chargers := fleet()
	for _, horizon := range []int{1, 4, 8, 24} {
		res := run(t, trucks, chargers, horizon)
		assert.Equal(t, len(trucks), res.TotalTrucks)
		assert.Equal(t, res.TotalTrucks, res.FullyChargedCount+len(res.UnassignedTrucks))
		assert.Len(t, res.Schedules, len(chargers))
		for _, c := range chargers {
			s, ok := res.Schedules[c.ID]
			require.True(t, ok)
			assert.LessOrEqual(t, s.TotalScheduledTime, float64(horizon))
		}

		// Every truck lands in exactly one bucket.
		seen := map[string]int{}
		for _, s := range res.Schedules {
			for _, a := range s.Assignments {
				seen[a.Truck.ID]++
			}
		}
		for _, u := range res.UnassignedTrucks {
			seen[u.ID]++
		}
		for _, tr := range trucks {
			if tr.FullyCharged() {
				seen[tr.ID]++
			}
		}
		for _, tr := range trucks {
			assert.Equal(t, 1, seen[tr.ID], "truck %s", tr.ID)
		}
	}
}

func TestScheduleDeterministic(t *testing.T) {
	trucks, chargers := fleet()
	first := run(t, trucks, chargers, 8)
	second := run(t, trucks, chargers, 8)
	assert.Equal(t, first, second)
}

func TestScheduleParallelMatchesSequential(t *testing.T) {
	trucks, chargers := fleet()
	seq := run(t, trucks, chargers, 8)
	par, err := NewGreedy(Options{Parallelism: 8}).Schedule(context.Background(), trucks, chargers, 8)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestScheduleMonotoneInHorizon(t *testing.T) {
	mixedTrucks, mixedChargers := fleet()
	scenarios := map[string]struct {
		trucks   []model.Truck
		chargers []model.Charger
	}{
		"one charger": {
			trucks:   []model.Truck{truck("a", 100, 0), truck("b", 50, 0), truck("c", 75, 0)},
			chargers: []model.Charger{charger("c1", 50)},
		},
		"two chargers": {
			trucks:   []model.Truck{truck("a", 200, 0), truck("b", 200, 0), truck("c", 500, 0)},
			chargers: []model.Charger{charger("c1", 50), charger("c2", 50)},
		},
		"mixed fleet": {
			trucks:   mixedTrucks,
			chargers: mixedChargers,
		},
	}
	for name, sc := range scenarios {
		t.Run(name, func(t *testing.T) {
			prev := map[string]bool{}
			prevCount := 0
			for h := 1; h <= 30; h++ {
				res := run(t, sc.trucks, sc.chargers, h)
				cur := map[string]bool{}
				for _, s := range res.Schedules {
					for _, a := range s.Assignments {
						cur[a.Truck.ID] = true
					}
				}
				for id := range prev {
					assert.True(t, cur[id], "truck %s lost at horizon %d", id, h)
				}
				assert.GreaterOrEqual(t, res.FullyChargedCount, prevCount, "horizon %d", h)
				prev, prevCount = cur, res.FullyChargedCount
			}
		})
	}
}

func TestInputOrderStrategy(t *testing.T) {
	trucks := []model.Truck{truck("five", 250, 0), truck("three", 150, 0)}
	res, err := NewGreedy(Options{Order: InputOrder}).Schedule(context.Background(), trucks, []model.Charger{charger("c1", 50)}, 6)
	require.NoError(t, err)
	require.NoError(t, res.Validate())
	assert.Equal(t, []string{"five"}, assignedIDs(res.Schedules["c1"]))
	assert.Equal(t, []string{"three"}, ids(res.UnassignedTrucks))
}

func TestBestTime(t *testing.T) {
	tr := truck("t1", 200, 0)
	assert.InDelta(t, 2.0, BestTime(tr, []model.Charger{charger("a", 50), charger("b", 100)}), 1e-9)
}
