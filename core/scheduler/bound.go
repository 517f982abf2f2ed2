package scheduler

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/model"
)

// DefaultBoundMaxPairs caps the (truck, charger) pairs a caller should hand to
// UpperBound on a latency-sensitive path. The dense simplex grows quickly
// with the number of rows.
const DefaultBoundMaxPairs = 400

type pairing struct {
	truck   int
	charger int
	hours   float64
}

// lpSolve points to the simplex call on a problem already in standard form.
// basic is a feasible initial basis. Tests may replace it.
var lpSolve = func(c []float64, a mat.Matrix, b []float64, basic []int) (float64, error) {
	opt, _, err := lp.Simplex(c, a, b, 1e-7, basic)
	return opt, err
}

// UpperBound returns a number of fully charged trucks that no schedule can
// exceed. It solves the LP relaxation of the assignment problem:
//
//	maximize   Σ x[t,c]
//	subject to Σ_c x[t,c] <= 1             for every truck
//	           Σ_t x[t,c] * hours[t,c] <= H for every charger
//	           x >= 0, x[t,c] = 0 when hours[t,c] > H
//
// and adds the trucks that are already full. The simplex cannot be
// interrupted; when ctx is done UpperBound returns ctx.Err() without waiting
// for it.
func UpperBound(ctx context.Context, trucks []model.Truck, chargers []model.Charger, horizonHours int) (int, error) {
	if err := Validate(trucks, chargers, horizonHours); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	horizon := float64(horizonHours)

	full := 0
	var pairs []pairing
	truckRow := map[int]int{}
	for ti, t := range trucks {
		if t.FullyCharged() {
			full++
			continue
		}
		for ci, c := range chargers {
			d := c.TimeToFull(t)
			if d > horizon {
				continue
			}
			if _, ok := truckRow[ti]; !ok {
				truckRow[ti] = len(truckRow)
			}
			pairs = append(pairs, pairing{truck: ti, charger: ci, hours: d})
		}
	}
	if len(pairs) == 0 {
		return full, nil
	}

	// Standard form A = [G | I], one slack per row. x >= 0 is implied and the
	// slacks give a feasible starting basis since every right-hand side is
	// non-negative.
	n := len(pairs)
	nTrucks := len(truckRow)
	rows := nTrucks + len(chargers)
	a := mat.NewDense(rows, n+rows, nil)
	b := make([]float64, rows)
	c := make([]float64, n+rows)
	for j, p := range pairs {
		c[j] = -1
		a.Set(truckRow[p.truck], j, 1)
		a.Set(nTrucks+p.charger, j, p.hours)
	}
	basic := make([]int, rows)
	for i := 0; i < rows; i++ {
		a.Set(i, n+i, 1)
		basic[i] = n + i
		if i < nTrucks {
			b[i] = 1
		} else {
			b[i] = horizon
		}
	}

	type solved struct {
		opt float64
		err error
	}
	solve := lpSolve
	done := make(chan solved, 1)
	go func() {
		opt, err := solve(c, a, b, basic)
		done <- solved{opt, err}
	}()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case s := <-done:
		if s.err != nil {
			return 0, apperr.Internalf("solve relaxation: %v", s.err)
		}
		return full + int(math.Floor(-s.opt+1e-6)), nil
	}
}

// BoundPairs returns the number of (truck, charger) pairs UpperBound may
// consider for the fleet. Pairs that exceed the horizon are still counted.
func BoundPairs(trucks []model.Truck, chargers []model.Charger) int {
	pending := 0
	for _, t := range trucks {
		if !t.FullyCharged() {
			pending++
		}
	}
	return pending * len(chargers)
}
