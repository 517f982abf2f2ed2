// Package fleet defines the data provider boundary: where trucks, chargers and
// the scheduling horizon come from.
package fleet

import (
	"context"

	"github.com/kilianp07/truckcharge/core/model"
)

// Snapshot is the input of one scheduling run.
type Snapshot struct {
	Trucks       []model.Truck   `json:"trucks" yaml:"trucks"`
	Chargers     []model.Charger `json:"chargers" yaml:"chargers"`
	HorizonHours int             `json:"horizon_hours" yaml:"horizon_hours"`
}

// Validate checks every entity. Invalid values are InvalidArgument errors so
// they are not mistaken for an unreachable data source.
func (s Snapshot) Validate() error {
	for _, t := range s.Trucks {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, c := range s.Chargers {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Provider supplies fleet snapshots. Failures to obtain the data are reported
// as apperr.DataUnavailable.
type Provider interface {
	Load(ctx context.Context) (Snapshot, error)
}

// Static serves a fixed snapshot.
type Static struct {
	Snapshot Snapshot
}

// Load returns a copy of the configured snapshot.
func (s Static) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	out := Snapshot{
		Trucks:       append([]model.Truck(nil), s.Snapshot.Trucks...),
		Chargers:     append([]model.Charger(nil), s.Snapshot.Chargers...),
		HorizonHours: s.Snapshot.HorizonHours,
	}
	return out, out.Validate()
}

// WithHorizon overrides the horizon of the snapshots returned by p when hours
// is positive.
func WithHorizon(p Provider, hours int) Provider {
	if hours <= 0 {
		return p
	}
	return horizonOverride{p: p, hours: hours}
}

type horizonOverride struct {
	p     Provider
	hours int
}

func (h horizonOverride) Load(ctx context.Context) (Snapshot, error) {
	s, err := h.p.Load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s.HorizonHours = h.hours
	return s, nil
}
