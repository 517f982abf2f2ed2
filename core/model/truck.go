package model

import (
	"math"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/energy"
)

// Truck is an electric truck waiting for a charger. It is an immutable value
// built by the data provider.
type Truck struct {
	ID            string  `json:"id" yaml:"id"`
	CapacityKWh   float64 `json:"capacity_kwh" yaml:"capacity_kwh"`     // battery capacity, > 0
	ChargePercent float64 `json:"charge_percent" yaml:"charge_percent"` // state of charge in [0,100]
}

// NewTruck builds a validated Truck.
func NewTruck(id string, capacityKWh, chargePercent float64) (Truck, error) {
	t := Truck{ID: id, CapacityKWh: capacityKWh, ChargePercent: chargePercent}
	if err := t.Validate(); err != nil {
		return Truck{}, err
	}
	return t, nil
}

// Validate checks the truck invariants.
func (t Truck) Validate() error {
	if t.ID == "" {
		return apperr.Invalid("truck id is required")
	}
	// NaN fails both comparisons below, so it is rejected too.
	if !(t.CapacityKWh > 0) || math.IsInf(t.CapacityKWh, 0) {
		return apperr.Invalid("truck %s: battery capacity must be positive and finite", t.ID)
	}
	if !(t.ChargePercent >= 0 && t.ChargePercent <= 100) {
		return apperr.Invalid("truck %s: charge percent must be within [0,100]", t.ID)
	}
	return nil
}

// FullyCharged reports whether the truck needs no charger.
func (t Truck) FullyCharged() bool { return t.ChargePercent >= energy.FullPercent }

// RemainingEnergy returns the energy in kWh needed to reach a full battery.
func (t Truck) RemainingEnergy() float64 {
	return energy.Remaining(t.CapacityKWh, t.ChargePercent)
}
