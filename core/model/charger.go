package model

import (
	"math"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/energy"
)

// Charger is a charging station delivering a constant power.
type Charger struct {
	ID     string  `json:"id" yaml:"id"`
	RateKW float64 `json:"rate_kw" yaml:"rate_kw"`
}

// NewCharger builds a validated Charger.
func NewCharger(id string, rateKW float64) (Charger, error) {
	c := Charger{ID: id, RateKW: rateKW}
	if err := c.Validate(); err != nil {
		return Charger{}, err
	}
	return c, nil
}

// Validate checks the charger invariants.
func (c Charger) Validate() error {
	if c.ID == "" {
		return apperr.Invalid("charger id is required")
	}
	if !(c.RateKW > 0) || math.IsInf(c.RateKW, 0) {
		return apperr.Invalid("charger %s: charging rate must be positive and finite", c.ID)
	}
	return nil
}

// TimeToFull returns the hours needed to bring t to full charge on c.
func (c Charger) TimeToFull(t Truck) float64 {
	return energy.Hours(t.RemainingEnergy(), c.RateKW)
}
