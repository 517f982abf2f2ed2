// Package energy holds the battery arithmetic used by the scheduler. Every
// function is pure and works on plain kWh, kW and percent values.
package energy

// FullPercent is the state of charge at which a battery is considered full.
const FullPercent = 100.0

// Remaining returns the energy in kWh missing from a battery of the given
// capacity at chargePercent. It is 0 for a full battery and never negative.
func Remaining(capacityKWh, chargePercent float64) float64 {
	if chargePercent >= FullPercent {
		return 0
	}
	return capacityKWh * (1 - chargePercent/FullPercent)
}

// Hours returns the time needed to deliver energyKWh at rateKW.
func Hours(energyKWh, rateKW float64) float64 {
	if energyKWh <= 0 {
		return 0
	}
	return energyKWh / rateKW
}

// TimeToFull combines Remaining and Hours.
func TimeToFull(capacityKWh, chargePercent, rateKW float64) float64 {
	return Hours(Remaining(capacityKWh, chargePercent), rateKW)
}
