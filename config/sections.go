package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/truckcharge/core/factory"
	"github.com/kilianp07/truckcharge/core/scheduler"
)

// FleetConfig locates the fleet data file.
type FleetConfig struct {
	// Path is a YAML or JSON fleet file.
	Path string `json:"path"`
	// HorizonHours overrides the horizon of the file when positive.
	HorizonHours int `json:"horizon_hours"`
}

// Validate checks mandatory fields.
func (c FleetConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.HorizonHours < 0 {
		return fmt.Errorf("horizon_hours must not be negative")
	}
	return nil
}

// SchedulerConfig selects the scheduling strategy.
type SchedulerConfig struct {
	Strategy    string `json:"strategy"`
	Parallelism int    `json:"parallelism"`
	// BoundMaxPairs skips the LP upper bound above this many truck-charger
	// pairs. Zero keeps the scheduler default, negative disables the bound.
	BoundMaxPairs int `json:"bound_max_pairs"`
}

// SetDefaults applies sane defaults.
func (c *SchedulerConfig) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = scheduler.StrategyGreedy
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 1
	}
}

// Validate checks the strategy is registered.
func (c SchedulerConfig) Validate() error {
	for _, s := range scheduler.Strategies() {
		if s == c.Strategy {
			return nil
		}
	}
	return fmt.Errorf("unknown strategy %s", c.Strategy)
}

// Module converts the section to the registry form used by scheduler.New.
func (c SchedulerConfig) Module() factory.ModuleConfig {
	return factory.ModuleConfig{
		Type: c.Strategy,
		Conf: map[string]any{"parallelism": c.Parallelism},
	}
}

// ServeConfig tunes the periodic mode.
type ServeConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *ServeConfig) SetDefaults() {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 300
	}
}

// Validate checks the interval.
func (c ServeConfig) Validate() error {
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive")
	}
	return nil
}

// Interval returns the tick period.
func (c ServeConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
