package scheduler

import (
	"errors"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/factory"
)

// Strategy names accepted by New.
const (
	StrategyGreedy     = "greedy"
	StrategyInputOrder = "input-order"
)

var registry = factory.NewRegistry[Scheduler]()

func init() {
	_ = registry.Register(StrategyGreedy, greedyFactory(ShortestFirst))
	_ = registry.Register(StrategyInputOrder, greedyFactory(InputOrder))
}

func greedyFactory(order Order) factory.Factory[Scheduler] {
	return func(conf map[string]any) (Scheduler, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, apperr.Invalid("scheduler options: %v", err)
		}
		o.Order = order
		return NewGreedy(o), nil
	}
}

// Register makes an additional strategy available to New.
func Register(name string, f factory.Factory[Scheduler]) error {
	return registry.Register(name, f)
}

// New builds the strategy described by cfg. An unknown strategy name is an
// InvalidArgument error.
func New(cfg factory.ModuleConfig) (Scheduler, error) {
	s, err := registry.Create(cfg)
	if errors.Is(err, factory.ErrUnknownType) {
		return nil, apperr.Invalid("scheduler strategy: %v", err)
	}
	return s, err
}

// Strategies lists the registered strategy names.
func Strategies() []string { return registry.Names() }
