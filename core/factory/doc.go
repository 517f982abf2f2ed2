// Package factory provides a generic registry that instantiates modules from
// configuration. A module is described by a type name and a map of raw
// settings; each factory decodes the settings into its own struct.
//
//	reg := factory.NewRegistry[scheduler.Scheduler]()
//	_ = reg.Register("greedy", func(conf map[string]any) (scheduler.Scheduler, error) {
//	    var o scheduler.Options
//	    if err := factory.Decode(conf, &o); err != nil {
//	        return nil, err
//	    }
//	    return scheduler.NewGreedy(o), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "greedy"})
package factory
