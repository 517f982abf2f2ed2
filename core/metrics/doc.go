// Package metrics defines the sinks that record scheduling runs. Concrete
// sinks live in infra/metrics and register themselves by type name.
package metrics
