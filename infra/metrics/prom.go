package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/truckcharge/core/metrics"
)

// PromSink exposes scheduling runs as Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	trucks      *prometheus.GaugeVec
	utilization *prometheus.GaugeVec
	gap         *prometheus.GaugeVec
	duration    *prometheus.HistogramVec
}

// NewPromSink registers scheduling metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer
// defaults to the global Prometheus registerer. Metrics already registered
// by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_runs_total",
		Help: "Scheduling runs by strategy and outcome",
	}, []string{"strategy", "outcome"})
	trucks := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_trucks",
		Help: "Trucks in the last schedule by status",
	}, []string{"strategy", "status"})
	utilization := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "charger_utilization_percent",
		Help: "Share of the horizon each charger is busy in the last schedule",
	}, []string{"charger_id"})
	gap := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_upper_bound_gap",
		Help: "Fully charged trucks missing compared to the LP upper bound",
	}, []string{"strategy"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_run_duration_seconds",
		Help:    "Wall time of a scheduling run",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"strategy"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if trucks, err = register(reg, trucks); err != nil {
		return nil, err
	}
	if utilization, err = register(reg, utilization); err != nil {
		return nil, err
	}
	if gap, err = register(reg, gap); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, trucks: trucks, utilization: utilization, gap: gap, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates the gauges from the result and counts the run.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	res := rec.Result
	s.runs.WithLabelValues(rec.Strategy, "success").Inc()
	assigned := res.AssignedCount()
	s.trucks.WithLabelValues(rec.Strategy, "assigned").Set(float64(assigned))
	s.trucks.WithLabelValues(rec.Strategy, "already_full").Set(float64(res.FullyChargedCount - assigned))
	s.trucks.WithLabelValues(rec.Strategy, "unassigned").Set(float64(len(res.UnassignedTrucks)))
	for _, cs := range res.OrderedSchedules() {
		s.utilization.WithLabelValues(cs.ChargerID).Set(cs.Utilization(float64(res.TimeHorizon)))
	}
	if rec.UpperBound >= 0 {
		s.gap.WithLabelValues(rec.Strategy).Set(float64(rec.UpperBound - res.FullyChargedCount))
	}
	s.duration.WithLabelValues(rec.Strategy).Observe(rec.Duration.Seconds())
	return nil
}

// RecordFailure counts a failed run labelled with the error kind.
func (s *PromSink) RecordFailure(rec coremetrics.FailureRecord) error {
	s.runs.WithLabelValues(rec.Strategy, rec.Kind.String()).Inc()
	return nil
}
