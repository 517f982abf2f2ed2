package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/truckcharge/core/metrics"
	"github.com/kilianp07/truckcharge/infra/logger"
)

// InfluxConfig holds the connection settings of an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes runs to InfluxDB: one schedule_run point per run and one
// charger_schedule point per charger.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A URL ending in
// /api/v2/write is accepted and trimmed to the server base.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the server and returns a NopSink when the
// health check fails, so an absent InfluxDB never blocks scheduling.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes the run summary and the per-charger load.
func (s *InfluxSink) RecordRun(rec coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res := rec.Result
	run := write.NewPointWithMeasurement("schedule_run").
		AddTag("run_id", rec.RunID).
		AddTag("strategy", rec.Strategy).
		AddField("fully_charged", res.FullyChargedCount).
		AddField("total_trucks", res.TotalTrucks).
		AddField("unassigned", len(res.UnassignedTrucks)).
		AddField("horizon_hours", res.TimeHorizon).
		AddField("fleet_utilization", round3(res.FleetUtilization())).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(rec.Time)
	if rec.UpperBound >= 0 {
		run.AddField("upper_bound", rec.UpperBound)
	}
	points := []*write.Point{run}
	for _, cs := range res.OrderedSchedules() {
		p := write.NewPointWithMeasurement("charger_schedule").
			AddTag("run_id", rec.RunID).
			AddTag("charger_id", cs.ChargerID).
			AddField("assignments", len(cs.Assignments)).
			AddField("scheduled_hours", round3(cs.TotalScheduledTime)).
			AddField("utilization", round3(cs.Utilization(float64(res.TimeHorizon)))).
			SetTime(rec.Time)
		points = append(points, p)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordFailure writes a schedule_failure point.
func (s *InfluxSink) RecordFailure(rec coremetrics.FailureRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_failure").
		AddTag("run_id", rec.RunID).
		AddTag("strategy", rec.Strategy).
		AddTag("kind", rec.Kind.String()).
		AddField("count", 1).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
