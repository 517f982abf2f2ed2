package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/model"
)

// ChargerMessage is the retained plan published for one charger.
type ChargerMessage struct {
	RunID       string              `json:"run_id"`
	ChargerID   string              `json:"charger_id"`
	Horizon     int                 `json:"horizon_hours"`
	Utilization float64             `json:"utilization_percent"`
	Assignments []AssignmentMessage `json:"assignments"`
	Timestamp   int64               `json:"timestamp"`
}

// AssignmentMessage is one slot of a ChargerMessage.
type AssignmentMessage struct {
	TruckID  string  `json:"truck_id"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// SummaryMessage describes the run as a whole.
type SummaryMessage struct {
	RunID            string   `json:"run_id"`
	FullyCharged     int      `json:"fully_charged"`
	TotalTrucks      int      `json:"total_trucks"`
	FleetUtilization float64  `json:"fleet_utilization_percent"`
	Unassigned       []string `json:"unassigned"`
	Timestamp        int64    `json:"timestamp"`
}

// ValidTopicLevel reports whether id can be used as a single topic level.
// Separators and wildcards would change the topic shape.
func ValidTopicLevel(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/+#\x00")
}

// ChargerTopic returns the topic carrying the plan of chargerID.
func (p *Publisher) ChargerTopic(chargerID string) string {
	return p.prefix + "/chargers/" + chargerID
}

// SummaryTopic returns the topic carrying run summaries.
func (p *Publisher) SummaryTopic() string {
	return p.prefix + "/summary"
}

// PublishSchedule sends one message per charger, in charger order, then the
// run summary. It stops at the first failed publish. Charger IDs that are
// not valid topic levels are rejected before anything is sent.
func (p *Publisher) PublishSchedule(ctx context.Context, runID string, res model.ScheduleResult) error {
	for _, id := range res.ChargerOrder {
		if !ValidTopicLevel(id) {
			return apperr.Invalid("charger id %q cannot be used as an mqtt topic level", id)
		}
	}
	now := time.Now().UnixMilli()
	horizon := float64(res.TimeHorizon)
	for _, s := range res.OrderedSchedules() {
		msg := ChargerMessage{
			RunID:       runID,
			ChargerID:   s.ChargerID,
			Horizon:     res.TimeHorizon,
			Utilization: s.Utilization(horizon),
			Assignments: make([]AssignmentMessage, 0, len(s.Assignments)),
			Timestamp:   now,
		}
		for _, a := range s.Assignments {
			msg.Assignments = append(msg.Assignments, AssignmentMessage{
				TruckID: a.Truck.ID, Start: a.Start, End: a.End, Duration: a.Duration,
			})
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := p.publish(ctx, p.ChargerTopic(s.ChargerID), payload); err != nil {
			return err
		}
	}

	summary := SummaryMessage{
		RunID:            runID,
		FullyCharged:     res.FullyChargedCount,
		TotalTrucks:      res.TotalTrucks,
		FleetUtilization: res.FleetUtilization(),
		Unassigned:       make([]string, 0, len(res.UnassignedTrucks)),
		Timestamp:        now,
	}
	for _, t := range res.UnassignedTrucks {
		summary.Unassigned = append(summary.Unassigned, t.ID)
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	if err := p.publish(ctx, p.SummaryTopic(), payload); err != nil {
		return err
	}
	p.logger.Infof("published schedule %s for %d chargers", runID, len(res.ChargerOrder))
	return nil
}
