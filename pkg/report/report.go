// Package report renders schedule results for people and spreadsheets.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kilianp07/truckcharge/core/model"
)

// Format names accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Write renders res in the named format.
func Write(w io.Writer, format string, res model.ScheduleResult) error {
	switch format {
	case FormatText, "":
		return WriteText(w, res)
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatCSV:
		return WriteCSV(w, res)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// WriteText writes one table per charger followed by the fleet summary.
func WriteText(w io.Writer, res model.ScheduleResult) error {
	horizon := float64(res.TimeHorizon)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range res.OrderedSchedules() {
		fmt.Fprintf(tw, "Charger %s\t%d trucks\t%.1f%% utilized\n", s.ChargerID, len(s.Assignments), s.Utilization(horizon))
		for _, a := range s.Assignments {
			fmt.Fprintf(tw, "  %s\t%.2fh - %.2fh\t(%.2fh)\n", a.Truck.ID, a.Start, a.End, a.Duration)
		}
	}
	fmt.Fprintf(tw, "Fully charged\t%d / %d\t%.1f%%\n", res.FullyChargedCount, res.TotalTrucks, res.FleetUtilization())
	if len(res.UnassignedTrucks) > 0 {
		fmt.Fprintf(tw, "Unassigned\t%d\t\n", len(res.UnassignedTrucks))
		for _, t := range res.UnassignedTrucks {
			fmt.Fprintf(tw, "  %s\t%.1f kWh needed\t\n", t.ID, t.RemainingEnergy())
		}
	}
	return tw.Flush()
}

// WriteJSON writes the result as a single JSON document.
func WriteJSON(w io.Writer, res model.ScheduleResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteCSV writes one row per assignment, in charger order. Unassigned trucks
// follow with empty time columns.
func WriteCSV(w io.Writer, res model.ScheduleResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"charger_id", "truck_id", "start_hours", "end_hours", "duration_hours"}); err != nil {
		return err
	}
	for _, s := range res.OrderedSchedules() {
		for _, a := range s.Assignments {
			rec := []string{
				s.ChargerID,
				a.Truck.ID,
				formatHours(a.Start),
				formatHours(a.End),
				formatHours(a.Duration),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	for _, t := range res.UnassignedTrucks {
		if err := cw.Write([]string{"", t.ID, "", "", ""}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
