// Package export serializes the completed-customer log.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/queueworks/station-sim/pkg/models"
)

var csvHeader = []string{
	"customer_id",
	"arrival_time",
	"start_time",
	"finish_time",
	"wait_time",
	"service_time",
	"server_id",
	"kind",
	"skill",
	"estimated_wait",
}

// WriteCSV writes the completed-customer log to w with a header row.
// Times are minutes with two decimal places.
func WriteCSV(w io.Writer, rows []models.CompletedService) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.CustomerID, 10),
			formatMinutes(r.ArrivalTime),
			formatMinutes(r.StartTime),
			formatMinutes(r.FinishTime),
			formatMinutes(r.WaitTime),
			formatMinutes(r.ServiceTime),
			strconv.Itoa(r.ServerID),
			string(r.Kind),
			string(r.Skill),
			formatMinutes(r.EstimatedWait),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatMinutes(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
