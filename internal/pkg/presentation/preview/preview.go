package preview

import (
	"fmt"
	"io"

	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/csvfiles"
	"github.com/diwise/iot-energy-datagen/pkg/types"
	"github.com/olekukonko/tablewriter"
)

const DefaultHeadRows int = 5

// Print writes the confirmation banner followed by the first headRows energy
// logs and the complete metadata and schedule tables.
func Print(w io.Writer, ds types.Dataset, dir string, files []string, headRows int) error {
	if headRows < 0 {
		headRows = DefaultHeadRows
	}

	if _, err := fmt.Fprintf(w, "CSV files generated in %s:\n", dir); err != nil {
		return err
	}
	for _, f := range files {
		if _, err := fmt.Fprintf(w, " - %s\n", f); err != nil {
			return err
		}
	}

	logs := ds.EnergyLogs
	if len(logs) > headRows {
		logs = logs[:headRows]
	}

	sections := []struct {
		title   string
		header  []string
		records [][]string
	}{
		{"Energy Logs Preview", csvfiles.EnergyLogsHeader, csvfiles.EnergyLogRecords(logs)},
		{"Device Metadata", csvfiles.DeviceMetadataHeader, csvfiles.DeviceMetadataRecords(ds.Metadata)},
		{"Device Schedules", csvfiles.DeviceSchedulesHeader, csvfiles.DeviceScheduleRecords(ds.Schedules)},
	}

	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "\n--- %s ---\n", s.title); err != nil {
			return err
		}
		renderTable(w, s.header, s.records)
	}

	if len(ds.EnergyLogs) > len(logs) {
		_, err := fmt.Fprintf(w, "\n[%d energy log rows, %d shown]\n", len(ds.EnergyLogs), len(logs))
		return err
	}

	return nil
}

func renderTable(w io.Writer, header []string, records [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(records)
	table.Render()
}
