package csvfiles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/iot-energy-datagen/pkg/types"
	"github.com/samber/lo"
)

const (
	EnergyLogsFile      string = "energy_logs.csv"
	DeviceMetadataFile  string = "device_metadata.csv"
	DeviceSchedulesFile string = "device_schedules.csv"
)

const TimestampLayout string = "2006-01-02 15:04:05.000000"

var (
	EnergyLogsHeader      = []string{"timestamp", "device_id", "rated_power_w", "kwh"}
	DeviceMetadataHeader  = []string{"device_id", "device_type", "location"}
	DeviceSchedulesHeader = []string{"device_id", "active_hours"}
)

var ErrBadHeader = errors.New("unexpected csv header")

func WriteEnergyLogs(w io.Writer, logs []types.EnergyLog) error {
	return write(w, EnergyLogsHeader, EnergyLogRecords(logs))
}

func WriteDeviceMetadata(w io.Writer, metadata []types.DeviceMetadata) error {
	return write(w, DeviceMetadataHeader, DeviceMetadataRecords(metadata))
}

func WriteDeviceSchedules(w io.Writer, schedules []types.DeviceSchedule) error {
	return write(w, DeviceSchedulesHeader, DeviceScheduleRecords(schedules))
}

// EnergyLogRecords formats logs the way they are written to file, one
// record per row in column order of EnergyLogsHeader.
func EnergyLogRecords(logs []types.EnergyLog) [][]string {
	return lo.Map(logs, func(l types.EnergyLog, _ int) []string {
		return []string{
			l.Timestamp.Format(TimestampLayout),
			l.DeviceID,
			strconv.Itoa(l.RatedPowerW),
			strconv.FormatFloat(l.KWh, 'f', -1, 64),
		}
	})
}

func DeviceMetadataRecords(metadata []types.DeviceMetadata) [][]string {
	return lo.Map(metadata, func(m types.DeviceMetadata, _ int) []string {
		return []string{m.DeviceID, string(m.DeviceType), string(m.Location)}
	})
}

func DeviceScheduleRecords(schedules []types.DeviceSchedule) [][]string {
	return lo.Map(schedules, func(s types.DeviceSchedule, _ int) []string {
		return []string{s.DeviceID, s.ActiveHours}
	})
}

func write(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return err
	}

	if err := cw.WriteAll(records); err != nil {
		return err
	}

	return cw.Error()
}

// ReadEnergyLogs parses a file written by WriteEnergyLogs. Timestamps are
// interpreted in loc since the file carries no zone information.
func ReadEnergyLogs(r io.Reader, loc *time.Location) ([]types.EnergyLog, error) {
	rows, err := read(r, EnergyLogsHeader)
	if err != nil {
		return nil, err
	}

	logs := make([]types.EnergyLog, 0, len(rows))

	for i, row := range rows {
		ts, err := time.ParseInLocation(TimestampLayout, row[0], loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp on line %d: %w", i+2, err)
		}

		ratedPower, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("failed to parse rated power on line %d: %w", i+2, err)
		}

		kwh, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse kwh on line %d: %w", i+2, err)
		}

		logs = append(logs, types.EnergyLog{
			Timestamp:   ts,
			DeviceID:    row[1],
			RatedPowerW: ratedPower,
			KWh:         kwh,
		})
	}

	return logs, nil
}

func ReadDeviceMetadata(r io.Reader) ([]types.DeviceMetadata, error) {
	rows, err := read(r, DeviceMetadataHeader)
	if err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row []string, _ int) types.DeviceMetadata {
		return types.DeviceMetadata{
			DeviceID:   row[0],
			DeviceType: types.DeviceType(row[1]),
			Location:   types.Zone(row[2]),
		}
	}), nil
}

func ReadDeviceSchedules(r io.Reader) ([]types.DeviceSchedule, error) {
	rows, err := read(r, DeviceSchedulesHeader)
	if err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row []string, _ int) types.DeviceSchedule {
		return types.DeviceSchedule{
			DeviceID:    row[0],
			ActiveHours: row[1],
		}
	}), nil
}

// read returns all records after the header row. The csv reader rejects rows
// whose field count differs from the header.
func read(r io.Reader, header []string) ([][]string, error) {
	cr := csv.NewReader(r)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv data: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrBadHeader)
	}

	if strings.Join(rows[0], ",") != strings.Join(header, ",") {
		return nil, fmt.Errorf("%w: expected %v, got %v", ErrBadHeader, header, rows[0])
	}

	return rows[1:], nil
}
