package types

import (
	"fmt"
	"time"
)

type EnergyLog struct {
	Timestamp   time.Time `json:"timestamp"`
	DeviceID    string    `json:"deviceID"`
	RatedPowerW int       `json:"ratedPowerW"`
	KWh         float64   `json:"kwh"`
}

type DeviceMetadata struct {
	DeviceID   string     `json:"deviceID"`
	DeviceType DeviceType `json:"deviceType"`
	Location   Zone       `json:"location"`
}

type DeviceSchedule struct {
	DeviceID    string `json:"deviceID"`
	ActiveHours string `json:"activeHours"`
}

// DeviceDetails joins the metadata and schedule of a single device.
type DeviceDetails struct {
	DeviceMetadata
	ActiveHours string `json:"activeHours"`
}

// Dataset is everything produced by a single generation run.
type Dataset struct {
	RunID      string           `json:"runID"`
	EnergyLogs []EnergyLog      `json:"energyLogs"`
	Metadata   []DeviceMetadata `json:"metadata"`
	Schedules  []DeviceSchedule `json:"schedules"`
}

type DeviceType string

const (
	DeviceTypeACUnit     DeviceType = "AC Unit"
	DeviceType3DPrinter  DeviceType = "3D Printer"
	DeviceTypeConveyor   DeviceType = "Conveyor"
	DeviceTypeCNCMachine DeviceType = "CNC Machine"
	DeviceTypeLighting   DeviceType = "Lighting"
)

// DeviceTypes is the closed set of device categories. The order is part of
// the generated output for a given seed.
var DeviceTypes = []DeviceType{
	DeviceTypeACUnit,
	DeviceType3DPrinter,
	DeviceTypeConveyor,
	DeviceTypeCNCMachine,
	DeviceTypeLighting,
}

type Zone string

const (
	ZonePrefix string = "Zone_"
	MinZone    int    = 1
	MaxZone    int    = 3
)

func NewZone(n int) Zone {
	return Zone(fmt.Sprintf("%s%d", ZonePrefix, n))
}

const (
	WorkHoursStart     int    = 9
	WorkHoursEnd       int    = 18
	DefaultActiveHours string = "09:00-18:00"
)

const (
	MinRatedPowerW int = 50
	MaxRatedPowerW int = 300

	WorkHoursMinKWh float64 = 0.2
	WorkHoursMaxKWh float64 = 2.0
	OffHoursMinKWh  float64 = 0.05
	OffHoursMaxKWh  float64 = 0.5
)

// DeviceID returns the identity of the device at zero based index i.
func DeviceID(i int) string {
	return fmt.Sprintf("device_%d", i+1)
}

func IsWorkHour(t time.Time) bool {
	h := t.Hour()
	return h >= WorkHoursStart && h < WorkHoursEnd
}
