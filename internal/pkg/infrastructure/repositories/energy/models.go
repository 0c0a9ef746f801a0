package energy

import (
	"time"

	"github.com/diwise/iot-energy-datagen/pkg/types"
)

type energyLog struct {
	ID          uint      `gorm:"primaryKey"`
	RunID       string    `gorm:"index:idx_energy_logs_run_device;not null"`
	DeviceID    string    `gorm:"index:idx_energy_logs_run_device;not null"`
	Timestamp   time.Time `gorm:"not null"`
	RatedPowerW int       `gorm:"column:rated_power_w"`
	KWh         float64   `gorm:"column:kwh"`
}

func (energyLog) TableName() string {
	return "energy_logs"
}

func (l energyLog) toType() types.EnergyLog {
	return types.EnergyLog{
		Timestamp:   l.Timestamp,
		DeviceID:    l.DeviceID,
		RatedPowerW: l.RatedPowerW,
		KWh:         l.KWh,
	}
}

type deviceMetadata struct {
	RunID      string `gorm:"primaryKey"`
	DeviceID   string `gorm:"primaryKey"`
	Position   int
	DeviceType string
	Location   string
}

func (deviceMetadata) TableName() string {
	return "device_metadata"
}

func (m deviceMetadata) toType() types.DeviceMetadata {
	return types.DeviceMetadata{
		DeviceID:   m.DeviceID,
		DeviceType: types.DeviceType(m.DeviceType),
		Location:   types.Zone(m.Location),
	}
}

type deviceSchedule struct {
	RunID       string `gorm:"primaryKey"`
	DeviceID    string `gorm:"primaryKey"`
	Position    int
	ActiveHours string
}

func (deviceSchedule) TableName() string {
	return "device_schedules"
}

func (s deviceSchedule) toType() types.DeviceSchedule {
	return types.DeviceSchedule{
		DeviceID:    s.DeviceID,
		ActiveHours: s.ActiveHours,
	}
}
