package types

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDeviceIDIsOneIndexed(t *testing.T) {
	is := is.New(t)
	is.Equal(DeviceID(0), "device_1")
	is.Equal(DeviceID(41), "device_42")
}

func TestNewZone(t *testing.T) {
	is := is.New(t)
	is.Equal(NewZone(2), Zone("Zone_2"))
}

func TestIsWorkHour(t *testing.T) {
	is := is.New(t)

	at := func(h int) time.Time {
		return time.Date(2024, 3, 1, h, 30, 0, 0, time.UTC)
	}

	is.True(!IsWorkHour(at(8)))
	is.True(IsWorkHour(at(9)))
	is.True(IsWorkHour(at(17)))
	is.True(!IsWorkHour(at(18)))
	is.True(!IsWorkHour(at(0)))
}
