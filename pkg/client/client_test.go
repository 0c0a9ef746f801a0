package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diwise/iot-energy-datagen/internal/pkg/application/generator"
	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/router"
	"github.com/diwise/iot-energy-datagen/internal/pkg/presentation/api"
	"github.com/diwise/iot-energy-datagen/pkg/types"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestGetDevices(t *testing.T) {
	is, ctx, c, ds := testSetup(t)

	devices, err := c.GetDevices(ctx)
	is.NoErr(err)
	is.Equal(devices, ds.Metadata)
}

func TestGetDevice(t *testing.T) {
	is, ctx, c, ds := testSetup(t)

	device, err := c.GetDevice(ctx, "device_3")
	is.NoErr(err)
	is.Equal(device.DeviceMetadata, ds.Metadata[2])
	is.Equal(device.ActiveHours, types.DefaultActiveHours)
}

func TestGetUnknownDevice(t *testing.T) {
	is, ctx, c, _ := testSetup(t)

	_, err := c.GetDevice(ctx, "device_99")
	is.True(errors.Is(err, ErrDeviceNotFound))
}

func TestGetEnergyLogs(t *testing.T) {
	is, ctx, c, ds := testSetup(t)

	all, err := c.GetEnergyLogs(ctx, "")
	is.NoErr(err)
	is.Equal(len(all), len(ds.EnergyLogs))

	single, err := c.GetEnergyLogs(ctx, "device_2")
	is.NoErr(err)
	is.Equal(len(single), 24)
	for i, l := range single {
		is.Equal(l.DeviceID, "device_2")
		is.Equal(l.KWh, ds.EnergyLogs[24+i].KWh)
		is.True(l.Timestamp.Equal(ds.EnergyLogs[24+i].Timestamp))
	}
}

func TestGetSchedules(t *testing.T) {
	is, ctx, c, ds := testSetup(t)

	schedules, err := c.GetSchedules(ctx)
	is.NoErr(err)
	is.Equal(schedules, ds.Schedules)
}

func testSetup(t *testing.T) (*is.I, context.Context, DatasetClient, types.Dataset) {
	is := is.New(t)
	ctx := context.Background()

	now := time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)
	g, err := generator.New(generator.Config{Devices: 3, Days: 1, Seed: 42}, generator.WithClock(func() time.Time { return now }))
	is.NoErr(err)

	ds := g.Generate(ctx)

	server := httptest.NewServer(api.RegisterHandlers(zerolog.Nop(), router.New("test"), ds))
	t.Cleanup(server.Close)

	return is, ctx, New(server.URL), ds
}
