package generator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/diwise/iot-energy-datagen/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("iot-energy-datagen/generator")

type Generator interface {
	GenerateEnergyLogs(ctx context.Context) []types.EnergyLog
	GenerateDeviceMetadata(ctx context.Context) []types.DeviceMetadata
	GenerateSchedules(ctx context.Context) []types.DeviceSchedule

	Generate(ctx context.Context) types.Dataset
}

type Option func(*generator)

// WithClock replaces time.Now as the end of the generated time window.
func WithClock(now func() time.Time) Option {
	return func(g *generator) {
		g.now = now
	}
}

// WithRand hands a caller owned random source to the generator. It is
// reseeded with the configured seed every time energy logs are generated.
func WithRand(rnd *rand.Rand) Option {
	return func(g *generator) {
		g.rnd = rnd
	}
}

type generator struct {
	cfg Config
	rnd *rand.Rand
	now func() time.Time
}

func New(cfg Config, opts ...Option) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &generator{
		cfg: cfg,
		now: time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(cfg.Seed))
	}

	return g, nil
}

func (g *generator) GenerateEnergyLogs(ctx context.Context) []types.EnergyLog {
	_, span := tracer.Start(ctx, "generate-energy-logs")
	defer span.End()

	g.rnd.Seed(g.cfg.Seed)

	hours := g.cfg.Days * 24
	start := g.now().Add(-time.Duration(hours) * time.Hour)

	logs := make([]types.EnergyLog, 0, g.cfg.Devices*hours)

	for d := 0; d < g.cfg.Devices; d++ {
		deviceID := types.DeviceID(d)
		ratedPower := g.intBetween(types.MinRatedPowerW, types.MaxRatedPowerW)

		for h := 0; h < hours; h++ {
			ts := start.Add(time.Duration(h) * time.Hour)

			var kwh float64
			if types.IsWorkHour(ts) {
				kwh = g.uniform(types.WorkHoursMinKWh, types.WorkHoursMaxKWh)
			} else {
				kwh = g.uniform(types.OffHoursMinKWh, types.OffHoursMaxKWh)
			}

			logs = append(logs, types.EnergyLog{
				Timestamp:   ts,
				DeviceID:    deviceID,
				RatedPowerW: ratedPower,
				KWh:         round2(kwh),
			})
		}
	}

	span.SetAttributes(attribute.Int("rows", len(logs)))
	log := logging.GetFromContext(ctx)
	log.Debug().Int("rows", len(logs)).Msg("generated energy logs")

	return logs
}

func (g *generator) GenerateDeviceMetadata(ctx context.Context) []types.DeviceMetadata {
	_, span := tracer.Start(ctx, "generate-device-metadata")
	defer span.End()

	// all types are drawn before any location
	deviceTypes := lo.Times(g.cfg.Devices, func(_ int) types.DeviceType {
		return types.DeviceTypes[g.rnd.Intn(len(types.DeviceTypes))]
	})

	zones := lo.Times(g.cfg.Devices, func(_ int) types.Zone {
		return types.NewZone(g.intBetween(types.MinZone, types.MaxZone))
	})

	return lo.Times(g.cfg.Devices, func(i int) types.DeviceMetadata {
		return types.DeviceMetadata{
			DeviceID:   types.DeviceID(i),
			DeviceType: deviceTypes[i],
			Location:   zones[i],
		}
	})
}

func (g *generator) GenerateSchedules(ctx context.Context) []types.DeviceSchedule {
	_, span := tracer.Start(ctx, "generate-schedules")
	defer span.End()

	return lo.Times(g.cfg.Devices, func(i int) types.DeviceSchedule {
		return types.DeviceSchedule{
			DeviceID:    types.DeviceID(i),
			ActiveHours: types.DefaultActiveHours,
		}
	})
}

func (g *generator) Generate(ctx context.Context) types.Dataset {
	runID := uuid.NewString()

	log := logging.GetFromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logging.NewContextWithLogger(ctx, log)

	ctx, span := tracer.Start(ctx, "generate-dataset")
	defer span.End()

	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.Int("devices", g.cfg.Devices),
		attribute.Int("days", g.cfg.Days),
		attribute.Int64("seed", g.cfg.Seed),
	)

	ds := types.Dataset{
		RunID:      runID,
		EnergyLogs: g.GenerateEnergyLogs(ctx),
		Metadata:   g.GenerateDeviceMetadata(ctx),
		Schedules:  g.GenerateSchedules(ctx),
	}

	log.Info().
		Int("devices", g.cfg.Devices).
		Int("days", g.cfg.Days).
		Int64("seed", g.cfg.Seed).
		Int("energy_logs", len(ds.EnergyLogs)).
		Msg("dataset generated")

	return ds
}

// intBetween returns a uniformly drawn integer in [min, max].
func (g *generator) intBetween(min, max int) int {
	return min + g.rnd.Intn(max-min+1)
}

func (g *generator) uniform(min, max float64) float64 {
	return min + g.rnd.Float64()*(max-min)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
