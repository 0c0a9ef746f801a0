package energy

import (
	"context"
	"errors"
	"fmt"

	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/iot-energy-datagen/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("iot-energy-datagen/repositories/energy")

type EnergyRepository interface {
	Store(ctx context.Context, ds types.Dataset) error

	GetEnergyLogs(ctx context.Context, runID, deviceID string) ([]types.EnergyLog, error)
	GetDeviceMetadata(ctx context.Context, runID string) ([]types.DeviceMetadata, error)
	GetDeviceSchedules(ctx context.Context, runID string) ([]types.DeviceSchedule, error)

	GetDataset(ctx context.Context, runID string) (types.Dataset, error)
}

var ErrMissingRunID = errors.New("dataset has no run id")
var ErrRepositoryError = errors.New("could not fetch data from repository")

type energyRepository struct {
	db *gorm.DB
}

func NewRepository(connect database.ConnectorFunc) (EnergyRepository, error) {
	impl, log, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&energyLog{}, &deviceMetadata{}, &deviceSchedule{})
	if err != nil {
		return nil, err
	}

	log.Debug().Msg("database schema migrated")

	return &energyRepository{
		db: impl,
	}, nil
}

// Store saves all three tables of a dataset in a single transaction, keyed by
// the run id of the dataset.
func (r *energyRepository) Store(ctx context.Context, ds types.Dataset) (err error) {
	ctx, span := tracer.Start(ctx, "store-dataset")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if ds.RunID == "" {
		return ErrMissingRunID
	}

	span.SetAttributes(attribute.String("run_id", ds.RunID), attribute.Int("energy_logs", len(ds.EnergyLogs)))

	logs := lo.Map(ds.EnergyLogs, func(l types.EnergyLog, _ int) energyLog {
		return energyLog{
			RunID:       ds.RunID,
			DeviceID:    l.DeviceID,
			Timestamp:   l.Timestamp,
			RatedPowerW: l.RatedPowerW,
			KWh:         l.KWh,
		}
	})

	metadata := lo.Map(ds.Metadata, func(m types.DeviceMetadata, i int) deviceMetadata {
		return deviceMetadata{
			RunID:      ds.RunID,
			Position:   i,
			DeviceID:   m.DeviceID,
			DeviceType: string(m.DeviceType),
			Location:   string(m.Location),
		}
	})

	schedules := lo.Map(ds.Schedules, func(s types.DeviceSchedule, i int) deviceSchedule {
		return deviceSchedule{
			RunID:       ds.RunID,
			Position:    i,
			DeviceID:    s.DeviceID,
			ActiveHours: s.ActiveHours,
		}
	})

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(logs) > 0 {
			if err := tx.CreateInBatches(&logs, 1000).Error; err != nil {
				return fmt.Errorf("failed to store energy logs: %w", err)
			}
		}
		if len(metadata) > 0 {
			if err := tx.Create(&metadata).Error; err != nil {
				return fmt.Errorf("failed to store device metadata: %w", err)
			}
		}
		if len(schedules) > 0 {
			if err := tx.Create(&schedules).Error; err != nil {
				return fmt.Errorf("failed to store device schedules: %w", err)
			}
		}
		return nil
	})
}

// GetEnergyLogs returns the logs of a run in insertion order. An empty
// deviceID matches all devices.
func (r *energyRepository) GetEnergyLogs(ctx context.Context, runID, deviceID string) ([]types.EnergyLog, error) {
	var rows []energyLog

	query := r.db.WithContext(ctx).Where(&energyLog{RunID: runID})
	if deviceID != "" {
		query = query.Where(&energyLog{DeviceID: deviceID})
	}

	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	return lo.Map(rows, func(l energyLog, _ int) types.EnergyLog { return l.toType() }), nil
}

func (r *energyRepository) GetDeviceMetadata(ctx context.Context, runID string) ([]types.DeviceMetadata, error) {
	var rows []deviceMetadata

	err := r.db.WithContext(ctx).Where(&deviceMetadata{RunID: runID}).Order("position").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	return lo.Map(rows, func(m deviceMetadata, _ int) types.DeviceMetadata { return m.toType() }), nil
}

func (r *energyRepository) GetDeviceSchedules(ctx context.Context, runID string) ([]types.DeviceSchedule, error) {
	var rows []deviceSchedule

	err := r.db.WithContext(ctx).Where(&deviceSchedule{RunID: runID}).Order("position").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	return lo.Map(rows, func(s deviceSchedule, _ int) types.DeviceSchedule { return s.toType() }), nil
}

// GetDataset reads all three tables of a stored run back into a dataset.
func (r *energyRepository) GetDataset(ctx context.Context, runID string) (ds types.Dataset, err error) {
	ctx, span := tracer.Start(ctx, "get-dataset")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if runID == "" {
		return ds, ErrMissingRunID
	}

	ds.RunID = runID

	if ds.EnergyLogs, err = r.GetEnergyLogs(ctx, runID, ""); err != nil {
		return ds, err
	}
	if ds.Metadata, err = r.GetDeviceMetadata(ctx, runID); err != nil {
		return ds, err
	}
	if ds.Schedules, err = r.GetDeviceSchedules(ctx, runID); err != nil {
		return ds, err
	}

	return ds, nil
}
