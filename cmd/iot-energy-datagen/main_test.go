package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diwise/iot-energy-datagen/internal/pkg/application/generator"
	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/csvfiles"
	"github.com/diwise/iot-energy-datagen/internal/pkg/presentation/preview"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestRunWritesAllFilesAndPreview(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	stdout := &bytes.Buffer{}

	cfg := defaultConfig()
	cfg.Devices = 2
	cfg.Days = 1
	cfg.OutputDir = dir

	err := run(context.Background(), cfg, stdout)
	is.NoErr(err)

	logs := readFile(is, filepath.Join(dir, csvfiles.EnergyLogsFile))
	is.Equal(strings.Count(logs, "\n"), 1+48)

	metadata := readFile(is, filepath.Join(dir, csvfiles.DeviceMetadataFile))
	is.True(strings.HasPrefix(metadata, "device_id,device_type,location\ndevice_1,"))
	is.Equal(strings.Count(metadata, "\n"), 1+2)

	schedules := readFile(is, filepath.Join(dir, csvfiles.DeviceSchedulesFile))
	is.Equal(schedules, "device_id,active_hours\ndevice_1,09:00-18:00\ndevice_2,09:00-18:00\n")

	is.True(strings.Contains(stdout.String(), "CSV files generated in "))
	is.True(strings.Contains(stdout.String(), "--- Device Schedules ---"))
}

func TestRunStoresDatasetInSQLite(t *testing.T) {
	is := is.New(t)

	cfg := defaultConfig()
	cfg.Devices = 1
	cfg.Days = 1
	cfg.OutputDir = t.TempDir()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "energy.db")

	err := run(context.Background(), cfg, io.Discard)
	is.NoErr(err)

	info, err := os.Stat(cfg.Database.DSN)
	is.NoErr(err)
	is.True(info.Size() > 0)
}

func TestRunFailsWhenOutputDirIsMissing(t *testing.T) {
	is := is.New(t)

	cfg := defaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "missing")

	err := run(context.Background(), cfg, io.Discard)
	is.True(err != nil)
}

func TestConfigurationFileIsOverriddenByFlags(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	is.NoErr(os.WriteFile(path, []byte(configYaml), 0o644))

	cfg, err := loadConfiguration(flagMap{
		configurationFile: path,
		days:              "3",
	})
	is.NoErr(err)

	is.Equal(cfg.Devices, 12)
	is.Equal(cfg.Days, 3)
	is.Equal(cfg.Seed, int64(7))
	is.Equal(cfg.OutputDir, "/tmp/datagen")
	is.Equal(cfg.PreviewRows, 10)
	is.Equal(cfg.Database.Driver, "sqlite")
	is.Equal(cfg.Database.DSN, "energy.db")
}

func TestConfigurationFileKeepsDefaultsForMissingKeys(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	is.NoErr(os.WriteFile(path, []byte("devices: 12\nseed: 3\n"), 0o644))

	cfg, err := loadConfiguration(flagMap{configurationFile: path})
	is.NoErr(err)

	is.Equal(cfg.Devices, 12)
	is.Equal(cfg.Days, generator.DefaultDays)
	is.Equal(cfg.Seed, int64(3))
	is.Equal(cfg.PreviewRows, preview.DefaultHeadRows)
}

func TestInvalidConfigurationFileIsRejected(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	is.NoErr(os.WriteFile(path, []byte("days: 0\n"), 0o644))

	_, err := loadConfiguration(flagMap{configurationFile: path})
	is.True(errors.Is(err, generator.ErrInvalidConfiguration))
}

func TestStoredDatasetIsReadBack(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	g, err := generator.New(generator.Config{Devices: 3, Days: 1, Seed: 42})
	is.NoErr(err)
	ds := g.Generate(ctx)

	db := databaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "energy.db")}
	stored, err := storeDataset(ctx, zerolog.Nop(), db, ds)
	is.NoErr(err)

	is.Equal(stored.RunID, ds.RunID)
	is.Equal(len(stored.EnergyLogs), len(ds.EnergyLogs))
	is.Equal(stored.Metadata, ds.Metadata)
	is.Equal(stored.Schedules, ds.Schedules)
}

func TestDefaultConfiguration(t *testing.T) {
	is := is.New(t)

	cfg, err := loadConfiguration(flagMap{})
	is.NoErr(err)

	is.Equal(cfg.Devices, 5)
	is.Equal(cfg.Days, 7)
	is.Equal(cfg.Seed, int64(42))
	is.Equal(cfg.OutputDir, ".")
	is.True(!cfg.Serve)
}

func TestInvalidFlagsAreRejected(t *testing.T) {
	is := is.New(t)

	_, err := loadConfiguration(flagMap{devices: "many"})
	is.True(errors.Is(err, generator.ErrInvalidConfiguration))

	_, err = loadConfiguration(flagMap{days: "0"})
	is.True(errors.Is(err, generator.ErrInvalidConfiguration))

	_, err = loadConfiguration(flagMap{serve: "sometimes"})
	is.True(errors.Is(err, generator.ErrInvalidConfiguration))
}

func readFile(is *is.I, path string) string {
	b, err := os.ReadFile(path)
	is.NoErr(err)
	return string(b)
}

const configYaml string = `
devices: 12
days: 1
seed: 7
outputDir: /tmp/datagen
previewRows: 10
database:
  driver: sqlite
  dsn: energy.db
`
