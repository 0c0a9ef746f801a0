package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/diwise/iot-energy-datagen/internal/pkg/application/generator"
	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/csvfiles"
	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/repositories/energy"
	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/router"
	"github.com/diwise/iot-energy-datagen/internal/pkg/presentation/api"
	"github.com/diwise/iot-energy-datagen/internal/pkg/presentation/preview"
	"github.com/diwise/iot-energy-datagen/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/rs/zerolog"
	yaml "gopkg.in/yaml.v2"
)

const serviceName string = "iot-energy-datagen"

type flagType int
type flagMap map[flagType]string

const (
	configurationFile flagType = iota
	devices
	days
	seed
	outputDir
	previewRows
	dbDriver
	dbDSN
	serve
	servicePort
)

type databaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type appConfig struct {
	generator.Config `yaml:",inline"`

	OutputDir   string         `yaml:"outputDir"`
	PreviewRows int            `yaml:"previewRows"`
	Database    databaseConfig `yaml:"database"`
	Serve       bool           `yaml:"serve"`
	ServicePort string         `yaml:"servicePort"`
}

func defaultConfig() appConfig {
	return appConfig{
		Config:      generator.DefaultConfig(),
		OutputDir:   ".",
		PreviewRows: preview.DefaultHeadRows,
		ServicePort: "8080",
	}
}

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, logger := logging.NewLogger(context.Background(), serviceName, serviceVersion)
	logger.Info().Msg("starting up ...")

	flags := parseExternalConfig(logger, flagMap{})

	cleanup, err := tracing.Init(ctx, logger, serviceName, serviceVersion)
	exitIf(err, logger, "failed to init tracing")
	defer cleanup()

	cfg, err := loadConfiguration(flags)
	exitIf(err, logger, "invalid configuration")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, os.Stdout)
	exitIf(err, logger, "failed to generate dataset")
}

// run generates one dataset, writes it to csv files, prints the preview and
// then optionally stores and serves it.
func run(ctx context.Context, cfg appConfig, stdout io.Writer) error {
	gen, err := generator.New(cfg.Config)
	if err != nil {
		return err
	}

	ds := gen.Generate(ctx)
	ctx, log := logging.WithRunID(ctx, ds.RunID)

	files, err := csvfiles.WriteAll(ctx, cfg.OutputDir, ds)
	if err != nil {
		return err
	}

	err = preview.Print(stdout, ds, cfg.OutputDir, files, cfg.PreviewRows)
	if err != nil {
		return err
	}

	if cfg.Database.Driver != "" {
		// when serving, the stored rows are served rather than the in-memory ones
		ds, err = storeDataset(ctx, log, cfg.Database, ds)
		if err != nil {
			return err
		}
	}

	if cfg.Serve {
		return serveDataset(ctx, log, cfg.ServicePort, ds)
	}

	return nil
}

// storeDataset saves ds in the configured database and returns the dataset as
// read back from it.
func storeDataset(ctx context.Context, log zerolog.Logger, cfg databaseConfig, ds types.Dataset) (types.Dataset, error) {
	connect, err := database.NewConnector(log, cfg.Driver, cfg.DSN)
	if err != nil {
		return ds, err
	}

	repo, err := energy.NewRepository(connect)
	if err != nil {
		return ds, fmt.Errorf("could not create or connect to database: %w", err)
	}

	if err = repo.Store(ctx, ds); err != nil {
		return ds, err
	}

	log.Info().Str("driver", cfg.Driver).Msg("dataset stored in database")

	return repo.GetDataset(ctx, ds.RunID)
}

func serveDataset(ctx context.Context, log zerolog.Logger, port string, ds types.Dataset) error {
	r := api.RegisterHandlers(log, router.New(serviceName), ds)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down http server")
		}
	}()

	log.Info().Str("port", port).Msg("serving dataset")

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func loadConfiguration(flags flagMap) (appConfig, error) {
	cfg := defaultConfig()

	if path, ok := flags[configurationFile]; ok && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("could not open configuration file: %w", err)
		}

		cfg, err = parseExternalConfigFile(f, cfg)
		if err != nil {
			return cfg, err
		}
	}

	cfg, err := applyFlags(cfg, flags)
	if err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func parseExternalConfigFile(cfgFile io.ReadCloser, cfg appConfig) (appConfig, error) {
	defer cfgFile.Close()

	b, err := io.ReadAll(cfgFile)
	if err != nil {
		return cfg, err
	}

	err = yaml.Unmarshal(b, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse configuration file: %w", err)
	}

	return cfg, nil
}

func applyFlags(cfg appConfig, flags flagMap) (appConfig, error) {
	atoi := func(f flagType, name string, dst *int) error {
		if v, ok := flags[f]; ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s must be an integer, got %q", generator.ErrInvalidConfiguration, name, v)
			}
			*dst = n
		}
		return nil
	}

	if err := atoi(devices, "devices", &cfg.Devices); err != nil {
		return cfg, err
	}
	if err := atoi(days, "days", &cfg.Days); err != nil {
		return cfg, err
	}
	if err := atoi(previewRows, "preview", &cfg.PreviewRows); err != nil {
		return cfg, err
	}

	if v, ok := flags[seed]; ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: seed must be an integer, got %q", generator.ErrInvalidConfiguration, v)
		}
		cfg.Seed = n
	}

	if v, ok := flags[serve]; ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: serve must be a boolean, got %q", generator.ErrInvalidConfiguration, v)
		}
		cfg.Serve = b
	}

	set := func(f flagType, dst *string) {
		if v, ok := flags[f]; ok && v != "" {
			*dst = v
		}
	}

	set(outputDir, &cfg.OutputDir)
	set(dbDriver, &cfg.Database.Driver)
	set(dbDSN, &cfg.Database.DSN)
	set(servicePort, &cfg.ServicePort)

	return cfg, nil
}

func parseExternalConfig(log zerolog.Logger, flags flagMap) flagMap {
	// Allow environment variables to override the configuration file
	envOrDef := func(f flagType, name string) {
		if v := env.GetVariableOrDefault(log, name, ""); v != "" {
			flags[f] = v
		}
	}

	envOrDef(configurationFile, "DATAGEN_CONFIG_FILE")
	envOrDef(devices, "DATAGEN_DEVICES")
	envOrDef(days, "DATAGEN_DAYS")
	envOrDef(seed, "DATAGEN_SEED")
	envOrDef(outputDir, "DATAGEN_OUTPUT_DIR")
	envOrDef(dbDriver, "DATAGEN_DB_DRIVER")
	envOrDef(dbDSN, "DATAGEN_DB_DSN")
	envOrDef(servicePort, "DATAGEN_LISTEN_PORT")

	apply := func(f flagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("config", "a yaml configuration file", apply(configurationFile))
	flag.Func("devices", "number of simulated devices", apply(devices))
	flag.Func("days", "length of the generated time window in days", apply(days))
	flag.Func("seed", "seed for the random source", apply(seed))
	flag.Func("out", "directory to write the csv files to", apply(outputDir))
	flag.Func("preview", "number of energy log rows to preview", apply(previewRows))
	flag.Func("db", "also store the dataset in a database (sqlite or postgres)", apply(dbDriver))
	flag.Func("dsn", "database connection string", apply(dbDSN))
	flag.BoolFunc("serve", "serve the generated dataset over http until interrupted", apply(serve))
	flag.Parse()

	return flags
}

func exitIf(err error, logger zerolog.Logger, msg string) {
	if err != nil {
		logger.Error().Err(err).Msg(msg)
		os.Exit(1)
	}
}
