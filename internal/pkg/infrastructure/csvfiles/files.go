package csvfiles

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/diwise/iot-energy-datagen/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("iot-energy-datagen/csvfiles")

// WriteAll writes the three tables of a dataset into dir and returns the paths
// of the created files in the order logs, metadata, schedules.
func WriteAll(ctx context.Context, dir string, ds types.Dataset) (paths []string, err error) {
	ctx, span := tracer.Start(ctx, "write-csv-files")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{EnergyLogsFile, func(w io.Writer) error { return WriteEnergyLogs(w, ds.EnergyLogs) }},
		{DeviceMetadataFile, func(w io.Writer) error { return WriteDeviceMetadata(w, ds.Metadata) }},
		{DeviceSchedulesFile, func(w io.Writer) error { return WriteDeviceSchedules(w, ds.Schedules) }},
	}

	for _, o := range outputs {
		path := filepath.Join(dir, o.name)

		err = writeFile(path, o.write)
		if err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}

		log.Debug().Str("file", path).Msg("wrote csv file")
		paths = append(paths, path)
	}

	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err = write(bw); err != nil {
		return err
	}

	return bw.Flush()
}
