package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/diwise/iot-energy-datagen/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

// DatasetClient reads a dataset served by iot-energy-datagen -serve.
type DatasetClient interface {
	GetDevices(ctx context.Context) ([]types.DeviceMetadata, error)
	GetDevice(ctx context.Context, deviceID string) (types.DeviceDetails, error)
	GetEnergyLogs(ctx context.Context, deviceID string) ([]types.EnergyLog, error)
	GetSchedules(ctx context.Context) ([]types.DeviceSchedule, error)
}

var ErrDeviceNotFound = errors.New("device not found")

type datasetClient struct {
	url        string
	httpClient http.Client
}

var tracer = otel.Tracer("iot-energy-datagen-client")

func New(datasetURL string) DatasetClient {
	return &datasetClient{
		url: datasetURL,
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *datasetClient) GetDevices(ctx context.Context) (devices []types.DeviceMetadata, err error) {
	ctx, span := tracer.Start(ctx, "get-devices")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.get(ctx, "/api/v0/devices", &devices)
	return
}

func (c *datasetClient) GetDevice(ctx context.Context, deviceID string) (device types.DeviceDetails, err error) {
	ctx, span := tracer.Start(ctx, "get-device")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)
	log.Debug().Msgf("looking up details for device %s", deviceID)

	err = c.get(ctx, "/api/v0/devices/"+url.PathEscape(deviceID), &device)
	return
}

func (c *datasetClient) GetEnergyLogs(ctx context.Context, deviceID string) (logs []types.EnergyLog, err error) {
	ctx, span := tracer.Start(ctx, "get-energy-logs")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	path := "/api/v0/energy"
	if deviceID != "" {
		path = "/api/v0/devices/" + url.PathEscape(deviceID) + "/energy"
	}

	err = c.get(ctx, path, &logs)
	return
}

func (c *datasetClient) GetSchedules(ctx context.Context) (schedules []types.DeviceSchedule, err error) {
	ctx, span := tracer.Start(ctx, "get-schedules")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = c.get(ctx, "/api/v0/schedules", &schedules)
	return
}

func (c *datasetClient) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to retrieve %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrDeviceNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	err = json.Unmarshal(respBody, result)
	if err != nil {
		return fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	return nil
}
