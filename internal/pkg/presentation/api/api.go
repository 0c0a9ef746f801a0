package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/diwise/iot-energy-datagen/internal/pkg/infrastructure/csvfiles"
	"github.com/diwise/iot-energy-datagen/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("iot-energy-datagen/api")

// RegisterHandlers exposes a generated dataset read only. The dataset is
// never modified after registration.
func RegisterHandlers(log zerolog.Logger, router *chi.Mux, ds types.Dataset) *chi.Mux {

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v0", func(r chi.Router) {
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", getDevicesHandler(log, ds))
			r.Get("/{deviceID}", getDeviceDetailsHandler(log, ds))
			r.Get("/{deviceID}/energy", getDeviceEnergyHandler(log, ds))
		})
		r.Get("/energy", getEnergyLogsHandler(log, ds))
		r.Get("/schedules", getSchedulesHandler(log, ds))
	})

	return router
}

func getDevicesHandler(log zerolog.Logger, ds types.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "get-devices")
		defer span.End()

		if wantsCSV(r) {
			writeCSV(w, log, func() error { return csvfiles.WriteDeviceMetadata(w, ds.Metadata) })
			return
		}

		writeJSON(w, log, ds.Metadata)
	}
}

func getDeviceDetailsHandler(log zerolog.Logger, ds types.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "get-device-details")
		defer span.End()

		deviceID := chi.URLParam(r, "deviceID")

		metadata, ok := lo.Find(ds.Metadata, func(m types.DeviceMetadata) bool { return m.DeviceID == deviceID })
		if !ok {
			log.Debug().Str("device_id", deviceID).Msg("device not found")
			w.WriteHeader(http.StatusNotFound)
			return
		}

		details := types.DeviceDetails{DeviceMetadata: metadata}
		if s, ok := lo.Find(ds.Schedules, func(s types.DeviceSchedule) bool { return s.DeviceID == deviceID }); ok {
			details.ActiveHours = s.ActiveHours
		}

		writeJSON(w, log, details)
	}
}

func getDeviceEnergyHandler(log zerolog.Logger, ds types.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "get-device-energy")
		defer span.End()

		deviceID := chi.URLParam(r, "deviceID")

		logs := lo.Filter(ds.EnergyLogs, func(l types.EnergyLog, _ int) bool { return l.DeviceID == deviceID })
		if len(logs) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if wantsCSV(r) {
			writeCSV(w, log, func() error { return csvfiles.WriteEnergyLogs(w, logs) })
			return
		}

		writeJSON(w, log, logs)
	}
}

func getEnergyLogsHandler(log zerolog.Logger, ds types.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "get-energy-logs")
		defer span.End()

		if wantsCSV(r) {
			writeCSV(w, log, func() error { return csvfiles.WriteEnergyLogs(w, ds.EnergyLogs) })
			return
		}

		writeJSON(w, log, ds.EnergyLogs)
	}
}

func getSchedulesHandler(log zerolog.Logger, ds types.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "get-schedules")
		defer span.End()

		if wantsCSV(r) {
			writeCSV(w, log, func() error { return csvfiles.WriteDeviceSchedules(w, ds.Schedules) })
			return
		}

		writeJSON(w, log, ds.Schedules)
	}
}

func wantsCSV(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}

func writeCSV(w http.ResponseWriter, log zerolog.Logger, write func() error) {
	w.Header().Add("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)

	if err := write(); err != nil {
		log.Error().Err(err).Msg("failed to write csv response")
	}
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
