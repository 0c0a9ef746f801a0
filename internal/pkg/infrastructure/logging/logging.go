package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/rs/zerolog"
)

// NewLogger creates a service logger writing to stderr and stores it in the returned context.
// Stdout is reserved for the dataset preview.
func NewLogger(ctx context.Context, serviceName, serviceVersion string) (context.Context, zerolog.Logger) {
	return NewLoggerWithWriter(ctx, os.Stderr, serviceName, serviceVersion)
}

func NewLoggerWithWriter(ctx context.Context, w io.Writer, serviceName, serviceVersion string) (context.Context, zerolog.Logger) {
	logger := zerolog.New(w).With().Timestamp().
		Str("service", strings.ToLower(serviceName)).
		Str("version", serviceVersion).
		Logger()

	ctx = logging.NewContextWithLogger(ctx, logger)
	return ctx, logger
}

// WithRunID decorates the logger in ctx with the id of a generation run.
func WithRunID(ctx context.Context, runID string) (context.Context, zerolog.Logger) {
	logger := logging.GetFromContext(ctx).With().Str("run_id", runID).Logger()
	return logging.NewContextWithLogger(ctx, logger), logger
}
