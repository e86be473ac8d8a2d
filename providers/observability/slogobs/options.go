package slogobs

import (
	"io"
	"log/slog"
	"os"
)

// Option configures an Observer.
type Option func(*config)

type config struct {
	format Format
	level  slog.Level
	output io.Writer
	colors bool
	logger *slog.Logger
}

func WithFormat(format Format) Option {
	return func(c *config) { c.format = format }
}

func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithOutput sets where records are written. Defaults to os.Stderr so logs
// never mix with answers streamed on stdout.
func WithOutput(output io.Writer) Option {
	return func(c *config) { c.output = output }
}

// WithColors forces ANSI colours on for compact and pretty output.
func WithColors(enabled bool) Option {
	return func(c *config) { c.colors = enabled }
}

// WithLogger bypasses Handler entirely and logs through logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func applyOptions(opts ...Option) *config {
	cfg := &config{
		format: GetFormatFromEnv(),
		level:  GetLogLevelFromEnv(),
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
