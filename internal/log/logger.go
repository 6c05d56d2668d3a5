// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides structured logging for Grove's collection engine.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs logs in JSON format for machine parsing.
	FormatJSON Format = "json"
	// FormatText outputs logs in human-readable text format.
	FormatText Format = "text"
)

// Custom log levels extending slog's standard levels.
const (
	// LevelTrace is more verbose than Debug, used for connector request/response bodies.
	LevelTrace = slog.Level(-8)
)

// Standard field keys for structured logging. These ensure consistent field
// naming across connectors, the pipeline, and the scheduler.
const (
	// RunIDKey is the field key for a single run's runtime identifier.
	RunIDKey = "runtime_id"
	// InstanceKey is the field key for an instance's (connector, identity, operation) label.
	InstanceKey = "instance"
	// ConnectorKey is the field key for a connector's stable name.
	ConnectorKey = "connector"
	// IdentityKey is the field key for a connector instance's tenant/account identity.
	IdentityKey = "identity"
	// OperationKey is the field key for a connector's sub-API selector.
	OperationKey = "operation"
	// DurationKey is the field key for duration in milliseconds.
	DurationKey = "duration_ms"
	// BatchSeqKey is the field key for a batch's sequence number within a run.
	BatchSeqKey = "batch_seq"
)

// Config holds the logging configuration.
type Config struct {
	// Level sets the minimum log level (debug, info, warn, error).
	// Default: info
	Level string

	// Format sets the output format (json, text).
	// Default: json
	Format Format

	// Output is the writer for log output.
	// Default: os.Stderr
	Output io.Writer

	// AddSource adds source file and line information to logs.
	// Default: false
	AddSource bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:     "info",
		Format:    FormatJSON,
		Output:    os.Stderr,
		AddSource: false,
	}
}

// FromEnv creates a Config from environment variables.
// Supported environment variables:
//   - GROVE_DEBUG: true/1 to enable debug level and source logging (takes precedence)
//   - GROVE_LOG_LEVEL: debug, info, warn, error
//   - GROVE_LOG_FORMAT: json, text (default: json)
//   - GROVE_LOG_SOURCE: 1 to enable source file/line
func FromEnv() *Config {
	cfg := DefaultConfig()

	debug := os.Getenv("GROVE_DEBUG")
	if debug == "true" || debug == "1" {
		cfg.Level = "debug"
		cfg.AddSource = true
	}

	if debug == "" {
		if level := os.Getenv("GROVE_LOG_LEVEL"); level != "" {
			cfg.Level = strings.ToLower(level)
		}
	}

	if format := os.Getenv("GROVE_LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	if os.Getenv("GROVE_LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}

	return cfg
}

// New creates a new structured logger from the given configuration.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(cfg.Output, opts)
	case FormatJSON:
		fallthrough
	default:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithInstance returns a new logger carrying the (connector, identity, operation)
// fields that identify a collection stream, per the §3 instance invariant.
func WithInstance(logger *slog.Logger, connector, identity, operation string) *slog.Logger {
	return logger.With(
		slog.String(ConnectorKey, connector),
		slog.String(IdentityKey, identity),
		slog.String(OperationKey, operation),
	)
}

// WithRun returns a new logger carrying the runtime identifier of a single run.
func WithRun(logger *slog.Logger, runtimeID string) *slog.Logger {
	return logger.With(slog.String(RunIDKey, runtimeID))
}

// Error creates an error attribute.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, ms int64) slog.Attr {
	return slog.Int64(key+"_ms", ms)
}

// Trace logs a message at trace level with optional attributes. Used for
// connector request/response bodies which are otherwise too noisy for debug.
func Trace(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if !logger.Enabled(nil, LevelTrace) {
		return
	}
	logger.LogAttrs(nil, LevelTrace, msg, attrs...)
}
