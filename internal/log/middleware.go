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

package log

import (
	"log/slog"
	"time"
)

// RunStart describes a collection run about to begin, for logging purposes.
type RunStart struct {
	Connector string
	Identity  string
	Operation string
	RuntimeID string
}

// RunOutcome describes the result of a completed collection run, for logging purposes.
type RunOutcome struct {
	// Outcome is one of "success", "empty", or "failed".
	Outcome string

	// Err is the error that ended the run, if Outcome is "failed".
	Err error

	// RecordsEmitted is the total number of records written across all batches.
	RecordsEmitted int

	// BatchesEmitted is the number of batches successfully written.
	BatchesEmitted int

	// DurationMs is the wall-clock duration of the run in milliseconds.
	DurationMs int64
}

// LogRunStart logs the start of a collection run.
func LogRunStart(logger *slog.Logger, start *RunStart) {
	logger.Info("run started",
		"event", "run_start",
		ConnectorKey, start.Connector,
		IdentityKey, start.Identity,
		OperationKey, start.Operation,
		RunIDKey, start.RuntimeID,
	)
}

// LogRunOutcome logs the end of a collection run.
func LogRunOutcome(logger *slog.Logger, start *RunStart, outcome *RunOutcome) {
	attrs := []any{
		"event", "run_complete",
		ConnectorKey, start.Connector,
		IdentityKey, start.Identity,
		OperationKey, start.Operation,
		RunIDKey, start.RuntimeID,
		"outcome", outcome.Outcome,
		"records_emitted", outcome.RecordsEmitted,
		"batches_emitted", outcome.BatchesEmitted,
		DurationKey, outcome.DurationMs,
	}

	level := slog.LevelInfo
	message := "run completed"

	if outcome.Outcome == "failed" {
		level = slog.LevelError
		message = "run failed"
		if outcome.Err != nil {
			attrs = append(attrs, "error", outcome.Err.Error())
		}
	}

	logger.Log(nil, level, message, attrs...)
}

// RunMiddleware wraps a run's execution with start/completion logging so
// every pipeline invocation (scheduler-driven or entrypoint-driven) gets
// consistent provenance without each caller re-implementing it.
type RunMiddleware struct {
	logger *slog.Logger
}

// NewRunMiddleware creates a new run logging middleware.
func NewRunMiddleware(logger *slog.Logger) *RunMiddleware {
	return &RunMiddleware{logger: logger}
}

// Wrap executes handler, logging its start and outcome. handler returns the
// number of batches and records emitted so they can be logged even on error.
func (m *RunMiddleware) Wrap(start *RunStart, handler func() (batches, records int, err error)) error {
	LogRunStart(m.logger, start)

	begin := time.Now()
	batches, records, err := handler()
	duration := time.Since(begin).Milliseconds()

	outcome := &RunOutcome{
		RecordsEmitted: records,
		BatchesEmitted: batches,
		DurationMs:     duration,
	}

	switch {
	case err != nil:
		outcome.Outcome = "failed"
		outcome.Err = err
	case records == 0:
		outcome.Outcome = "empty"
	default:
		outcome.Outcome = "success"
	}

	LogRunOutcome(m.logger, start, outcome)

	return err
}
