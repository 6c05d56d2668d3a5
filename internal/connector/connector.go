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

// Package connector defines the contract a connector body implements: given
// an identity, resolved credentials, configuration fields and the current
// pointer, fetch one run's worth of records and emit them incrementally.
package connector

import (
	"context"
	"log/slog"
)

// Emitter delivers one batch of records together with the pointer that
// batch certifies. A connector body must call Emit for every batch rather
// than accumulating the full run in memory — this bounds memory and lets
// the pipeline checkpoint incrementally.
type Emitter interface {
	// Emit delivers records and the new pointer value they certify. It
	// blocks until the batch has been durably written and its pointer
	// checkpointed, or returns an error if either step failed — in which
	// case the connector body should stop and return that error.
	Emit(ctx context.Context, records []map[string]interface{}, pointer string) error
}

// Helpers bundles the facilities a connector body needs beyond its own
// business logic: the prior run's pointer, an emit sink, and a logger
// scoped to this run.
type Helpers struct {
	// Pointer is the pointer value at the start of this run ("" if this is
	// the connector's first run for this instance).
	Pointer string

	Emitter Emitter
	Logger  *slog.Logger
}

// Request bundles everything a connector body needs to perform one run.
type Request struct {
	// Identity is the tenant/account handle this instance collects for.
	Identity string

	// Operation selects a sub-API when the connector serves several; empty
	// when the connector has only one.
	Operation string

	// Credentials is the resolved credential set: inline `key` merged with
	// (and overridden by) every successfully resolved `secrets` entry.
	Credentials map[string]string

	// Fields carries the configuration document's unknown top-level
	// fields, forwarded unchanged as per-connector parameters.
	Fields map[string]interface{}

	Helpers Helpers
}

// Connector is the capability every connector body implements.
type Connector interface {
	// Name is the stable identifier configuration documents reference via
	// their `connector` field.
	Name() string

	// DefaultFrequency is the number of seconds between runs in daemon
	// mode when a configuration document does not specify its own.
	DefaultFrequency() int

	// InitialPointer returns the pointer to use when an instance has never
	// run before, e.g. a literal or a dynamic "N days ago" resolved against
	// now.
	InitialPointer() string

	// Collect performs one run: fetch records from the upstream API,
	// emitting each batch via req.Helpers.Emitter, until the upstream is
	// exhausted or ctx is cancelled.
	Collect(ctx context.Context, req Request) error
}
