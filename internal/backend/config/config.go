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

// Package config defines the contract a configuration backend implements:
// listing and fetching the raw bytes of instance configuration documents.
// Parsing and validation of those bytes is the core's job, not the
// backend's — see internal/config.
package config

import "context"

// Backend lists and fetches raw configuration documents. Implementations
// may perform I/O and must be safe for concurrent use; the scheduler's
// periodic refresh and any one-shot load may call List and Get from
// different goroutines.
type Backend interface {
	// List returns the current set of document identifiers. It must be
	// idempotent and stable enough that a repeated call returns the same
	// set modulo genuine changes to the underlying store.
	List(ctx context.Context) ([]string, error)

	// Get returns the raw bytes of the document named by id.
	Get(ctx context.Context, id string) ([]byte, error)
}
