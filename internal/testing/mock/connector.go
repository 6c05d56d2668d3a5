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

// Package mock provides a scriptable in-memory connector body used only by
// Grove's own pipeline and scheduler test suites — never registered into
// the production connector registry.
package mock

import (
	"context"
	"fmt"

	"github.com/tombee/grove/internal/connector"
)

// Batch is one scripted call to the emit helper.
type Batch struct {
	Records []map[string]interface{}
	Pointer string
}

// Connector is a connector body whose run is entirely scripted: it emits
// Batches in order, then returns Err (nil for a clean finish).
type Connector struct {
	NameValue           string
	Frequency           int
	InitialPointerValue string
	Batches             []Batch
	Err                 error

	// Calls records every Collect invocation's request, for assertions.
	Calls []connector.Request
}

// New creates a mock connector body named name.
func New(name string) *Connector {
	return &Connector{NameValue: name, Frequency: 60}
}

// Name implements connector.Connector.
func (c *Connector) Name() string { return c.NameValue }

// DefaultFrequency implements connector.Connector.
func (c *Connector) DefaultFrequency() int { return c.Frequency }

// InitialPointer implements connector.Connector.
func (c *Connector) InitialPointer() string { return c.InitialPointerValue }

// Collect implements connector.Connector by replaying the scripted batches
// through the request's emitter, then returning Err.
func (c *Connector) Collect(ctx context.Context, req connector.Request) error {
	c.Calls = append(c.Calls, req)

	for i, batch := range c.Batches {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("mock connector %s: %w", c.NameValue, err)
		}
		if err := req.Helpers.Emitter.Emit(ctx, batch.Records, batch.Pointer); err != nil {
			return fmt.Errorf("mock connector %s: emit batch %d: %w", c.NameValue, i, err)
		}
	}
	return c.Err
}
