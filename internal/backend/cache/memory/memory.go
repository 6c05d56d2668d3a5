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

// Package memory provides the default, in-process cache backend. It
// satisfies the pointer/lock contract within a single process only — it
// offers no cross-process mutual exclusion, so running two schedulers
// against a memory-backed cache loses the at-most-one-concurrent-run
// guarantee.
package memory

import (
	"context"
	"sync"

	"github.com/tombee/grove/internal/backend/cache"
	"github.com/tombee/grove/internal/handler"
)

func init() {
	handler.RegisterCache("memory", func() (cache.Backend, error) {
		return New(), nil
	})
}

// Backend is an in-memory key-value store keyed by (pk, sk).
type Backend struct {
	mu     sync.Mutex
	values map[string]map[string]string
}

// New creates a new in-memory cache backend.
func New() *Backend {
	return &Backend{values: make(map[string]map[string]string)}
}

// Get implements cache.Backend.
func (b *Backend) Get(ctx context.Context, pk, sk string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.values[pk]
	if !ok {
		return "", cache.ErrNotFound
	}
	value, ok := row[sk]
	if !ok {
		return "", cache.ErrNotFound
	}
	return value, nil
}

// Set implements cache.Backend.
func (b *Backend) Set(ctx context.Context, pk, sk, value string, constraint cache.Constraint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.values[pk]
	var current string
	var exists bool
	if ok {
		current, exists = row[sk]
	}

	switch {
	case constraint == cache.NoConstraint:
		// no precondition
	case constraint.Absent:
		if exists {
			return cache.ErrConflict
		}
	default:
		if !exists || current != constraint.Expect {
			return cache.ErrConflict
		}
	}

	if !ok {
		row = make(map[string]string)
		b.values[pk] = row
	}
	row[sk] = value
	return nil
}

// Delete implements cache.Backend.
func (b *Backend) Delete(ctx context.Context, pk, sk string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.values[pk]
	if !ok {
		return nil
	}
	delete(row, sk)
	if len(row) == 0 {
		delete(b.values, pk)
	}
	return nil
}
