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

// Package cache defines the contract a cache backend implements: the sole
// primitive the scheduler uses to guarantee at-most-one concurrent run per
// instance and to checkpoint pointers between runs.
package cache

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists for the given key.
var ErrNotFound = errors.New("cache: key not found")

// ErrConflict is returned by Set when a constraint is supplied and the
// existing value does not match it.
var ErrConflict = errors.New("cache: constraint conflict")

// Constraint expresses an optimistic-concurrency precondition for Set: the
// prior value at (pk, sk) must equal Expect, or must be absent if Absent is
// true. A zero-value Constraint applies no precondition.
type Constraint struct {
	// Absent requires that no value currently exists at the key.
	Absent bool

	// Expect requires that the current value equals this string. Ignored
	// when Absent is true.
	Expect string
}

// NoConstraint applies no precondition to a Set call.
var NoConstraint = Constraint{}

// Backend is a key-value store addressed by a partition key and sort key,
// strong read-your-writes within a single process. Implementations must be
// safe for concurrent use.
type Backend interface {
	// Get returns the value stored at (pk, sk), or ErrNotFound.
	Get(ctx context.Context, pk, sk string) (string, error)

	// Set stores value at (pk, sk). If constraint is non-zero, the write
	// only succeeds when the current value satisfies it; otherwise Set
	// returns ErrConflict and leaves the store unchanged.
	Set(ctx context.Context, pk, sk, value string, constraint Constraint) error

	// Delete removes the value at (pk, sk), if any. Deleting an absent key
	// is not an error.
	Delete(ctx context.Context, pk, sk string) error
}
