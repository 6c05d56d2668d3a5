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

// Package processor implements the batch transform chain applied between a
// connector's fetch and the pipeline's emit. Processors are pure relative
// to the batch: no external state, no blocking I/O.
package processor

// Batch is the unit every processor transforms: an ordered slice of
// records. Chain.Apply clones it once before the first stage, so a failed
// stage never corrupts the input the pipeline will report against.
type Batch []map[string]interface{}

// Clone returns a copy of b safe for a processor chain to mutate without
// affecting the batch the caller still holds: each record's top-level map
// is copied, and setPath clones every intermediate map it descends into,
// so nested values reached via a dotted path are never shared between
// clone and source either.
func (b Batch) Clone() Batch {
	out := make(Batch, len(b))
	for i, record := range b {
		clone := make(map[string]interface{}, len(record))
		for k, v := range record {
			clone[k] = v
		}
		out[i] = clone
	}
	return out
}

// Processor is one named batch transform.
type Processor interface {
	// Name identifies the processor for error reporting and registration.
	Name() string

	// Apply transforms a batch. A returned error fails the whole batch;
	// the pipeline does not advance the pointer for it.
	Apply(batch Batch) (Batch, error)
}

// Chain applies a sequence of processors in order. A failure at any stage
// aborts the remaining stages and returns the error, per stage name.
type Chain []Processor

// Apply runs every processor in the chain in order. The input batch is
// cloned before the first stage runs, so the chain never mutates the
// caller's original records even if a stage's own cloning were to fall
// short.
func (c Chain) Apply(batch Batch) (Batch, error) {
	current := batch.Clone()
	for _, p := range c {
		next, err := p.Apply(current)
		if err != nil {
			return nil, &stageError{stage: p.Name(), cause: err}
		}
		current = next
	}
	return current, nil
}

type stageError struct {
	stage string
	cause error
}

func (e *stageError) Error() string {
	return "processor " + e.stage + ": " + e.cause.Error()
}

func (e *stageError) Unwrap() error { return e.cause }
