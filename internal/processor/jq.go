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

package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

// DefaultJQTimeout bounds how long a single record's jq evaluation may run.
const DefaultJQTimeout = 1 * time.Second

// JQ implements an optional processor that reshapes each record with an
// arbitrary jq expression, for operators who need a transform the built-ins
// don't cover.
type JQ struct {
	expression string
	code       *gojq.Code
	timeout    time.Duration
}

// NewJQ compiles expression once at construction, so a syntax error surfaces
// when the pipeline builds the chain at the start of a run, before the
// connector body is invoked, rather than per record.
func NewJQ(expression string) (*JQ, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parse jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile jq expression: %w", err)
	}
	return &JQ{expression: expression, code: code, timeout: DefaultJQTimeout}, nil
}

// Name implements Processor.
func (j *JQ) Name() string { return "jq" }

// Apply implements Processor.
func (j *JQ) Apply(batch Batch) (Batch, error) {
	out := make(Batch, 0, len(batch))

	for i, record := range batch {
		transformed, err := j.run(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, transformed)
	}

	return out, nil
}

func (j *JQ) run(record map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	iter := j.code.Run(record)

	resultCh := make(chan interface{}, 1)
	errCh := make(chan error, 1)

	go func() {
		v, ok := iter.Next()
		if !ok {
			errCh <- fmt.Errorf("jq expression %q produced no output", j.expression)
			return
		}
		if err, isErr := v.(error); isErr {
			errCh <- err
			return
		}
		resultCh <- v
	}()

	select {
	case result := <-resultCh:
		transformed, ok := result.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("jq expression %q must produce an object", j.expression)
		}
		return transformed, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("jq expression %q timed out after %s", j.expression, j.timeout)
	}
}
