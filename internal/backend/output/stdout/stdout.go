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

// Package stdout is the default output backend: it writes each artifact to
// an underlying writer (by default os.Stdout) under a mutex so artifacts
// never interleave, each prefixed with a header line carrying its key so
// downstream shell pipelines can demultiplex artifacts.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tombee/grove/internal/backend/output"
	"github.com/tombee/grove/internal/handler"
)

func init() {
	handler.RegisterOutput("stdout", func() (output.Backend, error) {
		return New(), nil
	})
}

// Backend writes artifacts to an io.Writer, one at a time.
type Backend struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a backend writing to os.Stdout.
func New() *Backend {
	return &Backend{w: os.Stdout}
}

// NewWithWriter creates a backend writing to an arbitrary writer, primarily
// for tests.
func NewWithWriter(w io.Writer) *Backend {
	return &Backend{w: w}
}

// Write implements output.Backend. metadata is not written: the header line
// carries only the key, since stdout has no concept of object tags.
func (b *Backend) Write(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := fmt.Fprintf(b.w, "--- %s ---\n", key); err != nil {
		return err
	}
	if _, err := b.w.Write(data); err != nil {
		return err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		if _, err := b.w.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return nil
}
