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

package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/tombee/grove/internal/backend/cache/memory"
	"github.com/tombee/grove/internal/connector"
	"github.com/tombee/grove/internal/pipeline"
	"github.com/tombee/grove/internal/testing/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConfigBackend serves an in-memory, mutable set of named documents.
type fakeConfigBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newFakeConfigBackend(docs map[string][]byte) *fakeConfigBackend {
	copied := make(map[string][]byte, len(docs))
	for k, v := range docs {
		copied[k] = v
	}
	return &fakeConfigBackend{docs: copied}
}

func (f *fakeConfigBackend) List(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.docs))
	for id := range f.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeConfigBackend) Get(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("not found: %s", id)
	}
	return raw, nil
}

func (f *fakeConfigBackend) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
}

type noopOutput struct{}

func (noopOutput) Write(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	return nil
}

func TestScheduler_RunOnce(t *testing.T) {
	body := mock.New("mockconn-runonce")
	connector.Register(body)

	backend := newFakeConfigBackend(map[string][]byte{
		"a.yaml": []byte("name: a\nidentity: acme\nconnector: mockconn-runonce\nkey: shh\n"),
	})

	p := pipeline.New(pipeline.Backends{Cache: memory.New(), Output: noopOutput{}}, nil, nil, testLogger())
	s := New(DefaultConfig(), backend, p, testLogger())

	anyFatal, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if anyFatal {
		t.Error("RunOnce() reported a fatal instance, want none")
	}
	if len(body.Calls) != 1 {
		t.Fatalf("len(body.Calls) = %d, want 1", len(body.Calls))
	}
}

func TestScheduler_RunOnce_NoInstances(t *testing.T) {
	backend := newFakeConfigBackend(nil)
	p := pipeline.New(pipeline.Backends{Cache: memory.New(), Output: noopOutput{}}, nil, nil, testLogger())
	s := New(DefaultConfig(), backend, p, testLogger())

	_, err := s.RunOnce(context.Background())
	if err == nil {
		t.Fatal("RunOnce() error = nil, want error for empty instance set")
	}
}

func TestScheduler_Refresh_RemovesInstance(t *testing.T) {
	body := mock.New("mockconn-refresh")
	connector.Register(body)

	backend := newFakeConfigBackend(map[string][]byte{
		"a.yaml": []byte("name: a\nidentity: acme\nconnector: mockconn-refresh\nkey: shh\n"),
	})

	p := pipeline.New(pipeline.Backends{Cache: memory.New(), Output: noopOutput{}}, nil, nil, testLogger())
	s := New(DefaultConfig(), backend, p, testLogger())

	if err := s.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}
	if len(s.instances) != 1 {
		t.Fatalf("len(instances) = %d, want 1", len(s.instances))
	}

	backend.remove("a.yaml")
	if err := s.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}
	if len(s.instances) != 0 {
		t.Errorf("len(instances) = %d, want 0 after removal", len(s.instances))
	}
}
