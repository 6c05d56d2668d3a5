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

// Package scheduler runs the instance set in one-shot or daemon mode: one
// worker per instance, a periodic config refresh that diffs the instance
// set by content hash, and a per-second dispatch tick bounded by
// configurable parallelism.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	backendconfig "github.com/tombee/grove/internal/backend/config"
	"github.com/tombee/grove/internal/connector"
	docconfig "github.com/tombee/grove/internal/config"
	"github.com/tombee/grove/internal/pipeline"
)

// instance is the scheduler's runtime binding of a configuration document
// to a connector body: the one thing the scheduler tracks per stream.
type instance struct {
	doc     *docconfig.Document
	body    connector.Connector
	lastRun time.Time
	running bool
}

// Config controls scheduler behavior.
type Config struct {
	// ConfigRefresh is how often daemon mode re-lists and re-parses
	// configuration documents. Default 300s.
	ConfigRefresh time.Duration

	// MaxConcurrentRuns bounds how many instance workers may run at once.
	// Zero means unbounded (limited only by the cache lock).
	MaxConcurrentRuns int

	// ShutdownGrace bounds how long daemon Run waits for in-flight runs to
	// finish after its context is cancelled.
	ShutdownGrace time.Duration
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		ConfigRefresh: 300 * time.Second,
		ShutdownGrace: 30 * time.Second,
	}
}

// Scheduler maintains the instance set and runs the pipeline against it.
type Scheduler struct {
	cfg      Config
	backend  backendconfig.Backend
	pipeline *pipeline.Pipeline
	logger   *slog.Logger

	mu        sync.Mutex
	instances map[string]*instance // keyed by doc.Name, not stream key; of two documents sharing a name, only one is scheduled

	sem chan struct{} // bounded-parallelism semaphore, nil when unbounded

	wg sync.WaitGroup
}

// New creates a scheduler reading documents from backend and running them
// through p.
func New(cfg Config, backend backendconfig.Backend, p *pipeline.Pipeline, logger *slog.Logger) *Scheduler {
	if cfg.ConfigRefresh <= 0 {
		cfg.ConfigRefresh = 300 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	var sem chan struct{}
	if cfg.MaxConcurrentRuns > 0 {
		sem = make(chan struct{}, cfg.MaxConcurrentRuns)
	}

	return &Scheduler{
		cfg:       cfg,
		backend:   backend,
		pipeline:  p,
		logger:    logger,
		instances: make(map[string]*instance),
		sem:       sem,
	}
}

// RunOnce lists and parses every configuration document, runs every
// enabled instance exactly once concurrently, and returns once all have
// finished. It returns an error if zero instances loaded, and reports
// whether any instance's run ended in a fatal error.
func (s *Scheduler) RunOnce(ctx context.Context) (anyFatal bool, err error) {
	result, err := docconfig.Load(ctx, s.backend)
	if err != nil {
		return false, fmt.Errorf("load configuration: %w", err)
	}
	for _, loadErr := range result.Errors {
		s.logger.Error("configuration document rejected", "error", loadErr)
	}

	enabled := enabledDocuments(result.Documents)
	if len(enabled) == 0 {
		return false, fmt.Errorf("no instances loaded")
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, doc := range enabled {
		doc := doc
		body, lookupErr := connector.Get(doc.Connector)
		if lookupErr != nil {
			s.logger.Error("connector not registered", "connector", doc.Connector, "error", lookupErr)
			mu.Lock()
			anyFatal = true
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.acquireSlot()
			defer s.releaseSlot()

			outcome := s.pipeline.Run(ctx, doc, body, pipeline.NewRuntimeID())
			if outcome.Err != nil {
				s.logger.Error("instance run failed", "instance", doc.Name, "error", outcome.Err)
				mu.Lock()
				anyFatal = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return anyFatal, nil
}

func (s *Scheduler) acquireSlot() {
	if s.sem != nil {
		s.sem <- struct{}{}
	}
}

func (s *Scheduler) releaseSlot() {
	if s.sem != nil {
		<-s.sem
	}
}

func enabledDocuments(docs []*docconfig.Document) []*docconfig.Document {
	out := make([]*docconfig.Document, 0, len(docs))
	for _, d := range docs {
		if !d.Disabled {
			out = append(out, d)
		}
	}
	return out
}
