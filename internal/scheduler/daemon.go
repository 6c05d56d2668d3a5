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
	"time"

	docconfig "github.com/tombee/grove/internal/config"
	"github.com/tombee/grove/internal/connector"
	"github.com/tombee/grove/internal/pipeline"
)

// Run starts the daemon loop: a config-refresh task and a dispatch tick,
// both driven off ctx. Run blocks until ctx is cancelled, then waits up to
// ShutdownGrace for in-flight runs before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		s.logger.Error("initial configuration load failed", "error", err)
	}

	refreshTicker := time.NewTicker(s.cfg.ConfigRefresh)
	defer refreshTicker.Stop()

	dispatchTicker := time.NewTicker(time.Second)
	defer dispatchTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.drain()
		case <-refreshTicker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Error("configuration refresh failed", "error", err)
			}
		case now := <-dispatchTicker.C:
			s.dispatch(ctx, now)
		}
	}
}

// drain waits up to ShutdownGrace for in-flight runs to finish.
func (s *Scheduler) drain() error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(s.cfg.ShutdownGrace):
		s.logger.Warn("shutdown grace period elapsed with runs still in flight")
		return nil
	}
}

// refresh re-lists and re-parses configuration documents, diffing against
// the current instance set by document name and content hash: new documents
// are added, disappeared ones removed (an in-flight run over a removed
// instance is left to complete and persist its pointer; it is simply not
// rescheduled again), and changed ones replaced.
func (s *Scheduler) refresh(ctx context.Context) error {
	result, err := docconfig.Load(ctx, s.backend)
	if err != nil {
		return err
	}
	for _, loadErr := range result.Errors {
		s.logger.Error("configuration document rejected", "error", loadErr)
	}

	seen := make(map[string]bool, len(result.Documents))

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range result.Documents {
		seen[doc.Name] = true

		if doc.Disabled {
			delete(s.instances, doc.Name)
			continue
		}

		existing, ok := s.instances[doc.Name]
		if ok && existing.doc.Hash == doc.Hash {
			continue
		}

		body, err := connector.Get(doc.Connector)
		if err != nil {
			s.logger.Error("connector not registered, skipping instance", "instance", doc.Name, "connector", doc.Connector, "error", err)
			continue
		}

		if ok {
			s.instances[doc.Name] = &instance{doc: doc, body: body, lastRun: existing.lastRun}
		} else {
			s.instances[doc.Name] = &instance{doc: doc, body: body}
		}
	}

	for name := range s.instances {
		if !seen[name] {
			delete(s.instances, name)
		}
	}

	return nil
}

// dispatch starts a worker for every instance that is not currently
// running and whose last run is older than its configured frequency.
func (s *Scheduler) dispatch(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []*instance
	for _, inst := range s.instances {
		if inst.running {
			continue
		}
		frequency := time.Duration(effectiveFrequency(inst.doc, inst.body)) * time.Second
		if now.Sub(inst.lastRun) < frequency {
			continue
		}
		inst.running = true
		due = append(due, inst)
	}
	s.mu.Unlock()

	for _, inst := range due {
		s.wg.Add(1)
		go s.runInstance(ctx, inst)
	}
}

func (s *Scheduler) runInstance(ctx context.Context, inst *instance) {
	defer s.wg.Done()

	s.acquireSlot()
	defer s.releaseSlot()

	runCtx := ctx
	var cancel context.CancelFunc
	margin := 5 * time.Second
	if deadline := time.Duration(effectiveFrequency(inst.doc, inst.body))*time.Second - margin; deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	outcome := s.pipeline.Run(runCtx, inst.doc, inst.body, pipeline.NewRuntimeID())
	if outcome.Err != nil {
		s.logger.Error("instance run failed", "instance", inst.doc.Name, "error", outcome.Err)
	}

	s.mu.Lock()
	if current, ok := s.instances[inst.doc.Name]; ok && current == inst {
		inst.running = false
		inst.lastRun = time.Now().UTC()
	}
	s.mu.Unlock()
}

func effectiveFrequency(doc *docconfig.Document, body connector.Connector) int {
	if doc.Frequency > 0 {
		return doc.Frequency
	}
	return body.DefaultFrequency()
}
