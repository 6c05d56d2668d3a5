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

// Package pipeline runs the nine-step record pipeline for one instance: lock,
// resolve secrets, load pointer, collect, process, stamp, emit, checkpoint,
// unlock.
package pipeline

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	backendcache "github.com/tombee/grove/internal/backend/cache"
	backendoutput "github.com/tombee/grove/internal/backend/output"
	backendsecret "github.com/tombee/grove/internal/backend/secret"
	docconfig "github.com/tombee/grove/internal/config"
	"github.com/tombee/grove/internal/connector"
	grovelog "github.com/tombee/grove/internal/log"
	"github.com/tombee/grove/internal/metrics"
	"github.com/tombee/grove/internal/processor"
	groveerrors "github.com/tombee/grove/pkg/errors"
	"github.com/tombee/grove/pkg/secrets"
)

// Version is the software version stamped into every record's provenance.
// Overridden at build time via -ldflags.
var Version = "dev"

// Runtime identifies the process or function executing this pipeline, for
// the `_grove.runtime` provenance field.
type Runtime map[string]interface{}

// Backends bundles the resolved cache, output and optional secret backends a
// pipeline run uses.
type Backends struct {
	Cache  backendcache.Backend
	Output backendoutput.Backend
	Secret backendsecret.Backend // may be nil
}

// Pipeline runs instances against a fixed set of backends.
type Pipeline struct {
	Backends Backends
	Masker   *secrets.Masker
	Runtime  Runtime
	Logger   *slog.Logger
}

// New creates a pipeline. A nil masker or logger is replaced with a usable
// default.
func New(backends Backends, masker *secrets.Masker, runtime Runtime, logger *slog.Logger) *Pipeline {
	if masker == nil {
		masker = secrets.NewMasker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Backends: backends, Masker: masker, Runtime: runtime, Logger: logger}
}

// perRunRuntime merges base (the pipeline's static runtime fields, e.g.
// hostname) with this run's runtime_id, which varies per invocation and
// must never be baked into a value shared across runs.
func perRunRuntime(base Runtime, runtimeID string) Runtime {
	runtime := make(Runtime, len(base)+1)
	for k, v := range base {
		runtime[k] = v
	}
	runtime["runtime_id"] = runtimeID
	return runtime
}

// Outcome summarizes one run for the caller (scheduler or CLI).
type Outcome struct {
	BatchesEmitted int
	RecordsEmitted int
	Err            error
}

// Run executes the full pipeline for one instance.
func (p *Pipeline) Run(ctx context.Context, doc *docconfig.Document, body connector.Connector, runtimeID string) Outcome {
	start := time.Now().UTC()
	logger := p.Logger.With(
		grovelog.ConnectorKey, doc.Connector,
		grovelog.IdentityKey, doc.Identity,
		grovelog.OperationKey, doc.Operation,
	)

	pk := pointerPartitionKey(doc.Connector, doc.Identity)
	sk := sortKey(doc.Operation)
	lockPK := lockPartitionKey(doc.Connector, doc.Identity)

	// 1. Acquire lock.
	acquired, err := p.acquireLock(ctx, lockPK, sk, runtimeID, lockDeadline(doc.Frequency))
	if err != nil {
		return Outcome{Err: groveerrors.NewRunError(&groveerrors.BackendError{Backend: "cache", Operation: "acquire lock", Cause: err})}
	}
	if !acquired {
		logger.Debug("skipping run: already locked")
		metrics.LockContention.WithLabelValues(doc.Connector).Inc()
		return Outcome{}
	}
	defer func() {
		if err := p.Backends.Cache.Delete(context.Background(), lockPK, sk); err != nil {
			logger.Warn("failed to release lock", grovelog.Error(err))
		}
	}()

	// 2. Resolve secrets.
	credentials, err := p.resolveSecrets(ctx, doc)
	if err != nil {
		return Outcome{Err: groveerrors.NewRunError(err)}
	}

	// 3. Load pointer.
	previousPointer, err := p.Backends.Cache.Get(ctx, pk, sk)
	if err == backendcache.ErrNotFound {
		previousPointer = body.InitialPointer()
	} else if err != nil {
		return Outcome{Err: groveerrors.NewRunError(&groveerrors.BackendError{Backend: "cache", Operation: "load pointer", Cause: err})}
	}

	chain, err := buildChain(doc.Processors)
	if err != nil {
		return Outcome{Err: groveerrors.NewRunError(&groveerrors.ConfigError{Key: "processors", Reason: err.Error()})}
	}

	run := &runState{
		pipeline:        p,
		doc:             doc,
		logger:          logger,
		chain:           chain,
		pk:              pk,
		sk:              sk,
		runtimeID:       runtimeID,
		runtime:         perRunRuntime(p.Runtime, runtimeID),
		start:           start,
		previousPointer: previousPointer,
		currentPointer:  previousPointer,
	}

	// 4. Collect (invokes 5-8 per batch via run.Emit).
	req := connector.Request{
		Identity:    doc.Identity,
		Operation:   doc.Operation,
		Credentials: credentials,
		Fields:      doc.Extra,
		Helpers: connector.Helpers{
			Pointer: previousPointer,
			Emitter: run,
			Logger:  logger,
		},
	}

	middleware := grovelog.NewRunMiddleware(logger)
	var runErr *groveerrors.RunError
	collectErr := middleware.Wrap(&grovelog.RunStart{
		Connector: doc.Connector,
		Identity:  doc.Identity,
		Operation: doc.Operation,
		RuntimeID: runtimeID,
	}, func() (batches, records int, err error) {
		err = body.Collect(ctx, req)
		return run.batchSeq, run.recordsEmitted, err
	})

	elapsed := time.Since(start)
	outcome := "success"
	if collectErr != nil {
		runErr = groveerrors.NewRunError(collectErr)
		outcome = "error"
		metrics.RunErrors.WithLabelValues(doc.Connector, string(runErr.Kind)).Inc()
	} else if run.recordsEmitted == 0 {
		outcome = "empty"
	}
	metrics.RunDuration.WithLabelValues(doc.Connector, outcome).Observe(elapsed.Seconds())

	if runErr != nil {
		return Outcome{BatchesEmitted: run.batchSeq, RecordsEmitted: run.recordsEmitted, Err: runErr}
	}
	return Outcome{BatchesEmitted: run.batchSeq, RecordsEmitted: run.recordsEmitted}
}

// resolveSecrets merges the document's secrets mapping over its inline key,
// failing if neither a secret backend nor a complete set of inline
// credentials is available.
func (p *Pipeline) resolveSecrets(ctx context.Context, doc *docconfig.Document) (map[string]string, error) {
	credentials := make(map[string]string)
	if doc.Key != "" {
		credentials["key"] = doc.Key
	}

	if len(doc.Secrets) == 0 {
		if len(credentials) == 0 {
			return nil, &groveerrors.SecretError{Path: "", Reason: "no inline key and no secrets configured"}
		}
		return credentials, nil
	}

	if p.Backends.Secret == nil {
		return nil, &groveerrors.SecretError{Path: "", Reason: "secrets configured but no secret backend is available"}
	}

	for field, path := range doc.Secrets {
		value, err := p.Backends.Secret.Fetch(ctx, path)
		if err != nil {
			return nil, &groveerrors.SecretError{Path: path, Reason: "fetch failed", Cause: err}
		}
		p.Masker.AddSecret(string(value))
		credentials[field] = string(value)
	}

	return credentials, nil
}

func buildChain(specs []docconfig.ProcessorSpec) (processor.Chain, error) {
	converted := make([]processor.Spec, len(specs))
	for i, s := range specs {
		converted[i] = processor.Spec{Name: s.Name, Params: s.Params}
	}
	return processor.Build(converted)
}

// runState implements connector.Emitter, carrying the per-run mutable state
// (batch sequence, pointer, record count) that steps 5-8 of the pipeline
// operate on for every batch a connector body emits.
type runState struct {
	pipeline *Pipeline
	doc      *docconfig.Document
	logger   *slog.Logger
	chain    processor.Chain

	pk, sk    string
	runtimeID string
	runtime   Runtime
	start     time.Time

	previousPointer string
	currentPointer  string
	batchSeq        int
	recordsEmitted  int
}

// Emit implements connector.Emitter: process, stamp, serialize, write, then
// checkpoint — in that order, so the pointer only ever advances once a
// batch is durable.
func (r *runState) Emit(ctx context.Context, records []map[string]interface{}, pointer string) error {
	batch := processor.Batch(records)

	processed, err := r.chain.Apply(batch)
	if err != nil {
		return &groveerrors.ProcessorError{Processor: "chain", Message: err.Error(), Cause: err}
	}

	collectionTime := r.start.Format(time.RFC3339)
	for _, record := range processed {
		record["_grove"] = map[string]interface{}{
			"connector":        r.doc.Connector,
			"identity":         r.doc.Identity,
			"operation":        r.doc.Operation,
			"pointer":          pointer,
			"previous_pointer": r.previousPointer,
			"collection_time":  collectionTime,
			"runtime":          r.runtime,
			"version":          Version,
		}
	}

	payload, err := serialize(processed)
	if err != nil {
		return &groveerrors.ProcessorError{Processor: "serialize", Message: err.Error(), Cause: err}
	}

	key := outputKey(r.doc, r.start, r.batchSeq)
	metadata := map[string]string{
		"connector": r.doc.Connector,
		"identity":  r.doc.Identity,
		"operation": r.doc.Operation,
	}
	if err := r.pipeline.Backends.Output.Write(ctx, key, payload, metadata); err != nil {
		return &groveerrors.BackendError{Backend: "output", Operation: "write", Cause: err}
	}

	if err := r.pipeline.Backends.Cache.Set(ctx, r.pk, r.sk, pointer, backendcache.NoConstraint); err != nil {
		return &groveerrors.BackendError{Backend: "cache", Operation: "checkpoint", Cause: err}
	}

	r.previousPointer = pointer
	r.currentPointer = pointer
	r.batchSeq++
	r.recordsEmitted += len(processed)

	metrics.BatchesEmitted.WithLabelValues(r.doc.Connector).Inc()
	metrics.RecordsEmitted.WithLabelValues(r.doc.Connector).Add(float64(len(processed)))

	r.logger.Debug("batch emitted",
		grovelog.BatchSeqKey, r.batchSeq,
		"records", len(processed),
	)
	return nil
}

// serialize renders a batch as gzip-compressed newline-delimited JSON.
func serialize(batch processor.Batch) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	enc := json.NewEncoder(gz)
	for _, record := range batch {
		if err := enc.Encode(record); err != nil {
			gz.Close()
			return nil, fmt.Errorf("encode record: %w", err)
		}
	}

	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func outputKey(doc *docconfig.Document, start time.Time, batchSeq int) string {
	return fmt.Sprintf("%s/%s/%s/%s/%06d.ndjson.gz",
		doc.Connector, doc.Identity, orDefault(doc.Operation, "default"),
		start.Format("20060102T150405Z"), batchSeq)
}

func pointerPartitionKey(connectorName, identity string) string {
	return fmt.Sprintf("pointer.%s.%s", connectorName, identityHash(identity))
}

func lockPartitionKey(connectorName, identity string) string {
	return fmt.Sprintf("lock.%s.%s", connectorName, identityHash(identity))
}

func sortKey(operation string) string {
	return orDefault(operation, "default")
}

func identityHash(identity string) string {
	sum := md5.Sum([]byte(identity)) //nolint:gosec // key-shortening, not a security boundary
	return hex.EncodeToString(sum[:])
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// lockDeadline bounds a run's lock lease at twice its frequency, capped by
// GROVE_LOCK_TTL (default one hour), so a crashed worker's lock is
// eventually reclaimable without the scheduler tracking liveness itself.
func lockDeadline(frequencySeconds int) time.Duration {
	if frequencySeconds <= 0 {
		frequencySeconds = 300
	}
	d := 2 * time.Duration(frequencySeconds) * time.Second
	if ttl := maxLockTTL(); d > ttl {
		d = ttl
	}
	return d
}

// NewRuntimeID generates an opaque runtime identifier for the entrypoint to
// pass into every run it starts.
func NewRuntimeID() string {
	return uuid.NewString()
}

// acquireLock claims the run lock at (pk, sk), reclaiming it if the holder
// recorded there has an expired deadline — the crash-recovery path for a
// worker that died between acquiring the lock and the deferred Delete that
// would otherwise release it. Returns false, nil if the lock is genuinely
// held by a live run.
func (p *Pipeline) acquireLock(ctx context.Context, pk, sk, runtimeID string, deadline time.Duration) (bool, error) {
	value := formatLockValue(runtimeID, time.Now().UTC().Add(deadline))

	err := p.Backends.Cache.Set(ctx, pk, sk, value, backendcache.Constraint{Absent: true})
	if err == nil {
		return true, nil
	}
	if err != backendcache.ErrConflict {
		return false, err
	}

	existing, err := p.Backends.Cache.Get(ctx, pk, sk)
	if err == backendcache.ErrNotFound {
		// Lock cleared between our failed Set and this Get; retry once.
		err = p.Backends.Cache.Set(ctx, pk, sk, value, backendcache.Constraint{Absent: true})
		if err == nil {
			return true, nil
		}
		if err == backendcache.ErrConflict {
			return false, nil
		}
		return false, err
	}
	if err != nil {
		return false, err
	}

	if !lockExpired(existing) {
		return false, nil
	}

	err = p.Backends.Cache.Set(ctx, pk, sk, value, backendcache.Constraint{Expect: existing})
	if err == nil {
		return true, nil
	}
	if err == backendcache.ErrConflict {
		// Another process already reclaimed or renewed the lock first.
		return false, nil
	}
	return false, err
}

// lockExpired reports whether a lock value written by formatLockValue has
// passed its deadline. A value that fails to parse is treated as still
// held, so a malformed lock never causes two processes to collect the same
// stream concurrently.
func lockExpired(value string) bool {
	deadline, ok := parseLockValue(value)
	if !ok {
		return false
	}
	return time.Now().UTC().After(deadline)
}

// formatLockValue encodes the holder's runtime ID and lease deadline into
// the string stored at the lock key.
func formatLockValue(runtimeID string, deadline time.Time) string {
	return fmt.Sprintf("%s|%s", runtimeID, deadline.Format(time.RFC3339))
}

// parseLockValue decodes a lock value written by formatLockValue, returning
// its deadline and whether parsing succeeded.
func parseLockValue(value string) (time.Time, bool) {
	_, rawDeadline, ok := strings.Cut(value, "|")
	if !ok {
		return time.Time{}, false
	}
	deadline, err := time.Parse(time.RFC3339, rawDeadline)
	if err != nil {
		return time.Time{}, false
	}
	return deadline, true
}
