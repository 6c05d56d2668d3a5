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

// Package bootstrap wires the environment-selected backends into a running
// scheduler. It is the one place that knows about GROVE_*_HANDLER; both
// cmd/grove and cmd/groved call Build and differ only in whether they call
// RunOnce or Run on the result.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tombee/grove/internal/handler"
	"github.com/tombee/grove/internal/pipeline"
	"github.com/tombee/grove/internal/scheduler"
	"github.com/tombee/grove/pkg/secrets"

	// Backend implementations register themselves from init(); importing
	// for side effect only is what makes a backend available to select
	// via its GROVE_*_HANDLER environment variable.
	_ "github.com/tombee/grove/internal/backend/cache/memory"
	_ "github.com/tombee/grove/internal/backend/cache/sqlite"
	_ "github.com/tombee/grove/internal/backend/config/localfile"
	_ "github.com/tombee/grove/internal/backend/output/file"
	_ "github.com/tombee/grove/internal/backend/output/stdout"
	_ "github.com/tombee/grove/internal/backend/secret/env"
	_ "github.com/tombee/grove/internal/backend/secret/file"
	_ "github.com/tombee/grove/internal/backend/secret/keychain"
)

const (
	envConfigHandler = "GROVE_CONFIG_HANDLER"
	envCacheHandler  = "GROVE_CACHE_HANDLER"
	envOutputHandler = "GROVE_OUTPUT_HANDLER"
	envSecretHandler = "GROVE_SECRET_HANDLER"
)

const (
	defaultConfigHandler = "localfile"
	defaultCacheHandler  = "memory"
	defaultOutputHandler = "stdout"
)

// Environment holds the fully-wired scheduler ready to run, plus the logger
// it was built with.
type Environment struct {
	Scheduler *scheduler.Scheduler
	Logger    *slog.Logger
}

// Build resolves every GROVE_*_HANDLER backend, constructs the pipeline and
// scheduler, and returns the result. A secret backend is optional — when
// GROVE_SECRET_HANDLER is unset, instances must supply inline credentials.
func Build(version string, logger *slog.Logger) (*Environment, error) {
	if version != "" {
		pipeline.Version = version
	}

	configName := orDefault(os.Getenv(envConfigHandler), defaultConfigHandler)
	cacheName := orDefault(os.Getenv(envCacheHandler), defaultCacheHandler)
	outputName := orDefault(os.Getenv(envOutputHandler), defaultOutputHandler)

	configBackend, err := handler.Config(configName)
	if err != nil {
		return nil, fmt.Errorf("config backend: %w", err)
	}
	cacheBackend, err := handler.Cache(cacheName)
	if err != nil {
		return nil, fmt.Errorf("cache backend: %w", err)
	}
	outputBackend, err := handler.Output(outputName)
	if err != nil {
		return nil, fmt.Errorf("output backend: %w", err)
	}

	backends := pipeline.Backends{
		Cache:  cacheBackend,
		Output: outputBackend,
	}
	if secretName := os.Getenv(envSecretHandler); secretName != "" {
		secretBackend, err := handler.Secret(secretName)
		if err != nil {
			return nil, fmt.Errorf("secret backend: %w", err)
		}
		backends.Secret = secretBackend
	}

	masker := secrets.NewMasker()
	// runtime_id is not set here: it varies per run and is merged in by
	// the pipeline itself (see pipeline.perRunRuntime), so every run's
	// runtime carries pid, hostname and runtime_id.
	runtime := pipeline.Runtime{
		"pid":      os.Getpid(),
		"hostname": hostname(),
	}

	p := pipeline.New(backends, masker, runtime, logger)
	s := scheduler.New(scheduler.DefaultConfig(), configBackend, p, logger)

	return &Environment{Scheduler: s, Logger: logger}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
