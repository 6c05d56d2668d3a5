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

// Package handler is the backend selection registry: each concrete backend
// package registers a named constructor from its own init(), and the
// scheduler or CLI resolves a backend at startup by looking up the name
// chosen via a GROVE_*_HANDLER environment variable. This keeps backend
// selection a single map lookup rather than a chain of type switches, and
// lets optional backends (sqlite, file, keychain) be added to the binary
// by blank-importing their package, without the core ever naming them.
package handler

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tombee/grove/internal/backend/cache"
	"github.com/tombee/grove/internal/backend/config"
	"github.com/tombee/grove/internal/backend/output"
	"github.com/tombee/grove/internal/backend/secret"
)

// ConfigFactory constructs a configuration backend.
type ConfigFactory func() (config.Backend, error)

// CacheFactory constructs a cache backend.
type CacheFactory func() (cache.Backend, error)

// OutputFactory constructs an output backend.
type OutputFactory func() (output.Backend, error)

// SecretFactory constructs a secret backend.
type SecretFactory func() (secret.Backend, error)

var (
	mu              sync.RWMutex
	configFactories = make(map[string]ConfigFactory)
	cacheFactories  = make(map[string]CacheFactory)
	outputFactories = make(map[string]OutputFactory)
	secretFactories = make(map[string]SecretFactory)
)

// RegisterConfig registers a named configuration backend constructor.
// Intended to be called from a backend package's init().
func RegisterConfig(name string, factory ConfigFactory) {
	mu.Lock()
	defer mu.Unlock()
	configFactories[name] = factory
}

// RegisterCache registers a named cache backend constructor.
func RegisterCache(name string, factory CacheFactory) {
	mu.Lock()
	defer mu.Unlock()
	cacheFactories[name] = factory
}

// RegisterOutput registers a named output backend constructor.
func RegisterOutput(name string, factory OutputFactory) {
	mu.Lock()
	defer mu.Unlock()
	outputFactories[name] = factory
}

// RegisterSecret registers a named secret backend constructor.
func RegisterSecret(name string, factory SecretFactory) {
	mu.Lock()
	defer mu.Unlock()
	secretFactories[name] = factory
}

// Config constructs the named configuration backend.
func Config(name string) (config.Backend, error) {
	mu.RLock()
	factory, ok := configFactories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown config handler %q (available: %v)", name, sortedKeys(configFactories))
	}
	return factory()
}

// Cache constructs the named cache backend.
func Cache(name string) (cache.Backend, error) {
	mu.RLock()
	factory, ok := cacheFactories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown cache handler %q (available: %v)", name, sortedKeys(cacheFactories))
	}
	return factory()
}

// Output constructs the named output backend.
func Output(name string) (output.Backend, error) {
	mu.RLock()
	factory, ok := outputFactories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown output handler %q (available: %v)", name, sortedKeys(outputFactories))
	}
	return factory()
}

// Secret constructs the named secret backend.
func Secret(name string) (secret.Backend, error) {
	mu.RLock()
	factory, ok := secretFactories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown secret handler %q (available: %v)", name, sortedKeys(secretFactories))
	}
	return factory()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
