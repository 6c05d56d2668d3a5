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

package connector

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	bodies   = make(map[string]Connector)
)

// Register adds a connector body under its own Name(). Intended to be
// called from a connector package's init(). Registering two bodies under
// the same name is a programming error and panics, mirroring how the
// standard library treats duplicate driver registration.
func Register(c Connector) {
	mu.Lock()
	defer mu.Unlock()

	name := c.Name()
	if _, exists := bodies[name]; exists {
		panic(fmt.Sprintf("connector: body %q already registered", name))
	}
	bodies[name] = c
}

// Get returns the connector body registered under name.
func Get(name string) (Connector, error) {
	mu.RLock()
	defer mu.RUnlock()

	c, ok := bodies[name]
	if !ok {
		return nil, fmt.Errorf("connector %q not registered (available: %v)", name, names())
	}
	return c, nil
}

// names returns the registered connector names, sorted. Callers must hold
// mu.
func names() []string {
	list := make([]string, 0, len(bodies))
	for name := range bodies {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}
