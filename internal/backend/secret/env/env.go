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

// Package env is an optional secret backend (GROVE_SECRET_HANDLER=env): it resolves a credential
// reference by looking up an environment variable of the same name.
package env

import (
	"context"
	"fmt"
	"os"

	"github.com/tombee/grove/internal/backend/secret"
	"github.com/tombee/grove/internal/handler"
)

func init() {
	handler.RegisterSecret("env", func() (secret.Backend, error) {
		return New(), nil
	})
}

// Backend resolves secrets from the process environment.
type Backend struct{}

// New creates an environment-variable secret backend.
func New() *Backend {
	return &Backend{}
}

// Fetch implements secret.Backend. path is the environment variable name.
func (b *Backend) Fetch(ctx context.Context, path string) ([]byte, error) {
	value, ok := os.LookupEnv(path)
	if !ok {
		return nil, fmt.Errorf("environment variable %s not set", path)
	}
	if value == "" {
		return nil, fmt.Errorf("environment variable %s is empty", path)
	}
	return []byte(value), nil
}
