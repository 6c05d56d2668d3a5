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

// Package keychain is an optional secret backend that resolves credentials
// from the host OS keychain (macOS Keychain, Secret Service on Linux,
// Windows Credential Manager), for operators who would rather not place
// credentials in files or environment variables at all.
package keychain

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tombee/grove/internal/backend/secret"
	"github.com/tombee/grove/internal/handler"
	"github.com/zalando/go-keyring"
)

func init() {
	handler.RegisterSecret("keychain", func() (secret.Backend, error) {
		service := os.Getenv("GROVE_SECRET_KEYCHAIN_SERVICE")
		if service == "" {
			service = "grove"
		}
		return New(service), nil
	})
}

// Backend resolves secrets from the OS keychain under a single service name.
type Backend struct {
	service string
}

// New creates a keychain secret backend scoped to service, typically "grove".
func New(service string) *Backend {
	return &Backend{service: service}
}

// Fetch implements secret.Backend. path is the keychain entry name.
func (b *Backend) Fetch(ctx context.Context, path string) ([]byte, error) {
	value, err := keyring.Get(b.service, path)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("keychain entry %q not found", path)
		}
		return nil, fmt.Errorf("keychain entry %q: %w", path, err)
	}
	return []byte(value), nil
}
