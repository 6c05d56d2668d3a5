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

// Package file is an optional secret backend that resolves a credential
// reference to the contents of a file, conventionally a Kubernetes- or
// Docker-secret mount. It is disabled unless an allowlist of directories
// is configured, so a misconfigured instance cannot read arbitrary files
// off the host.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tombee/grove/internal/backend/secret"
	"github.com/tombee/grove/internal/handler"
)

func init() {
	handler.RegisterSecret("file", func() (secret.Backend, error) {
		raw := os.Getenv("GROVE_SECRET_FILE_PATH")
		if raw == "" {
			return New(nil), nil
		}
		return New(strings.Split(raw, string(os.PathListSeparator))), nil
	})
}

// MaxSize is the largest secret file file will read.
const MaxSize = 64 * 1024

// Backend resolves secrets from files under an allowlisted set of directories.
type Backend struct {
	allowlist []string
}

// New creates a file secret backend. allowlist entries are absolute
// directory paths; a reference resolving outside all of them is refused.
// An empty allowlist refuses every reference.
func New(allowlist []string) *Backend {
	cleaned := make([]string, len(allowlist))
	for i, dir := range allowlist {
		cleaned[i] = filepath.Clean(dir)
	}
	return &Backend{allowlist: cleaned}
}

// Fetch implements secret.Backend. path must be an absolute file path
// under one of the backend's allowlisted directories.
func (b *Backend) Fetch(ctx context.Context, path string) ([]byte, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("secret path %q must be absolute", path)
	}

	resolved, err := b.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("resolve secret path %q: %w", path, err)
	}

	if !b.allowed(resolved) {
		return nil, fmt.Errorf("secret path %q is not in the allowlist", path)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat secret %q: %w", path, err)
	}
	if info.Size() > MaxSize {
		return nil, fmt.Errorf("secret %q exceeds %d bytes", path, MaxSize)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read secret %q: %w", path, err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return nil, fmt.Errorf("secret %q is empty", path)
	}
	return []byte(value), nil
}

func (b *Backend) resolve(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return filepath.Clean(path), nil
		}
		return "", err
	}
	return filepath.Clean(resolved), nil
}

func (b *Backend) allowed(resolved string) bool {
	for _, dir := range b.allowlist {
		if resolved == dir || strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
