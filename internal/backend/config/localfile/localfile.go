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

// Package localfile is the default configuration backend: a directory of
// YAML documents, one instance configuration per file.
package localfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tombee/grove/internal/backend/config"
	"github.com/tombee/grove/internal/handler"
)

func init() {
	handler.RegisterConfig("localfile", func() (config.Backend, error) {
		dir := os.Getenv("GROVE_CONFIG_DIR")
		if dir == "" {
			dir = "./grove.d"
		}
		return New(dir), nil
	})
}

// Backend lists and reads configuration documents from a local directory.
type Backend struct {
	dir string
}

// New creates a backend rooted at dir. The directory is read on every List
// call; Grove's scheduler refresh relies on this to observe additions and
// removals without restarting the process.
func New(dir string) *Backend {
	return &Backend{dir: dir}
}

// List implements config.Backend.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("read config dir %s: %w", b.dir, err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		ids = append(ids, name)
	}
	sort.Strings(ids)
	return ids, nil
}

// Get implements config.Backend.
func (b *Backend) Get(ctx context.Context, id string) ([]byte, error) {
	path := filepath.Join(b.dir, id)
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(b.dir)) {
		return nil, fmt.Errorf("invalid document id %q", id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config document %s: %w", id, err)
	}
	return data, nil
}
