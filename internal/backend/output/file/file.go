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

// Package file is an optional output backend that writes each artifact to
// its own file under a root directory, named by its key with path
// separators preserved as nested directories.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tombee/grove/internal/backend/output"
	"github.com/tombee/grove/internal/handler"
)

func init() {
	handler.RegisterOutput("file", func() (output.Backend, error) {
		dir := os.Getenv("GROVE_OUTPUT_DIR")
		if dir == "" {
			dir = "./grove-output"
		}
		return New(dir)
	})
}

// Backend writes artifacts as files under a root directory.
type Backend struct {
	root string
}

// New creates a backend rooted at dir. dir is created if it does not exist.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &Backend{root: dir}, nil
}

// Write implements output.Backend. The artifact is written via a temp file
// and renamed into place so a reader never observes a partial write.
func (b *Backend) Write(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	path := filepath.Join(b.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".grove-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", key, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s into place: %w", key, err)
	}

	return nil
}
