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

package config

import (
	"context"
	"fmt"

	"github.com/tombee/grove/internal/backend/config"
)

// LoadResult is the outcome of one load/refresh pass: the documents that
// parsed and validated cleanly, plus one error per document that did not.
// A bad document never prevents the good ones from loading.
type LoadResult struct {
	Documents []*Document
	Errors    []error
}

// Load lists and parses every document the backend currently holds.
// Invalid documents are skipped and reported in LoadResult.Errors; the
// (connector, identity, operation) uniqueness invariant is enforced across
// the whole set, rejecting every document but the first for a duplicate
// stream key.
func Load(ctx context.Context, backend config.Backend) (*LoadResult, error) {
	ids, err := backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list configuration documents: %w", err)
	}

	result := &LoadResult{}
	seen := make(map[string]string) // stream key -> document id

	for _, id := range ids {
		raw, err := backend.Get(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("fetch document %s: %w", id, err))
			continue
		}

		doc, err := Parse(id, raw)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		key := doc.StreamKey()
		if owner, dup := seen[key]; dup {
			result.Errors = append(result.Errors, fmt.Errorf(
				"document %s: duplicate (connector, identity, operation) also claimed by %s", id, owner))
			continue
		}
		seen[key] = id

		result.Documents = append(result.Documents, doc)
	}

	return result, nil
}
