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

package processor

// Split implements the split processor: given a dotted path resolving to a
// sequence inside each record, it produces one output record per element,
// cloning all sibling fields and replacing the path's value with the
// single element. A record whose path is absent or not a sequence passes
// through unchanged.
type Split struct {
	Path string
}

// NewSplit creates a split processor over the given dotted source path.
func NewSplit(path string) *Split {
	return &Split{Path: path}
}

// Name implements Processor.
func (s *Split) Name() string { return "split" }

// Apply implements Processor.
func (s *Split) Apply(batch Batch) (Batch, error) {
	out := make(Batch, 0, len(batch))

	for _, record := range batch {
		value, ok := getPath(record, s.Path)
		if !ok {
			out = append(out, record)
			continue
		}

		seq, ok := value.([]interface{})
		if !ok {
			out = append(out, record)
			continue
		}

		for _, elem := range seq {
			clone := make(map[string]interface{}, len(record))
			for k, v := range record {
				clone[k] = v
			}
			setPath(clone, s.Path, elem)
			out = append(out, clone)
		}
	}

	return out, nil
}
