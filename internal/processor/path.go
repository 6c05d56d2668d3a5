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

import "strings"

// getPath resolves a dotted path ("a.b.c") against a record, returning the
// value and whether every segment existed.
func getPath(record map[string]interface{}, path string) (interface{}, bool) {
	segments := strings.Split(path, ".")
	var current interface{} = record

	for _, seg := range segments {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath assigns value at a dotted path inside record, creating
// intermediate maps as needed. Every intermediate map it descends into is
// cloned before being written back, so a caller holding a shallow,
// top-level-only clone of record never sees its own nested maps mutated
// through the clone.
func setPath(record map[string]interface{}, path string, value interface{}) {
	segments := strings.Split(path, ".")
	current := record

	for i, seg := range segments {
		if i == len(segments)-1 {
			current[seg] = value
			return
		}
		next := cloneSegment(current[seg])
		current[seg] = next
		current = next
	}
}

// cloneSegment returns a shallow copy of v's entries if v is a map,
// otherwise a fresh empty map (overwriting whatever non-map value, if any,
// occupied the segment).
func cloneSegment(v interface{}) map[string]interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return make(map[string]interface{})
	}
	clone := make(map[string]interface{}, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
