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

// Zip implements the zip processor: given a source path resolving to a
// sequence of objects, each carrying a "key" field and one or more value
// fields (listed in priority order), it replaces that sequence with a
// mapping whose keys are the key values and whose values are the first
// non-absent value field encountered. On duplicate keys the later entry
// wins.
type Zip struct {
	Path        string
	ValueFields []string
}

// NewZip creates a zip processor over path, trying each of valueFields in
// order for the output value.
func NewZip(path string, valueFields []string) *Zip {
	return &Zip{Path: path, ValueFields: valueFields}
}

// Name implements Processor.
func (z *Zip) Name() string { return "zip" }

// Apply implements Processor.
func (z *Zip) Apply(batch Batch) (Batch, error) {
	out := make(Batch, 0, len(batch))

	for _, record := range batch {
		value, ok := getPath(record, z.Path)
		if !ok {
			out = append(out, record)
			continue
		}

		seq, ok := value.([]interface{})
		if !ok {
			out = append(out, record)
			continue
		}

		zipped := make(map[string]interface{})
		for _, elem := range seq {
			entry, ok := elem.(map[string]interface{})
			if !ok {
				continue
			}
			key, ok := entry["key"].(string)
			if !ok {
				continue
			}

			for _, field := range z.ValueFields {
				if v, present := entry[field]; present {
					zipped[key] = v
					break
				}
			}
		}

		clone := make(map[string]interface{}, len(record))
		for k, v := range record {
			clone[k] = v
		}
		setPath(clone, z.Path, zipped)
		out = append(out, clone)
	}

	return out, nil
}
