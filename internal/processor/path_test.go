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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nestedParamsBatch builds a fresh batch shaped like the spec's own S4
// example: a record whose "events.parameters" is a sequence of
// key/value objects nested one level inside "events".
func nestedParamsBatch() Batch {
	return Batch{
		{
			"id": "1",
			"events": map[string]interface{}{
				"kind": "click",
				"parameters": []interface{}{
					map[string]interface{}{"key": "a", "value": "1"},
					map[string]interface{}{"key": "b", "value": "2"},
				},
			},
		},
	}
}

// TestSplit_NestedPath_Determinism exercises split over a multi-segment
// path ("events.parameters") and asserts that applying the same split
// twice against the same source batch never mutates the source, and
// produces independent, non-aliased output records each time.
func TestSplit_NestedPath_Determinism(t *testing.T) {
	s := NewSplit("events.parameters")
	source := nestedParamsBatch()

	sourceParams := source[0]["events"].(map[string]interface{})["parameters"].([]interface{})
	require.Len(t, sourceParams, 2)

	first, err := s.Apply(source)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// The source batch must be untouched: its nested "parameters" sequence
	// is still a 2-element list, not a single split-out element.
	stillSeq, ok := source[0]["events"].(map[string]interface{})["parameters"].([]interface{})
	require.True(t, ok, "source record's nested parameters field was replaced in place")
	assert.Len(t, stillSeq, 2)

	second, err := s.Apply(source)
	require.NoError(t, err)
	require.Len(t, second, 2)

	firstEvents0 := first[0]["events"].(map[string]interface{})
	secondEvents0 := second[0]["events"].(map[string]interface{})
	assert.Equal(t, firstEvents0["parameters"], secondEvents0["parameters"],
		"re-applying split to the same source must be deterministic")

	// Mutating one output's nested map must not leak into the other
	// output or back into the source, proving the intermediate "events"
	// map was cloned rather than shared.
	firstEvents0["kind"] = "tampered"
	assert.NotEqual(t, "tampered", secondEvents0["kind"])
	assert.NotEqual(t, "tampered", source[0]["events"].(map[string]interface{})["kind"])
}

// TestZip_NestedPath_Determinism exercises zip over a multi-segment path
// and asserts the same purity guarantee as the split test above.
func TestZip_NestedPath_Determinism(t *testing.T) {
	z := NewZip("events.parameters", []string{"value"})
	source := nestedParamsBatch()

	first, err := z.Apply(source)
	require.NoError(t, err)
	require.Len(t, first, 1)

	stillSeq, ok := source[0]["events"].(map[string]interface{})["parameters"].([]interface{})
	require.True(t, ok, "source record's nested parameters field was replaced in place")
	assert.Len(t, stillSeq, 2)

	second, err := z.Apply(source)
	require.NoError(t, err)
	require.Len(t, second, 1)

	firstEvents := first[0]["events"].(map[string]interface{})
	secondEvents := second[0]["events"].(map[string]interface{})
	assert.Equal(t, firstEvents["parameters"], secondEvents["parameters"],
		"re-applying zip to the same source must be deterministic")

	firstZipped := firstEvents["parameters"].(map[string]interface{})
	firstZipped["a"] = "tampered"
	secondZipped := secondEvents["parameters"].(map[string]interface{})
	assert.NotEqual(t, "tampered", secondZipped["a"], "mutating one output must not affect the other")
}
