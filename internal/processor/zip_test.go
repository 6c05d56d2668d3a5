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

func TestZip_Apply(t *testing.T) {
	z := NewZip("custom_fields", []string{"value", "text_value"})

	batch := Batch{
		{
			"id": "1",
			"custom_fields": []interface{}{
				map[string]interface{}{"key": "priority", "value": "high"},
				map[string]interface{}{"key": "team", "text_value": "infra"},
				map[string]interface{}{"key": "priority", "value": "low"},
			},
		},
	}

	out, err := z.Apply(batch)
	require.NoError(t, err)
	require.Len(t, out, 1)

	zipped, ok := out[0]["custom_fields"].(map[string]interface{})
	require.True(t, ok, "custom_fields = %v, want map", out[0]["custom_fields"])

	assert.Equal(t, "low", zipped["priority"], "later entry should win")
	assert.Equal(t, "infra", zipped["team"])
}

func TestZip_Apply_AbsentPath(t *testing.T) {
	z := NewZip("missing", []string{"value"})
	batch := Batch{{"id": "1"}}

	out, err := z.Apply(batch)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0]["id"])
}
