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

import "testing"

func TestSplit_Apply(t *testing.T) {
	s := NewSplit("events")

	batch := Batch{
		{"id": "1", "events": []interface{}{"a", "b", "c"}},
		{"id": "2", "other": "field"},
	}

	out, err := s.Apply(batch)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if len(out) != 4 {
		t.Fatalf("len(out) = %d, want 4", len(out))
	}

	for i, want := range []string{"a", "b", "c"} {
		if out[i]["id"] != "1" {
			t.Errorf("out[%d][id] = %v, want 1", i, out[i]["id"])
		}
		if out[i]["events"] != want {
			t.Errorf("out[%d][events] = %v, want %v", i, out[i]["events"], want)
		}
	}

	if out[3]["id"] != "2" || out[3]["other"] != "field" {
		t.Errorf("out[3] = %v, want unchanged passthrough record", out[3])
	}
}

func TestSplit_Apply_AbsentPath(t *testing.T) {
	s := NewSplit("missing")
	batch := Batch{{"id": "1"}}

	out, err := s.Apply(batch)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 1 || out[0]["id"] != "1" {
		t.Errorf("out = %v, want unchanged passthrough", out)
	}
}

func TestSplit_Apply_NotASequence(t *testing.T) {
	s := NewSplit("events")
	batch := Batch{{"id": "1", "events": "not-a-list"}}

	out, err := s.Apply(batch)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 1 || out[0]["events"] != "not-a-list" {
		t.Errorf("out = %v, want unchanged passthrough", out)
	}
}
