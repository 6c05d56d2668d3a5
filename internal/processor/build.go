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

import "fmt"

// Spec is the minimal shape Build needs from a configuration document's
// processor entry, decoupling this package from internal/config.
type Spec struct {
	Name   string
	Params map[string]interface{}
}

// Build compiles an ordered list of specs into a Chain.
func Build(specs []Spec) (Chain, error) {
	chain := make(Chain, 0, len(specs))

	for i, spec := range specs {
		p, err := build(spec)
		if err != nil {
			return nil, fmt.Errorf("processor %d (%s): %w", i, spec.Name, err)
		}
		chain = append(chain, p)
	}

	return chain, nil
}

func build(spec Spec) (Processor, error) {
	switch spec.Name {
	case "split":
		path, ok := stringParam(spec.Params, "split_path")
		if !ok {
			return nil, fmt.Errorf("split_path is required")
		}
		return NewSplit(path), nil

	case "zip":
		path, ok := stringParam(spec.Params, "zip_paths")
		if !ok {
			return nil, fmt.Errorf("zip_paths is required")
		}
		fields, err := stringSliceParam(spec.Params, "value_fields")
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			fields = []string{"value"}
		}
		return NewZip(path, fields), nil

	case "jq":
		expr, ok := stringParam(spec.Params, "expression")
		if !ok {
			return nil, fmt.Errorf("expression is required")
		}
		return NewJQ(expr)

	default:
		return nil, fmt.Errorf("unknown processor %q", spec.Name)
	}
}

func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringSliceParam(params map[string]interface{}, key string) ([]string, error) {
	v, ok := params[key]
	if !ok {
		return nil, nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be a list of strings", key)
	}
	out := make([]string, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", key, i)
		}
		out[i] = s
	}
	return out, nil
}
