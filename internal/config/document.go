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

// Package config parses and validates connector configuration documents.
// A document is an immutable description of one collection instance; the
// backend that stores it (see internal/backend/config) only lists and
// fetches raw bytes — parsing and validation live here.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"
)

// knownFields lists the document fields this package unmarshals directly.
// Anything else is preserved verbatim in Extra and forwarded to the
// connector body, which is how per-connector parameters ride in.
var knownFields = map[string]bool{
	"name":       true,
	"identity":   true,
	"connector":  true,
	"key":        true,
	"secrets":    true,
	"operation":  true,
	"frequency":  true,
	"encoding":   true,
	"disabled":   true,
	"processors": true,
}

// ProcessorSpec names one stage of a document's processor chain.
type ProcessorSpec struct {
	Name   string                 `yaml:"name"`
	Params map[string]interface{} `yaml:"params,omitempty"`
}

// Document is one parsed, validated configuration document.
type Document struct {
	Name      string            `yaml:"name"`
	Identity  string            `yaml:"identity"`
	Connector string            `yaml:"connector"`
	Key       string            `yaml:"key,omitempty"`
	Secrets   map[string]string `yaml:"secrets,omitempty"`
	Operation string            `yaml:"operation,omitempty"`
	Frequency int               `yaml:"frequency,omitempty"`
	Encoding  string            `yaml:"encoding,omitempty"`
	Disabled  bool              `yaml:"disabled,omitempty"`

	Processors []ProcessorSpec `yaml:"processors,omitempty"`

	// Extra carries every field the document defines beyond the ones above,
	// forwarded to the connector body unchanged.
	Extra map[string]interface{} `yaml:"-"`

	// Hash is the sha256 of the document's raw bytes, used by the scheduler
	// to detect content changes across a config refresh without a deep
	// structural diff.
	Hash string `yaml:"-"`

	// id is the backend document identifier this was loaded from.
	id string
}

// Parse decodes raw into a Document, preserving unknown top-level fields in
// Extra and recording its content hash.
func Parse(id string, raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", id, err)
	}

	var all map[string]interface{}
	if err := yaml.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", id, err)
	}
	extra := make(map[string]interface{})
	for k, v := range all {
		if !knownFields[k] {
			extra[k] = v
		}
	}
	doc.Extra = extra

	sum := sha256.Sum256(raw)
	doc.Hash = hex.EncodeToString(sum[:])
	doc.id = id

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ID returns the backend document identifier this document was loaded from.
func (d *Document) ID() string {
	return d.id
}

// StreamKey returns the (connector, identity, operation) triple that must be
// unique across the document set.
func (d *Document) StreamKey() string {
	return fmt.Sprintf("%s\x00%s\x00%s", d.Connector, d.Identity, d.Operation)
}

// Validate checks the required fields and credential shape of a document.
func (d *Document) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("document %s: name is required", d.id)
	}
	if d.Identity == "" {
		return fmt.Errorf("document %s: identity is required", d.id)
	}
	if d.Connector == "" {
		return fmt.Errorf("document %s: connector is required", d.id)
	}
	if d.Key == "" && len(d.Secrets) == 0 {
		return fmt.Errorf("document %s: one of key or secrets is required", d.id)
	}
	for _, p := range d.Processors {
		if p.Name == "" {
			return fmt.Errorf("document %s: processor entry missing name", d.id)
		}
	}
	return nil
}
