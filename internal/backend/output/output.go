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

// Package output defines the contract an output backend implements: durable
// delivery of a batch of collected records before the pipeline is permitted
// to advance a pointer.
package output

import "context"

// Backend durably stores a single output artifact. Write must not return
// until the bytes are durable — the pipeline checkpoints the pointer
// immediately after a successful Write.
type Backend interface {
	// Write stores bytes under key, best-effort annotated with metadata
	// (e.g. object tags). Implementations may prefix or suffix the key;
	// the core does not depend on the final storage address.
	Write(ctx context.Context, key string, data []byte, metadata map[string]string) error
}
