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

// Package secret defines the contract a secret backend implements. A secret
// backend is optional: when none is configured, every credential in an
// instance's configuration document must be inline.
package secret

import "context"

// Backend fetches the current value of a secret reference. It is called on
// every run — never cached — so rotation and dynamic-secret engines work
// without any invalidation protocol.
type Backend interface {
	// Fetch returns the current bytes of the secret at path.
	Fetch(ctx context.Context, path string) ([]byte, error)
}
