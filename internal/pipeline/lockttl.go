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

package pipeline

import (
	"os"
	"strconv"
	"time"
)

const defaultLockTTL = time.Hour

// maxLockTTL returns the operator-configured ceiling on a run's lock
// lease, from GROVE_LOCK_TTL (seconds), defaulting to one hour.
func maxLockTTL() time.Duration {
	raw := os.Getenv("GROVE_LOCK_TTL")
	if raw == "" {
		return defaultLockTTL
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return defaultLockTTL
	}
	return time.Duration(seconds) * time.Second
}
