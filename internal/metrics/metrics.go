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

// Package metrics exposes the counters and histograms the pipeline and
// scheduler record as a run progresses. Handler serves them in the
// Prometheus exposition format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunDuration tracks how long a single instance run takes, labeled by
	// connector and outcome.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grove_run_duration_seconds",
			Help:    "Duration of a single instance run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"connector", "outcome"},
	)

	// RecordsEmitted counts records successfully written to the output
	// backend, labeled by connector.
	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grove_records_emitted_total",
			Help: "Total records written to the output backend",
		},
		[]string{"connector"},
	)

	// BatchesEmitted counts output artifacts written, labeled by connector.
	BatchesEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grove_batches_emitted_total",
			Help: "Total batches written to the output backend",
		},
		[]string{"connector"},
	)

	// RunErrors counts failed runs, labeled by connector and error kind.
	RunErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grove_run_errors_total",
			Help: "Total instance runs that ended in error, by kind",
		},
		[]string{"connector", "kind"},
	)

	// LockContention counts runs skipped because another process already
	// held the instance's run lock.
	LockContention = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grove_lock_contention_total",
			Help: "Total runs skipped due to an already-held instance lock",
		},
		[]string{"connector"},
	)
)

// Handler returns an http.Handler serving the registered metrics in the
// Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
