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

package errors

import "fmt"

// RunErrorKind classifies why a single collection run did not complete
// successfully, so the scheduler and CLI entrypoints can decide whether to
// retry, skip, or abort without inspecting error message text.
type RunErrorKind string

const (
	// KindConfiguration covers malformed or invalid instance configuration.
	KindConfiguration RunErrorKind = "configuration"
	// KindSecret covers failures resolving a credential from a secret backend.
	KindSecret RunErrorKind = "secret"
	// KindUpstreamTransient covers connector failures expected to clear on
	// their own (rate limiting, timeouts, 5xx responses).
	KindUpstreamTransient RunErrorKind = "upstream_transient"
	// KindUpstreamPermanent covers connector failures requiring operator
	// intervention (bad credentials, malformed requests, 4xx other than 429).
	KindUpstreamPermanent RunErrorKind = "upstream_permanent"
	// KindBackend covers failures in a pluggable config/cache/output/secret backend.
	KindBackend RunErrorKind = "backend"
	// KindProcessor covers failures within the processor chain.
	KindProcessor RunErrorKind = "processor"
	// KindFatal covers errors that should abort the process entirely rather
	// than being retried on the next tick.
	KindFatal RunErrorKind = "fatal"
)

// RunError wraps a run-ending error with a classification (Kind), a
// human-readable message and an optional hint, so every run failure carries
// one taxonomy.
type RunError struct {
	// Kind classifies the failure for retry/skip/abort decisions.
	Kind RunErrorKind

	// Message is the human-readable description.
	Message string

	// Hint provides actionable guidance, if any.
	Hint string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *RunError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *RunError) ErrorType() string {
	return string(e.Kind)
}

// IsRetryable implements ErrorClassifier. Only transient upstream failures
// and backend hiccups are worth retrying on the next scheduler tick;
// everything else needs operator attention before it will succeed.
func (e *RunError) IsRetryable() bool {
	switch e.Kind {
	case KindUpstreamTransient, KindBackend:
		return true
	default:
		return false
	}
}

// IsUserVisible implements UserVisibleError.
func (e *RunError) IsUserVisible() bool {
	return true
}

// UserMessage implements UserVisibleError.
func (e *RunError) UserMessage() string {
	return e.Message
}

// Suggestion implements UserVisibleError.
func (e *RunError) Suggestion() string {
	return e.Hint
}

// NewRunError classifies a run-ending error into a *RunError, unwrapping the
// known domain error types so callers can build one from whatever error the
// pipeline stage returned without repeating the classification logic.
func NewRunError(err error) *RunError {
	if err == nil {
		return nil
	}

	var upstream *UpstreamError
	if As(err, &upstream) {
		kind := KindUpstreamPermanent
		if upstream.Transient {
			kind = KindUpstreamTransient
		}
		return &RunError{Kind: kind, Message: upstream.Error(), Cause: err}
	}

	var secret *SecretError
	if As(err, &secret) {
		return &RunError{Kind: KindSecret, Message: secret.Error(), Cause: err}
	}

	var cfg *ConfigError
	if As(err, &cfg) {
		return &RunError{Kind: KindConfiguration, Message: cfg.Error(), Cause: err}
	}

	var backend *BackendError
	if As(err, &backend) {
		return &RunError{Kind: KindBackend, Message: backend.Error(), Cause: err}
	}

	var proc *ProcessorError
	if As(err, &proc) {
		return &RunError{Kind: KindProcessor, Message: proc.Error(), Cause: err}
	}

	return &RunError{Kind: KindFatal, Message: err.Error(), Cause: err}
}
