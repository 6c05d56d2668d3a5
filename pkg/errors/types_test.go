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

package errors_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	groveerrors "github.com/tombee/grove/pkg/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *groveerrors.ValidationError
		wantMsg string
	}{
		{
			name: "with field",
			err: &groveerrors.ValidationError{
				Field:      "connector",
				Message:    "required field is missing",
				Suggestion: "Set the connector name in the instance config",
			},
			wantMsg: "validation failed on connector: required field is missing",
		},
		{
			name: "without field",
			err: &groveerrors.ValidationError{
				Message:    "invalid format",
				Suggestion: "Check the input format",
			},
			wantMsg: "validation failed: invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *groveerrors.NotFoundError
		wantMsg string
	}{
		{
			name: "instance not found",
			err: &groveerrors.NotFoundError{
				Resource: "instance",
				ID:       "okta/acme-corp/system_log",
			},
			wantMsg: "instance not found: okta/acme-corp/system_log",
		},
		{
			name: "connector not found",
			err: &groveerrors.NotFoundError{
				Resource: "connector",
				ID:       "okta",
			},
			wantMsg: "connector not found: okta",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("NotFoundError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestUpstreamError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *groveerrors.UpstreamError
		want    []string // strings that should appear in error message
		notWant []string // strings that should not appear
	}{
		{
			name: "full error with all fields",
			err: &groveerrors.UpstreamError{
				Connector:  "okta",
				StatusCode: 429,
				Message:    "rate limit exceeded",
				Transient:  true,
				RequestID:  "req_123",
			},
			want:    []string{"okta", "HTTP 429", "rate limit exceeded", "req_123"},
			notWant: []string{},
		},
		{
			name: "minimal error",
			err: &groveerrors.UpstreamError{
				Connector: "github",
				Message:   "connection failed",
			},
			want:    []string{"github", "connection failed"},
			notWant: []string{"HTTP", "request-id"},
		},
		{
			name: "with status code only",
			err: &groveerrors.UpstreamError{
				Connector:  "slack",
				StatusCode: 500,
				Message:    "internal server error",
			},
			want:    []string{"slack", "HTTP 500", "internal server error"},
			notWant: []string{"request-id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("UpstreamError.Error() = %q, want to contain %q", got, want)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(got, notWant) {
					t.Errorf("UpstreamError.Error() = %q, should not contain %q", got, notWant)
				}
			}
		})
	}
}

func TestUpstreamError_Unwrap(t *testing.T) {
	cause := errors.New("network error")
	err := &groveerrors.UpstreamError{
		Connector: "okta",
		Message:   "request failed",
		Cause:     cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("UpstreamError.Unwrap() = %v, want %v", got, cause)
	}
}

func TestConfigError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *groveerrors.ConfigError
		wantMsg string
	}{
		{
			name: "with key",
			err: &groveerrors.ConfigError{
				Key:    "frequency",
				Reason: "must be a positive duration",
			},
			wantMsg: "config error at frequency: must be a positive duration",
		},
		{
			name: "without key",
			err: &groveerrors.ConfigError{
				Reason: "file not found",
			},
			wantMsg: "config error: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ConfigError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	cause := errors.New("file read error")
	err := &groveerrors.ConfigError{
		Key:    "config",
		Reason: "failed to load",
		Cause:  cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("ConfigError.Unwrap() = %v, want %v", got, cause)
	}
}

func TestSecretError_Error(t *testing.T) {
	err := &groveerrors.SecretError{Path: "okta/api_token", Reason: "not found"}
	want := "secret okta/api_token: not found"
	if got := err.Error(); got != want {
		t.Errorf("SecretError.Error() = %q, want %q", got, want)
	}
}

func TestBackendError_Error(t *testing.T) {
	cause := errors.New("connection refused")
	err := &groveerrors.BackendError{Backend: "cache", Operation: "Set", Cause: cause}
	if got := err.Error(); !strings.Contains(got, "cache") || !strings.Contains(got, "Set") {
		t.Errorf("BackendError.Error() = %q, want to mention backend and operation", got)
	}
	if err.Unwrap() != cause {
		t.Error("BackendError.Unwrap() should return root cause")
	}
}

func TestProcessorError_Error(t *testing.T) {
	err := &groveerrors.ProcessorError{Processor: "jq", Message: "invalid expression"}
	want := "processor jq failed: invalid expression"
	if got := err.Error(); got != want {
		t.Errorf("ProcessorError.Error() = %q, want %q", got, want)
	}
}

func TestTimeoutError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *groveerrors.TimeoutError
		want    []string
		notWant []string
	}{
		{
			name: "connector collect timeout",
			err: &groveerrors.TimeoutError{
				Operation: "connector collect",
				Duration:  30 * time.Second,
			},
			want:    []string{"connector collect", "30s"},
			notWant: []string{},
		},
		{
			name: "lock acquire timeout",
			err: &groveerrors.TimeoutError{
				Operation: "lock acquire",
				Duration:  2 * time.Minute,
			},
			want:    []string{"lock acquire", "2m0s"},
			notWant: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("TimeoutError.Error() = %q, want to contain %q", got, want)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(got, notWant) {
					t.Errorf("TimeoutError.Error() = %q, should not contain %q", got, notWant)
				}
			}
		})
	}
}

func TestTimeoutError_Unwrap(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := &groveerrors.TimeoutError{
		Operation: "test",
		Duration:  5 * time.Second,
		Cause:     cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("TimeoutError.Unwrap() = %v, want %v", got, cause)
	}
}

// Test error wrapping with fmt.Errorf
func TestErrorWrapping(t *testing.T) {
	t.Run("ValidationError can be wrapped", func(t *testing.T) {
		original := &groveerrors.ValidationError{
			Field:   "identity",
			Message: "invalid format",
		}
		wrapped := fmt.Errorf("instance validation: %w", original)

		var target *groveerrors.ValidationError
		if !errors.As(wrapped, &target) {
			t.Error("errors.As should find ValidationError in wrapped error")
		}
		if target.Field != "identity" {
			t.Errorf("unwrapped error Field = %q, want %q", target.Field, "identity")
		}
	})

	t.Run("NotFoundError can be wrapped", func(t *testing.T) {
		original := &groveerrors.NotFoundError{
			Resource: "instance",
			ID:       "test",
		}
		wrapped := fmt.Errorf("loading instance: %w", original)

		var target *groveerrors.NotFoundError
		if !errors.As(wrapped, &target) {
			t.Error("errors.As should find NotFoundError in wrapped error")
		}
		if target.Resource != "instance" {
			t.Errorf("unwrapped error Resource = %q, want %q", target.Resource, "instance")
		}
	})

	t.Run("UpstreamError preserves cause through wrapping", func(t *testing.T) {
		rootCause := errors.New("network timeout")
		upstreamErr := &groveerrors.UpstreamError{
			Connector: "okta",
			Message:   "request failed",
			Cause:     rootCause,
		}
		wrapped := fmt.Errorf("collecting from okta: %w", upstreamErr)

		var target *groveerrors.UpstreamError
		if !errors.As(wrapped, &target) {
			t.Error("errors.As should find UpstreamError in wrapped error")
		}

		if target.Unwrap() != rootCause {
			t.Error("UpstreamError.Unwrap() should return root cause")
		}
	})

	t.Run("ConfigError preserves cause through wrapping", func(t *testing.T) {
		rootCause := errors.New("file not found")
		configErr := &groveerrors.ConfigError{
			Key:    "connector",
			Reason: "missing required field",
			Cause:  rootCause,
		}
		wrapped := fmt.Errorf("loading config: %w", configErr)

		var target *groveerrors.ConfigError
		if !errors.As(wrapped, &target) {
			t.Error("errors.As should find ConfigError in wrapped error")
		}

		if target.Unwrap() != rootCause {
			t.Error("ConfigError.Unwrap() should return root cause")
		}
	})

	t.Run("TimeoutError preserves cause through wrapping", func(t *testing.T) {
		rootCause := errors.New("context deadline exceeded")
		timeoutErr := &groveerrors.TimeoutError{
			Operation: "test",
			Duration:  5 * time.Second,
			Cause:     rootCause,
		}
		wrapped := fmt.Errorf("operation timeout: %w", timeoutErr)

		var target *groveerrors.TimeoutError
		if !errors.As(wrapped, &target) {
			t.Error("errors.As should find TimeoutError in wrapped error")
		}

		if target.Unwrap() != rootCause {
			t.Error("TimeoutError.Unwrap() should return root cause")
		}
	})
}

// Test errors.Is behavior
func TestErrorsIs(t *testing.T) {
	t.Run("errors.Is works with wrapped ValidationError", func(t *testing.T) {
		original := &groveerrors.ValidationError{Field: "test"}
		wrapped := fmt.Errorf("wrapper: %w", original)

		if !errors.Is(wrapped, original) {
			t.Error("errors.Is should find original error in chain")
		}
	})

	t.Run("errors.Is works with wrapped NotFoundError", func(t *testing.T) {
		original := &groveerrors.NotFoundError{Resource: "test", ID: "123"}
		wrapped := fmt.Errorf("wrapper: %w", original)

		if !errors.Is(wrapped, original) {
			t.Error("errors.Is should find original error in chain")
		}
	})
}

func TestNewRunError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind groveerrors.RunErrorKind
	}{
		{
			name:     "transient upstream error",
			err:      &groveerrors.UpstreamError{Connector: "okta", Message: "rate limited", Transient: true},
			wantKind: groveerrors.KindUpstreamTransient,
		},
		{
			name:     "permanent upstream error",
			err:      &groveerrors.UpstreamError{Connector: "okta", Message: "unauthorized"},
			wantKind: groveerrors.KindUpstreamPermanent,
		},
		{
			name:     "secret error",
			err:      &groveerrors.SecretError{Path: "okta/token", Reason: "not found"},
			wantKind: groveerrors.KindSecret,
		},
		{
			name:     "config error",
			err:      &groveerrors.ConfigError{Key: "frequency", Reason: "invalid"},
			wantKind: groveerrors.KindConfiguration,
		},
		{
			name:     "backend error",
			err:      &groveerrors.BackendError{Backend: "cache", Operation: "Get", Cause: errors.New("boom")},
			wantKind: groveerrors.KindBackend,
		},
		{
			name:     "processor error",
			err:      &groveerrors.ProcessorError{Processor: "zip", Message: "bad key path"},
			wantKind: groveerrors.KindProcessor,
		},
		{
			name:     "unrecognized error falls back to fatal",
			err:      errors.New("unexpected"),
			wantKind: groveerrors.KindFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := groveerrors.NewRunError(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("NewRunError(%v).Kind = %v, want %v", tt.err, got.Kind, tt.wantKind)
			}
		})
	}

	if got := groveerrors.NewRunError(nil); got != nil {
		t.Errorf("NewRunError(nil) = %v, want nil", got)
	}
}

func TestRunError_IsRetryable(t *testing.T) {
	tests := []struct {
		kind      groveerrors.RunErrorKind
		retryable bool
	}{
		{groveerrors.KindUpstreamTransient, true},
		{groveerrors.KindBackend, true},
		{groveerrors.KindUpstreamPermanent, false},
		{groveerrors.KindSecret, false},
		{groveerrors.KindConfiguration, false},
		{groveerrors.KindProcessor, false},
		{groveerrors.KindFatal, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := &groveerrors.RunError{Kind: tt.kind, Message: "x"}
			if err.IsRetryable() != tt.retryable {
				t.Errorf("RunError{Kind: %v}.IsRetryable() = %v, want %v", tt.kind, err.IsRetryable(), tt.retryable)
			}
		})
	}
}
