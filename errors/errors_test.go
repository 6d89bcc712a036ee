package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCartError_Error(t *testing.T) {
	tests := []struct {
		name      string
		op        Operation
		component string
		code      Code
		err       error
		want      string
	}{
		{
			name:      "with component and code",
			op:        OpFetch,
			component: "gateway",
			code:      CodeNetworkFailure,
			err:       fmt.Errorf("connection refused"),
			want:      "fetch operation failed in gateway component [NETWORK_FAILURE]: connection refused",
		},
		{
			name:      "with component no code",
			op:        OpCacheWrite,
			component: "cache",
			err:       fmt.Errorf("disk full"),
			want:      "cache_write operation failed in cache component: disk full",
		},
		{
			name: "without component with code",
			op:   OpAdd,
			code: CodeServerError,
			err:  fmt.Errorf("status 500"),
			want: "add operation failed [SERVER_ERROR]: status 500",
		},
		{
			name: "without component or code",
			op:   OpAdd,
			err:  fmt.Errorf("boom"),
			want: "add operation failed: boom",
		},
		{
			name:      "nil cause",
			op:        OpClear,
			component: "engine",
			want:      "clear operation failed in engine component",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &CartError{
				Op:        tt.op,
				Component: tt.component,
				Code:      tt.code,
				Err:       tt.err,
			}

			if got := e.Error(); got != tt.want {
				t.Errorf("CartError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCartError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	e := NewNetworkError(OpFetch, cause)

	if !errors.Is(e, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network failure is retryable", NewNetworkError(OpFetch, errors.New("timeout")), true},
		{"server error is retryable", NewServerError(OpAdd, errors.New("status 502")), true},
		{"session expired is not retryable", NewSessionExpired(OpAdd, errors.New("status 401")), false},
		{"validation failure is not retryable", NewValidationError(OpSetQuantity, errors.New("quantity must be >= 1")), false},
		{"wrapped retryable error", fmt.Errorf("outer: %w", NewNetworkError(OpFetch, errors.New("timeout"))), true},
		{"plain error", errors.New("plain"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewSessionExpired(OpFetch, errors.New("401"))); got != CodeSessionExpired {
		t.Errorf("CodeOf() = %v, want %v", got, CodeSessionExpired)
	}
	if got := CodeOf(errors.New("plain")); got != Code("") {
		t.Errorf("CodeOf(plain) = %v, want empty", got)
	}
	wrapped := fmt.Errorf("ctx: %w", NewForbidden(OpClear, errors.New("403")))
	if got := CodeOf(wrapped); got != CodeForbidden {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, CodeForbidden)
	}
}

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not authenticated", NewNotAuthenticated(OpAdd), true},
		{"session expired", NewSessionExpired(OpFetch, errors.New("401")), true},
		{"forbidden", NewForbidden(OpClear, errors.New("403")), true},
		{"network failure", NewNetworkError(OpFetch, errors.New("timeout")), false},
		{"plain error", errors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthFailure(tt.err); got != tt.want {
				t.Errorf("IsAuthFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapOpComponent(t *testing.T) {
	if got := WrapOpComponent(nil, OpFetch, "gateway"); got != nil {
		t.Errorf("WrapOpComponent(nil) = %v, want nil", got)
	}

	err := WrapOpComponent(errors.New("boom"), OpCacheRead, "cache")
	var cartErr *CartError
	if !errors.As(err, &cartErr) {
		t.Fatal("expected a *CartError")
	}
	if cartErr.Op != OpCacheRead || cartErr.Component != "cache" {
		t.Errorf("unexpected wrap result: %+v", cartErr)
	}
}
