package helpers

import (
	"errors"
	"testing"
)

func TestWrapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		message  string
		expected string
		isNil    bool
	}{
		{"wrap non-nil error", errors.New("original error"), "failed to process", "failed to process: original error", false},
		{"wrap nil error", nil, "failed to process", "", true},
		{"wrap with empty message", errors.New("original error"), "", ": original error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := WrapError(tt.err, tt.message)

			if tt.isNil {
				if result != nil {
					t.Errorf("WrapError() = %v, want nil", result)
				}
				return
			}
			if result == nil {
				t.Fatal("WrapError() = nil, want non-nil error")
			}
			if result.Error() != tt.expected {
				t.Errorf("WrapError() = %q, want %q", result.Error(), tt.expected)
			}
			if !errors.Is(result, tt.err) {
				t.Error("WrapError() should preserve original error for errors.Is()")
			}
		})
	}
}

func TestWrapErrorf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		format   string
		args     []any
		expected string
		isNil    bool
	}{
		{"formatted message", errors.New("connection refused"), "failed to reach %s", []any{"qdrant"}, "failed to reach qdrant: connection refused", false},
		{"multiple args", errors.New("not found"), "collection %s on %s", []any{"docs", "localhost"}, "collection docs on localhost: not found", false},
		{"no args", errors.New("timeout"), "search timed out", nil, "search timed out: timeout", false},
		{"nil error", nil, "failed to reach %s", []any{"qdrant"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := WrapErrorf(tt.err, tt.format, tt.args...)

			if tt.isNil {
				if result != nil {
					t.Errorf("WrapErrorf() = %v, want nil", result)
				}
				return
			}
			if result == nil {
				t.Fatal("WrapErrorf() = nil, want non-nil error")
			}
			if result.Error() != tt.expected {
				t.Errorf("WrapErrorf() = %q, want %q", result.Error(), tt.expected)
			}
			if !errors.Is(result, tt.err) {
				t.Error("WrapErrorf() should preserve original error for errors.Is()")
			}
		})
	}
}

func TestNewError(t *testing.T) {
	t.Parallel()

	err := NewError("invalid %s: %d", "limit", -1)
	if err == nil {
		t.Fatal("NewError() = nil")
	}
	if got, want := err.Error(), "invalid limit: -1"; got != want {
		t.Errorf("NewError() = %q, want %q", got, want)
	}
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n", true},
		{"query", false},
		{"  query  ", false},
	}

	for _, tt := range tests {
		if got := IsEmpty(tt.input); got != tt.expected {
			t.Errorf("IsEmpty(%q) = %t, want %t", tt.input, got, tt.expected)
		}
	}
}

func TestDefaultString(t *testing.T) {
	t.Parallel()

	if got := DefaultString("", "  ", "fallback", "other"); got != "fallback" {
		t.Errorf("DefaultString() = %q, want %q", got, "fallback")
	}
	if got := DefaultString("", " "); got != "" {
		t.Errorf("DefaultString() = %q, want empty", got)
	}
}
