package helpers

import "strings"

// IsEmpty reports whether s is empty or contains only whitespace.
//
// Example:
//
//	helpers.IsEmpty("  \t") // true
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// DefaultString returns the first option that is not empty or whitespace-only.
//
// Example:
//
//	model := helpers.DefaultString(cfg.Model, "text-embedding-3-small")
func DefaultString(options ...string) string {
	for _, option := range options {
		if !IsEmpty(option) {
			return option
		}
	}
	return ""
}
