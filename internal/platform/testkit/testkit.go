// Package testkit provides testing helpers
package testkit

import (
	"strings"
	"testing"

	perr "bagpipe/internal/platform/errors"
)

// MustPanic asserts that fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}

// MustNotPanic asserts that fn does not panic
func MustNotPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	fn()
}

// MustContain asserts that haystack contains needle
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n\ngot:\n%s", needle, haystack)
	}
}

// MustCode asserts that err carries the given engine error code
func MustCode(t *testing.T, err error, code perr.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	if got := perr.CodeOf(err); got != code {
		t.Fatalf("error code = %v, want %v (err: %v)", got, code, err)
	}
}

// MustPartition asserts that err is attributed to the given partition ordinal
func MustPartition(t *testing.T, err error, ordinal int) {
	t.Helper()
	p, ok := perr.PartitionOf(err)
	if !ok {
		t.Fatalf("error carries no partition ordinal: %v", err)
	}
	if p != ordinal {
		t.Fatalf("error partition = %d, want %d (err: %v)", p, ordinal, err)
	}
}
