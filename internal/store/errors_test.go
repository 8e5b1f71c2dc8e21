package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		err    error
		target error
	}{
		{&NotFoundError{Entity: "visit", ID: 1}, ErrNotFound},
		{&InsufficientStockError{ConsumableID: 1, Name: "Gauze"}, ErrInsufficientStock},
		{&DuplicateError{Entity: "consumable", Field: "name", Value: "Gauze"}, ErrDuplicate},
	}

	for _, tt := range tests {
		wrapped := fmt.Errorf("submitting report: %w", tt.err)
		if !errors.Is(wrapped, tt.target) {
			t.Errorf("expected %v to match %v", tt.err, tt.target)
		}
	}

	if errors.Is(&NotFoundError{}, ErrDuplicate) {
		t.Error("NotFoundError must not match ErrDuplicate")
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Gauze", "%gauze%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
	}
	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
