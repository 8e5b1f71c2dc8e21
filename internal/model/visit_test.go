package model

import "testing"

func TestVisitStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to VisitStatus
		want     bool
	}{
		{VisitStatusPending, VisitStatusCompleted, true},
		{VisitStatusPending, VisitStatusCancelled, true},
		{VisitStatusPending, VisitStatusPending, false},
		{VisitStatusCompleted, VisitStatusCompleted, true},
		{VisitStatusCompleted, VisitStatusCancelled, false},
		{VisitStatusCompleted, VisitStatusPending, false},
		{VisitStatusCancelled, VisitStatusCancelled, true},
		{VisitStatusCancelled, VisitStatusCompleted, false},
		{VisitStatusCancelled, VisitStatusPending, false},
		{VisitStatusPending, "bogus", false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%q.CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestVisitStatusTerminal(t *testing.T) {
	if VisitStatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !VisitStatusCompleted.Terminal() || !VisitStatusCancelled.Terminal() {
		t.Error("completed and cancelled must be terminal")
	}
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Number: 0, Size: DefaultPageSize}},
		{Page{Number: -3, Size: 10}, Page{Number: 0, Size: 10}},
		{Page{Number: 2, Size: 1000}, Page{Number: 2, Size: MaxPageSize}},
	}

	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("%+v.Normalize() = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	if off := (Page{Number: 3, Size: 10}).Offset(); off != 30 {
		t.Errorf("expected offset 30, got %d", off)
	}
}
