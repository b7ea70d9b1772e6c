package booking

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusConfirmed, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []Status{StatusCancelled, StatusCompleted} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestDefaultCancellationReason(t *testing.T) {
	if got := DefaultCancellationReason(ActorHolder); got != ReasonUserCancelled {
		t.Errorf("holder reason: %s", got)
	}
	if got := DefaultCancellationReason(ActorOwner); got != ReasonOwnerCancelled {
		t.Errorf("owner reason: %s", got)
	}
	if got := DefaultCancellationReason(ActorSweeper); got != ReasonAutoCancelledNoShow {
		t.Errorf("sweeper reason: %s", got)
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	hour := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical", hour(0), hour(1), hour(0), hour(1), true},
		{"partial overlap", hour(0), hour(2), hour(1), hour(3), true},
		{"contained", hour(0), hour(3), hour(1), hour(2), true},
		{"back to back", hour(0), hour(1), hour(1), hour(2), false},
		{"back to back reversed", hour(1), hour(2), hour(0), hour(1), false},
		{"disjoint", hour(0), hour(1), hour(2), hour(3), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := overlapsHalfOpen(tc.s1, tc.e1, tc.s2, tc.e2); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
