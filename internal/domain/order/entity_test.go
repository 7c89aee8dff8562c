package order

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusPaid, true},
		{StatusProcessing, StatusShipped, true},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusPaid, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusPaid, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusDelivered, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusPaid, StatusProcessing, StatusShipped} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusIsValid(t *testing.T) {
	if Status("unknown").IsValid() {
		t.Error("unknown status reported valid")
	}
	if !StatusPaid.IsValid() {
		t.Error("paid status reported invalid")
	}
}
