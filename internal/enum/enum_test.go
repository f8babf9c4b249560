package enum

import "testing"

func TestNextOrderStatusChain(t *testing.T) {
	want := map[string]string{
		OrderStatusPending:   OrderStatusPreparing,
		OrderStatusPreparing: OrderStatusServed,
		OrderStatusServed:    OrderStatusCompleted,
	}
	for from, to := range want {
		next, ok := NextOrderStatus(from)
		if !ok {
			t.Fatalf("NextOrderStatus(%q): ok = false", from)
		}
		if next != to {
			t.Fatalf("NextOrderStatus(%q) = %q, want %q", from, next, to)
		}
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	if _, ok := NextOrderStatus(OrderStatusCompleted); ok {
		t.Fatal("completed must have no successor")
	}
	if ActionLabel(OrderStatusCompleted) != "" {
		t.Fatal("completed must have no action label")
	}
}

func TestCanTransitionRejectsEverythingButSuccessor(t *testing.T) {
	all := []string{OrderStatusPending, OrderStatusPreparing, OrderStatusServed, OrderStatusCompleted}
	for _, from := range all {
		for _, to := range all {
			want := false
			if next, ok := NextOrderStatus(from); ok && next == to {
				want = true
			}
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", from, to, got, want)
			}
		}
	}
	if CanTransition(OrderStatusPending, "cancelled") {
		t.Error("unknown target status must be rejected")
	}
}

func TestActiveOrderStatuses(t *testing.T) {
	if len(ActiveOrderStatuses) != 3 {
		t.Fatalf("expected 3 active statuses, got %d", len(ActiveOrderStatuses))
	}
	for _, s := range ActiveOrderStatuses {
		if !IsActiveOrderStatus(s) {
			t.Errorf("IsActiveOrderStatus(%q) = false", s)
		}
	}
	if IsActiveOrderStatus(OrderStatusCompleted) {
		t.Error("completed must not be active")
	}
}
