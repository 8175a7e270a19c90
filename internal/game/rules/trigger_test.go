package rules

import (
	"testing"
)

func TestDispatchOrderOwnerCompulsoryFirst(t *testing.T) {
	registry := NewTriggerRegistry()

	var order []string
	record := func(name string) Handler {
		return func(*Event) error {
			order = append(order, name)
			return nil
		}
	}

	// Registered deliberately out of dispatch order.
	registry.Subscribe("seat2-optional", 2, false, record("seat2-optional"), EventDamageDone)
	registry.Subscribe("owner-optional", 1, false, record("owner-optional"), EventDamageDone)
	registry.Subscribe("seat3-compulsory", 3, true, record("seat3-compulsory"), EventDamageDone)
	registry.Subscribe("owner-compulsory", 1, true, record("owner-compulsory"), EventDamageDone)

	// Seat order as the engine supplies it: owner first, then seating order.
	err := registry.Dispatch(NewEvent(EventDamageDone, 1), []int{1, 2, 3, 0})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	want := []string{"owner-compulsory", "owner-optional", "seat2-optional", "seat3-compulsory"}
	if len(order) != len(want) {
		t.Fatalf("expected %d calls, got %d: %v", len(want), len(order), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dispatch order mismatch at %d: want %v, got %v", i, want, order)
		}
	}
}

func TestDispatchSkipsAbsentSeats(t *testing.T) {
	registry := NewTriggerRegistry()

	called := false
	registry.Subscribe("dead-seat", 4, true, func(*Event) error {
		called = true
		return nil
	}, EventPhaseStart)

	if err := registry.Dispatch(NewEvent(EventPhaseStart, 0), []int{0, 1, 2}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if called {
		t.Fatal("subscription on a seat outside the order must not fire")
	}
}

func TestDispatchAbortStopsLaterSubscribers(t *testing.T) {
	registry := NewTriggerRegistry()

	registry.Subscribe("first", 0, true, func(ev *Event) error {
		ev.Abort = true
		return nil
	}, EventJudgeComputing)

	called := false
	registry.Subscribe("second", 1, true, func(*Event) error {
		called = true
		return nil
	}, EventJudgeComputing)

	if err := registry.Dispatch(NewEvent(EventJudgeComputing, 0), []int{0, 1}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if called {
		t.Fatal("abort must stop dispatch to later subscribers")
	}
}

func TestUnsubscribeSkill(t *testing.T) {
	registry := NewTriggerRegistry()

	count := 0
	registry.Subscribe("gained", 2, false, func(*Event) error {
		count++
		return nil
	}, EventCardUsed, EventCardResponded)

	registry.UnsubscribeSkill("gained", 2)

	registry.Dispatch(NewEvent(EventCardUsed, 2), []int{2})
	registry.Dispatch(NewEvent(EventCardResponded, 2), []int{2})
	if count != 0 {
		t.Fatalf("expected no calls after UnsubscribeSkill, got %d", count)
	}
}
