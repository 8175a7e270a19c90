package rules

import "testing"

func TestTurnManagerPhaseSequence(t *testing.T) {
	tm := NewTurnManager()

	if tm.CurrentPhase() != PhaseNone {
		t.Fatalf("expected PhaseNone before start, got %s", tm.CurrentPhase())
	}

	phase := tm.AdvanceTurn(3)
	if phase != PhaseStart {
		t.Fatalf("expected PhaseStart, got %s", phase)
	}
	if tm.TurnNumber() != 1 || tm.ActiveSeat() != 3 {
		t.Fatalf("expected turn 1 seat 3, got turn %d seat %d", tm.TurnNumber(), tm.ActiveSeat())
	}

	want := []Phase{PhaseJudge, PhaseDraw, PhasePlay, PhaseDiscard, PhaseFinish}
	for _, expected := range want {
		phase, ok := tm.AdvancePhase()
		if !ok {
			t.Fatalf("turn ended early, expected %s", expected)
		}
		if phase != expected {
			t.Fatalf("expected %s, got %s", expected, phase)
		}
	}

	if _, ok := tm.AdvancePhase(); ok {
		t.Fatal("expected turn to end after PhaseFinish")
	}
	if tm.CurrentPhase() != PhaseNone {
		t.Fatalf("expected PhaseNone between turns, got %s", tm.CurrentPhase())
	}

	if phase := tm.AdvanceTurn(0); phase != PhaseStart || tm.TurnNumber() != 2 {
		t.Fatalf("expected turn 2 PhaseStart, got turn %d %s", tm.TurnNumber(), phase)
	}
}

func TestPendingStackStrictNesting(t *testing.T) {
	stack := NewPendingStack()

	outer := NewEvent(EventCardUsed, 0)
	inner := NewEvent(EventDamageDone, 1)

	if depth := stack.Push(outer); depth != 1 {
		t.Fatalf("expected depth 1, got %d", depth)
	}
	if depth := stack.Push(inner); depth != 2 {
		t.Fatalf("expected depth 2, got %d", depth)
	}

	// Popping the outer event while the inner is unresolved is interleaving.
	if err := stack.Pop(outer); err == nil {
		t.Fatal("expected interleaving error when popping non-innermost event")
	}

	if err := stack.Pop(inner); err != nil {
		t.Fatalf("pop inner: %v", err)
	}
	if err := stack.Pop(outer); err != nil {
		t.Fatalf("pop outer: %v", err)
	}
	if err := stack.Pop(outer); err != ErrStackEmpty {
		t.Fatalf("expected ErrStackEmpty, got %v", err)
	}
}
