package rules

import "errors"

// PendingStack is the explicit call stack of in-flight events. Nested
// events (a triggered skill causing another card use) are pushed on top and
// must fully resolve before their parent continues; the engine asserts this
// strict nesting instead of relying on implicit recursion depth.
type PendingStack struct {
	items []*Event
}

// ErrStackEmpty is returned when popping an empty pending stack.
var ErrStackEmpty = errors.New("pending event stack is empty")

// NewPendingStack constructs an empty pending stack.
func NewPendingStack() *PendingStack {
	return &PendingStack{items: make([]*Event, 0, 8)}
}

// Push records an event as in-flight and returns its nesting depth
// (1-based).
func (ps *PendingStack) Push(ev *Event) int {
	ps.items = append(ps.items, ev)
	return len(ps.items)
}

// Pop removes the innermost event. Popping any event other than the
// innermost would mean interleaved resolution, which the engine forbids.
func (ps *PendingStack) Pop(ev *Event) error {
	if len(ps.items) == 0 {
		return ErrStackEmpty
	}
	top := ps.items[len(ps.items)-1]
	if top != ev {
		return errors.New("event resolution interleaved: popped event is not innermost")
	}
	ps.items = ps.items[:len(ps.items)-1]
	return nil
}

// Depth returns the number of in-flight events.
func (ps *PendingStack) Depth() int {
	return len(ps.items)
}

// Current returns the innermost in-flight event, or nil.
func (ps *PendingStack) Current() *Event {
	if len(ps.items) == 0 {
		return nil
	}
	return ps.items[len(ps.items)-1]
}
