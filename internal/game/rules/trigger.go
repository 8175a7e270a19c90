package rules

import (
	"sort"
)

// Handler reacts to a dispatched event. It may mutate the event's
// replaceable fields and may re-enter the engine (a triggered skill causing
// another card use); such nested work completes before dispatch continues.
type Handler func(*Event) error

// Subscription binds one skill on one seat to a set of event types.
type Subscription struct {
	Handle     int
	Skill      string
	Seat       int
	Compulsory bool
	Handler    Handler
}

// TriggerRegistry is the ordered multimap from event type to subscribed
// skills. Dispatch order is deterministic: the event owner's subscriptions
// first (compulsory before optional), then every other seat in the caller
// supplied seating order, which keeps replays reproducible.
type TriggerRegistry struct {
	subs       map[EventType][]Subscription
	nextHandle int
}

// NewTriggerRegistry constructs an empty registry.
func NewTriggerRegistry() *TriggerRegistry {
	return &TriggerRegistry{
		subs: make(map[EventType][]Subscription),
	}
}

// Subscribe registers a handler for the given event types and returns a
// handle usable with Unsubscribe. Registration order is the tie-break for
// subscriptions of the same seat and compulsory class.
func (tr *TriggerRegistry) Subscribe(skill string, seat int, compulsory bool, handler Handler, types ...EventType) int {
	if handler == nil {
		return -1
	}
	handle := tr.nextHandle
	tr.nextHandle++
	for _, et := range types {
		tr.subs[et] = append(tr.subs[et], Subscription{
			Handle:     handle,
			Skill:      skill,
			Seat:       seat,
			Compulsory: compulsory,
			Handler:    handler,
		})
	}
	return handle
}

// Unsubscribe removes every subscription registered under the handle.
func (tr *TriggerRegistry) Unsubscribe(handle int) {
	for et, subs := range tr.subs {
		filtered := subs[:0]
		for _, sub := range subs {
			if sub.Handle != handle {
				filtered = append(filtered, sub)
			}
		}
		tr.subs[et] = filtered
	}
}

// UnsubscribeSkill removes all subscriptions of a named skill on a seat.
// Used when a skill is lost mid-game.
func (tr *TriggerRegistry) UnsubscribeSkill(skill string, seat int) {
	for et, subs := range tr.subs {
		filtered := subs[:0]
		for _, sub := range subs {
			if sub.Skill == skill && sub.Seat == seat {
				continue
			}
			filtered = append(filtered, sub)
		}
		tr.subs[et] = filtered
	}
}

// Subscribers returns the subscriptions for an event, ordered for dispatch:
// seatOrder lists the seats to consider starting with the event owner; the
// remaining seats follow in seating order. Within a seat, compulsory
// subscriptions come first.
func (tr *TriggerRegistry) Subscribers(eventType EventType, seatOrder []int) []Subscription {
	subs := tr.subs[eventType]
	if len(subs) == 0 {
		return nil
	}

	seatPos := make(map[int]int, len(seatOrder))
	for i, seat := range seatOrder {
		seatPos[seat] = i
	}

	ordered := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		if _, ok := seatPos[sub.Seat]; !ok {
			continue // dead or absent seats never react
		}
		ordered = append(ordered, sub)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := seatPos[ordered[i].Seat], seatPos[ordered[j].Seat]
		if pi != pj {
			return pi < pj
		}
		if ordered[i].Compulsory != ordered[j].Compulsory {
			return ordered[i].Compulsory
		}
		return ordered[i].Handle < ordered[j].Handle
	})
	return ordered
}

// Dispatch delivers the event to subscribers in deterministic order. It
// stops early when a handler sets Abort or returns an error.
func (tr *TriggerRegistry) Dispatch(ev *Event, seatOrder []int) error {
	for _, sub := range tr.Subscribers(ev.Type, seatOrder) {
		if err := sub.Handler(ev); err != nil {
			return err
		}
		if ev.Abort {
			return nil
		}
	}
	return nil
}
