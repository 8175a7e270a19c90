package rules

import (
	"time"

	"github.com/qsanguosha/sgs-server-go/internal/card"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Game lifecycle events
	EventGameStart EventType = "GAME_START"
	EventGameOver  EventType = "GAME_OVER"

	// Turn/Phase events
	EventTurnStart  EventType = "TURN_START"
	EventTurnEnd    EventType = "TURN_END"
	EventPhaseStart EventType = "PHASE_START"
	EventPhaseEnd   EventType = "PHASE_END"

	// Card events
	EventCardUsing     EventType = "CARD_USING"
	EventCardUsed      EventType = "CARD_USED"
	EventCardResponded EventType = "CARD_RESPONDED"
	EventCardMoved     EventType = "CARD_MOVED"
	EventDrawingCards  EventType = "DRAWING_CARDS"
	EventCardsDrawn    EventType = "CARDS_DRAWN"

	// Targeting events
	EventTargetConfirming EventType = "TARGET_CONFIRMING"
	EventTargetConfirmed  EventType = "TARGET_CONFIRMED"

	// Judgment events
	EventJudgeComputing EventType = "JUDGE_COMPUTING"
	EventJudgeDone      EventType = "JUDGE_DONE"

	// Damage/Recovery events
	EventDamageInflicting EventType = "DAMAGE_INFLICTING"
	EventDamageDone       EventType = "DAMAGE_DONE"
	EventRecovering       EventType = "RECOVERING"
	EventRecovered        EventType = "RECOVERED"
	EventHPChanged        EventType = "HP_CHANGED"

	// Life-and-death events
	EventDying      EventType = "DYING"
	EventAskForHelp EventType = "ASK_FOR_HELP"
	EventDeath      EventType = "DEATH"

	// Skill/Mark events
	EventSkillGained  EventType = "SKILL_GAINED"
	EventSkillLost    EventType = "SKILL_LOST"
	EventSkillInvoked EventType = "SKILL_INVOKED"
	EventMarkChanged  EventType = "MARK_CHANGED"

	// Pindian events
	EventPindianAsked    EventType = "PINDIAN_ASKED"
	EventPindianRevealed EventType = "PINDIAN_REVEALED"

	// Resolution events
	EventSlashHit       EventType = "SLASH_HIT"
	EventSlashMissed    EventType = "SLASH_MISSED"
	EventTrickNullified EventType = "TRICK_NULLIFIED"
)

// Event is the payload dispatched through the trigger registry. Handlers
// receive a pointer and may mutate the replaceable fields (Amount, Card,
// Prevented, Abort) to veto or transform the behavior that follows the
// dispatch; everything else is observational.
type Event struct {
	Type      EventType
	Seat      int // most relevant player (owner of the event)
	Other     int // secondary seat (damage source, pindian opponent); -1 when unset
	Phase     Phase
	Card      *card.Card
	Amount    int
	Nature    card.Nature
	Data      map[string]string
	Timestamp time.Time

	// Prevented is set by handlers to cancel the built-in behavior the
	// event announces (a skipped phase, prevented damage).
	Prevented bool
	// Abort stops dispatch to later subscribers of this event.
	Abort bool
}

// NewEvent creates an event with common fields populated.
func NewEvent(eventType EventType, seat int) *Event {
	return &Event{
		Type:      eventType,
		Seat:      seat,
		Other:     -1,
		Timestamp: time.Now(),
		Data:      make(map[string]string),
	}
}

// WithCard attaches a card to the event.
func (ev *Event) WithCard(c *card.Card) *Event {
	ev.Card = c
	return ev
}

// WithAmount attaches a numeric value to the event.
func (ev *Event) WithAmount(amount int) *Event {
	ev.Amount = amount
	return ev
}

// WithOther attaches a secondary seat to the event.
func (ev *Event) WithOther(seat int) *Event {
	ev.Other = seat
	return ev
}

// WithPhase attaches a phase to the event.
func (ev *Event) WithPhase(phase Phase) *Event {
	ev.Phase = phase
	return ev
}

// WithNature attaches a damage nature to the event.
func (ev *Event) WithNature(nature card.Nature) *Event {
	ev.Nature = nature
	return ev
}
