package rules

import "fmt"

// Phase represents the phases of a player's turn.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseJudge
	PhaseDraw
	PhasePlay
	PhaseDiscard
	PhaseFinish
	// PhaseNone is used while no turn is in progress.
	PhaseNone
)

var phaseNames = map[Phase]string{
	PhaseStart:   "START",
	PhaseJudge:   "JUDGE",
	PhaseDraw:    "DRAW",
	PhasePlay:    "PLAY",
	PhaseDiscard: "DISCARD",
	PhaseFinish:  "FINISH",
	PhaseNone:    "NONE",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// turnSequence is the fixed phase order within one turn.
var turnSequence = []Phase{
	PhaseStart,
	PhaseJudge,
	PhaseDraw,
	PhasePlay,
	PhaseDiscard,
	PhaseFinish,
}

// TurnSequence returns a copy of the phase order within one turn.
func TurnSequence() []Phase {
	seq := make([]Phase, len(turnSequence))
	copy(seq, turnSequence)
	return seq
}

// TurnManager tracks the acting seat and phase progression. Dead-seat
// skipping is the caller's concern: the engine passes the next living seat
// into AdvanceTurn.
type TurnManager struct {
	turnNumber int
	activeSeat int
	phaseIndex int
	inTurn     bool
}

// NewTurnManager creates a turn manager before the first turn; the first
// call to AdvanceTurn starts turn 1 on the given seat.
func NewTurnManager() *TurnManager {
	return &TurnManager{
		turnNumber: 0,
		activeSeat: -1,
		phaseIndex: 0,
	}
}

// TurnNumber returns the current turn number (1-based, 0 before start).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActiveSeat returns the seat whose turn is in progress, -1 before start.
func (tm *TurnManager) ActiveSeat() int {
	return tm.activeSeat
}

// CurrentPhase returns the phase in progress, PhaseNone between turns.
func (tm *TurnManager) CurrentPhase() Phase {
	if !tm.inTurn {
		return PhaseNone
	}
	return turnSequence[tm.phaseIndex]
}

// AdvanceTurn hands the turn to the given seat and resets to PhaseStart.
func (tm *TurnManager) AdvanceTurn(seat int) Phase {
	tm.turnNumber++
	tm.activeSeat = seat
	tm.phaseIndex = 0
	tm.inTurn = true
	return tm.CurrentPhase()
}

// AdvancePhase moves to the next phase of the current turn. It returns the
// new phase and false once the turn's phases are exhausted.
func (tm *TurnManager) AdvancePhase() (Phase, bool) {
	if !tm.inTurn {
		return PhaseNone, false
	}
	tm.phaseIndex++
	if tm.phaseIndex >= len(turnSequence) {
		tm.inTurn = false
		return PhaseNone, false
	}
	return turnSequence[tm.phaseIndex], true
}
