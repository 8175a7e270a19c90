package game

import (
	"strconv"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// queueSkip marks a phase of the seat's next turn to be skipped once.
func (r *Room) queueSkip(seat int, phase rules.Phase) {
	if r.skips[seat] == nil {
		r.skips[seat] = make(map[rules.Phase]bool)
	}
	r.skips[seat][phase] = true
}

func (r *Room) consumeSkip(seat int, phase rules.Phase) bool {
	if !r.skips[seat][phase] {
		return false
	}
	delete(r.skips[seat], phase)
	return true
}

// Judge flips the top draw-pile card as a judgment for p. The computing
// event opens a replacement window for retrial skills; the card the event
// carries afterwards is the verdict. The verdict lands in the discard
// pile.
func (r *Room) Judge(p *Player, reason string) *card.Card {
	c := r.drawFromPile()
	if c == nil {
		return nil
	}

	ev := rules.NewEvent(rules.EventJudgeComputing, p.seat).WithCard(c)
	ev.Data["reason"] = reason
	r.fire(ev)
	verdict := ev.Card
	if verdict == nil {
		verdict = c
	}

	r.broadcast(protocol.MethodJudgeResult,
		strconv.Itoa(p.seat), reason, cardRef(verdict))

	done := rules.NewEvent(rules.EventJudgeDone, p.seat).WithCard(verdict)
	done.Data["reason"] = reason
	r.fire(done)

	if verdict != c {
		// The retrial handler substituted its own card; the flip it
		// displaced is spent too.
		r.MoveCard(c, PileLocation(AreaDiscardPile), "judge")
	}
	r.MoveCard(verdict, PileLocation(AreaDiscardPile), "judge")
	return verdict
}

// judgePhase resolves the player's delayed tricks oldest first. Each
// trick gets a nullification window before its judgment flips.
func (r *Room) judgePhase(p *Player) {
	// Snapshot so a lightning wandering back in is not re-judged this
	// phase.
	queue := make([]*card.Card, len(p.judgment))
	copy(queue, p.judgment)
	for _, dt := range queue {
		if !p.Alive() || r.state != RoomRunning {
			return
		}
		if loc, ok := r.locations[dt.ID()]; !ok || loc.Area != AreaJudgment || loc.Seat != p.seat {
			continue
		}
		if r.askNullification(dt, p, p) {
			r.MoveCard(dt, PileLocation(AreaDiscardPile), "judge")
			continue
		}

		verdict := r.Judge(p, dt.Name())
		if verdict == nil {
			// Both piles empty; the trick fizzles where it lies.
			r.MoveCard(dt, PileLocation(AreaDiscardPile), "judge")
			continue
		}

		switch dt.Name() {
		case card.Lightning:
			if verdict.Suit() == card.Spade && verdict.Rank() >= 2 && verdict.Rank() <= 9 {
				r.MoveCard(dt, PileLocation(AreaDiscardPile), "judge")
				r.ApplyDamage(Damage{Target: p, Amount: 3, Nature: card.NatureThunder, Card: dt})
			} else {
				// Lightning wanders: it moves to the next player's
				// judgment queue without one already pending.
				r.passLightning(p, dt)
			}
		case card.Indulgence:
			if verdict.Suit() != card.Heart {
				r.queueSkip(p.seat, rules.PhasePlay)
			}
			r.MoveCard(dt, PileLocation(AreaDiscardPile), "judge")
		case card.SupplyShortage:
			if verdict.Suit() != card.Club {
				r.queueSkip(p.seat, rules.PhaseDraw)
			}
			r.MoveCard(dt, PileLocation(AreaDiscardPile), "judge")
		default:
			r.MoveCard(dt, PileLocation(AreaDiscardPile), "judge")
		}
	}
}

// passLightning moves an unstruck lightning to the first following alive
// player whose judgment queue has no lightning, wrapping back to the
// owner when everyone else is covered.
func (r *Room) passLightning(p *Player, dt *card.Card) {
	for _, seat := range r.aliveSeatsFrom(r.nextAliveSeat(p.seat)) {
		next := r.Player(seat)
		if judgmentHolds(next, card.Lightning) && next != p {
			continue
		}
		r.MoveCard(dt, Location{Area: AreaJudgment, Seat: seat}, "judge")
		return
	}
	r.MoveCard(dt, PileLocation(AreaDiscardPile), "judge")
}
