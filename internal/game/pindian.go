package game

import (
	"fmt"
	"strconv"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// Pindian runs a point duel: both players commit a hand card face down,
// the cards flip simultaneously and land in the discard pile, and the
// strictly greater rank wins. Equal ranks lose for the initiator. A nil
// winner means the initiator lost.
func (r *Room) Pindian(initiator, target *Player) (*Player, error) {
	if initiator.HandCount() == 0 || target.HandCount() == 0 {
		return nil, fmt.Errorf("game: pindian requires hand cards on both sides")
	}

	r.fire(rules.NewEvent(rules.EventPindianAsked, initiator.seat).WithOther(target.seat))

	// Both picks are collected before either is revealed; the reveal is
	// the broadcast below, so neither side learns the other's card early.
	ic := r.pindianPick(initiator, target)
	tc := r.pindianPick(target, initiator)

	r.MoveCard(ic, PileLocation(AreaDiscardPile), "pindian")
	r.MoveCard(tc, PileLocation(AreaDiscardPile), "pindian")
	r.broadcast(protocol.MethodPindian,
		strconv.Itoa(initiator.seat), cardRef(ic),
		strconv.Itoa(target.seat), cardRef(tc))

	ev := rules.NewEvent(rules.EventPindianRevealed, initiator.seat).WithOther(target.seat)
	ev.Data["initiator_card"] = strconv.Itoa(ic.ID())
	ev.Data["target_card"] = strconv.Itoa(tc.ID())
	r.fire(ev)

	switch {
	case ic.Rank() > tc.Rank():
		return initiator, nil
	case tc.Rank() > ic.Rank():
		return target, nil
	default:
		return nil, nil
	}
}

func (r *Room) pindianPick(p, against *Player) *card.Card {
	ids := make([]int, 0, p.HandCount())
	for _, c := range p.hand {
		ids = append(ids, c.ID())
	}
	reply := r.ask(p.seat, "pindian", strconv.Itoa(against.seat), nil, ids)
	if len(reply.CardIDs) == 1 {
		if c := p.handCard(reply.CardIDs[0]); c != nil {
			return c
		}
	}
	return p.hand[0]
}
