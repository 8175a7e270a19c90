package game

import (
	"strconv"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// Area is one of the exclusive owners a card can have.
type Area int

const (
	AreaDrawPile Area = iota
	AreaDiscardPile
	AreaHand
	AreaEquip
	AreaJudgment
	AreaRemoved
)

var areaNames = map[Area]string{
	AreaDrawPile:    "draw_pile",
	AreaDiscardPile: "discard_pile",
	AreaHand:        "hand",
	AreaEquip:       "equip",
	AreaJudgment:    "judgment",
	AreaRemoved:     "removed",
}

func (a Area) String() string {
	if name, ok := areaNames[a]; ok {
		return name
	}
	return "unknown"
}

// Location identifies a card's owner. Seat is -1 for the shared piles and
// the removed-from-game area.
type Location struct {
	Area Area
	Seat int
}

// PileLocation is a Location in a shared pile.
func PileLocation(area Area) Location { return Location{Area: area, Seat: -1} }

// cardRef renders a card for the wire.
func cardRef(c *card.Card) string {
	return protocol.FormatCardRef(protocol.CardRef{
		ID:   c.ID(),
		Suit: c.Suit().String(),
		Rank: int(c.Rank()),
		Name: c.Name(),
	})
}

// Location returns a card's current owner.
func (r *Room) Location(c *card.Card) Location {
	return r.locations[c.ID()]
}

// detach removes a real card from whatever container currently holds it.
func (r *Room) detach(c *card.Card) {
	loc, ok := r.locations[c.ID()]
	if !ok {
		return
	}
	remove := func(pile []*card.Card) []*card.Card {
		for i, pc := range pile {
			if pc.ID() == c.ID() {
				return append(pile[:i], pile[i+1:]...)
			}
		}
		return pile
	}
	switch loc.Area {
	case AreaDrawPile:
		r.drawPile = remove(r.drawPile)
	case AreaDiscardPile:
		r.discardPile = remove(r.discardPile)
	case AreaRemoved:
		r.removed = remove(r.removed)
	case AreaHand:
		p := r.Player(loc.Seat)
		p.hand = remove(p.hand)
	case AreaJudgment:
		p := r.Player(loc.Seat)
		p.judgment = remove(p.judgment)
	case AreaEquip:
		p := r.Player(loc.Seat)
		for i, eq := range p.equips {
			if eq != nil && eq.ID() == c.ID() {
				p.equips[i] = nil
			}
		}
	}
}

// MoveCard transfers ownership of one real card. Every transfer is
// broadcast (and thereby recorded for the replay artifact) and fires a
// CARD_MOVED event. Virtual cards are never moved; their subcards are.
func (r *Room) MoveCard(c *card.Card, to Location, reason string) {
	if c.IsVirtual() {
		for _, sub := range c.Subcards() {
			r.MoveCard(sub, to, reason)
		}
		return
	}
	from := r.locations[c.ID()]
	r.detach(c)

	switch to.Area {
	case AreaDrawPile:
		r.drawPile = append(r.drawPile, c)
	case AreaDiscardPile:
		r.discardPile = append(r.discardPile, c)
	case AreaRemoved:
		r.removed = append(r.removed, c)
	case AreaHand:
		p := r.Player(to.Seat)
		p.hand = append(p.hand, c)
	case AreaJudgment:
		p := r.Player(to.Seat)
		p.judgment = append(p.judgment, c)
	case AreaEquip:
		p := r.Player(to.Seat)
		if slot, ok := c.SubKind().EquipSlot(); ok {
			p.equips[slot] = c
		}
	}
	r.locations[c.ID()] = to

	r.broadcast(protocol.MethodCardMoved,
		cardRef(c),
		from.Area.String(), strconv.Itoa(from.Seat),
		to.Area.String(), strconv.Itoa(to.Seat),
		reason,
	)

	ev := rules.NewEvent(rules.EventCardMoved, to.Seat).WithCard(c)
	ev.Data["from"] = from.Area.String()
	ev.Data["to"] = to.Area.String()
	ev.Data["reason"] = reason
	r.fire(ev)
}

// MoveCards transfers a batch with a shared reason.
func (r *Room) MoveCards(cards []*card.Card, to Location, reason string) {
	for _, c := range cards {
		r.MoveCard(c, to, reason)
	}
}

// drawFromPile removes and returns the top card of the draw pile. When the
// pile is empty the discard pile is reshuffled into it; when both are
// empty the draw yields nil. Never blocks, never fails.
func (r *Room) drawFromPile() *card.Card {
	if len(r.drawPile) == 0 {
		if len(r.discardPile) == 0 {
			return nil
		}
		r.reshuffleDiscard()
	}
	c := r.drawPile[0]
	r.drawPile = r.drawPile[1:]
	return c
}

// reshuffleDiscard shuffles the discard pile into the empty draw pile.
func (r *Room) reshuffleDiscard() {
	r.drawPile = append(r.drawPile, r.discardPile...)
	r.discardPile = r.discardPile[:0]
	r.rng.Shuffle(len(r.drawPile), func(i, j int) {
		r.drawPile[i], r.drawPile[j] = r.drawPile[j], r.drawPile[i]
	})
	for _, c := range r.drawPile {
		r.locations[c.ID()] = PileLocation(AreaDrawPile)
	}
	r.broadcast(protocol.MethodPileReshuffled, strconv.Itoa(len(r.drawPile)))
}

// DrawCards moves up to count cards from the draw pile into the player's
// hand and reports how many actually arrived.
func (r *Room) DrawCards(p *Player, count int, reason string) int {
	drawn := 0
	for i := 0; i < count; i++ {
		c := r.drawFromPile()
		if c == nil {
			break
		}
		r.MoveCard(c, Location{Area: AreaHand, Seat: p.seat}, reason)
		drawn++
	}
	if drawn > 0 {
		ev := rules.NewEvent(rules.EventCardsDrawn, p.seat).WithAmount(drawn)
		ev.Data["reason"] = reason
		r.fire(ev)
	}
	return drawn
}

// DiscardFromHand asks the player to pay count hand cards and reports how
// many were paid. Short hands, declines and invalid picks pay nothing;
// the caller decides what a missed payment costs.
func (r *Room) DiscardFromHand(p *Player, count int, reason string) int {
	if p.HandCount() < count || count < 1 {
		return 0
	}
	ids := make([]int, 0, p.HandCount())
	for _, c := range p.hand {
		ids = append(ids, c.ID())
	}
	reply := r.ask(p.seat, "discard", reason, []string{"decline"}, ids)
	picks := r.validHandPicks(p, reply.CardIDs, count)
	if picks == nil {
		return 0
	}
	paid := make([]*card.Card, len(picks))
	copy(paid, picks)
	r.MoveCards(paid, PileLocation(AreaDiscardPile), reason)
	return len(paid)
}

// DrawPileSize returns the number of cards left in the draw pile.
func (r *Room) DrawPileSize() int { return len(r.drawPile) }

// DiscardPileSize returns the number of cards in the discard pile.
func (r *Room) DiscardPileSize() int { return len(r.discardPile) }

// CardByID returns a minted card instance by stable ID.
func (r *Room) CardByID(id int) (*card.Card, bool) {
	c, ok := r.cards[id]
	return c, ok
}
