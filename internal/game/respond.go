package game

import (
	"strconv"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// respondMatches reports whether a hand card answers a response request.
// Asking for a slash accepts any slash variant.
func respondMatches(want string, c *card.Card) bool {
	if want == card.Slash {
		return slashGroup(c.Name()) == card.Slash
	}
	return c.Name() == want
}

// askForResponseCard opens a response window: the player may discard a
// matching hand card (or build one through a view-as skill) or decline.
// Declining, timing out and holding no matching card all return nil.
func (r *Room) askForResponseCard(p *Player, want, reason string) *card.Card {
	options := []string{"decline"}
	ids := make([]int, 0, p.HandCount())
	for _, c := range p.hand {
		if respondMatches(want, c) {
			ids = append(ids, c.ID())
		}
	}
	for _, name := range p.skills {
		if sk, ok := LookupSkill(name); ok {
			if _, isViewAs := sk.(ViewAsSkill); isViewAs {
				options = append(options, name)
			}
		}
	}
	if len(ids) == 0 && len(options) == 1 {
		return nil
	}

	reply := r.ask(p.seat, "respond:"+want, reason, options, ids)
	if reply.Answer == "decline" || (reply.Answer == "" && len(reply.CardIDs) == 0) {
		return nil
	}

	var answer *card.Card
	if sk, ok := LookupSkill(reply.Answer); ok && p.HasSkill(reply.Answer) {
		if vs, isViewAs := sk.(ViewAsSkill); isViewAs {
			cards := make([]*card.Card, 0, len(reply.CardIDs))
			for _, id := range reply.CardIDs {
				hc := p.handCard(id)
				if hc == nil {
					return nil
				}
				cards = append(cards, hc)
			}
			if vs.CanViewAs(p, cards) {
				if vc, err := vs.ViewAs(p, cards); err == nil && respondMatches(want, vc) {
					answer = vc
				}
			}
		}
	} else if len(reply.CardIDs) == 1 {
		if hc := p.handCard(reply.CardIDs[0]); hc != nil && respondMatches(want, hc) {
			answer = hc
		}
	}
	if answer == nil {
		return nil
	}

	r.MoveCard(answer, PileLocation(AreaDiscardPile), "respond")
	r.broadcast(protocol.MethodCardResponded, strconv.Itoa(p.seat), cardRef(answer), reason)
	r.fire(rules.NewEvent(rules.EventCardResponded, p.seat).WithCard(answer))
	return answer
}

// askNullification offers every alive player, in seat order starting
// after the trick's source, the chance to cancel the trick's effect on
// target. A played nullification opens a nested window against itself;
// the windows terminate because every level consumes a card. Returns
// true when the effect is cancelled.
func (r *Room) askNullification(trick *card.Card, source, target *Player) bool {
	singleTarget := trick.SubKind() == card.SubKindSingleTargetTrick ||
		trick.SubKind() == card.SubKindDelayedTrick
	for _, seat := range r.aliveSeatsFrom(r.nextAliveSeat(source.seat)) {
		p := r.Player(seat)
		if !p.hasHandCardNamed(card.Nullification) {
			continue
		}
		if p == source && singleTarget && p.neverNullify {
			continue
		}
		prompt := trick.Name()
		if target != nil {
			prompt += ":" + strconv.Itoa(target.seat)
		}
		if !r.askYesNo(seat, "nullification", prompt) {
			continue
		}
		var null *card.Card
		for _, hc := range p.hand {
			if hc.Name() == card.Nullification {
				null = hc
				break
			}
		}
		if null == nil {
			continue
		}
		r.MoveCard(null, PileLocation(AreaDiscardPile), "respond")
		r.broadcast(protocol.MethodCardResponded, strconv.Itoa(seat), cardRef(null), trick.Name())
		r.fire(rules.NewEvent(rules.EventCardResponded, seat).WithCard(null))

		countered := r.askNullification(null, p, nil)
		if countered {
			return false
		}
		targetSeat := -1
		if target != nil {
			targetSeat = target.seat
		}
		r.broadcast(protocol.MethodTrickNullified,
			cardRef(trick), strconv.Itoa(seat), strconv.Itoa(targetSeat))
		r.fire(rules.NewEvent(rules.EventTrickNullified, seat).WithCard(trick))
		return true
	}
	return false
}

// armorPreventsCard covers the vine immunities: normal slashes and the
// two AOE tricks pass over a vine wearer entirely.
func (r *Room) armorPreventsCard(p *Player, c *card.Card) bool {
	armor := p.Equip(card.SlotArmor)
	if armor == nil {
		return false
	}
	switch armor.Name() {
	case card.Vine:
		switch c.Name() {
		case card.SavageAssault, card.ArcheryAttack:
			return true
		case card.Slash:
			return c.Nature() == card.NatureNormal
		}
	case card.RenwangShield:
		return slashGroup(c.Name()) == card.Slash && c.Suit().IsBlack()
	}
	return false
}

// eightDiagramJink lets an eight-diagram wearer answer a jink request
// with a judgment: red means the armor supplies the jink.
func (r *Room) eightDiagramJink(p *Player) bool {
	armor := p.Equip(card.SlotArmor)
	if armor == nil || armor.Name() != card.EightDiagram {
		return false
	}
	if !r.askYesNo(p.seat, "invokeSkill", card.EightDiagram) {
		return false
	}
	jc := r.Judge(p, card.EightDiagram)
	return jc != nil && jc.Suit().IsRed()
}
