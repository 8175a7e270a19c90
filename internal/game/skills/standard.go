// Package skills holds the concrete skill catalog. Importing it for side
// effects registers every skill into the game's registry.
package skills

import (
	"fmt"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
)

// base supplies the skill boilerplate shared by every entry: a name, an
// invocation policy and the compulsory flag. Concrete skills embed it and
// override what they react to.
type base struct {
	name       string
	compulsory bool
	frequency  game.Frequency
}

func (b base) Name() string              { return b.name }
func (b base) Compulsory() bool          { return b.compulsory }
func (b base) Frequency() game.Frequency { return b.frequency }
func (b base) Events() []rules.EventType { return nil }

func (b base) Triggerable(r *game.Room, p *game.Player, ev *rules.Event) bool { return false }
func (b base) Handle(r *game.Room, p *game.Player, ev *rules.Event) error     { return nil }

// kongcheng: with an empty hand the holder cannot be targeted by slashes
// or duels.
type kongcheng struct{ base }

func (kongcheng) ProhibitsTarget(r *game.Room, holder, source *game.Player, c *card.Card) bool {
	if holder.HandCount() > 0 {
		return false
	}
	switch c.Name() {
	case card.Slash, card.FireSlash, card.ThunderSlash, card.Duel:
		return true
	}
	return false
}

// mashu: the holder counts one closer to everyone.
type mashu struct{ base }

func (mashu) FromDelta(r *game.Room, holder *game.Player) int { return -1 }
func (mashu) ToDelta(r *game.Room, holder *game.Player) int   { return 0 }

// feiying: everyone counts one further from the holder.
type feiying struct{ base }

func (feiying) FromDelta(r *game.Room, holder *game.Player) int { return 0 }
func (feiying) ToDelta(r *game.Room, holder *game.Player) int   { return 1 }

// paoxiao: no per-turn slash limit.
type paoxiao struct{ base }

func (paoxiao) UnlimitedUse(r *game.Room, holder *game.Player, cardName string) bool {
	switch cardName {
	case card.Slash, card.FireSlash, card.ThunderSlash:
		return true
	}
	return false
}

// wushuang is enforced inside the slash and duel resolution (a second
// jink or slash is demanded); registering it here gives it a catalog
// entry and the gain/lose announcements.
type wushuang struct{ base }

// wusheng: any red card plays as a slash.
type wusheng struct{ base }

func (wusheng) CanViewAs(p *game.Player, cards []*card.Card) bool {
	return len(cards) == 1 && cards[0].Suit().IsRed()
}

func (s wusheng) ViewAs(p *game.Player, cards []*card.Card) (*card.Card, error) {
	if !s.CanViewAs(p, cards) {
		return nil, fmt.Errorf("skills: wusheng needs one red card")
	}
	return card.NewVirtual(card.Slash, card.MustSpec(card.Slash), s.Name(), cards[0])
}

// qingguo: any black hand card plays as a jink.
type qingguo struct{ base }

func (qingguo) CanViewAs(p *game.Player, cards []*card.Card) bool {
	return len(cards) == 1 && cards[0].Suit().IsBlack()
}

func (s qingguo) ViewAs(p *game.Player, cards []*card.Card) (*card.Card, error) {
	if !s.CanViewAs(p, cards) {
		return nil, fmt.Errorf("skills: qingguo needs one black card")
	}
	return card.NewVirtual(card.Jink, card.MustSpec(card.Jink), s.Name(), cards[0])
}

// qixi: any black card plays as a dismantlement.
type qixi struct{ base }

func (qixi) CanViewAs(p *game.Player, cards []*card.Card) bool {
	return len(cards) == 1 && cards[0].Suit().IsBlack()
}

func (s qixi) ViewAs(p *game.Player, cards []*card.Card) (*card.Card, error) {
	if !s.CanViewAs(p, cards) {
		return nil, fmt.Errorf("skills: qixi needs one black card")
	}
	return card.NewVirtual(card.Dismantlement, card.MustSpec(card.Dismantlement), s.Name(), cards[0])
}

// jianxiong: after taking damage from a card, take that card to hand.
type jianxiong struct{ base }

func (jianxiong) Events() []rules.EventType {
	return []rules.EventType{rules.EventDamageDone}
}

func (jianxiong) Triggerable(r *game.Room, p *game.Player, ev *rules.Event) bool {
	return ev.Seat == p.Seat() && ev.Card != nil && len(ev.Card.RealCards()) > 0
}

func (jianxiong) Handle(r *game.Room, p *game.Player, ev *rules.Event) error {
	for _, rc := range ev.Card.RealCards() {
		if r.Location(rc).Area == game.AreaDiscardPile {
			r.MoveCard(rc, game.Location{Area: game.AreaHand, Seat: p.Seat()}, "jianxiong")
		}
	}
	return nil
}

// ganglie: after taking damage, flip a judgment; unless it shows hearts
// the attacker discards two hand cards or takes one point back.
type ganglie struct{ base }

func (ganglie) Events() []rules.EventType {
	return []rules.EventType{rules.EventDamageDone}
}

func (ganglie) Triggerable(r *game.Room, p *game.Player, ev *rules.Event) bool {
	return ev.Seat == p.Seat() && ev.Other >= 0
}

func (ganglie) Handle(r *game.Room, p *game.Player, ev *rules.Event) error {
	attacker := r.Player(ev.Other)
	if attacker == nil || !attacker.Alive() {
		return nil
	}
	verdict := r.Judge(p, "ganglie")
	if verdict == nil || verdict.Suit() == card.Heart {
		return nil
	}
	if r.DiscardFromHand(attacker, 2, "ganglie") < 2 {
		r.ApplyDamage(game.Damage{Source: p, Target: attacker, Amount: 1, Nature: card.NatureNormal})
	}
	return nil
}

// yingzi: one extra card in the draw phase.
type yingzi struct{ base }

func (yingzi) Events() []rules.EventType {
	return []rules.EventType{rules.EventDrawingCards}
}

func (yingzi) Triggerable(r *game.Room, p *game.Player, ev *rules.Event) bool {
	return ev.Seat == p.Seat() && !ev.Prevented
}

func (yingzi) Handle(r *game.Room, p *game.Player, ev *rules.Event) error {
	ev.Amount++
	return nil
}

// biyue: draw one card when the turn wraps up.
type biyue struct{ base }

func (biyue) Events() []rules.EventType {
	return []rules.EventType{rules.EventPhaseStart}
}

func (biyue) Triggerable(r *game.Room, p *game.Player, ev *rules.Event) bool {
	return ev.Seat == p.Seat() && ev.Phase == rules.PhaseFinish
}

func (biyue) Handle(r *game.Room, p *game.Player, ev *rules.Event) error {
	r.DrawCards(p, 1, "biyue")
	return nil
}

func init() {
	game.RegisterSkill(kongcheng{base{name: "kongcheng", compulsory: true}})
	game.RegisterSkill(mashu{base{name: "mashu", compulsory: true}})
	game.RegisterSkill(feiying{base{name: "feiying", compulsory: true}})
	game.RegisterSkill(paoxiao{base{name: "paoxiao", compulsory: true}})
	game.RegisterSkill(wushuang{base{name: "wushuang", compulsory: true}})
	game.RegisterSkill(wusheng{base{name: "wusheng"}})
	game.RegisterSkill(qingguo{base{name: "qingguo"}})
	game.RegisterSkill(qixi{base{name: "qixi"}})
	game.RegisterSkill(jianxiong{base{name: "jianxiong"}})
	game.RegisterSkill(ganglie{base{name: "ganglie"}})
	game.RegisterSkill(yingzi{base{name: "yingzi", compulsory: true}})
	game.RegisterSkill(biyue{base{name: "biyue", compulsory: true}})
}
