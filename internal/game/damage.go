package game

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// Damage is one pending damage application. A nil Source is environment
// damage (lightning) and grants no kill rewards.
type Damage struct {
	Source *Player
	Target *Player
	Amount int
	Nature card.Nature
	Card   *card.Card
}

// ApplyDamage runs the damage pipeline: the inflicting event (skills may
// prevent or rescale), armor adjustment, hp change, elemental chain
// propagation, and the dying sub-state when hp drops below one.
func (r *Room) ApplyDamage(d Damage) {
	if d.Amount < 1 || d.Target == nil || !d.Target.Alive() {
		return
	}

	sourceSeat := -1
	if d.Source != nil {
		sourceSeat = d.Source.seat
	}
	ev := rules.NewEvent(rules.EventDamageInflicting, d.Target.seat).
		WithOther(sourceSeat).WithAmount(d.Amount).WithNature(d.Nature).WithCard(d.Card)
	r.fire(ev)
	if ev.Prevented || ev.Amount < 1 {
		return
	}
	amount := ev.Amount

	if !r.armorIgnored(d) {
		if armor := d.Target.Equip(card.SlotArmor); armor != nil {
			switch armor.Name() {
			case card.SilverLion:
				if amount > 1 {
					amount = 1
				}
			case card.Vine:
				if d.Nature == card.NatureFire {
					amount++
				}
			}
		}
	}

	wasChained := d.Target.Mark("@chained") > 0
	d.Target.hp -= amount
	r.broadcast(protocol.MethodHPChanged,
		strconv.Itoa(d.Target.seat), strconv.Itoa(d.Target.hp), strconv.Itoa(-amount),
		d.Nature.String())
	r.fire(rules.NewEvent(rules.EventHPChanged, d.Target.seat).WithAmount(-amount))
	r.fire(rules.NewEvent(rules.EventDamageDone, d.Target.seat).
		WithOther(sourceSeat).WithAmount(amount).WithNature(d.Nature).WithCard(d.Card))

	if d.Target.hp < 1 && d.Target.Alive() {
		r.enterDying(d.Target, d.Source)
	}

	// Elemental damage to a chained player breaks the chain and carries
	// the same amount to every other chained player, in seat order.
	if d.Nature != card.NatureNormal && wasChained && r.state == RoomRunning {
		r.SetMark(d.Target, "@chained", 0)
		for _, seat := range r.aliveSeatsFrom(r.nextAliveSeat(d.Target.seat)) {
			p := r.Player(seat)
			if p == d.Target || p.Mark("@chained") == 0 {
				continue
			}
			r.SetMark(p, "@chained", 0)
			r.ApplyDamage(Damage{Source: d.Source, Target: p, Amount: amount, Nature: d.Nature, Card: d.Card})
			if r.state != RoomRunning {
				return
			}
		}
	}
}

// armorIgnored: a qinggang sword slash bypasses the target's armor.
func (r *Room) armorIgnored(d Damage) bool {
	if d.Source == nil || d.Card == nil {
		return false
	}
	weapon := d.Source.Equip(card.SlotWeapon)
	return weapon != nil && weapon.Name() == card.QinggangSword &&
		slashGroup(d.Card.Name()) == card.Slash
}

// Recover restores hp up to the maximum and announces the change.
func (r *Room) Recover(p *Player, amount int, via *card.Card) {
	if amount < 1 || p.life == StateDead || p.hp >= p.maxHP {
		return
	}
	ev := rules.NewEvent(rules.EventRecovering, p.seat).WithAmount(amount).WithCard(via)
	r.fire(ev)
	if ev.Prevented || ev.Amount < 1 {
		return
	}
	gain := ev.Amount
	if p.hp+gain > p.maxHP {
		gain = p.maxHP - p.hp
	}
	p.hp += gain
	r.broadcast(protocol.MethodHPChanged,
		strconv.Itoa(p.seat), strconv.Itoa(p.hp), strconv.Itoa(gain),
		card.NatureNormal.String())
	r.fire(rules.NewEvent(rules.EventHPChanged, p.seat).WithAmount(gain))
	r.fire(rules.NewEvent(rules.EventRecovered, p.seat).WithAmount(gain).WithCard(via))
}

// enterDying walks the rescue loop: every alive player in seat order from
// the dying player may chain peaches (the dying player may also drink
// analeptics) until hp returns to one or the offers run out.
func (r *Room) enterDying(p *Player, source *Player) {
	p.life = StateDying
	r.broadcast(protocol.MethodDying, strconv.Itoa(p.seat), strconv.Itoa(p.hp))
	r.fire(rules.NewEvent(rules.EventDying, p.seat))

	for _, seat := range r.aliveSeatsFrom(p.seat) {
		rescuer := r.Player(seat)
		if rescuer.life == StateDead {
			continue
		}
		r.fire(rules.NewEvent(rules.EventAskForHelp, seat).WithOther(p.seat).
			WithAmount(1 - p.hp))
		for p.hp < 1 {
			saved := r.askForRescue(rescuer, p)
			if saved == nil {
				break
			}
			r.Recover(p, 1, saved)
		}
		if p.hp >= 1 {
			p.life = StateAlive
			return
		}
	}
	r.kill(p, source)
}

// askForRescue offers one rescue card: a peach from anyone, or an
// analeptic from the dying player themselves.
func (r *Room) askForRescue(rescuer, dying *Player) *card.Card {
	ids := make([]int, 0, 2)
	for _, c := range rescuer.hand {
		if c.Name() == card.Peach || (rescuer == dying && c.Name() == card.Analeptic) {
			ids = append(ids, c.ID())
		}
	}
	if len(ids) == 0 {
		return nil
	}
	reply := r.ask(rescuer.seat, "rescue", strconv.Itoa(dying.seat),
		[]string{"decline"}, ids)
	if len(reply.CardIDs) != 1 {
		return nil
	}
	c := rescuer.handCard(reply.CardIDs[0])
	if c == nil || (c.Name() != card.Peach && !(rescuer == dying && c.Name() == card.Analeptic)) {
		return nil
	}
	r.MoveCard(c, PileLocation(AreaDiscardPile), "rescue")
	r.broadcast(protocol.MethodCardUsed,
		strconv.Itoa(rescuer.seat), cardRef(c), protocol.FormatIntList([]int{dying.seat}))
	r.fire(rules.NewEvent(rules.EventCardUsed, rescuer.seat).WithCard(c).WithOther(dying.seat))
	return c
}

// kill marks the player dead, reveals the role, pays out kill rewards and
// re-evaluates victory. The victory check may end the room before the
// remaining cleanup; that is fine, the room is over.
func (r *Room) kill(p *Player, source *Player) {
	p.life = StateDead
	r.broadcast(protocol.MethodDeath, strconv.Itoa(p.seat), p.role.String())
	r.logger.Info("player died",
		zap.Int("seat", p.seat), zap.String("role", p.role.String()))

	deathEv := rules.NewEvent(rules.EventDeath, p.seat)
	if source != nil {
		deathEv.WithOther(source.seat)
	}
	r.fire(deathEv)

	r.checkVictory()
	if r.state != RoomRunning {
		return
	}

	// Table cleanup: everything the dead player held goes to the discard
	// pile, and their triggers unhook.
	all := make([]*card.Card, 0, r.cardCount(p))
	all = append(all, p.hand...)
	for _, eq := range p.equips {
		if eq != nil {
			all = append(all, eq)
		}
	}
	all = append(all, p.judgment...)
	r.MoveCards(all, PileLocation(AreaDiscardPile), "death")
	for _, name := range append([]string(nil), p.skills...) {
		r.LoseSkill(p, name)
	}

	// Kill rewards: a rebel's killer draws three; a lord punishes their
	// own careless loyalist kill by discarding everything.
	if source != nil && source.Alive() {
		switch {
		case p.role == RoleRebel:
			r.DrawCards(source, 3, "kill_reward")
		case p.role == RoleLoyalist && source.role == RoleLord:
			drop := make([]*card.Card, 0, r.cardCount(source))
			drop = append(drop, source.hand...)
			for _, eq := range source.equips {
				if eq != nil {
					drop = append(drop, eq)
				}
			}
			r.MoveCards(drop, PileLocation(AreaDiscardPile), "kill_penalty")
		}
	}
}

// checkVictory asks the scenario whether the match is decided.
func (r *Room) checkVictory() {
	if r.state != RoomRunning {
		return
	}
	if over, winners := r.scenario.CheckWin(r); over {
		r.finish(winners)
	}
}

// finish closes the room and announces the winning roles. A nil winner
// set is a standoff.
func (r *Room) finish(winners []Role) {
	if r.state == RoomOver {
		return
	}
	r.state = RoomOver
	r.winners = winners
	r.broadcast(protocol.MethodGameOver, roleStrings(winners)...)
	r.fire(rules.NewEvent(rules.EventGameOver, -1))
}
