package game

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// slashGroup collapses the slash variants onto one per-turn use counter.
func slashGroup(name string) string {
	switch name {
	case card.Slash, card.FireSlash, card.ThunderSlash:
		return card.Slash
	}
	return name
}

// playPhase runs the acting player's play loop: any number of legal plays,
// each entering the resolution pipeline, until the player passes.
func (r *Room) playPhase(p *Player) {
	for r.state == RoomRunning && p.Alive() {
		ids := make([]int, 0, p.HandCount())
		for _, c := range p.hand {
			ids = append(ids, c.ID())
		}
		reply := r.ask(p.seat, "play", "play or pass", []string{"pass"}, ids)
		if reply.Answer == "" || reply.Answer == "pass" {
			return
		}

		c, err := r.resolvePlayedCard(p, reply)
		if err != nil {
			// Illegal game action: warn and re-offer the play loop.
			r.logger.Warn("rejected play", zap.Int("seat", p.seat), zap.Error(err))
			continue
		}
		targets := make([]*Player, 0, len(reply.Targets))
		for _, seat := range reply.Targets {
			t := r.Player(seat)
			if t == nil {
				err = fmt.Errorf("game: no such seat %d", seat)
				break
			}
			targets = append(targets, t)
		}
		if err != nil {
			r.logger.Warn("rejected play", zap.Int("seat", p.seat), zap.Error(err))
			continue
		}
		if err := r.UseCard(p, c, targets); err != nil {
			r.logger.Warn("rejected play", zap.Int("seat", p.seat), zap.Error(err))
		}
	}
}

// resolvePlayedCard turns a play reply into a card: either a real hand
// card whose name matches the answer, or a virtual card built by a view-as
// skill named in the answer.
func (r *Room) resolvePlayedCard(p *Player, reply Reply) (*card.Card, error) {
	if sk, ok := LookupSkill(reply.Answer); ok {
		vs, isViewAs := sk.(ViewAsSkill)
		if !isViewAs || !p.HasSkill(reply.Answer) {
			return nil, fmt.Errorf("game: %q is not a view-as skill of seat %d", reply.Answer, p.seat)
		}
		cards := make([]*card.Card, 0, len(reply.CardIDs))
		for _, id := range reply.CardIDs {
			c := p.handCard(id)
			if c == nil {
				return nil, fmt.Errorf("game: card %d not in hand", id)
			}
			cards = append(cards, c)
		}
		if !vs.CanViewAs(p, cards) {
			return nil, fmt.Errorf("game: skill %q rejects the selected cards", reply.Answer)
		}
		return vs.ViewAs(p, cards)
	}

	if len(reply.CardIDs) != 1 {
		return nil, fmt.Errorf("game: expected one card, got %d", len(reply.CardIDs))
	}
	c := p.handCard(reply.CardIDs[0])
	if c == nil {
		return nil, fmt.Errorf("game: card %d not in hand", reply.CardIDs[0])
	}
	if c.Name() != reply.Answer {
		return nil, fmt.Errorf("game: card %d is %q, not %q", c.ID(), c.Name(), reply.Answer)
	}
	return c, nil
}

// UseCard runs the resolution pipeline for one card use: targeting
// validation (aborting before any state change), card consumption and
// announcement, response windows, effect application, after-effect
// triggers.
func (r *Room) UseCard(source *Player, c *card.Card, targets []*Player) error {
	if err := r.checkUseLegality(source, c); err != nil {
		return err
	}
	targets, err := r.validateTargets(source, c, targets)
	if err != nil {
		return err
	}

	// Targeting is locked in; consume the card.
	source.useCounts[slashGroup(c.Name())]++
	r.consumeUsedCard(source, c, targets)

	targetSeats := make([]int, len(targets))
	for i, t := range targets {
		targetSeats[i] = t.seat
	}
	r.broadcast(protocol.MethodCardUsed,
		strconv.Itoa(source.seat), cardRef(c), protocol.FormatIntList(targetSeats))

	useEv := rules.NewEvent(rules.EventCardUsed, source.seat).WithCard(c)
	useEv.Data["targets"] = protocol.FormatIntList(targetSeats)
	r.fire(useEv)

	return r.applyCardEffect(source, c, targets)
}

// checkUseLegality rejects cards that cannot be proactively played or
// whose per-turn limit is spent.
func (r *Room) checkUseLegality(source *Player, c *card.Card) error {
	switch c.Name() {
	case card.Jink, card.Nullification:
		return fmt.Errorf("game: %s is a response card", c.Name())
	}
	switch slashGroup(c.Name()) {
	case card.Slash:
		if source.useCounts[card.Slash] >= 1 && !r.unlimitedUse(source, c.Name()) {
			return fmt.Errorf("game: slash limit reached this turn")
		}
	case card.Analeptic:
		if source.useCounts[card.Analeptic] >= 1 {
			return fmt.Errorf("game: analeptic limit reached this turn")
		}
	case card.Peach:
		if source.hp >= source.maxHP {
			return fmt.Errorf("game: peach requires lost hp")
		}
	}
	return nil
}

// validateTargets applies per-card targeting rules: count and distance
// limits and target-side prohibitions. Invalid sets abort the use before
// any state changes.
func (r *Room) validateTargets(source *Player, c *card.Card, targets []*Player) ([]*Player, error) {
	for _, t := range targets {
		if !t.Alive() {
			return nil, fmt.Errorf("game: seat %d is dead", t.seat)
		}
		if r.prohibited(source, t, c) {
			return nil, fmt.Errorf("game: seat %d cannot be targeted by %s", t.seat, c.Name())
		}
	}

	requireCount := func(n int) error {
		if len(targets) != n {
			return fmt.Errorf("game: %s expects %d target(s), got %d", c.Name(), n, len(targets))
		}
		return nil
	}
	noSelf := func() error {
		for _, t := range targets {
			if t == source {
				return fmt.Errorf("game: %s cannot target self", c.Name())
			}
		}
		return nil
	}

	switch c.Name() {
	case card.Slash, card.FireSlash, card.ThunderSlash:
		max := 1
		if weapon := source.Equip(card.SlotWeapon); weapon != nil &&
			weapon.Name() == card.Halberd && r.lastHandCard(source, c) {
			max = 3
		}
		if len(targets) < 1 || len(targets) > max {
			return nil, fmt.Errorf("game: slash expects 1..%d targets, got %d", max, len(targets))
		}
		if err := noSelf(); err != nil {
			return nil, err
		}
		for _, t := range targets {
			if !r.InAttackRange(source, t) {
				return nil, fmt.Errorf("game: seat %d out of attack range", t.seat)
			}
		}
	case card.Duel:
		if err := requireCount(1); err != nil {
			return nil, err
		}
		if err := noSelf(); err != nil {
			return nil, err
		}
	case card.Dismantlement:
		if err := requireCount(1); err != nil {
			return nil, err
		}
		if err := noSelf(); err != nil {
			return nil, err
		}
		if r.cardCount(targets[0]) == 0 {
			return nil, fmt.Errorf("game: target has no cards")
		}
	case card.Snatch:
		if err := requireCount(1); err != nil {
			return nil, err
		}
		if err := noSelf(); err != nil {
			return nil, err
		}
		if d := r.Distance(source, targets[0]); d != 1 {
			return nil, fmt.Errorf("game: snatch requires distance 1, got %d", d)
		}
		if r.cardCount(targets[0]) == 0 {
			return nil, fmt.Errorf("game: target has no cards")
		}
	case card.FireAttack:
		if err := requireCount(1); err != nil {
			return nil, err
		}
		if targets[0].HandCount() == 0 {
			return nil, fmt.Errorf("game: fire attack target needs hand cards")
		}
	case card.Collateral:
		if err := requireCount(2); err != nil {
			return nil, err
		}
		if err := noSelf(); err != nil {
			return nil, err
		}
		killer, victim := targets[0], targets[1]
		if killer.Equip(card.SlotWeapon) == nil {
			return nil, fmt.Errorf("game: collateral requires an armed player")
		}
		if !r.InAttackRange(killer, victim) {
			return nil, fmt.Errorf("game: victim out of the armed player's range")
		}
	case card.IronChain:
		if len(targets) < 1 || len(targets) > 2 {
			return nil, fmt.Errorf("game: iron chain expects 1..2 targets")
		}
	case card.Indulgence:
		if err := requireCount(1); err != nil {
			return nil, err
		}
		if err := noSelf(); err != nil {
			return nil, err
		}
		if judgmentHolds(targets[0], card.Indulgence) {
			return nil, fmt.Errorf("game: target already under indulgence")
		}
	case card.SupplyShortage:
		if err := requireCount(1); err != nil {
			return nil, err
		}
		if err := noSelf(); err != nil {
			return nil, err
		}
		if d := r.Distance(source, targets[0]); d != 1 {
			return nil, fmt.Errorf("game: supply shortage requires distance 1, got %d", d)
		}
		if judgmentHolds(targets[0], card.SupplyShortage) {
			return nil, fmt.Errorf("game: target already under supply shortage")
		}
	case card.Lightning:
		if len(targets) != 0 {
			return nil, fmt.Errorf("game: lightning takes no targets")
		}
		if judgmentHolds(source, card.Lightning) {
			return nil, fmt.Errorf("game: already under lightning")
		}
		targets = []*Player{source}
	case card.ExNihilo:
		if len(targets) != 0 {
			return nil, fmt.Errorf("game: ex nihilo takes no targets")
		}
		// Resolves against its own player so the trick path (and its
		// nullification window) sees a target.
		targets = []*Player{source}
	case card.Peach, card.Analeptic, card.GodSalvation,
		card.AmazingGrace, card.ArcheryAttack, card.SavageAssault:
		if len(targets) != 0 {
			return nil, fmt.Errorf("game: %s takes no declared targets", c.Name())
		}
	default:
		if c.Kind() == card.KindEquip {
			if len(targets) != 0 {
				return nil, fmt.Errorf("game: equips take no targets")
			}
		}
	}

	// Per-target confirmation events: skills may veto individual targets.
	confirmed := targets[:0]
	for _, t := range targets {
		ev := rules.NewEvent(rules.EventTargetConfirming, t.seat).WithCard(c).WithOther(source.seat)
		r.fire(ev)
		if ev.Prevented {
			continue
		}
		confirmed = append(confirmed, t)
		r.fire(rules.NewEvent(rules.EventTargetConfirmed, t.seat).WithCard(c).WithOther(source.seat))
	}
	if len(targets) > 0 && len(confirmed) == 0 {
		return nil, fmt.Errorf("game: every target was vetoed")
	}
	return confirmed, nil
}

// lastHandCard reports whether c is the player's only remaining hand card
// (counting subcards for virtual plays).
func (r *Room) lastHandCard(p *Player, c *card.Card) bool {
	return len(c.RealCards()) == p.HandCount()
}

// cardCount is hand plus equips plus judgment.
func (r *Room) cardCount(p *Player) int {
	count := p.HandCount() + len(p.judgment)
	for _, eq := range p.equips {
		if eq != nil {
			count++
		}
	}
	return count
}

func judgmentHolds(p *Player, name string) bool {
	for _, c := range p.judgment {
		if c.Name() == name {
			return true
		}
	}
	return false
}

// consumeUsedCard moves the used card out of hand: equips into their
// slot, delayed tricks into the target's judgment queue, everything else
// to the discard pile.
func (r *Room) consumeUsedCard(source *Player, c *card.Card, targets []*Player) {
	switch {
	case c.Kind() == card.KindEquip:
		slot, _ := c.SubKind().EquipSlot()
		if prev := source.Equip(slot); prev != nil {
			r.MoveCard(prev, PileLocation(AreaDiscardPile), "replace_equip")
		}
		r.MoveCard(c, Location{Area: AreaEquip, Seat: source.seat}, "use")
	case c.SubKind() == card.SubKindDelayedTrick:
		target := source
		if len(targets) > 0 {
			target = targets[0]
		}
		r.MoveCard(c, Location{Area: AreaJudgment, Seat: target.seat}, "use")
	default:
		r.MoveCard(c, PileLocation(AreaDiscardPile), "use")
	}
}

// applyCardEffect dispatches the card's behavior through the effect
// table. Tricks get a nullification window per target.
func (r *Room) applyCardEffect(source *Player, c *card.Card, targets []*Player) error {
	if c.Kind() == card.KindEquip || c.SubKind() == card.SubKindDelayedTrick {
		return nil // effect deferred to judgment / static while equipped
	}

	switch c.SubKind() {
	case card.SubKindAOETrick:
		for _, seat := range r.aliveSeatsFrom(r.nextAliveSeat(source.seat)) {
			t := r.Player(seat)
			if t == source || !t.Alive() {
				continue
			}
			if r.prohibited(source, t, c) {
				continue
			}
			if r.askNullification(c, source, t) {
				continue
			}
			if err := r.cardEffect(source, c, t); err != nil {
				return err
			}
			if r.state != RoomRunning {
				return nil
			}
		}
		return nil
	case card.SubKindGlobalTrick:
		return r.globalTrickEffect(source, c)
	}

	if c.Name() == card.Collateral {
		if len(targets) != 2 {
			return nil // a vetoed party collapses the trick
		}
		killer, victim := targets[0], targets[1]
		if !killer.Alive() || r.askNullification(c, source, killer) {
			return nil
		}
		return r.collateralEffect(source, c, killer, victim)
	}

	if c.Kind() == card.KindTrick {
		for _, t := range targets {
			if !t.Alive() {
				continue
			}
			if r.askNullification(c, source, t) {
				continue
			}
			if err := r.cardEffect(source, c, t); err != nil {
				return err
			}
			if r.state != RoomRunning {
				return nil
			}
		}
		return nil
	}

	// Basic cards.
	if len(targets) == 0 {
		return r.cardEffect(source, c, source)
	}
	for _, t := range targets {
		if !t.Alive() {
			continue
		}
		if err := r.cardEffect(source, c, t); err != nil {
			return err
		}
		if r.state != RoomRunning {
			return nil
		}
	}
	return nil
}

// cardEffect applies one card's effect against one target.
func (r *Room) cardEffect(source *Player, c *card.Card, target *Player) error {
	switch c.Name() {
	case card.Slash, card.FireSlash, card.ThunderSlash:
		return r.slashEffect(source, c, target)
	case card.Peach:
		r.Recover(target, 1, c)
		return nil
	case card.Analeptic:
		r.AddMark(source, "@drunk", 1)
		return nil
	case card.Duel:
		return r.duelEffect(source, c, target)
	case card.Dismantlement:
		return r.takeCardEffect(source, c, target, PileLocation(AreaDiscardPile))
	case card.Snatch:
		return r.takeCardEffect(source, c, target, Location{Area: AreaHand, Seat: source.seat})
	case card.ExNihilo:
		r.DrawCards(target, 2, card.ExNihilo)
		return nil
	case card.ArcheryAttack:
		return r.dodgeOrDamage(source, c, target, card.Jink)
	case card.SavageAssault:
		return r.dodgeOrDamage(source, c, target, card.Slash)
	case card.FireAttack:
		return r.fireAttackEffect(source, c, target)
	case card.IronChain:
		if target.Mark("@chained") > 0 {
			r.SetMark(target, "@chained", 0)
		} else {
			r.SetMark(target, "@chained", 1)
		}
		return nil
	}
	return fmt.Errorf("game: no effect for card %q", c.Name())
}

// slashEffect: the target produces a jink within the timeout or takes
// damage. Eight-diagram armor may answer with a judgment instead, unless
// the attacker's qinggang sword ignores armor.
func (r *Room) slashEffect(source *Player, c *card.Card, target *Player) error {
	ignoreArmor := false
	if weapon := source.Equip(card.SlotWeapon); weapon != nil && weapon.Name() == card.QinggangSword {
		ignoreArmor = true
	}

	if !ignoreArmor && r.armorPreventsCard(target, c) {
		r.fire(rules.NewEvent(rules.EventSlashMissed, target.seat).WithCard(c).WithOther(source.seat))
		return nil
	}

	// Wushuang demands the dodge twice over.
	need := 1
	if source.HasSkill("wushuang") {
		need = 2
	}
	jinks := 0
	if !ignoreArmor && r.eightDiagramJink(target) {
		jinks++
	}
	for jinks < need {
		if r.askForResponseCard(target, card.Jink, "slash") == nil {
			break
		}
		jinks++
	}
	jinked := jinks >= need

	if jinked {
		r.fire(rules.NewEvent(rules.EventSlashMissed, target.seat).WithCard(c).WithOther(source.seat))
		return nil
	}

	amount := 1
	if source.Mark("@drunk") > 0 {
		amount += source.Mark("@drunk")
		r.SetMark(source, "@drunk", 0)
	}
	if weapon := source.Equip(card.SlotWeapon); weapon != nil &&
		weapon.Name() == card.GudingBlade && target.HandCount() == 0 {
		amount++
	}
	r.fire(rules.NewEvent(rules.EventSlashHit, target.seat).WithCard(c).WithOther(source.seat))
	r.ApplyDamage(Damage{Source: source, Target: target, Amount: amount, Nature: c.Nature(), Card: c})
	return nil
}

// duelEffect alternates slash offers, the target answering first; the
// party that fails to produce one takes the damage.
func (r *Room) duelEffect(source *Player, c *card.Card, target *Player) error {
	responder, other := target, source
	for {
		need := 1
		if other.HasSkill("wushuang") {
			need = 2
		}
		answered := 0
		for answered < need {
			if r.askForResponseCard(responder, card.Slash, card.Duel) == nil {
				break
			}
			answered++
		}
		if answered < need {
			r.ApplyDamage(Damage{Source: other, Target: responder, Amount: 1, Nature: card.NatureNormal, Card: c})
			return nil
		}
		responder, other = other, responder
	}
}

// dodgeOrDamage implements the AOE tricks: produce the named card or take
// one point of damage.
func (r *Room) dodgeOrDamage(source *Player, c *card.Card, target *Player, respond string) error {
	if r.armorPreventsCard(target, c) {
		return nil
	}
	if answer := r.askForResponseCard(target, respond, c.Name()); answer != nil {
		return nil
	}
	r.ApplyDamage(Damage{Source: source, Target: target, Amount: 1, Nature: card.NatureNormal, Card: c})
	return nil
}

// globalTrickEffect applies god salvation / amazing grace to everyone.
func (r *Room) globalTrickEffect(source *Player, c *card.Card) error {
	seats := r.aliveSeatsFrom(source.seat)
	switch c.Name() {
	case card.GodSalvation:
		for _, seat := range seats {
			t := r.Player(seat)
			if r.askNullification(c, source, t) {
				continue
			}
			if t.hp < t.maxHP {
				r.Recover(t, 1, c)
			}
		}
		return nil
	case card.AmazingGrace:
		shown := make([]*card.Card, 0, len(seats))
		for range seats {
			if top := r.drawFromPile(); top != nil {
				shown = append(shown, top)
			}
		}
		for _, seat := range seats {
			if len(shown) == 0 {
				break
			}
			t := r.Player(seat)
			if r.askNullification(c, source, t) {
				continue
			}
			ids := make([]int, len(shown))
			for i, sc := range shown {
				ids[i] = sc.ID()
			}
			reply := r.ask(seat, "takeAG", card.AmazingGrace, nil, ids)
			pick := shown[0]
			for _, sc := range shown {
				if len(reply.CardIDs) == 1 && sc.ID() == reply.CardIDs[0] {
					pick = sc
					break
				}
			}
			for i, sc := range shown {
				if sc == pick {
					shown = append(shown[:i], shown[i+1:]...)
					break
				}
			}
			r.MoveCard(pick, Location{Area: AreaHand, Seat: seat}, card.AmazingGrace)
		}
		// Unclaimed flips go to the discard pile.
		r.MoveCards(shown, PileLocation(AreaDiscardPile), card.AmazingGrace)
		return nil
	}
	return fmt.Errorf("game: no global effect for card %q", c.Name())
}

// takeCardEffect implements dismantlement/snatch: the source picks one of
// the target's cards by area; hand picks are random.
func (r *Room) takeCardEffect(source *Player, c *card.Card, target *Player, dest Location) error {
	options := make([]string, 0, 4)
	if target.HandCount() > 0 {
		options = append(options, "hand")
	}
	for _, eq := range target.equips {
		if eq != nil {
			options = append(options, "equip:"+strconv.Itoa(eq.ID()))
		}
	}
	for _, jc := range target.judgment {
		options = append(options, "judgment:"+strconv.Itoa(jc.ID()))
	}
	if len(options) == 0 {
		return nil // target lost its cards since targeting
	}

	reply := r.ask(source.seat, "chooseCard", c.Name(), options, nil)
	choice := reply.Answer
	if !containsString(options, choice) {
		choice = options[0]
	}

	var taken *card.Card
	if choice == "hand" {
		taken = target.hand[r.rng.Intn(target.HandCount())]
	} else {
		if id, err := strconv.Atoi(choice[strings.IndexByte(choice, ':')+1:]); err == nil {
			if tc, ok := r.CardByID(id); ok {
				taken = tc
			}
		}
	}
	if taken == nil {
		return nil
	}
	r.MoveCard(taken, dest, c.Name())
	return nil
}

// fireAttackEffect: target reveals a hand card; the source may discard a
// card of the same suit to deal one point of fire damage.
func (r *Room) fireAttackEffect(source *Player, c *card.Card, target *Player) error {
	if target.HandCount() == 0 {
		return nil
	}
	ids := make([]int, 0, target.HandCount())
	for _, hc := range target.hand {
		ids = append(ids, hc.ID())
	}
	reply := r.ask(target.seat, "showCard", card.FireAttack, nil, ids)
	shown := target.hand[0]
	if len(reply.CardIDs) == 1 {
		if hc := target.handCard(reply.CardIDs[0]); hc != nil {
			shown = hc
		}
	}
	r.broadcast(protocol.MethodCardResponded, strconv.Itoa(target.seat), cardRef(shown), "show")

	if source.HandCount() == 0 {
		return nil
	}
	matching := make([]int, 0, source.HandCount())
	for _, hc := range source.hand {
		if hc.Suit() == shown.Suit() {
			matching = append(matching, hc.ID())
		}
	}
	if len(matching) == 0 {
		return nil
	}
	feed := r.ask(source.seat, "fireAttackFeed", shown.Suit().String(), nil, matching)
	if len(feed.CardIDs) != 1 {
		return nil
	}
	fc := source.handCard(feed.CardIDs[0])
	if fc == nil || fc.Suit() != shown.Suit() {
		return nil
	}
	r.MoveCard(fc, PileLocation(AreaDiscardPile), card.FireAttack)
	r.ApplyDamage(Damage{Source: source, Target: target, Amount: 1, Nature: card.NatureFire, Card: c})
	return nil
}

// collateralEffect: the armed player slashes the victim or surrenders the
// weapon to the collateral's source.
func (r *Room) collateralEffect(source *Player, c *card.Card, killer, victim *Player) error {
	if !victim.Alive() {
		return nil
	}
	ok := r.askYesNo(killer.seat, "collateralSlash", victim.Name())
	if ok {
		if slash := r.findSlashInHand(killer); slash != nil {
			r.MoveCard(slash, PileLocation(AreaDiscardPile), card.Collateral)
			r.broadcast(protocol.MethodCardUsed,
				strconv.Itoa(killer.seat), cardRef(slash), protocol.FormatIntList([]int{victim.seat}))
			return r.slashEffect(killer, slash, victim)
		}
	}
	if weapon := killer.Equip(card.SlotWeapon); weapon != nil && source.Alive() {
		r.MoveCard(weapon, Location{Area: AreaHand, Seat: source.seat}, card.Collateral)
	}
	return nil
}

func (r *Room) findSlashInHand(p *Player) *card.Card {
	for _, c := range p.hand {
		if slashGroup(c.Name()) == card.Slash {
			return c
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
