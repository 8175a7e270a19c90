package game

import (
	"fmt"
	"strconv"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
	"go.uber.org/zap"
)

// HandLimitModifier adjusts the holder's discard-phase hand limit.
type HandLimitModifier interface {
	HandLimitDelta(r *Room, holder *Player) int
}

// Run prepares and plays the match to completion on the calling goroutine.
// This is the only goroutine that mutates room state; providers and sinks
// are the concurrency boundary.
func (r *Room) Run() error {
	r.mu.Lock()
	r.muHeld = true
	defer func() {
		r.muHeld = false
		r.mu.Unlock()
	}()

	if r.state != RoomNotStarted {
		return fmt.Errorf("game: room %s already started", r.id)
	}
	if err := r.Setup(); err != nil {
		return err
	}

	r.state = RoomRunning
	r.broadcast(protocol.MethodGameStart)
	r.fire(rules.NewEvent(rules.EventGameStart, r.lordSeat()))

	current := r.lordSeat()
	for r.state == RoomRunning {
		if r.cfg.MaxTurns > 0 && r.turn.TurnNumber() >= r.cfg.MaxTurns {
			r.finish(nil)
			break
		}
		r.playTurn(current)
		if r.state != RoomRunning {
			break
		}
		next := r.nextAliveSeat(current)
		if next < 0 {
			// Nobody left to act: a standoff.
			r.finish(nil)
			break
		}
		current = next
	}

	r.logger.Info("room finished",
		zap.Int("turns", r.turn.TurnNumber()),
		zap.Strings("winners", roleStrings(r.winners)),
	)
	return nil
}

// Setup builds the deck, assigns roles and deals starting hands. Run
// calls it automatically; calling it twice is a no-op.
func (r *Room) Setup() error {
	if r.prepared {
		return nil
	}
	r.prepared = true
	deck, err := card.BuildDeck(r.cfg.Packages...)
	if err != nil {
		return err
	}
	for _, c := range deck {
		r.cards[c.ID()] = c
		r.locations[c.ID()] = PileLocation(AreaDrawPile)
	}
	r.drawPile = deck
	r.rng.Shuffle(len(r.drawPile), func(i, j int) {
		r.drawPile[i], r.drawPile[j] = r.drawPile[j], r.drawPile[i]
	})

	roles, err := RoleDistribution(r.cfg.PlayerCount, r.cfg.RenegadeCount)
	if err != nil {
		return err
	}
	r.rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
	kingdoms := []Kingdom{KingdomWei, KingdomShu, KingdomWu, KingdomQun}

	r.broadcast(protocol.MethodSetup,
		strconv.Itoa(r.cfg.PlayerCount),
		protocol.FormatIntList(nil),
	)
	for seat, p := range r.players {
		p.role = roles[seat]
		p.kingdom = kingdoms[r.rng.Intn(len(kingdoms))]
		p.maxHP = 4
		if p.role == RoleLord && r.cfg.PlayerCount > 3 {
			p.maxHP++ // lord bonus in multiplayer
		}
		if r.cfg.SecondGeneral {
			p.maxHP++
		}
		p.hp = p.maxHP

		// Roles stay hidden; only the lord is public knowledge.
		if p.role == RoleLord {
			r.broadcast(protocol.MethodAssignRole, strconv.Itoa(seat), p.role.String())
		} else {
			r.notify(seat, protocol.MethodAssignRole, strconv.Itoa(seat), p.role.String())
		}
	}
	for _, p := range r.players {
		r.DrawCards(p, 4, "initial_deal")
	}
	return nil
}

// lordSeat returns the lord's seat (the first seat before role assignment).
func (r *Room) lordSeat() int {
	for _, p := range r.players {
		if p.role == RoleLord {
			return p.seat
		}
	}
	return 0
}

// playTurn drives one player's turn through the phase sequence. Phase
// events fire before built-in behavior; a handler setting Prevented skips
// the built-in (skip draw, skip play).
func (r *Room) playTurn(seat int) {
	p := r.Player(seat)
	if p == nil || !p.Alive() {
		return
	}

	phase := r.turn.AdvanceTurn(seat)
	for _, pl := range r.players {
		pl.useCounts = make(map[string]int)
	}
	r.broadcast(protocol.MethodTurnStart, strconv.Itoa(seat), strconv.Itoa(r.turn.TurnNumber()))
	r.fire(rules.NewEvent(rules.EventTurnStart, seat))

	for {
		if r.state != RoomRunning || !p.Alive() {
			return
		}
		r.runPhase(p, phase)
		if r.state != RoomRunning || !p.Alive() {
			return
		}
		next, ok := r.turn.AdvancePhase()
		if !ok {
			break
		}
		phase = next
	}

	r.fire(rules.NewEvent(rules.EventTurnEnd, seat))
}

// runPhase executes one phase: announce, phase-start event, built-in
// behavior unless prevented, phase-end event.
func (r *Room) runPhase(p *Player, phase rules.Phase) {
	r.broadcast(protocol.MethodPhaseChange, strconv.Itoa(p.seat), phase.String())

	start := rules.NewEvent(rules.EventPhaseStart, p.seat).WithPhase(phase)
	r.fire(start)

	if !start.Prevented && !r.consumeSkip(p.seat, phase) {
		switch phase {
		case rules.PhaseJudge:
			r.judgePhase(p)
		case rules.PhaseDraw:
			r.drawPhase(p)
		case rules.PhasePlay:
			r.playPhase(p)
		case rules.PhaseDiscard:
			r.discardPhase(p)
		}
	}

	if r.state != RoomRunning {
		return
	}
	r.fire(rules.NewEvent(rules.EventPhaseEnd, p.seat).WithPhase(phase))
}

// drawPhase draws the scenario base count, adjusted by skills through the
// DRAWING_CARDS event.
func (r *Room) drawPhase(p *Player) {
	ev := rules.NewEvent(rules.EventDrawingCards, p.seat).
		WithAmount(r.scenario.BaseDrawCount(r, p))
	r.fire(ev)
	if ev.Prevented || ev.Amount <= 0 {
		return
	}
	r.DrawCards(p, ev.Amount, "draw_phase")
}

// discardPhase forces the player down to the hand limit. Picks are player
// chosen under the configured deadline; the fallback auto-discards.
func (r *Room) discardPhase(p *Player) {
	limit := r.HandLimit(p)
	excess := p.HandCount() - limit
	if excess <= 0 {
		return
	}

	ids := make([]int, 0, p.HandCount())
	for _, c := range p.hand {
		ids = append(ids, c.ID())
	}
	reply := r.ask(p.seat, "discard",
		fmt.Sprintf("discard %d", excess), nil, ids)

	picks := r.validHandPicks(p, reply.CardIDs, excess)
	if picks == nil {
		// Server-chosen discard: oldest hand cards first.
		picks = p.hand[:excess]
	}
	discarded := make([]*card.Card, len(picks))
	copy(discarded, picks)
	r.MoveCards(discarded, PileLocation(AreaDiscardPile), "discard_phase")
}

// validHandPicks verifies a discard selection: the exact count, all from
// hand, no duplicates. Returns nil for invalid selections.
func (r *Room) validHandPicks(p *Player, ids []int, count int) []*card.Card {
	if len(ids) != count {
		return nil
	}
	seen := make(map[int]bool, count)
	picks := make([]*card.Card, 0, count)
	for _, id := range ids {
		if seen[id] {
			return nil
		}
		seen[id] = true
		c := p.handCard(id)
		if c == nil {
			return nil
		}
		picks = append(picks, c)
	}
	return picks
}

// HandLimit returns the player's discard-phase hand limit: current HP
// (never below zero) plus skill adjustments.
func (r *Room) HandLimit(p *Player) int {
	limit := p.hp
	if limit < 0 {
		limit = 0
	}
	for _, name := range p.skills {
		if sk, ok := LookupSkill(name); ok {
			if hm, ok := sk.(HandLimitModifier); ok {
				limit += hm.HandLimitDelta(r, p)
			}
		}
	}
	if limit < 0 {
		limit = 0
	}
	return limit
}

func roleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = role.String()
	}
	return out
}
