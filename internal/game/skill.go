package game

import (
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// skillEvent builds a skill-tagged event.
func skillEvent(eventType rules.EventType, seat int, skill string) *rules.Event {
	ev := rules.NewEvent(eventType, seat)
	ev.Data["skill"] = skill
	return ev
}

// Frequency is a skill's invocation policy.
type Frequency int

const (
	FrequencyUnlimited Frequency = iota
	FrequencyOncePerTurn
	FrequencyLimited // once per game
)

// Skill is a triggerable capability bound to a player. Implementations are
// stateless: all per-player state lives in marks and the room.
type Skill interface {
	Name() string
	Compulsory() bool
	Frequency() Frequency
	// Events lists the event types the skill reacts to. Empty for pure
	// active or static skills.
	Events() []rules.EventType
	// Triggerable reports whether the skill applies to the event. Called
	// before any invocation prompt.
	Triggerable(r *Room, p *Player, ev *rules.Event) bool
	// Handle applies the skill's effect. Called only after Triggerable
	// returned true and, for optional skills, the owner agreed.
	Handle(r *Room, p *Player, ev *rules.Event) error
}

// ViewAsSkill lets a player disguise real hand cards as a virtual card of
// a different kind.
type ViewAsSkill interface {
	Skill
	// CanViewAs reports whether the selected cards may be disguised.
	CanViewAs(p *Player, cards []*card.Card) bool
	// ViewAs builds the virtual card from the selected cards.
	ViewAs(p *Player, cards []*card.Card) (*card.Card, error)
}

// TargetProhibitor blocks the holder from being targeted by certain cards
// (checked during the targeting step, before any response window opens).
type TargetProhibitor interface {
	ProhibitsTarget(r *Room, holder *Player, source *Player, c *card.Card) bool
}

// DistanceModifier adjusts distance computations involving the holder.
type DistanceModifier interface {
	FromDelta(r *Room, holder *Player) int
	ToDelta(r *Room, holder *Player) int
}

// UseLimitModifier lifts per-turn card-use limits (crossbow, paoxiao).
type UseLimitModifier interface {
	UnlimitedUse(r *Room, holder *Player, cardName string) bool
}

var (
	skillMu    sync.RWMutex
	skillTable = make(map[string]Skill)
)

// RegisterSkill adds a skill to the process-wide catalog, built once at
// startup from package init functions.
func RegisterSkill(s Skill) {
	skillMu.Lock()
	defer skillMu.Unlock()
	if _, dup := skillTable[s.Name()]; dup {
		panic(fmt.Sprintf("game: duplicate skill %q", s.Name()))
	}
	skillTable[s.Name()] = s
}

// LookupSkill returns a skill by name.
func LookupSkill(name string) (Skill, bool) {
	skillMu.RLock()
	defer skillMu.RUnlock()
	s, ok := skillTable[name]
	return s, ok
}

// GainSkill attaches a named skill to a player and subscribes its trigger
// handler. Unknown names are an illegal game action: logged as a warning,
// no-op.
func (r *Room) GainSkill(p *Player, name string) {
	if p.HasSkill(name) {
		return
	}
	sk, ok := LookupSkill(name)
	if !ok {
		r.logger.Warn("gain of unknown skill ignored", zap.String("skill", name))
		return
	}
	p.skills = append(p.skills, name)

	if events := sk.Events(); len(events) > 0 {
		handle := r.registry.Subscribe(name, p.seat, sk.Compulsory(), r.skillHandler(sk, p), events...)
		if r.skillHandles[p.seat] == nil {
			r.skillHandles[p.seat] = make(map[string]int)
		}
		r.skillHandles[p.seat][name] = handle
	}

	r.broadcast(protocol.MethodSkillChanged, strconv.Itoa(p.seat), name, "gain")
	r.fire(skillEvent(rules.EventSkillGained, p.seat, name))
}

// LoseSkill detaches a named skill from a player.
func (r *Room) LoseSkill(p *Player, name string) {
	idx := -1
	for i, s := range p.skills {
		if s == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	p.skills = append(p.skills[:idx], p.skills[idx+1:]...)

	if handles := r.skillHandles[p.seat]; handles != nil {
		if handle, ok := handles[name]; ok {
			r.registry.Unsubscribe(handle)
			delete(handles, name)
		}
	}

	r.broadcast(protocol.MethodSkillChanged, strconv.Itoa(p.seat), name, "lose")
	r.fire(skillEvent(rules.EventSkillLost, p.seat, name))
}

// skillHandler wraps a skill into a registry handler that enforces the
// frequency policy and the optional-skill invocation prompt.
func (r *Room) skillHandler(sk Skill, p *Player) rules.Handler {
	return func(ev *rules.Event) error {
		if !p.Alive() && ev.Type != rules.EventDeath {
			return nil
		}
		if !sk.Triggerable(r, p, ev) {
			return nil
		}
		switch sk.Frequency() {
		case FrequencyOncePerTurn:
			if p.useCounts["skill:"+sk.Name()] > 0 {
				return nil
			}
		case FrequencyLimited:
			if p.limitedUsed[sk.Name()] {
				return nil
			}
		}
		if !sk.Compulsory() {
			if !r.askYesNo(p.seat, "invokeSkill", sk.Name()) {
				return nil
			}
		}
		p.useCounts["skill:"+sk.Name()]++
		if sk.Frequency() == FrequencyLimited {
			p.limitedUsed[sk.Name()] = true
		}
		r.broadcast(protocol.MethodSkillInvoked, strconv.Itoa(p.seat), sk.Name())
		r.fire(skillEvent(rules.EventSkillInvoked, p.seat, sk.Name()))
		return sk.Handle(r, p, ev)
	}
}

// prohibited reports whether any of the target's skills blocks it from
// being targeted by the card.
func (r *Room) prohibited(source, target *Player, c *card.Card) bool {
	for _, name := range target.skills {
		sk, ok := LookupSkill(name)
		if !ok {
			continue
		}
		if tp, ok := sk.(TargetProhibitor); ok && tp.ProhibitsTarget(r, target, source, c) {
			return true
		}
	}
	return false
}

// unlimitedUse reports whether a per-turn use limit is lifted for the
// player, by a skill or the equipped weapon.
func (r *Room) unlimitedUse(p *Player, cardName string) bool {
	for _, name := range p.skills {
		sk, ok := LookupSkill(name)
		if !ok {
			continue
		}
		if um, ok := sk.(UseLimitModifier); ok && um.UnlimitedUse(r, p, cardName) {
			return true
		}
	}
	if cardName == card.Slash || cardName == card.FireSlash || cardName == card.ThunderSlash {
		if weapon := p.Equip(card.SlotWeapon); weapon != nil && weapon.Name() == card.Crossbow {
			return true
		}
	}
	return false
}

// SetMark updates a named mark and announces the change.
func (r *Room) SetMark(p *Player, name string, value int) {
	if p.marks[name] == value {
		return
	}
	p.marks[name] = value
	if value == 0 {
		delete(p.marks, name)
	}
	r.broadcast(protocol.MethodMarkChanged, strconv.Itoa(p.seat), name, strconv.Itoa(value))
	ev := rules.NewEvent(rules.EventMarkChanged, p.seat).WithAmount(value)
	ev.Data["mark"] = name
	r.fire(ev)
}

// AddMark adds delta to a named mark.
func (r *Room) AddMark(p *Player, name string, delta int) {
	r.SetMark(p, name, p.marks[name]+delta)
}
