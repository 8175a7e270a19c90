package game

import (
	"fmt"

	"github.com/qsanguosha/sgs-server-go/internal/card"
)

// Role is a player's hidden role, assigned once at game start.
type Role int

const (
	RoleLord Role = iota
	RoleLoyalist
	RoleRebel
	RoleRenegade
)

var roleNames = map[Role]string{
	RoleLord:     "lord",
	RoleLoyalist: "loyalist",
	RoleRebel:    "rebel",
	RoleRenegade: "renegade",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ROLE_%d", int(r))
}

// Kingdom is a player's faction affiliation.
type Kingdom int

const (
	KingdomWei Kingdom = iota
	KingdomShu
	KingdomWu
	KingdomQun
	KingdomGod
)

var kingdomNames = map[Kingdom]string{
	KingdomWei: "wei",
	KingdomShu: "shu",
	KingdomWu:  "wu",
	KingdomQun: "qun",
	KingdomGod: "god",
}

func (k Kingdom) String() string {
	if name, ok := kingdomNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KINGDOM_%d", int(k))
}

// LifeState tracks a player's alive/dying/dead progression.
type LifeState int

const (
	StateAlive LifeState = iota
	StateDying
	StateDead
)

var lifeStateNames = map[LifeState]string{
	StateAlive: "alive",
	StateDying: "dying",
	StateDead:  "dead",
}

func (ls LifeState) String() string {
	if name, ok := lifeStateNames[ls]; ok {
		return name
	}
	return fmt.Sprintf("LIFE_%d", int(ls))
}

// NetState tracks a player's connection/trust status. The engine keeps
// acting for offline and trusted players using fallback decisions.
type NetState int

const (
	NetOnline NetState = iota
	NetOffline
	NetTrust
)

var netStateNames = map[NetState]string{
	NetOnline:  "online",
	NetOffline: "offline",
	NetTrust:   "trust",
}

func (ns NetState) String() string {
	if name, ok := netStateNames[ns]; ok {
		return name
	}
	return fmt.Sprintf("NET_%d", int(ns))
}

// roleTable gives the standard role multiset per player count. Index 0 is
// always the lord; the multiset is assigned to shuffled seats once and
// never reassigned.
var roleTable = map[int][]Role{
	2:  {RoleLord, RoleRebel},
	3:  {RoleLord, RoleRebel, RoleRenegade},
	4:  {RoleLord, RoleRebel, RoleRebel, RoleRenegade},
	5:  {RoleLord, RoleLoyalist, RoleRebel, RoleRebel, RoleRenegade},
	6:  {RoleLord, RoleLoyalist, RoleRebel, RoleRebel, RoleRebel, RoleRenegade},
	7:  {RoleLord, RoleLoyalist, RoleLoyalist, RoleRebel, RoleRebel, RoleRebel, RoleRenegade},
	8:  {RoleLord, RoleLoyalist, RoleLoyalist, RoleRebel, RoleRebel, RoleRebel, RoleRebel, RoleRenegade},
	9:  {RoleLord, RoleLoyalist, RoleLoyalist, RoleLoyalist, RoleRebel, RoleRebel, RoleRebel, RoleRebel, RoleRenegade},
	10: {RoleLord, RoleLoyalist, RoleLoyalist, RoleLoyalist, RoleRebel, RoleRebel, RoleRebel, RoleRebel, RoleRenegade, RoleRenegade},
}

// RoleDistribution returns the role multiset for the player count.
// renegades overrides the default renegade count when non-negative; the
// difference is absorbed by the rebel camp.
func RoleDistribution(playerCount, renegades int) ([]Role, error) {
	base, ok := roleTable[playerCount]
	if !ok {
		return nil, fmt.Errorf("game: unsupported player count %d", playerCount)
	}
	roles := make([]Role, len(base))
	copy(roles, base)

	if renegades < 0 {
		return roles, nil
	}

	current := 0
	for _, r := range roles {
		if r == RoleRenegade {
			current++
		}
	}
	for current > renegades {
		for i, r := range roles {
			if r == RoleRenegade {
				roles[i] = RoleRebel
				current--
				break
			}
		}
	}
	for current < renegades {
		converted := false
		for i, r := range roles {
			if r == RoleRebel {
				roles[i] = RoleRenegade
				current++
				converted = true
				break
			}
		}
		if !converted {
			return nil, fmt.Errorf("game: cannot seat %d renegades among %d players", renegades, playerCount)
		}
	}
	return roles, nil
}

// Player is one seat's state. It is owned by its Room; only the engine
// goroutine driving the Room mutates it.
type Player struct {
	seat    int
	name    string
	role    Role
	kingdom Kingdom

	hp    int
	maxHP int
	life  LifeState
	net   NetState

	hand     []*card.Card
	equips   [card.SlotCount]*card.Card
	judgment []*card.Card // FIFO: index 0 resolves first

	skills []string
	marks  map[string]int

	// per-turn card-name use counters, reset at turn start
	useCounts map[string]int
	// per-game skill invocation record for limited skills
	limitedUsed map[string]bool

	// "never nullify my single target trick" preference: suppresses the
	// prompt, never the mechanic
	neverNullify bool
}

func newPlayer(seat int, name string) *Player {
	return &Player{
		seat:        seat,
		name:        name,
		life:        StateAlive,
		net:         NetOnline,
		marks:       make(map[string]int),
		useCounts:   make(map[string]int),
		limitedUsed: make(map[string]bool),
	}
}

// Seat returns the player's seat index.
func (p *Player) Seat() int { return p.seat }

// Name returns the player's display name.
func (p *Player) Name() string { return p.name }

// Role returns the player's hidden role.
func (p *Player) Role() Role { return p.role }

// Kingdom returns the player's kingdom affiliation.
func (p *Player) Kingdom() Kingdom { return p.kingdom }

// HP returns the player's current hit points.
func (p *Player) HP() int { return p.hp }

// MaxHP returns the player's maximum hit points.
func (p *Player) MaxHP() int { return p.maxHP }

// LifeState returns the alive/dying/dead state.
func (p *Player) LifeState() LifeState { return p.life }

// NetState returns the online/offline/trust state.
func (p *Player) NetState() NetState { return p.net }

// Alive reports whether the player can still act. Dying players count as
// alive for rescue purposes.
func (p *Player) Alive() bool { return p.life != StateDead }

// Hand returns the player's hand. The slice is owned by the engine.
func (p *Player) Hand() []*card.Card { return p.hand }

// HandCount returns the number of hand cards.
func (p *Player) HandCount() int { return len(p.hand) }

// Equip returns the card in the given equip slot, or nil.
func (p *Player) Equip(slot int) *card.Card {
	if slot < 0 || slot >= card.SlotCount {
		return nil
	}
	return p.equips[slot]
}

// Judgment returns the judgment-area queue, oldest first.
func (p *Player) Judgment() []*card.Card { return p.judgment }

// Skills returns the names of skills currently held, in gain order.
func (p *Player) Skills() []string { return p.skills }

// HasSkill reports whether the player currently holds the named skill.
func (p *Player) HasSkill(name string) bool {
	for _, s := range p.skills {
		if s == name {
			return true
		}
	}
	return false
}

// Mark returns the count of a named mark.
func (p *Player) Mark(name string) int { return p.marks[name] }

// UseCount returns how many times a card name was used this turn.
func (p *Player) UseCount(name string) int { return p.useCounts[name] }

// NeverNullify reports the player's nullification-prompt preference.
func (p *Player) NeverNullify() bool { return p.neverNullify }

// SetNeverNullify updates the nullification-prompt preference.
func (p *Player) SetNeverNullify(v bool) { p.neverNullify = v }

// handCard returns the hand card with the given ID, or nil.
func (p *Player) handCard(id int) *card.Card {
	for _, c := range p.hand {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// hasHandCardNamed reports whether any hand card carries the given name.
func (p *Player) hasHandCardNamed(name string) bool {
	for _, c := range p.hand {
		if c.Name() == name {
			return true
		}
	}
	return false
}
