package game

import (
	"fmt"
	"sync"
)

// Scenario is an alternate rule-set overriding default win conditions,
// phase behavior or distance computation. The standard rules are a
// scenario themselves; rooms select one by name at creation.
type Scenario interface {
	Name() string
	// CheckWin evaluates the win condition after every death. over is true
	// when the room ends; winners lists the winning roles.
	CheckWin(r *Room) (over bool, winners []Role)
	// AdjustDistance lets a scenario warp distance computations.
	AdjustDistance(r *Room, from, to *Player, distance int) int
	// BaseDrawCount is the draw-phase base before skill adjustment.
	BaseDrawCount(r *Room, p *Player) int
}

var (
	scenarioMu    sync.RWMutex
	scenarioTable = make(map[string]Scenario)
)

// RegisterScenario adds a scenario to the process-wide catalog.
func RegisterScenario(s Scenario) {
	scenarioMu.Lock()
	defer scenarioMu.Unlock()
	if _, dup := scenarioTable[s.Name()]; dup {
		panic(fmt.Sprintf("game: duplicate scenario %q", s.Name()))
	}
	scenarioTable[s.Name()] = s
}

// LookupScenario returns a scenario by name; the empty name selects the
// standard rules.
func LookupScenario(name string) (Scenario, error) {
	if name == "" {
		name = "standard"
	}
	scenarioMu.RLock()
	defer scenarioMu.RUnlock()
	s, ok := scenarioTable[name]
	if !ok {
		return nil, fmt.Errorf("game: unknown scenario %q", name)
	}
	return s, nil
}

func init() {
	RegisterScenario(standardScenario{})
}

// standardScenario implements the classic lord/loyalist/rebel/renegade
// rules.
type standardScenario struct{}

func (standardScenario) Name() string { return "standard" }

func (standardScenario) AdjustDistance(_ *Room, _, _ *Player, distance int) int {
	return distance
}

func (standardScenario) BaseDrawCount(_ *Room, _ *Player) int { return 2 }

// CheckWin: the lord camp wins when every rebel and renegade is dead and
// the lord lives; rebels win when the lord dies, unless the sole survivor
// is a renegade, who then wins alone.
func (standardScenario) CheckWin(r *Room) (bool, []Role) {
	var lord *Player
	rebels, renegades := 0, 0
	var survivors []*Player
	for _, p := range r.players {
		if p.role == RoleLord {
			lord = p
		}
		if !p.Alive() {
			continue
		}
		survivors = append(survivors, p)
		switch p.role {
		case RoleRebel:
			rebels++
		case RoleRenegade:
			renegades++
		}
	}

	if lord != nil && !lord.Alive() {
		if len(survivors) == 1 && survivors[0].role == RoleRenegade {
			return true, []Role{RoleRenegade}
		}
		return true, []Role{RoleRebel}
	}
	if rebels == 0 && renegades == 0 {
		return true, []Role{RoleLord, RoleLoyalist}
	}
	return false, nil
}
