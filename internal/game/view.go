package game

import (
	"github.com/qsanguosha/sgs-server-go/internal/card"
)

// PlayerView is one player's public state as another seat sees it. Hand
// contents are only populated for the viewer's own seat; other hands
// collapse to a count. Roles stay hidden until death except the lord's.
type PlayerView struct {
	Seat      int            `json:"seat"`
	Name      string         `json:"name"`
	Kingdom   string         `json:"kingdom"`
	Role      string         `json:"role,omitempty"`
	HP        int            `json:"hp"`
	MaxHP     int            `json:"max_hp"`
	Alive     bool           `json:"alive"`
	NetState  string         `json:"net_state"`
	HandCount int            `json:"hand_count"`
	HandIDs   []int          `json:"hand_ids,omitempty"`
	Equips    []int          `json:"equips"`
	Judgment  []int          `json:"judgment"`
	Skills    []string       `json:"skills"`
	Marks     map[string]int `json:"marks,omitempty"`
}

// RoomView is the full reconnect snapshot for one seat.
type RoomView struct {
	RoomID      string       `json:"room_id"`
	State       string       `json:"state"`
	TurnNumber  int          `json:"turn_number"`
	ActiveSeat  int          `json:"active_seat"`
	Phase       string       `json:"phase"`
	DrawPile    int          `json:"draw_pile"`
	DiscardPile int          `json:"discard_pile"`
	Players     []PlayerView `json:"players"`
}

// ViewFor builds the room snapshot visible to a seat. Seat -1 is the
// spectator view: no hand contents, no hidden roles.
func (r *Room) ViewFor(seat int) RoomView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	view := RoomView{
		RoomID:      r.id,
		State:       r.state.String(),
		TurnNumber:  r.turn.TurnNumber(),
		ActiveSeat:  r.turn.ActiveSeat(),
		Phase:       r.turn.CurrentPhase().String(),
		DrawPile:    r.DrawPileSize(),
		DiscardPile: r.DiscardPileSize(),
	}
	for _, p := range r.players {
		pv := PlayerView{
			Seat:      p.seat,
			Name:      p.name,
			Kingdom:   p.kingdom.String(),
			HP:        p.hp,
			MaxHP:     p.maxHP,
			Alive:     p.Alive(),
			NetState:  p.net.String(),
			HandCount: p.HandCount(),
			Skills:    append([]string(nil), p.skills...),
		}
		if p.role == RoleLord || p.life == StateDead || p.seat == seat {
			pv.Role = p.role.String()
		}
		if p.seat == seat {
			for _, c := range p.hand {
				pv.HandIDs = append(pv.HandIDs, c.ID())
			}
		}
		for _, eq := range p.equips {
			if eq != nil {
				pv.Equips = append(pv.Equips, eq.ID())
			}
		}
		for _, jc := range p.judgment {
			pv.Judgment = append(pv.Judgment, jc.ID())
		}
		if len(p.marks) > 0 {
			pv.Marks = make(map[string]int, len(p.marks))
			for k, v := range p.marks {
				if v != 0 {
					pv.Marks[k] = v
				}
			}
		}
		view.Players = append(view.Players, pv)
	}
	return view
}

// CardView resolves a card ID to its public description.
func (r *Room) CardView(id int) (card.Suit, card.Rank, string, bool) {
	c, ok := r.CardByID(id)
	if !ok {
		return card.NoSuit, card.NoRank, "", false
	}
	return c.Suit(), c.Rank(), c.Name(), true
}
