package card

import (
	"errors"
	"fmt"
)

// Suit is the French suit printed on a card. NoSuit is used by virtual
// cards that combine several real cards.
type Suit int

const (
	Spade Suit = iota
	Club
	Heart
	Diamond
	NoSuit
)

var suitNames = map[Suit]string{
	Spade:   "spade",
	Club:    "club",
	Heart:   "heart",
	Diamond: "diamond",
	NoSuit:  "no_suit",
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SUIT_%d", int(s))
}

// IsBlack reports whether the suit is spade or club.
func (s Suit) IsBlack() bool {
	return s == Spade || s == Club
}

// IsRed reports whether the suit is heart or diamond.
func (s Suit) IsRed() bool {
	return s == Heart || s == Diamond
}

// Rank is the printed point value, 1 (ace) through 13 (king).
// NoRank is used by virtual cards without a single delegate.
type Rank int

const NoRank Rank = 0

func (r Rank) String() string {
	switch r {
	case NoRank:
		return "-"
	case 1:
		return "A"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// Kind is the base category of a card.
type Kind int

const (
	KindBasic Kind = iota
	KindTrick
	KindEquip
)

var kindNames = map[Kind]string{
	KindBasic: "basic",
	KindTrick: "trick",
	KindEquip: "equip",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// SubKind refines the base kind. It decides targeting defaults and which
// equip slot a card occupies.
type SubKind int

const (
	SubKindNone SubKind = iota
	SubKindSingleTargetTrick
	SubKindMultiTargetTrick
	SubKindAOETrick
	SubKindGlobalTrick
	SubKindDelayedTrick
	SubKindWeapon
	SubKindArmor
	SubKindOffensiveHorse
	SubKindDefensiveHorse
)

var subKindNames = map[SubKind]string{
	SubKindNone:              "none",
	SubKindSingleTargetTrick: "single_target_trick",
	SubKindMultiTargetTrick:  "multi_target_trick",
	SubKindAOETrick:          "aoe_trick",
	SubKindGlobalTrick:       "global_trick",
	SubKindDelayedTrick:      "delayed_trick",
	SubKindWeapon:            "weapon",
	SubKindArmor:             "armor",
	SubKindOffensiveHorse:    "offensive_horse",
	SubKindDefensiveHorse:    "defensive_horse",
}

func (sk SubKind) String() string {
	if name, ok := subKindNames[sk]; ok {
		return name
	}
	return fmt.Sprintf("SUBKIND_%d", int(sk))
}

// EquipSlot returns which equip area this subkind occupies, or false for
// non-equip subkinds. A player holds at most one card per slot.
func (sk SubKind) EquipSlot() (int, bool) {
	switch sk {
	case SubKindWeapon:
		return SlotWeapon, true
	case SubKindArmor:
		return SlotArmor, true
	case SubKindDefensiveHorse:
		return SlotDefensiveHorse, true
	case SubKindOffensiveHorse:
		return SlotOffensiveHorse, true
	default:
		return 0, false
	}
}

// Equip slot indices.
const (
	SlotWeapon = iota
	SlotArmor
	SlotDefensiveHorse
	SlotOffensiveHorse
	SlotCount
)

// Nature tags damage-dealing cards for the damage pipeline.
type Nature int

const (
	NatureNormal Nature = iota
	NatureFire
	NatureThunder
)

var natureNames = map[Nature]string{
	NatureNormal:  "normal_nature",
	NatureFire:    "fire_nature",
	NatureThunder: "thunder_nature",
}

func (n Nature) String() string {
	if name, ok := natureNames[n]; ok {
		return name
	}
	return fmt.Sprintf("NATURE_%d", int(n))
}

// ErrVirtualSubcard is returned when a virtual card is offered as a subcard.
// Wrapping delegates exactly one level; nesting is never legal.
var ErrVirtualSubcard = errors.New("subcard must not be a virtual card")

// Card is one card instance. Real cards are minted once at deck build time
// with a stable non-negative ID and recycled between piles for the whole
// game. Virtual cards (ID -1) are created on the fly by view-as skills and
// present a substituted name/kind while delegating suit and rank to their
// subcards.
type Card struct {
	id       int
	name     string
	suit     Suit
	rank     Rank
	kind     Kind
	subKind  SubKind
	nature   Nature
	virtual  bool
	subcards []*Card
	// skill that produced this virtual card, empty for real cards
	viaSkill string
}

// VirtualID is the ID shared by all virtual cards.
const VirtualID = -1

// New creates a real card. Deck builders are the only callers.
func New(id int, name string, suit Suit, rank Rank, spec Spec) *Card {
	return &Card{
		id:      id,
		name:    name,
		suit:    suit,
		rank:    rank,
		kind:    spec.Kind,
		subKind: spec.SubKind,
		nature:  spec.Nature,
	}
}

// NewVirtual creates a virtual card presenting name's catalog spec while
// delegating suit and rank to subcards. With a single subcard the virtual
// card reads that card's suit and rank; with zero or several it has NoSuit
// and NoRank. Returns ErrVirtualSubcard if any subcard is itself virtual.
func NewVirtual(name string, spec Spec, viaSkill string, subcards ...*Card) (*Card, error) {
	for _, sub := range subcards {
		if sub.virtual {
			return nil, ErrVirtualSubcard
		}
	}
	c := &Card{
		id:       VirtualID,
		name:     name,
		suit:     NoSuit,
		rank:     NoRank,
		kind:     spec.Kind,
		subKind:  spec.SubKind,
		nature:   spec.Nature,
		virtual:  true,
		subcards: subcards,
		viaSkill: viaSkill,
	}
	if len(subcards) == 1 {
		c.suit = subcards[0].suit
		c.rank = subcards[0].rank
	}
	return c, nil
}

// ID returns the stable card ID, or VirtualID for virtual cards.
func (c *Card) ID() int { return c.id }

// Name returns the card name as registered in the catalog.
func (c *Card) Name() string { return c.name }

// Suit returns the effective suit, reading through a single delegate.
func (c *Card) Suit() Suit { return c.suit }

// Rank returns the effective rank, reading through a single delegate.
func (c *Card) Rank() Rank { return c.rank }

// Kind returns the (possibly substituted) base kind.
func (c *Card) Kind() Kind { return c.kind }

// SubKind returns the (possibly substituted) refined kind.
func (c *Card) SubKind() SubKind { return c.subKind }

// Nature returns the damage nature carried by this card.
func (c *Card) Nature() Nature { return c.nature }

// IsVirtual reports whether this card wraps other cards.
func (c *Card) IsVirtual() bool { return c.virtual }

// ViaSkill returns the view-as skill that produced this virtual card.
func (c *Card) ViaSkill() string { return c.viaSkill }

// Subcards returns the real cards a virtual card delegates to. The slice
// is shared; callers must not mutate it.
func (c *Card) Subcards() []*Card { return c.subcards }

// RealCards resolves to the underlying real cards: the card itself when it
// is real, its subcards when virtual.
func (c *Card) RealCards() []*Card {
	if !c.virtual {
		return []*Card{c}
	}
	return c.subcards
}

// IsDamageCard reports whether this card's effect is a damage effect and
// therefore honors nature-sensitive armors.
func (c *Card) IsDamageCard() bool {
	switch c.name {
	case Slash, FireSlash, ThunderSlash, Duel, ArcheryAttack, SavageAssault, FireAttack, Lightning:
		return true
	}
	return false
}

func (c *Card) String() string {
	return fmt.Sprintf("%s[%s%s]", c.name, c.suit, c.rank)
}
