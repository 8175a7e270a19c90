package card

import (
	"fmt"
	"sort"
	"sync"
)

// Card names for the standard and maneuvering packages. Content data:
// the engine dispatches on these names through the catalog, it does not
// hardcode behavior against the constants outside the skills package.
const (
	Slash          = "slash"
	Jink           = "jink"
	Peach          = "peach"
	Analeptic      = "analeptic"
	FireSlash      = "fire_slash"
	ThunderSlash   = "thunder_slash"
	Duel           = "duel"
	Dismantlement  = "dismantlement"
	Snatch         = "snatch"
	ExNihilo       = "ex_nihilo"
	Nullification  = "nullification"
	Collateral     = "collateral"
	FireAttack     = "fire_attack"
	IronChain      = "iron_chain"
	ArcheryAttack  = "archery_attack"
	SavageAssault  = "savage_assault"
	GodSalvation   = "god_salvation"
	AmazingGrace   = "amazing_grace"
	Lightning      = "lightning"
	Indulgence     = "indulgence"
	SupplyShortage = "supply_shortage"

	Crossbow      = "crossbow"
	DoubleSword   = "double_sword"
	QinggangSword = "qinggang_sword"
	IceSword      = "ice_sword"
	GudingBlade   = "guding_blade"
	Spear         = "spear"
	Axe           = "axe"
	Halberd       = "halberd"
	KylinBow      = "kylin_bow"
	EightDiagram  = "eight_diagram"
	RenwangShield = "renwang_shield"
	SilverLion    = "silver_lion"
	Vine          = "vine"

	JueYing          = "jueying"
	DiLu             = "dilu"
	ZhuaHuangFeiDian = "zhuahuangfeidian"
	HuaLiu           = "hualiu"
	ChiTu            = "chitu"
	DaYuan           = "dayuan"
	ZiXing           = "zixing"
)

// Spec is the immutable catalog entry for a card name: its kind, refined
// kind, damage nature and equip parameters. Specs are registered once at
// startup and shared read-only by every room.
type Spec struct {
	Name        string
	Kind        Kind
	SubKind     SubKind
	Nature      Nature
	AttackRange int // weapons only
	HorseDelta  int // horses only: -1 offensive, +1 defensive
}

// PackCard places one printing of a named card in a package's deck.
type PackCard struct {
	Name string
	Suit Suit
	Rank Rank
}

// Pack is an extension package: a deck contribution selected by room
// configuration.
type Pack struct {
	Name  string
	Cards []PackCard
}

var (
	catalogMu sync.RWMutex
	specs     = make(map[string]Spec)
	packs     = make(map[string]Pack)
)

// RegisterSpec adds a card spec to the process-wide catalog. Duplicate
// names panic: the catalog is built once from package init functions and a
// clash is a programming error.
func RegisterSpec(spec Spec) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	if _, dup := specs[spec.Name]; dup {
		panic(fmt.Sprintf("card: duplicate spec %q", spec.Name))
	}
	specs[spec.Name] = spec
}

// RegisterPack adds an extension package to the process-wide catalog.
func RegisterPack(pack Pack) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	if _, dup := packs[pack.Name]; dup {
		panic(fmt.Sprintf("card: duplicate pack %q", pack.Name))
	}
	packs[pack.Name] = pack
}

// LookupSpec returns the catalog entry for a card name.
func LookupSpec(name string) (Spec, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	spec, ok := specs[name]
	return spec, ok
}

// MustSpec returns the catalog entry for a card name, panicking when the
// name is unknown. Used by deck builders and skills for names they
// registered themselves.
func MustSpec(name string) Spec {
	spec, ok := LookupSpec(name)
	if !ok {
		panic(fmt.Sprintf("card: unknown spec %q", name))
	}
	return spec
}

// PackNames returns the registered package names sorted for stable output.
func PackNames() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	names := make([]string, 0, len(packs))
	for name := range packs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildDeck mints the real cards for the selected packages, assigning
// stable sequential IDs in registration order. The same package selection
// always yields the same deck, which replay playback depends on.
func BuildDeck(packNames ...string) ([]*Card, error) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	deck := make([]*Card, 0, 128)
	nextID := 0
	for _, packName := range packNames {
		pack, ok := packs[packName]
		if !ok {
			return nil, fmt.Errorf("card: unknown package %q", packName)
		}
		for _, pc := range pack.Cards {
			spec, ok := specs[pc.Name]
			if !ok {
				return nil, fmt.Errorf("card: package %q references unknown card %q", packName, pc.Name)
			}
			deck = append(deck, New(nextID, pc.Name, pc.Suit, pc.Rank, spec))
			nextID++
		}
	}
	if len(deck) == 0 {
		return nil, fmt.Errorf("card: no packages selected")
	}
	return deck, nil
}
