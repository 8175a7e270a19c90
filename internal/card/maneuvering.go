package card

// ManeuveringPack adds natured slashes, analeptic and the fire-themed
// tricks and equips. Selected via the room configuration's package list.
const ManeuveringPack = "maneuvering"

func init() {
	for _, spec := range []Spec{
		{Name: FireSlash, Kind: KindBasic, Nature: NatureFire},
		{Name: ThunderSlash, Kind: KindBasic, Nature: NatureThunder},
		{Name: Analeptic, Kind: KindBasic},

		{Name: FireAttack, Kind: KindTrick, SubKind: SubKindSingleTargetTrick, Nature: NatureFire},
		{Name: IronChain, Kind: KindTrick, SubKind: SubKindMultiTargetTrick},
		{Name: SupplyShortage, Kind: KindTrick, SubKind: SubKindDelayedTrick},

		{Name: GudingBlade, Kind: KindEquip, SubKind: SubKindWeapon, AttackRange: 2},
		{Name: SilverLion, Kind: KindEquip, SubKind: SubKindArmor},
		{Name: Vine, Kind: KindEquip, SubKind: SubKindArmor},
		{Name: HuaLiu, Kind: KindEquip, SubKind: SubKindDefensiveHorse, HorseDelta: +1},
	} {
		RegisterSpec(spec)
	}

	RegisterPack(Pack{Name: ManeuveringPack, Cards: maneuveringCards()})
}

func maneuveringCards() []PackCard {
	var cards []PackCard
	add := func(name string, suit Suit, ranks ...Rank) {
		for _, rank := range ranks {
			cards = append(cards, PackCard{Name: name, Suit: suit, Rank: rank})
		}
	}

	add(FireSlash, Heart, 4, 7, 10)
	add(FireSlash, Diamond, 4, 5)
	add(ThunderSlash, Spade, 4, 5, 6, 7, 8)
	add(ThunderSlash, Club, 5, 6, 7, 8)
	add(Jink, Heart, 8, 9, 11, 12)
	add(Jink, Diamond, 10, 11)
	add(Peach, Heart, 5, 6)
	add(Peach, Diamond, 2, 3)
	add(Analeptic, Spade, 3, 9)
	add(Analeptic, Club, 3, 9)
	add(Analeptic, Diamond, 9)

	add(FireAttack, Heart, 2, 3)
	add(FireAttack, Diamond, 12)
	add(IronChain, Spade, 11, 12)
	add(IronChain, Club, 10, 11, 12, 13)
	add(SupplyShortage, Spade, 10)
	add(SupplyShortage, Club, 4)
	add(Nullification, Spade, 13)
	add(Nullification, Heart, 1, 13)

	add(GudingBlade, Spade, 1)
	add(SilverLion, Club, 1)
	add(Vine, Spade, 2)
	add(HuaLiu, Diamond, 13)

	return cards
}
