package card

// StandardPack is the base deck every room includes.
const StandardPack = "standard"

func init() {
	for _, spec := range []Spec{
		{Name: Slash, Kind: KindBasic},
		{Name: Jink, Kind: KindBasic},
		{Name: Peach, Kind: KindBasic},

		{Name: Duel, Kind: KindTrick, SubKind: SubKindSingleTargetTrick},
		{Name: Dismantlement, Kind: KindTrick, SubKind: SubKindSingleTargetTrick},
		{Name: Snatch, Kind: KindTrick, SubKind: SubKindSingleTargetTrick},
		{Name: Collateral, Kind: KindTrick, SubKind: SubKindMultiTargetTrick},
		{Name: ExNihilo, Kind: KindTrick, SubKind: SubKindSingleTargetTrick},
		{Name: Nullification, Kind: KindTrick, SubKind: SubKindSingleTargetTrick},
		{Name: ArcheryAttack, Kind: KindTrick, SubKind: SubKindAOETrick},
		{Name: SavageAssault, Kind: KindTrick, SubKind: SubKindAOETrick},
		{Name: GodSalvation, Kind: KindTrick, SubKind: SubKindGlobalTrick},
		{Name: AmazingGrace, Kind: KindTrick, SubKind: SubKindGlobalTrick},
		{Name: Lightning, Kind: KindTrick, SubKind: SubKindDelayedTrick, Nature: NatureThunder},
		{Name: Indulgence, Kind: KindTrick, SubKind: SubKindDelayedTrick},

		{Name: Crossbow, Kind: KindEquip, SubKind: SubKindWeapon, AttackRange: 1},
		{Name: DoubleSword, Kind: KindEquip, SubKind: SubKindWeapon, AttackRange: 2},
		{Name: IceSword, Kind: KindEquip, SubKind: SubKindWeapon, AttackRange: 2},
		{Name: QinggangSword, Kind: KindEquip, SubKind: SubKindWeapon, AttackRange: 2},
		{Name: Spear, Kind: KindEquip, SubKind: SubKindWeapon, AttackRange: 3},
		{Name: Axe, Kind: KindEquip, SubKind: SubKindWeapon, AttackRange: 3},
		{Name: Halberd, Kind: KindEquip, SubKind: SubKindWeapon, AttackRange: 4},
		{Name: KylinBow, Kind: KindEquip, SubKind: SubKindWeapon, AttackRange: 5},
		{Name: EightDiagram, Kind: KindEquip, SubKind: SubKindArmor},
		{Name: RenwangShield, Kind: KindEquip, SubKind: SubKindArmor},

		{Name: JueYing, Kind: KindEquip, SubKind: SubKindDefensiveHorse, HorseDelta: +1},
		{Name: DiLu, Kind: KindEquip, SubKind: SubKindDefensiveHorse, HorseDelta: +1},
		{Name: ZhuaHuangFeiDian, Kind: KindEquip, SubKind: SubKindDefensiveHorse, HorseDelta: +1},
		{Name: ChiTu, Kind: KindEquip, SubKind: SubKindOffensiveHorse, HorseDelta: -1},
		{Name: DaYuan, Kind: KindEquip, SubKind: SubKindOffensiveHorse, HorseDelta: -1},
		{Name: ZiXing, Kind: KindEquip, SubKind: SubKindOffensiveHorse, HorseDelta: -1},
	} {
		RegisterSpec(spec)
	}

	RegisterPack(Pack{Name: StandardPack, Cards: standardCards()})
}

func standardCards() []PackCard {
	var cards []PackCard
	add := func(name string, suit Suit, ranks ...Rank) {
		for _, rank := range ranks {
			cards = append(cards, PackCard{Name: name, Suit: suit, Rank: rank})
		}
	}

	// Basic cards.
	add(Slash, Spade, 5, 7, 8, 8, 9, 10, 11)
	add(Slash, Club, 2, 3, 4, 5, 8, 8, 9, 10, 11, 11)
	add(Slash, Heart, 10, 10, 11)
	add(Slash, Diamond, 6, 7, 8, 9, 10, 13)
	add(Jink, Heart, 2, 2, 13)
	add(Jink, Diamond, 2, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 13)
	add(Peach, Heart, 3, 4, 6, 7, 8, 9, 12)
	add(Peach, Diamond, 12)

	// Trick cards.
	add(Duel, Spade, 1)
	add(Duel, Club, 1)
	add(Duel, Diamond, 1)
	add(Dismantlement, Spade, 3, 4, 12)
	add(Dismantlement, Club, 3, 4)
	add(Dismantlement, Heart, 12)
	add(Snatch, Spade, 3, 4, 11)
	add(Snatch, Diamond, 3, 4)
	add(Collateral, Club, 12, 13)
	add(ExNihilo, Heart, 7, 8, 9, 11)
	add(Nullification, Spade, 11)
	add(Nullification, Club, 12, 13)
	add(Nullification, Diamond, 12)
	add(ArcheryAttack, Heart, 1)
	add(SavageAssault, Spade, 7, 13)
	add(SavageAssault, Club, 7)
	add(GodSalvation, Heart, 1)
	add(AmazingGrace, Heart, 3, 4)
	add(Lightning, Spade, 1)
	add(Lightning, Heart, 12)
	add(Indulgence, Spade, 6)
	add(Indulgence, Club, 6)
	add(Indulgence, Heart, 6)

	// Equips.
	add(Crossbow, Club, 1)
	add(Crossbow, Diamond, 1)
	add(DoubleSword, Spade, 2)
	add(IceSword, Spade, 2)
	add(QinggangSword, Spade, 6)
	add(Spear, Spade, 12)
	add(Axe, Diamond, 5)
	add(Halberd, Diamond, 12)
	add(KylinBow, Heart, 5)
	add(EightDiagram, Spade, 2)
	add(EightDiagram, Club, 2)
	add(RenwangShield, Club, 2)
	add(JueYing, Spade, 5)
	add(DiLu, Club, 5)
	add(ZhuaHuangFeiDian, Heart, 13)
	add(ChiTu, Heart, 5)
	add(DaYuan, Spade, 13)
	add(ZiXing, Diamond, 13)

	return cards
}
