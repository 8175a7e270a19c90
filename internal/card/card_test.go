package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualCardDelegatesSuitAndRank(t *testing.T) {
	real := New(7, Slash, Heart, 10, MustSpec(Slash))

	virtual, err := NewVirtual(Slash, MustSpec(Slash), "wusheng", real)
	require.NoError(t, err)

	assert.True(t, virtual.IsVirtual())
	assert.Equal(t, VirtualID, virtual.ID())
	assert.Equal(t, real.Suit(), virtual.Suit())
	assert.Equal(t, real.Rank(), virtual.Rank())
	assert.Equal(t, []*Card{real}, virtual.RealCards())
}

func TestVirtualCardWithoutSingleDelegate(t *testing.T) {
	a := New(1, Slash, Spade, 7, MustSpec(Slash))
	b := New(2, Slash, Club, 8, MustSpec(Slash))

	virtual, err := NewVirtual(Duel, MustSpec(Duel), "", a, b)
	require.NoError(t, err)

	assert.Equal(t, NoSuit, virtual.Suit())
	assert.Equal(t, NoRank, virtual.Rank())
	assert.Len(t, virtual.RealCards(), 2)
}

func TestNestedVirtualWrappingRejected(t *testing.T) {
	real := New(3, Jink, Diamond, 4, MustSpec(Jink))
	inner, err := NewVirtual(Jink, MustSpec(Jink), "qingguo", real)
	require.NoError(t, err)

	_, err = NewVirtual(Slash, MustSpec(Slash), "wusheng", inner)
	assert.ErrorIs(t, err, ErrVirtualSubcard)
}

func TestBuildDeckStableIDs(t *testing.T) {
	first, err := BuildDeck(StandardPack, ManeuveringPack)
	require.NoError(t, err)
	second, err := BuildDeck(StandardPack, ManeuveringPack)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID(), second[i].ID())
		assert.Equal(t, first[i].Name(), second[i].Name())
		assert.Equal(t, first[i].Suit(), second[i].Suit())
		assert.Equal(t, first[i].Rank(), second[i].Rank())
		assert.Equal(t, i, first[i].ID())
	}
}

func TestBuildDeckUnknownPackage(t *testing.T) {
	_, err := BuildDeck("no_such_pack")
	assert.Error(t, err)
}

func TestEquipSlots(t *testing.T) {
	slot, ok := MustSpec(Crossbow).SubKind.EquipSlot()
	require.True(t, ok)
	assert.Equal(t, SlotWeapon, slot)

	slot, ok = MustSpec(SilverLion).SubKind.EquipSlot()
	require.True(t, ok)
	assert.Equal(t, SlotArmor, slot)

	_, ok = MustSpec(Slash).SubKind.EquipSlot()
	assert.False(t, ok)
}

func TestSuitColors(t *testing.T) {
	assert.True(t, Spade.IsBlack())
	assert.True(t, Club.IsBlack())
	assert.True(t, Heart.IsRed())
	assert.True(t, Diamond.IsRed())
	assert.False(t, NoSuit.IsBlack())
	assert.False(t, NoSuit.IsRed())
}
