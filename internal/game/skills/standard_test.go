package skills_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game"
	_ "github.com/qsanguosha/sgs-server-go/internal/game/skills"
)

type declineAll struct{}

func (declineAll) Decide(_ context.Context, req game.Request) (game.Reply, bool) {
	rep := game.Reply{Seat: req.Seat, Command: req.Command}
	switch {
	case req.Command == "play":
		rep.Answer = "pass"
	case len(req.Options) > 0:
		rep.Answer = req.Options[len(req.Options)-1]
	}
	return rep, true
}

// acceptSkills answers yes to skill invocation prompts and declines
// everything else.
type acceptSkills struct{}

func (acceptSkills) Decide(ctx context.Context, req game.Request) (game.Reply, bool) {
	if req.Command == "invokeSkill" {
		return game.Reply{Seat: req.Seat, Command: req.Command, Answer: "yes"}, true
	}
	return declineAll{}.Decide(ctx, req)
}

func newRoom(t *testing.T, players int, seed int64) *game.Room {
	t.Helper()
	r, err := game.NewRoom(game.RoomConfig{
		PlayerCount: players,
		Seed:        seed,
	}, declineAll{}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.Setup())
	return r
}

// pileCard pulls the first draw-pile card satisfying the predicate into
// the player's hand.
func pileCard(t *testing.T, r *game.Room, p *game.Player, match func(*card.Card) bool) *card.Card {
	t.Helper()
	for id := 1; ; id++ {
		c, ok := r.CardByID(id)
		if !ok {
			break
		}
		if r.Location(c).Area == game.AreaDrawPile && match(c) {
			r.MoveCard(c, game.Location{Area: game.AreaHand, Seat: p.Seat()}, "test")
			return c
		}
	}
	t.Fatal("no matching card left in the draw pile")
	return nil
}

func named(name string) func(*card.Card) bool {
	return func(c *card.Card) bool { return c.Name() == name }
}

func emptyHand(r *game.Room, p *game.Player) {
	hand := append([]*card.Card(nil), p.Hand()...)
	r.MoveCards(hand, game.PileLocation(game.AreaDiscardPile), "test")
}

func TestKongchengBlocksSlashOnEmptyHand(t *testing.T) {
	r := newRoom(t, 2, 31)
	p0, p1 := r.Player(0), r.Player(1)
	emptyHand(r, p0)
	emptyHand(r, p1)
	r.GainSkill(p1, "kongcheng")

	slash := pileCard(t, r, p0, named(card.Slash))
	err := r.UseCard(p0, slash, []*game.Player{p1})
	require.Error(t, err)

	// Any hand card lifts the protection.
	pileCard(t, r, p1, func(*card.Card) bool { return true })
	require.NoError(t, r.UseCard(p0, slash, []*game.Player{p1}))
	assert.Equal(t, 3, p1.HP())
}

func TestKongchengAllowsTricks(t *testing.T) {
	r := newRoom(t, 2, 32)
	p0, p1 := r.Player(0), r.Player(1)
	emptyHand(r, p0)
	r.GainSkill(p1, "kongcheng")

	duel := pileCard(t, r, p0, named(card.Duel))
	assert.Error(t, func() error {
		emptyHand(r, p1)
		return r.UseCard(p0, duel, []*game.Player{p1})
	}())

	// Dismantlement is not covered by kongcheng, only its card
	// requirement applies.
	pileCard(t, r, p1, named(card.Peach))
	dis := pileCard(t, r, p0, named(card.Dismantlement))
	require.NoError(t, r.UseCard(p0, dis, []*game.Player{p1}))
	assert.Zero(t, p1.HandCount())
}

func TestMashuAndFeiyingDistance(t *testing.T) {
	r := newRoom(t, 4, 33)
	p0, p2 := r.Player(0), r.Player(2)

	require.Equal(t, 2, r.Distance(p0, p2))

	r.GainSkill(p0, "mashu")
	assert.Equal(t, 1, r.Distance(p0, p2))

	r.GainSkill(p2, "feiying")
	assert.Equal(t, 2, r.Distance(p0, p2))

	// Distance from the feiying holder is unaffected.
	assert.Equal(t, 2, r.Distance(p2, p0))
}

func TestPaoxiaoLiftsSlashLimit(t *testing.T) {
	r := newRoom(t, 2, 34)
	p0, p1 := r.Player(0), r.Player(1)
	emptyHand(r, p0)
	emptyHand(r, p1)

	first := pileCard(t, r, p0, named(card.Slash))
	second := pileCard(t, r, p0, named(card.Slash))
	require.NoError(t, r.UseCard(p0, first, []*game.Player{p1}))
	require.Error(t, r.UseCard(p0, second, []*game.Player{p1}))

	r.GainSkill(p0, "paoxiao")
	require.NoError(t, r.UseCard(p0, second, []*game.Player{p1}))
	assert.Equal(t, 2, p1.HP())
}

func TestWushengViewsRedAsSlash(t *testing.T) {
	sk, ok := game.LookupSkill("wusheng")
	require.True(t, ok)
	vs, ok := sk.(game.ViewAsSkill)
	require.True(t, ok)

	r := newRoom(t, 2, 35)
	p0 := r.Player(0)
	red := pileCard(t, r, p0, func(c *card.Card) bool { return c.Suit().IsRed() })
	black := pileCard(t, r, p0, func(c *card.Card) bool { return c.Suit().IsBlack() })

	require.True(t, vs.CanViewAs(p0, []*card.Card{red}))
	require.False(t, vs.CanViewAs(p0, []*card.Card{black}))
	require.False(t, vs.CanViewAs(p0, []*card.Card{red, red}))

	virtual, err := vs.ViewAs(p0, []*card.Card{red})
	require.NoError(t, err)
	assert.Equal(t, card.Slash, virtual.Name())
	assert.Equal(t, red.Suit(), virtual.Suit())
	assert.Equal(t, []*card.Card{red}, virtual.RealCards())

	_, err = vs.ViewAs(p0, []*card.Card{black})
	assert.Error(t, err)
}

func TestQingguoAndQixiViewBlack(t *testing.T) {
	r := newRoom(t, 2, 36)
	p0 := r.Player(0)
	black := pileCard(t, r, p0, func(c *card.Card) bool { return c.Suit().IsBlack() })
	red := pileCard(t, r, p0, func(c *card.Card) bool { return c.Suit().IsRed() })

	for name, want := range map[string]string{
		"qingguo": card.Jink,
		"qixi":    card.Dismantlement,
	} {
		sk, ok := game.LookupSkill(name)
		require.True(t, ok, name)
		vs := sk.(game.ViewAsSkill)

		require.True(t, vs.CanViewAs(p0, []*card.Card{black}), name)
		require.False(t, vs.CanViewAs(p0, []*card.Card{red}), name)

		virtual, err := vs.ViewAs(p0, []*card.Card{black})
		require.NoError(t, err, name)
		assert.Equal(t, want, virtual.Name(), name)
	}
}

func TestJianxiongTakesTheDamagingCard(t *testing.T) {
	r := newRoom(t, 2, 37)
	p0, p1 := r.Player(0), r.Player(1)
	emptyHand(r, p0)
	emptyHand(r, p1)
	r.GainSkill(p1, "jianxiong")
	r.SetProvider(1, acceptSkills{})

	slash := pileCard(t, r, p0, named(card.Slash))
	require.NoError(t, r.UseCard(p0, slash, []*game.Player{p1}))

	assert.Equal(t, 3, p1.HP())
	loc := r.Location(slash)
	assert.Equal(t, game.AreaHand, loc.Area)
	assert.Equal(t, 1, loc.Seat)
}

func TestCompulsorySkillsWired(t *testing.T) {
	for _, name := range []string{"kongcheng", "mashu", "paoxiao", "wushuang", "yingzi", "biyue"} {
		sk, ok := game.LookupSkill(name)
		require.True(t, ok, name)
		assert.True(t, sk.Compulsory(), name)
	}
	for _, name := range []string{"wusheng", "qingguo", "qixi", "jianxiong", "ganglie"} {
		sk, ok := game.LookupSkill(name)
		require.True(t, ok, name)
		assert.False(t, sk.Compulsory(), name)
	}
}
