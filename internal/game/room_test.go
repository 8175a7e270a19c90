package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// scriptFunc adapts a function to DecisionProvider for tests.
type scriptFunc func(req Request) (Reply, bool)

func (f scriptFunc) Decide(_ context.Context, req Request) (Reply, bool) { return f(req) }

// declineScript answers every request with its conservative default.
func declineScript(req Request) (Reply, bool) {
	rep := Reply{Seat: req.Seat, Command: req.Command}
	switch {
	case req.Command == "play":
		rep.Answer = "pass"
	case len(req.Options) > 0:
		rep.Answer = req.Options[len(req.Options)-1]
	}
	return rep, true
}

func newTestRoom(t *testing.T, players int, seed int64) *Room {
	t.Helper()
	r, err := NewRoom(RoomConfig{
		PlayerCount: players,
		Seed:        seed,
	}, scriptFunc(declineScript), zap.NewNop())
	require.NoError(t, err)
	return r
}

// takeCardNamed moves the first pile card with the given name into a hand.
func takeCardNamed(t *testing.T, r *Room, p *Player, name string) *card.Card {
	t.Helper()
	for id := 1; ; id++ {
		c, ok := r.CardByID(id)
		if !ok {
			break
		}
		if c.Name() == name && r.Location(c).Area == AreaDrawPile {
			r.MoveCard(c, Location{Area: AreaHand, Seat: p.seat}, "test")
			return c
		}
	}
	t.Fatalf("no card named %q left in the draw pile", name)
	return nil
}

func clearHand(r *Room, p *Player) {
	hand := make([]*card.Card, len(p.hand))
	copy(hand, p.hand)
	r.MoveCards(hand, PileLocation(AreaDiscardPile), "test")
}

func transcriptCount(r *Room, method string) int {
	count := 0
	for _, packet := range r.Transcript() {
		if packet.Method == method {
			count++
		}
	}
	return count
}

func TestRoleDistributionTable(t *testing.T) {
	roles, err := RoleDistribution(5, -1)
	require.NoError(t, err)
	counts := map[Role]int{}
	for _, role := range roles {
		counts[role]++
	}
	assert.Equal(t, 1, counts[RoleLord])
	assert.Equal(t, 1, counts[RoleLoyalist])
	assert.Equal(t, 2, counts[RoleRebel])
	assert.Equal(t, 1, counts[RoleRenegade])

	two, err := RoleDistribution(2, -1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Role{RoleLord, RoleRebel}, two)

	_, err = RoleDistribution(11, -1)
	assert.Error(t, err)
}

func TestDeterministicTranscript(t *testing.T) {
	runOnce := func() []protocol.Packet {
		r, err := NewRoom(RoomConfig{
			PlayerCount: 4,
			Seed:        7,
			MaxTurns:    3,
		}, scriptFunc(declineScript), zap.NewNop())
		require.NoError(t, err)
		require.NoError(t, r.Run())
		require.Equal(t, RoomOver, r.State())
		return r.Transcript()
	}

	first := runOnce()
	second := runOnce()
	require.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestDrawPileReshuffle(t *testing.T) {
	r := newTestRoom(t, 2, 1)
	require.NoError(t, r.Setup())
	p := r.Player(0)

	r.DrawCards(p, r.DrawPileSize(), "test")
	require.Zero(t, r.DrawPileSize())

	// Both piles empty except hands: a draw comes up short.
	discarded := r.DiscardPileSize()
	require.Zero(t, discarded)
	require.Zero(t, r.DrawCards(p, 1, "test"))

	clearHand(r, p)
	require.Equal(t, 1, r.DrawCards(p, 1, "test"))
	assert.Equal(t, 1, transcriptCount(r, protocol.MethodPileReshuffled))
}

func TestHandLimitFollowsHP(t *testing.T) {
	r := newTestRoom(t, 2, 2)
	require.NoError(t, r.Setup())
	p := r.Player(0)

	p.hp = 4
	assert.Equal(t, 4, r.HandLimit(p))
	p.hp = 2
	assert.Equal(t, 2, r.HandLimit(p))
	p.hp = -1
	assert.Equal(t, 0, r.HandLimit(p))
}

func TestSlashHitAndJink(t *testing.T) {
	r := newTestRoom(t, 2, 3)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p0, p1 := r.Player(0), r.Player(1)
	clearHand(r, p0)
	clearHand(r, p1)

	slash := takeCardNamed(t, r, p0, card.Slash)
	require.NoError(t, r.UseCard(p0, slash, []*Player{p1}))
	assert.Equal(t, 3, p1.HP())

	// With a jink in hand and a willing provider the second slash misses.
	jink := takeCardNamed(t, r, p1, card.Jink)
	r.SetProvider(1, scriptFunc(func(req Request) (Reply, bool) {
		rep := Reply{Seat: req.Seat, Command: req.Command}
		if req.Command == "respond:"+card.Jink {
			rep.CardIDs = []int{jink.ID()}
			return rep, true
		}
		return declineScript(req)
	}))
	p0.useCounts = make(map[string]int)
	slash2 := takeCardNamed(t, r, p0, card.Slash)
	require.NoError(t, r.UseCard(p0, slash2, []*Player{p1}))
	assert.Equal(t, 3, p1.HP())
	assert.Equal(t, AreaDiscardPile, r.Location(jink).Area)
}

func TestSlashPerTurnLimit(t *testing.T) {
	r := newTestRoom(t, 2, 4)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p0, p1 := r.Player(0), r.Player(1)
	clearHand(r, p0)
	clearHand(r, p1)

	first := takeCardNamed(t, r, p0, card.Slash)
	require.NoError(t, r.UseCard(p0, first, []*Player{p1}))

	second := takeCardNamed(t, r, p0, card.Slash)
	err := r.UseCard(p0, second, []*Player{p1})
	require.Error(t, err)

	// A crossbow lifts the limit.
	crossbow := takeCardNamed(t, r, p0, card.Crossbow)
	r.MoveCard(crossbow, Location{Area: AreaEquip, Seat: 0}, "test")
	require.NoError(t, r.UseCard(p0, second, []*Player{p1}))
	assert.Equal(t, 2, p1.HP())
}

func TestNullificationChain(t *testing.T) {
	r := newTestRoom(t, 2, 5)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p0, p1 := r.Player(0), r.Player(1)
	clearHand(r, p0)
	clearHand(r, p1)

	dis := takeCardNamed(t, r, p0, card.Dismantlement)
	takeCardNamed(t, r, p0, card.Nullification)
	takeCardNamed(t, r, p1, card.Nullification)
	takeCardNamed(t, r, p1, card.Peach) // the card to dismantle

	nullAsks := 0
	agree := func(req Request) (Reply, bool) {
		rep := Reply{Seat: req.Seat, Command: req.Command}
		switch req.Command {
		case "nullification":
			nullAsks++
			rep.Answer = "yes"
		case "chooseCard":
			rep.Answer = "hand"
		default:
			return declineScript(req)
		}
		return rep, true
	}
	r.SetProvider(0, scriptFunc(agree))
	r.SetProvider(1, scriptFunc(agree))

	require.NoError(t, r.UseCard(p0, dis, []*Player{p1}))

	// The target's nullification was countered by the source's, so the
	// dismantlement resolved and emptied the target's hand.
	assert.Equal(t, 2, nullAsks)
	assert.Zero(t, p1.HandCount())
	assert.Equal(t, 1, transcriptCount(r, protocol.MethodTrickNullified))
}

func TestNeverNullifyPreference(t *testing.T) {
	r := newTestRoom(t, 2, 6)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p0, p1 := r.Player(0), r.Player(1)
	clearHand(r, p0)
	clearHand(r, p1)

	dis := takeCardNamed(t, r, p0, card.Dismantlement)
	takeCardNamed(t, r, p0, card.Nullification)
	takeCardNamed(t, r, p1, card.Peach)
	p0.SetNeverNullify(true)

	asked := false
	r.SetProvider(0, scriptFunc(func(req Request) (Reply, bool) {
		if req.Command == "nullification" {
			asked = true
		}
		return declineScript(req)
	}))

	require.NoError(t, r.UseCard(p0, dis, []*Player{p1}))
	assert.False(t, asked, "own single-target trick should not prompt its source")
	assert.Zero(t, p1.HandCount())
}

func TestPindianTieLosesForInitiator(t *testing.T) {
	r := newTestRoom(t, 2, 7)
	require.NoError(t, r.Setup())
	p0, p1 := r.Player(0), r.Player(1)
	clearHand(r, p0)
	clearHand(r, p1)

	// Two pile cards with the same rank.
	var a, b *card.Card
	byRank := map[card.Rank]*card.Card{}
	for id := 1; a == nil; id++ {
		c, ok := r.CardByID(id)
		require.True(t, ok, "ran out of cards before finding a rank pair")
		if r.Location(c).Area != AreaDrawPile {
			continue
		}
		if prev, dup := byRank[c.Rank()]; dup {
			a, b = prev, c
			break
		}
		byRank[c.Rank()] = c
	}
	r.MoveCard(a, Location{Area: AreaHand, Seat: 0}, "test")
	r.MoveCard(b, Location{Area: AreaHand, Seat: 1}, "test")

	winner, err := r.Pindian(p0, p1)
	require.NoError(t, err)
	assert.Nil(t, winner, "equal ranks lose for the initiator")
	assert.Equal(t, AreaDiscardPile, r.Location(a).Area)
	assert.Equal(t, AreaDiscardPile, r.Location(b).Area)

	_, err = r.Pindian(p0, p1)
	assert.Error(t, err, "pindian needs hand cards on both sides")
}

func TestDyingRescueWithPeach(t *testing.T) {
	r := newTestRoom(t, 2, 8)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p0, p1 := r.Player(0), r.Player(1)
	clearHand(r, p0)
	clearHand(r, p1)

	peach := takeCardNamed(t, r, p1, card.Peach)
	r.SetProvider(1, scriptFunc(func(req Request) (Reply, bool) {
		rep := Reply{Seat: req.Seat, Command: req.Command}
		if req.Command == "rescue" {
			rep.CardIDs = []int{peach.ID()}
			return rep, true
		}
		return declineScript(req)
	}))

	p1.hp = 1
	slash := takeCardNamed(t, r, p0, card.Slash)
	require.NoError(t, r.UseCard(p0, slash, []*Player{p1}))

	assert.True(t, p1.Alive())
	assert.Equal(t, 1, p1.HP())
	assert.Equal(t, StateAlive, p1.LifeState())
	assert.Equal(t, AreaDiscardPile, r.Location(peach).Area)
	assert.Equal(t, 1, transcriptCount(r, protocol.MethodDying))
}

func TestKillRewardAndVictory(t *testing.T) {
	r := newTestRoom(t, 4, 9)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p := r.players
	p[0].role = RoleLord
	p[1].role = RoleLoyalist
	p[2].role = RoleRebel
	p[3].role = RoleRebel

	// Killing a rebel draws three for the killer while the game goes on.
	before := p[1].HandCount()
	r.kill(p[2], p[1])
	assert.Equal(t, RoomRunning, r.State())
	assert.Equal(t, before+3, p[1].HandCount())

	// The lord's death hands the win to the rebels.
	r.kill(p[0], p[3])
	assert.Equal(t, RoomOver, r.State())
	assert.Contains(t, r.Winners(), RoleRebel)
}

func TestLoneRenegadeWins(t *testing.T) {
	r := newTestRoom(t, 2, 10)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p0, p1 := r.Player(0), r.Player(1)
	p0.role = RoleLord
	p1.role = RoleRenegade

	r.kill(p0, p1)
	assert.Equal(t, RoomOver, r.State())
	assert.Equal(t, []Role{RoleRenegade}, r.Winners())
}

func TestTrustSeatUsesFallback(t *testing.T) {
	r := newTestRoom(t, 2, 11)
	require.NoError(t, r.Setup())

	r.SetProvider(1, scriptFunc(func(req Request) (Reply, bool) {
		t.Fatal("trusted seat must not reach its provider")
		return Reply{}, false
	}))
	r.SetNetState(1, NetTrust)

	reply := r.ask(1, "play", "", []string{"pass"}, nil)
	assert.Equal(t, "pass", reply.Answer)
}

func TestReplyIdentityMismatchFallsBack(t *testing.T) {
	r := newTestRoom(t, 2, 12)
	require.NoError(t, r.Setup())

	r.SetProvider(1, scriptFunc(func(req Request) (Reply, bool) {
		return Reply{Seat: 0, Command: req.Command, Answer: "yes"}, true
	}))

	reply := r.ask(1, "invokeSkill", "", []string{"yes", "no"}, nil)
	assert.Equal(t, "no", reply.Answer)
	assert.Equal(t, 1, transcriptCount(r, protocol.MethodDecisionDefault))
}

func TestRecoverClampsAtMaxHP(t *testing.T) {
	r := newTestRoom(t, 2, 15)
	require.NoError(t, r.Setup())
	p := r.Player(0)

	p.hp = 2
	r.Recover(p, 1, nil)
	assert.Equal(t, 3, p.HP())
	r.Recover(p, 5, nil)
	assert.Equal(t, p.MaxHP(), p.HP())
	r.Recover(p, 1, nil)
	assert.Equal(t, p.MaxHP(), p.HP())
}

func TestRequestTimeoutFallsBack(t *testing.T) {
	r, err := NewRoom(RoomConfig{
		PlayerCount: 2,
		Seed:        16,
		Timeout:     20 * time.Millisecond,
	}, scriptFunc(declineScript), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.Setup())

	// A provider that never answers within the deadline.
	r.SetProvider(0, stalledProvider{})

	start := time.Now()
	reply := r.ask(0, "play", "", []string{"pass"}, nil)
	assert.Equal(t, "pass", reply.Answer)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, transcriptCount(r, protocol.MethodDecisionDefault))
}

type stalledProvider struct{}

func (stalledProvider) Decide(ctx context.Context, _ Request) (Reply, bool) {
	<-ctx.Done()
	return Reply{}, false
}

func TestDistanceWithHorses(t *testing.T) {
	r := newTestRoom(t, 4, 13)
	require.NoError(t, r.Setup())
	p0, p2 := r.Player(0), r.Player(2)

	assert.Equal(t, 2, r.Distance(p0, p2))

	chitu := takeCardNamed(t, r, p0, card.ChiTu)
	r.MoveCard(chitu, Location{Area: AreaEquip, Seat: 0}, "test")
	assert.Equal(t, 1, r.Distance(p0, p2))

	dilu := takeCardNamed(t, r, p2, card.DiLu)
	r.MoveCard(dilu, Location{Area: AreaEquip, Seat: 2}, "test")
	assert.Equal(t, 2, r.Distance(p0, p2))

	// Distance never drops below one.
	p1 := r.Player(1)
	assert.Equal(t, 1, r.Distance(p0, p1))
}

func TestEquipReplacementDiscardsOld(t *testing.T) {
	r := newTestRoom(t, 2, 14)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p0 := r.Player(0)
	clearHand(r, p0)

	crossbow := takeCardNamed(t, r, p0, card.Crossbow)
	require.NoError(t, r.UseCard(p0, crossbow, nil))
	assert.Equal(t, crossbow, p0.Equip(card.SlotWeapon))

	spear := takeCardNamed(t, r, p0, card.Spear)
	require.NoError(t, r.UseCard(p0, spear, nil))
	assert.Equal(t, spear, p0.Equip(card.SlotWeapon))
	assert.Equal(t, AreaDiscardPile, r.Location(crossbow).Area)
}

func TestExNihiloDrawsTwo(t *testing.T) {
	r := newTestRoom(t, 2, 21)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p0 := r.Player(0)
	clearHand(r, p0)

	ex := takeCardNamed(t, r, p0, card.ExNihilo)
	require.Error(t, r.UseCard(p0, ex, []*Player{r.Player(1)}))
	require.NoError(t, r.UseCard(p0, ex, nil))

	assert.Equal(t, 2, p0.HandCount())
	assert.Equal(t, AreaDiscardPile, r.Location(ex).Area)
}

func TestExNihiloCanBeNullified(t *testing.T) {
	r := newTestRoom(t, 2, 22)
	require.NoError(t, r.Setup())
	r.state = RoomRunning
	p0, p1 := r.Player(0), r.Player(1)
	clearHand(r, p0)
	clearHand(r, p1)

	ex := takeCardNamed(t, r, p0, card.ExNihilo)
	takeCardNamed(t, r, p1, card.Nullification)

	agree := func(req Request) (Reply, bool) {
		rep := Reply{Seat: req.Seat, Command: req.Command}
		if req.Command == "nullification" {
			rep.Answer = "yes"
			return rep, true
		}
		return declineScript(req)
	}
	r.SetProvider(1, scriptFunc(agree))

	require.NoError(t, r.UseCard(p0, ex, nil))

	assert.Zero(t, p0.HandCount())
	assert.Equal(t, 1, transcriptCount(r, protocol.MethodTrickNullified))
}

func TestHubCallsDuringRun(t *testing.T) {
	r, err := NewRoom(RoomConfig{
		PlayerCount: 4,
		Seed:        17,
		MaxTurns:    5,
	}, scriptFunc(declineScript), zap.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Run() }()

	// Hammer the hub-facing surface while the engine runs. Under the race
	// detector this fails if room state is not synchronized.
	for i := 0; ; i++ {
		select {
		case runErr := <-done:
			require.NoError(t, runErr)
			assert.Equal(t, RoomOver, r.State())
			return
		default:
		}
		seat := i % 4
		r.SetNetState(seat, NetTrust)
		_ = r.ViewFor(seat)
		_ = r.Transcript()
		r.SetNetState(seat, NetOnline)
	}
}
