package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsanguosha/sgs-server-go/internal/game"
)

func TestDefaultDecisions(t *testing.T) {
	p := NewDefaultProvider(nil)
	ctx := context.Background()

	cases := []struct {
		req  game.Request
		want game.Reply
	}{
		{
			req:  game.Request{Seat: 2, Command: "play"},
			want: game.Reply{Seat: 2, Command: "play", Answer: "pass"},
		},
		{
			req:  game.Request{Seat: 0, Command: "pindian", CardIDs: []int{7, 8}},
			want: game.Reply{Seat: 0, Command: "pindian", CardIDs: []int{7}},
		},
		{
			req:  game.Request{Seat: 1, Command: "chooseCard", Options: []string{"hand", "equip:3"}},
			want: game.Reply{Seat: 1, Command: "chooseCard", Answer: "hand"},
		},
		{
			req:  game.Request{Seat: 1, Command: "respond:jink", Options: []string{"decline"}, CardIDs: []int{4}},
			want: game.Reply{Seat: 1, Command: "respond:jink", Answer: "decline"},
		},
		{
			req:  game.Request{Seat: 3, Command: "invokeSkill", Options: []string{"yes", "no"}},
			want: game.Reply{Seat: 3, Command: "invokeSkill", Answer: "no"},
		},
		{
			req:  game.Request{Seat: 3, Command: "rescue", Options: []string{"decline"}, CardIDs: []int{9}},
			want: game.Reply{Seat: 3, Command: "rescue", Answer: "decline"},
		},
	}
	for _, tc := range cases {
		got, ok := p.Decide(ctx, tc.req)
		require.True(t, ok, tc.req.Command)
		assert.Equal(t, tc.want, got, tc.req.Command)
	}
}

func TestDecideIgnoresExpiredContext(t *testing.T) {
	p := NewDefaultProvider(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, ok := p.Decide(ctx, game.Request{Seat: 0, Command: "play"})
	require.True(t, ok)
	assert.Equal(t, "pass", got.Answer)
}
