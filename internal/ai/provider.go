// Package ai supplies the default decision provider: the conservative
// answers the engine applies on timeouts, for offline seats and for seats
// under trust mode.
package ai

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/game"
)

// DefaultProvider answers every request with its documented default:
// optional effects are declined, plays pass, forced picks take the first
// offer. It never blocks and ignores the context deadline.
type DefaultProvider struct {
	logger *zap.Logger
}

// NewDefaultProvider creates the provider. A nil logger silences it.
func NewDefaultProvider(logger *zap.Logger) *DefaultProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultProvider{logger: logger}
}

// Decide implements game.DecisionProvider.
func (p *DefaultProvider) Decide(ctx context.Context, req game.Request) (game.Reply, bool) {
	reply := game.Reply{Seat: req.Seat, Command: req.Command}

	switch {
	case req.Command == "play":
		reply.Answer = "pass"
	case req.Command == "pindian", req.Command == "showCard", req.Command == "takeAG":
		// Forced picks: the first offered card.
		if len(req.CardIDs) > 0 {
			reply.CardIDs = []int{req.CardIDs[0]}
		}
	case req.Command == "chooseCard":
		if len(req.Options) > 0 {
			reply.Answer = req.Options[0]
		}
	case strings.HasPrefix(req.Command, "respond:"):
		reply.Answer = "decline"
	default:
		// invokeSkill, nullification, rescue, discard, collateralSlash:
		// decline and let the engine enforce any forced consequence.
		if len(req.Options) > 0 {
			reply.Answer = req.Options[len(req.Options)-1]
		}
	}

	p.logger.Debug("default decision",
		zap.Int("seat", req.Seat),
		zap.String("command", req.Command),
		zap.String("answer", reply.Answer),
	)
	return reply, true
}
