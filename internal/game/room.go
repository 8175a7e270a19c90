package game

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/card"
	"github.com/qsanguosha/sgs-server-go/internal/game/rules"
	"github.com/qsanguosha/sgs-server-go/internal/protocol"
)

// RoomState is the lifecycle state of a room.
type RoomState int

const (
	RoomNotStarted RoomState = iota
	RoomRunning
	RoomOver
)

var roomStateNames = map[RoomState]string{
	RoomNotStarted: "not_started",
	RoomRunning:    "running",
	RoomOver:       "over",
}

func (rs RoomState) String() string {
	if name, ok := roomStateNames[rs]; ok {
		return name
	}
	return fmt.Sprintf("ROOM_%d", int(rs))
}

// RoomConfig is the immutable configuration a room is created from.
type RoomConfig struct {
	PlayerCount   int
	PlayerNames   []string
	Packages      []string
	RenegadeCount int           // -1 uses the standard table
	Timeout       time.Duration // 0 means unlimited
	Scenario      string        // empty selects standard rules
	SecondGeneral bool
	AILevel       int
	MaxTurns      int   // 0 means unlimited; exceeding it ends in a standoff
	Seed          int64 // 0 derives a seed from the clock
}

// Request asks one player for a decision. Command tags the expected reply
// kind; a reply is matched against both seat and command before it is
// accepted.
type Request struct {
	ID      string
	Seat    int
	Command string
	Prompt  string
	Options []string
	CardIDs []int
	Timeout time.Duration
}

// Reply is a player's answer to a Request.
type Reply struct {
	Seat    int
	Command string
	Answer  string
	CardIDs []int
	Targets []int
}

// DecisionProvider produces a reply for a request within its timeout, or
// reports that it produced none (second return false). The engine applies
// the documented default in that case. Human clients and the AI both
// implement this; the engine does not care which.
type DecisionProvider interface {
	Decide(ctx context.Context, req Request) (Reply, bool)
}

// NotificationSink receives the engine's broadcast and per-seat packets.
// seat is -1 for broadcasts.
type NotificationSink interface {
	OnNotify(seat int, packet protocol.Packet)
}

// Room is the aggregate and sole authority over one match: seating, piles,
// the turn machine and the trigger registry. All mutation happens on the
// goroutine that called Run; concurrency exists only at the provider/sink
// boundary.
type Room struct {
	id     string
	cfg    RoomConfig
	logger *zap.Logger
	rng    *rand.Rand

	// mu guards room state against the hub goroutine (net-state changes,
	// reconnect views, transcript reads). The engine goroutine takes it
	// for the whole match in Run and parks it only while waiting on a
	// decision provider, so outside callers always observe a consistent
	// decision-point snapshot. muHeld is touched only by the engine
	// goroutine.
	mu     sync.RWMutex
	muHeld bool

	players []*Player

	drawPile    []*card.Card // index 0 is the top
	discardPile []*card.Card
	removed     []*card.Card
	cards       map[int]*card.Card
	locations   map[int]Location

	turn     *rules.TurnManager
	registry *rules.TriggerRegistry
	pending  *rules.PendingStack
	scenario Scenario

	state    RoomState
	winners  []Role
	prepared bool

	providers []DecisionProvider
	fallback  DecisionProvider
	sinks     []NotificationSink

	transcript  []protocol.Packet
	eventSeq    int
	outstanding map[int]string // seat -> command of the outstanding request

	// phase skips queued by delayed tricks, consumed once
	skips map[int]map[rules.Phase]bool

	// skill subscription handles per seat and skill name
	skillHandles map[int]map[string]int
}

// NewRoom creates a room from its configuration. Providers are attached
// per seat with SetProvider before Run; seats without a provider fall back
// to the default-answer provider.
func NewRoom(cfg RoomConfig, fallback DecisionProvider, logger *zap.Logger) (*Room, error) {
	if cfg.PlayerCount < 2 || cfg.PlayerCount > 10 {
		return nil, fmt.Errorf("game: player count %d out of range", cfg.PlayerCount)
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = []string{card.StandardPack}
	}
	if fallback == nil {
		return nil, fmt.Errorf("game: fallback decision provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	r := &Room{
		id:           uuid.NewString(),
		cfg:          cfg,
		rng:          rand.New(rand.NewSource(seed)),
		cards:        make(map[int]*card.Card),
		locations:    make(map[int]Location),
		turn:         rules.NewTurnManager(),
		registry:     rules.NewTriggerRegistry(),
		pending:      rules.NewPendingStack(),
		providers:    make([]DecisionProvider, cfg.PlayerCount),
		fallback:     fallback,
		outstanding:  make(map[int]string),
		skips:        make(map[int]map[rules.Phase]bool),
		skillHandles: make(map[int]map[string]int),
	}
	r.logger = logger.With(zap.String("room_id", r.id))

	scenario, err := LookupScenario(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	r.scenario = scenario

	for seat := 0; seat < cfg.PlayerCount; seat++ {
		name := fmt.Sprintf("player%d", seat)
		if seat < len(cfg.PlayerNames) && cfg.PlayerNames[seat] != "" {
			name = cfg.PlayerNames[seat]
		}
		r.players = append(r.players, newPlayer(seat, name))
	}
	return r, nil
}

// ID returns the room's unique identifier.
func (r *Room) ID() string { return r.id }

// Config returns the room's configuration.
func (r *Room) Config() RoomConfig { return r.cfg }

// State returns the room's lifecycle state.
func (r *Room) State() RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Winners returns the winning roles after the room is over.
func (r *Room) Winners() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.winners
}

// TurnNumber returns the number of started turns.
func (r *Room) TurnNumber() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.turn.TurnNumber()
}

// Player returns the player at a seat.
func (r *Room) Player(seat int) *Player {
	if seat < 0 || seat >= len(r.players) {
		return nil
	}
	return r.players[seat]
}

// Players returns all players in seating order.
func (r *Room) Players() []*Player { return r.players }

// SetProvider attaches a decision provider for a seat.
func (r *Room) SetProvider(seat int, provider DecisionProvider) {
	if seat >= 0 && seat < len(r.providers) {
		r.providers[seat] = provider
	}
}

// AddSink attaches a notification sink.
func (r *Room) AddSink(sink NotificationSink) {
	if sink != nil {
		r.sinks = append(r.sinks, sink)
	}
}

// Transcript returns the ordered broadcast transcript recorded so far.
func (r *Room) Transcript() []protocol.Packet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Packet, len(r.transcript))
	copy(out, r.transcript)
	return out
}

// SetNetState updates a player's connection state and announces it. A
// disconnect demotes to fallback decisions; reconnection restores manual
// control without resetting game state.
func (r *Room) SetNetState(seat int, state NetState) {
	p := r.Player(seat)
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p.net = state
	r.broadcast(protocol.MethodNetState, strconv.Itoa(seat), state.String())
}

// aliveSeatsFrom lists living seats in seating order starting at the given
// seat (inclusive). Dying players count as alive.
func (r *Room) aliveSeatsFrom(seat int) []int {
	n := len(r.players)
	seats := make([]int, 0, n)
	for i := 0; i < n; i++ {
		s := (seat + i) % n
		if r.players[s].Alive() {
			seats = append(seats, s)
		}
	}
	return seats
}

// nextAliveSeat returns the next living seat strictly after the given one.
func (r *Room) nextAliveSeat(seat int) int {
	n := len(r.players)
	for i := 1; i <= n; i++ {
		s := (seat + i) % n
		if r.players[s].Alive() {
			return s
		}
	}
	return -1
}

// aliveCount returns the number of living players.
func (r *Room) aliveCount() int {
	count := 0
	for _, p := range r.players {
		if p.Alive() {
			count++
		}
	}
	return count
}

// broadcast records a packet in the transcript and fans it out to sinks.
// Every state mutation is followed by one of these.
func (r *Room) broadcast(method string, args ...string) {
	packet := protocol.Packet{Method: method, Args: args}
	r.eventSeq++
	r.transcript = append(r.transcript, packet)
	for _, sink := range r.sinks {
		sink.OnNotify(-1, packet)
	}
}

// notify sends a packet to a single seat without recording it in the
// transcript (private information such as drawn card identities).
func (r *Room) notify(seat int, method string, args ...string) {
	packet := protocol.Packet{Method: method, Args: args}
	for _, sink := range r.sinks {
		sink.OnNotify(seat, packet)
	}
}

// fire dispatches an event through the trigger registry with the standard
// seat ordering (owner first, then seating order) under strict nesting.
func (r *Room) fire(ev *rules.Event) error {
	r.pending.Push(ev)
	defer r.pending.Pop(ev)

	owner := ev.Seat
	if owner < 0 || owner >= len(r.players) {
		owner = r.turn.ActiveSeat()
		if owner < 0 {
			owner = 0
		}
	}
	return r.registry.Dispatch(ev, r.aliveSeatsFrom(owner))
}

// ask issues a synchronous decision request to a seat. The reply is
// produced by the seat's provider (or the fallback for offline/trusted
// seats) within the configured countdown; on expiry or no answer the
// fallback provider supplies the documented default. At most one request
// per seat may be outstanding; a second is a logic error.
func (r *Room) ask(seat int, command, prompt string, options []string, cardIDs []int) Reply {
	if pendingCmd, busy := r.outstanding[seat]; busy {
		r.logger.Error("second outstanding request for seat",
			zap.Int("seat", seat),
			zap.String("pending", pendingCmd),
			zap.String("command", command),
		)
		return Reply{Seat: seat, Command: command}
	}
	r.outstanding[seat] = command
	defer delete(r.outstanding, seat)

	req := Request{
		ID:      uuid.NewString(),
		Seat:    seat,
		Command: command,
		Prompt:  prompt,
		Options: options,
		CardIDs: cardIDs,
		Timeout: r.cfg.Timeout,
	}

	provider := r.providerFor(seat)
	ctx := context.Background()
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	reply, ok := r.decide(provider, ctx, req)
	if ok && reply.Seat == seat && reply.Command == command {
		return reply
	}
	if ok {
		// Identity mismatch from a provider is a protocol violation;
		// treat it as no answer.
		r.logger.Warn("decision reply identity mismatch",
			zap.Int("want_seat", seat), zap.Int("got_seat", reply.Seat),
			zap.String("want_command", command), zap.String("got_command", reply.Command),
		)
	}

	fallbackReply, _ := r.fallback.Decide(context.Background(), req)
	fallbackReply.Seat = seat
	fallbackReply.Command = command
	r.broadcast(protocol.MethodDecisionDefault, strconv.Itoa(seat), command)
	return fallbackReply
}

// decide runs the provider with the state lock parked so the hub can
// serve views and net-state changes while the engine waits on a reply.
// Outside of Run the lock is not held and nothing is parked.
func (r *Room) decide(provider DecisionProvider, ctx context.Context, req Request) (Reply, bool) {
	if r.muHeld {
		r.muHeld = false
		r.mu.Unlock()
		defer func() {
			r.mu.Lock()
			r.muHeld = true
		}()
	}
	return provider.Decide(ctx, req)
}

func (r *Room) providerFor(seat int) DecisionProvider {
	p := r.Player(seat)
	if p != nil && p.net != NetOnline {
		return r.fallback
	}
	if provider := r.providers[seat]; provider != nil {
		return provider
	}
	return r.fallback
}

// askYesNo is a yes/no request with a decline default.
func (r *Room) askYesNo(seat int, command, prompt string) bool {
	reply := r.ask(seat, command, prompt, []string{"yes", "no"}, nil)
	return reply.Answer == "yes"
}

// Distance computes the seating distance from one player to another,
// including horse deltas and skill/scenario adjustments. Distance to a
// dead player or oneself is not meaningful and reported as -1.
func (r *Room) Distance(from, to *Player) int {
	if from == nil || to == nil || from == to || !from.Alive() || !to.Alive() {
		return -1
	}
	alive := r.aliveSeatsFrom(0)
	n := len(alive)
	var fi, ti = -1, -1
	for i, s := range alive {
		if s == from.seat {
			fi = i
		}
		if s == to.seat {
			ti = i
		}
	}
	if fi < 0 || ti < 0 {
		return -1
	}
	delta := ti - fi
	if delta < 0 {
		delta = -delta
	}
	if n-delta < delta {
		delta = n - delta
	}

	if horse := from.Equip(card.SlotOffensiveHorse); horse != nil {
		delta--
	}
	if horse := to.Equip(card.SlotDefensiveHorse); horse != nil {
		delta++
	}
	delta += r.distanceSkillDelta(from, to)
	delta = r.scenario.AdjustDistance(r, from, to, delta)
	if delta < 1 {
		delta = 1
	}
	return delta
}

// distanceSkillDelta folds in distance-modifying skills.
func (r *Room) distanceSkillDelta(from, to *Player) int {
	delta := 0
	for _, name := range from.skills {
		if sk, ok := LookupSkill(name); ok {
			if dm, ok := sk.(DistanceModifier); ok {
				delta += dm.FromDelta(r, from)
			}
		}
	}
	for _, name := range to.skills {
		if sk, ok := LookupSkill(name); ok {
			if dm, ok := sk.(DistanceModifier); ok {
				delta += dm.ToDelta(r, to)
			}
		}
	}
	return delta
}

// AttackRange returns the player's slash range: the equipped weapon's
// range, else 1.
func (r *Room) AttackRange(p *Player) int {
	if weapon := p.Equip(card.SlotWeapon); weapon != nil {
		if spec, ok := card.LookupSpec(weapon.Name()); ok && spec.AttackRange > 0 {
			return spec.AttackRange
		}
	}
	return 1
}

// InAttackRange reports whether target is within the player's slash range.
func (r *Room) InAttackRange(from, to *Player) bool {
	d := r.Distance(from, to)
	return d > 0 && d <= r.AttackRange(from)
}
