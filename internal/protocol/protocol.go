// Package protocol implements the textual wire format between the server
// and its clients: one packet per line, a method name followed by
// space-separated arguments. Malformed input is a recoverable error, never
// a crash.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Server-to-client notification methods.
const (
	MethodSetup           = "setup"
	MethodAssignRole      = "assignRole"
	MethodGameStart       = "gameStart"
	MethodTurnStart       = "turnStart"
	MethodPhaseChange     = "phaseChange"
	MethodCardMoved       = "cardMoved"
	MethodCardUsed        = "cardUsed"
	MethodCardResponded   = "cardResponded"
	MethodHPChanged       = "hpChanged"
	MethodJudgeResult     = "judgeResult"
	MethodSkillInvoked    = "skillInvoked"
	MethodSkillChanged    = "skillChanged"
	MethodMarkChanged     = "markChanged"
	MethodDying           = "dying"
	MethodDeath           = "death"
	MethodGameOver        = "gameOver"
	MethodNetState        = "netState"
	MethodDecisionDefault = "decisionDefault"
	MethodTrickNullified  = "trickNullified"
	MethodPindian         = "pindian"
	MethodPileReshuffled  = "pileReshuffled"
	MethodLog             = "log"
	MethodRequest         = "request"
)

// Client-to-server methods.
const (
	MethodReply   = "reply"
	MethodTrust   = "trust"
	MethodUntrust = "untrust"
	MethodKick    = "kick"
	MethodAbandon = "abandon"
)

// Packet is one wire message: a method name plus positional arguments.
type Packet struct {
	Method string
	Args   []string
}

// ErrMalformed is wrapped by all parse failures.
var ErrMalformed = errors.New("malformed packet")

var escaper = strings.NewReplacer("%", "%25", " ", "%20", "\n", "%0A")

func unescape(s string) (string, error) {
	if !strings.Contains(s, "%") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("%w: truncated escape in %q", ErrMalformed, s)
		}
		code, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("%w: bad escape in %q", ErrMalformed, s)
		}
		b.WriteByte(byte(code))
		i += 2
	}
	return b.String(), nil
}

// Marshal renders the packet as a single line without the trailing
// newline. Arguments containing spaces are escaped.
func (p Packet) Marshal() string {
	if len(p.Args) == 0 {
		return p.Method
	}
	parts := make([]string, 0, len(p.Args)+1)
	parts = append(parts, p.Method)
	for _, arg := range p.Args {
		parts = append(parts, escaper.Replace(arg))
	}
	return strings.Join(parts, " ")
}

// Parse decodes one line into a packet. The method name must be a non-empty
// identifier; anything else is a recoverable ErrMalformed.
func Parse(line string) (Packet, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, " ")
	if len(fields) == 0 || fields[0] == "" {
		return Packet{}, fmt.Errorf("%w: empty method", ErrMalformed)
	}
	method := fields[0]
	for _, r := range method {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return Packet{}, fmt.Errorf("%w: bad method name %q", ErrMalformed, method)
		}
	}
	args := make([]string, 0, len(fields)-1)
	for _, f := range fields[1:] {
		arg, err := unescape(f)
		if err != nil {
			return Packet{}, err
		}
		args = append(args, arg)
	}
	return Packet{Method: method, Args: args}, nil
}

// CardRef is the wire representation of a card: a stable identifier plus
// suit and rank for display.
type CardRef struct {
	ID   int
	Suit string
	Rank int
	Name string
}

// FormatCardRef renders a card reference as id:suit:rank:name.
func FormatCardRef(ref CardRef) string {
	return fmt.Sprintf("%d:%s:%d:%s", ref.ID, ref.Suit, ref.Rank, ref.Name)
}

// ParseCardRef decodes an id:suit:rank:name reference.
func ParseCardRef(s string) (CardRef, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) != 4 {
		return CardRef{}, fmt.Errorf("%w: card ref %q", ErrMalformed, s)
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return CardRef{}, fmt.Errorf("%w: card ref id %q", ErrMalformed, parts[0])
	}
	rank, err := strconv.Atoi(parts[2])
	if err != nil {
		return CardRef{}, fmt.Errorf("%w: card ref rank %q", ErrMalformed, parts[2])
	}
	return CardRef{ID: id, Suit: parts[1], Rank: rank, Name: parts[3]}, nil
}

// ParseIntList decodes a comma-separated list of integers, as used for
// card ID and seat list arguments.
func ParseIntList(s string) ([]int, error) {
	if s == "" || s == "." {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: int list %q", ErrMalformed, s)
		}
		out = append(out, v)
	}
	return out, nil
}

// FormatIntList renders a comma-separated integer list; empty lists render
// as "." so the argument is never dropped.
func FormatIntList(values []int) string {
	if len(values) == 0 {
		return "."
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
