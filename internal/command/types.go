// Package command turns inbound relay messages into engine calls.
//
// Tokens are normalized, rate limited per player and drained by a single
// worker so each player's commands reach the engine in arrival order.
package command

import (
	"strings"
	"time"

	"bomb-arena/internal/game"
)

// Kind classifies an inbound message
type Kind int

const (
	KindCommand Kind = iota
	KindLeave
	KindJoin
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindLeave:
		return "leave"
	case KindJoin:
		return "join"
	default:
		return "unknown"
	}
}

// Inbound is one message from a player connection or the HTTP API
type Inbound struct {
	Kind       Kind
	PlayerID   string
	Token      string // Raw token as sent by the client
	Name       string // Display name, KindJoin only
	ReceivedAt time.Time

	// Reply receives the outcome of a KindJoin on the worker goroutine.
	// It must not block.
	Reply func(JoinReply)
}

// JoinReply is the outcome of a join
type JoinReply struct {
	Result Result
	Player game.PlayerSnapshot
}

// Release is the canonical token for "stop moving"
const Release = "null"

// Aliases maps accepted spellings to canonical engine tokens
var Aliases = map[string]string{
	// Canonical
	"u":    "u",
	"d":    "d",
	"l":    "l",
	"r":    "r",
	"b":    "b",
	"null": Release,

	// Long forms
	"up":    "u",
	"down":  "d",
	"left":  "l",
	"right": "r",
	"bomb":  "b",
	"stop":  Release,

	// Empty means the key was released
	"": Release,
}

// Normalize maps a raw token to its canonical form (case-insensitive)
func Normalize(token string) (string, bool) {
	canonical, ok := Aliases[strings.ToLower(strings.TrimSpace(token))]
	return canonical, ok
}

// IsRelease reports whether a canonical token stops movement
func IsRelease(canonical string) bool {
	return canonical == Release
}
