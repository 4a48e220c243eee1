package command

import (
	"log"

	"bomb-arena/internal/game"
)

// Engine is the slice of the arena the handler drives
type Engine interface {
	JoinPlayer(id, name string) (game.PlayerSnapshot, bool)
	Command(id, token string) bool
	Disconnect(id string) bool
}

// Result describes what happened to an inbound message
type Result int

const (
	Applied Result = iota
	Invalid
	RateLimited
	NotInGame
	ArenaFull
	Respawning // id is still held by a dying player
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case Invalid:
		return "invalid"
	case RateLimited:
		return "rate_limited"
	case NotInGame:
		return "not_in_game"
	case ArenaFull:
		return "arena_full"
	case Respawning:
		return "respawning"
	default:
		return "unknown"
	}
}

// Handler applies inbound messages to the engine
type Handler struct {
	engine      Engine
	rateLimiter *RateLimiter
}

// NewHandler creates a handler with its own per-player rate limiter
func NewHandler(engine Engine, cfg RateLimitConfig) *Handler {
	return &Handler{
		engine:      engine,
		rateLimiter: NewRateLimiter(cfg),
	}
}

// Process handles a single inbound message
func (h *Handler) Process(in Inbound) Result {
	switch in.Kind {
	case KindLeave:
		h.rateLimiter.Forget(in.PlayerID)
		if !h.engine.Disconnect(in.PlayerID) {
			return NotInGame
		}
		return Applied
	case KindCommand:
		return h.handleCommand(in)
	case KindJoin:
		return h.handleJoin(in)
	default:
		return Invalid
	}
}

func (h *Handler) handleCommand(in Inbound) Result {
	token, ok := Normalize(in.Token)
	if !ok {
		// Unknown tokens are dropped silently
		return Invalid
	}

	// Releases are never limited, a dropped key-up would leave the player running
	if !IsRelease(token) && !h.rateLimiter.Allow(in.PlayerID) {
		log.Printf("🚫 Rate limited: %s", in.PlayerID)
		return RateLimited
	}

	if !h.engine.Command(in.PlayerID, token) {
		return NotInGame
	}
	return Applied
}

// handleJoin runs the join on the worker so it is ordered with the
// player's earlier leave and commands
func (h *Handler) handleJoin(in Inbound) Result {
	p, ok := h.engine.JoinPlayer(in.PlayerID, in.Name)

	result := Applied
	switch {
	case !ok:
		result = ArenaFull
	case p.Died:
		result = Respawning
	}

	if in.Reply != nil {
		in.Reply(JoinReply{Result: result, Player: p})
	}
	return result
}

// Close releases the rate limiter
func (h *Handler) Close() {
	h.rateLimiter.Stop()
}
