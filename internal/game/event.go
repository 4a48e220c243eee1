package game

import (
	"encoding/json"
	"time"
)

// EventType classifies audit log entries
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypePlayerJoin
	EventTypePlayerLeave
	EventTypeBombPlaced
	EventTypeBombExploded
	EventTypeKill
	EventTypeSelfKill
	EventTypeAISpawn
)

// EventVersion is bumped whenever a payload changes shape
const EventVersion uint8 = 1

// Event is a single audit log entry
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`
	TickNum   uint64          `json:"tickNum"`
	PlayerID  string          `json:"playerId"` // Source player, used for rate limiting
	Payload   json.RawMessage `json:"payload"`
}

func (t EventType) String() string {
	switch t {
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	case EventTypeBombPlaced:
		return "bomb_placed"
	case EventTypeBombExploded:
		return "bomb_exploded"
	case EventTypeKill:
		return "kill"
	case EventTypeSelfKill:
		return "self_kill"
	case EventTypeAISpawn:
		return "ai_spawn"
	default:
		return "unknown"
	}
}

// MarshalText lets the JSON log carry readable type names
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// PlayerJoinPayload describes a join or AI spawn
type PlayerJoinPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	SpawnX     int    `json:"spawnX"`
	SpawnY     int    `json:"spawnY"`
	Color      string `json:"color"`
	IsAI       bool   `json:"isAi"`
	Safe       bool   `json:"safe"` // False when the spawn fell back to an unsafe cell
}

// PlayerLeavePayload describes a removal
type PlayerLeavePayload struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"` // "disconnect" or "decayed"
	Points   int    `json:"points"`
}

// BombPayload describes a bomb placement or explosion
type BombPayload struct {
	BombID  uint64     `json:"bombId"`
	OwnerID string     `json:"ownerId"`
	X       int        `json:"x"`
	Y       int        `json:"y"`
	Range   BlastRange `json:"range"`
	Victims []string   `json:"victims,omitempty"`
}

// KillPayload describes a kill credited to a bomb owner
type KillPayload struct {
	KillerID     string `json:"killerId"`
	VictimID     string `json:"victimId"`
	BombID       uint64 `json:"bombId"`
	KillerPoints int    `json:"killerPoints"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates an event stamped with the current time
func NewEvent(eventType EventType, tickNum uint64, playerID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
